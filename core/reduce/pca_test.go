// core/reduce/pca_test.go
package reduce

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestProjectSeparatesGroups(t *testing.T) {
	// Two groups offset along one axis; PC1 must separate them.
	n := 20
	x := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		base := 0.0
		if i >= n/2 {
			base = 10
		}
		x.Set(i, 0, base+0.1*float64(i%5))
		x.Set(i, 1, 0.05*float64(i%3))
		x.Set(i, 2, 0.02*float64(i%2))
	}

	p, err := Project(x, 2)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	r, c := p.Scores.Dims()
	if r != n || c != 2 {
		t.Fatalf("scores dims %dx%d, want %dx2", r, c, n)
	}

	// Group means on PC1 must be far apart relative to spread.
	var m1, m2 float64
	for i := 0; i < n/2; i++ {
		m1 += p.Scores.At(i, 0)
	}
	for i := n / 2; i < n; i++ {
		m2 += p.Scores.At(i, 0)
	}
	m1 /= float64(n / 2)
	m2 /= float64(n / 2)
	if math.Abs(m1-m2) < 5 {
		t.Fatalf("PC1 group means %v vs %v not separated", m1, m2)
	}

	// Explained variance fractions are in [0,1] and ordered.
	if len(p.ExplainedVar) != 2 {
		t.Fatalf("explained var length %d", len(p.ExplainedVar))
	}
	if p.ExplainedVar[0] < p.ExplainedVar[1] {
		t.Fatalf("explained variance not descending: %v", p.ExplainedVar)
	}
	if p.ExplainedVar[0] <= 0 || p.ExplainedVar[0] > 1 {
		t.Fatalf("explained variance out of range: %v", p.ExplainedVar)
	}
}

func TestProjectCapsComponents(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 9})
	p, err := Project(x, 30)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if _, c := p.Scores.Dims(); c != 2 {
		t.Fatalf("components = %d, want capped at 2", c)
	}
}

func TestProjectRejectsBadArgs(t *testing.T) {
	x := mat.NewDense(1, 2, []float64{1, 2})
	if _, err := Project(x, 2); err == nil {
		t.Fatal("expected error for single cell")
	}
	x = mat.NewDense(3, 2, nil)
	if _, err := Project(x, 0); err == nil {
		t.Fatal("expected error for k=0")
	}
}
