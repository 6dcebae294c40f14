// core/cluster/louvain_test.go
package cluster

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"scell/core/neighbors"
)

// twoBlobs builds a kNN graph over two well separated groups of cells.
func twoBlobs(t *testing.T) (int, *mat.Dense) {
	t.Helper()
	n := 20
	x := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		off := 0.0
		if i >= n/2 {
			off = 50
		}
		x.Set(i, 0, off+0.3*float64(i%5))
		x.Set(i, 1, off+0.2*float64(i%3))
	}
	return n, x
}

func TestLouvainTwoBlobs(t *testing.T) {
	n, x := twoBlobs(t)
	g, err := neighbors.KNNGraph(x, 4)
	if err != nil {
		t.Fatalf("KNNGraph: %v", err)
	}
	labels, err := Louvain(g, n, 1.0, 1)
	if err != nil {
		t.Fatalf("Louvain: %v", err)
	}
	if len(labels) != n {
		t.Fatalf("got %d labels for %d cells", len(labels), n)
	}
	// All members of a blob share a label, and the blobs differ.
	for i := 1; i < n/2; i++ {
		if labels[i] != labels[0] {
			t.Fatalf("blob 1 split: labels[%d]=%d labels[0]=%d", i, labels[i], labels[0])
		}
	}
	for i := n/2 + 1; i < n; i++ {
		if labels[i] != labels[n/2] {
			t.Fatalf("blob 2 split: labels[%d]=%d", i, labels[i])
		}
	}
	if labels[0] == labels[n/2] {
		t.Fatal("blobs merged into one cluster")
	}
	// Relabeled by size: labels are a contiguous 0..K-1 range.
	sizes := Sizes(labels)
	if len(sizes) != 2 || sizes[0] != 10 || sizes[1] != 10 {
		t.Fatalf("sizes = %v, want [10 10]", sizes)
	}
}

func TestLouvainDeterministic(t *testing.T) {
	n, x := twoBlobs(t)
	g, err := neighbors.KNNGraph(x, 4)
	if err != nil {
		t.Fatalf("KNNGraph: %v", err)
	}
	a, err := Louvain(g, n, 1.0, 7)
	if err != nil {
		t.Fatalf("Louvain: %v", err)
	}
	b, err := Louvain(g, n, 1.0, 7)
	if err != nil {
		t.Fatalf("Louvain: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different labels at cell %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestLouvainRejectsBadResolution(t *testing.T) {
	n, x := twoBlobs(t)
	g, err := neighbors.KNNGraph(x, 4)
	if err != nil {
		t.Fatalf("KNNGraph: %v", err)
	}
	if _, err := Louvain(g, n, 0, 1); err == nil {
		t.Fatal("expected error for resolution 0")
	}
}
