// core/reduce/pca.go
package reduce

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA is the reduced representation: one row of Scores per cell, plus the
// fraction of total variance each retained component explains (elbow-plot
// input). Derived data; recomputed when upstream stages rerun.
type PCA struct {
	Scores       *mat.Dense // cells x k
	ExplainedVar []float64  // length k, fractions of total variance
}

// Project runs principal component analysis on x (cells x features,
// typically the scaled HVG matrix) and projects onto the k leading
// components.
func Project(x *mat.Dense, k int) (*PCA, error) {
	n, d := x.Dims()
	if n < 2 {
		return nil, fmt.Errorf("pca: need at least 2 cells, have %d", n)
	}
	if k <= 0 {
		return nil, fmt.Errorf("pca: component count %d must be positive", k)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, fmt.Errorf("pca: decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	_, nComp := vecs.Dims()
	if k > nComp {
		k = nComp
	}

	// Center columns so scores are mean-zero per component.
	centered := mat.NewDense(n, d, nil)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, x)
		var sum float64
		for _, v := range col {
			sum += v
		}
		mean := sum / float64(n)
		for i, v := range col {
			centered.Set(i, j, v-mean)
		}
	}

	scores := mat.NewDense(n, k, nil)
	scores.Mul(centered, vecs.Slice(0, d, 0, k))

	var total float64
	for _, v := range vars {
		total += v
	}
	frac := make([]float64, k)
	for i := 0; i < k; i++ {
		if total > 0 {
			frac[i] = vars[i] / total
		}
	}
	return &PCA{Scores: scores, ExplainedVar: frac}, nil
}
