// core/normalize/scale.go
package normalize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Scale standardizes each selected gene to zero mean and unit variance
// across cells and clips standardized values above maxValue (scanpy-style
// upper clip). The result is dense, cells x len(genes), ready for PCA.
// Genes with zero variance are left as all-zero columns.
func Scale(m *Matrix, genes []int, maxValue float64) (*mat.Dense, error) {
	nCells := m.NCells()
	if nCells < 2 {
		return nil, fmt.Errorf("scale: need at least 2 cells, have %d", nCells)
	}
	if len(genes) == 0 {
		return nil, fmt.Errorf("scale: empty gene selection")
	}

	out := mat.NewDense(nCells, len(genes), nil)
	buf := make([]float64, nCells)
	for k, g := range genes {
		if g < 0 || g >= m.NGenes() {
			return nil, fmt.Errorf("scale: gene index %d out of range [0,%d)", g, m.NGenes())
		}
		m.GeneValues(g, buf)
		var sum, sumsq float64
		for _, v := range buf {
			sum += v
			sumsq += v * v
		}
		mean := sum / float64(nCells)
		variance := (sumsq - float64(nCells)*mean*mean) / float64(nCells-1)
		if variance <= 0 {
			continue
		}
		sd := math.Sqrt(variance)
		for j, v := range buf {
			z := (v - mean) / sd
			if maxValue > 0 && z > maxValue {
				z = maxValue
			}
			out.Set(j, k, z)
		}
	}
	return out, nil
}
