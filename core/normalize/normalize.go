// core/normalize/normalize.go
package normalize

import (
	"math"

	"scell/core/matrix"
)

// TargetSum is the per-cell total counts are scaled to before log1p.
const TargetSum = 1e4

// Matrix holds log1p-normalized expression with the same sparsity pattern
// as the source counts. Zeros stay zero under log1p, so only non-zero
// entries are stored, column-major like matrix.Counts.
type Matrix struct {
	Genes []string
	Cells []string
	cols  [][]matrix.Entry

	rows [][]rowEntry // built lazily for gene-major access
}

type rowEntry struct {
	Cell  int
	Value float64
}

// LogNormalize scales every cell to targetSum total counts and applies
// log1p. targetSum <= 0 selects TargetSum.
func LogNormalize(c *matrix.Counts, targetSum float64) *Matrix {
	if targetSum <= 0 {
		targetSum = TargetSum
	}
	m := &Matrix{
		Genes: c.Genes,
		Cells: c.Cells,
		cols:  make([][]matrix.Entry, c.NCells()),
	}
	for j := 0; j < c.NCells(); j++ {
		total := c.ColTotal(j)
		if total == 0 {
			continue
		}
		src := c.Col(j)
		col := make([]matrix.Entry, len(src))
		for i, e := range src {
			col[i] = matrix.Entry{Gene: e.Gene, Count: math.Log1p(e.Count * targetSum / total)}
		}
		m.cols[j] = col
	}
	return m
}

func (m *Matrix) NGenes() int { return len(m.Genes) }
func (m *Matrix) NCells() int { return len(m.Cells) }

// Col returns the non-zero normalized entries of cell j.
func (m *Matrix) Col(j int) []matrix.Entry { return m.cols[j] }

// GeneValues writes the dense normalized expression of gene g across all
// cells into dst, which must have length NCells().
func (m *Matrix) GeneValues(g int, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for _, e := range m.geneRow(g) {
		dst[e.Cell] = e.Value
	}
}

func (m *Matrix) geneRow(g int) []rowEntry {
	if m.rows == nil {
		m.rows = make([][]rowEntry, len(m.Genes))
		for j, col := range m.cols {
			for _, e := range col {
				m.rows[e.Gene] = append(m.rows[e.Gene], rowEntry{Cell: j, Value: e.Count})
			}
		}
	}
	return m.rows[g]
}

// GeneNNZ is the number of cells expressing gene g.
func (m *Matrix) GeneNNZ(g int) int { return len(m.geneRow(g)) }
