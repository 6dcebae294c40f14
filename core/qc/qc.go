// core/qc/qc.go
package qc

import (
	"fmt"
	"strings"

	"scell/core/matrix"
)

// Metrics holds the per-cell quality summary.
type Metrics struct {
	Cell          string
	TotalCounts   float64
	DetectedGenes int
	PctMito       float64 // percentage, 0-100
}

// Thresholds are the fixed QC cutoffs. A cell is retained only if it is
// strictly below all three.
type Thresholds struct {
	MaxTotalCounts   float64
	MaxDetectedGenes int
	MaxPctMito       float64
}

// Defaults are the cutoffs used for the E18 heart dataset.
var Defaults = Thresholds{
	MaxTotalCounts:   20000,
	MaxDetectedGenes: 4000,
	MaxPctMito:       15,
}

// Pass reports whether a cell survives the filter. Strict less-than on
// all three metrics; equality is rejection.
func (t Thresholds) Pass(m Metrics) bool {
	return m.TotalCounts < t.MaxTotalCounts &&
		m.DetectedGenes < t.MaxDetectedGenes &&
		m.PctMito < t.MaxPctMito
}

// Compute derives per-cell metrics. Mitochondrial genes are identified by
// a case-insensitive name prefix ("mt-" for mouse).
func Compute(c *matrix.Counts, mitoPrefix string) []Metrics {
	prefix := strings.ToLower(mitoPrefix)
	mito := make([]bool, c.NGenes())
	for i, g := range c.Genes {
		mito[i] = strings.HasPrefix(strings.ToLower(g), prefix)
	}

	out := make([]Metrics, c.NCells())
	for j := 0; j < c.NCells(); j++ {
		var total, mt float64
		col := c.Col(j)
		for _, e := range col {
			total += e.Count
			if mito[e.Gene] {
				mt += e.Count
			}
		}
		m := Metrics{Cell: c.Cells[j], TotalCounts: total, DetectedGenes: len(col)}
		if total > 0 {
			m.PctMito = 100 * mt / total
		}
		out[j] = m
	}
	return out
}

// Filter drops cells violating the thresholds and returns the retained
// submatrix, its metrics, and the retained cell indices into the input.
// Zero surviving cells is a fatal diagnostic.
func Filter(c *matrix.Counts, metrics []Metrics, t Thresholds) (*matrix.Counts, []Metrics, []int, error) {
	if len(metrics) != c.NCells() {
		return nil, nil, nil, fmt.Errorf("qc: %d metrics for %d cells", len(metrics), c.NCells())
	}
	var keep []int
	for j, m := range metrics {
		if t.Pass(m) {
			keep = append(keep, j)
		}
	}
	if len(keep) == 0 {
		return nil, nil, nil, fmt.Errorf("qc: no cells pass thresholds (total<%g, genes<%d, mito%%<%g)",
			t.MaxTotalCounts, t.MaxDetectedGenes, t.MaxPctMito)
	}
	sub, err := c.SubsetCells(keep)
	if err != nil {
		return nil, nil, nil, err
	}
	kept := make([]Metrics, len(keep))
	for i, j := range keep {
		kept[i] = metrics[j]
	}
	return sub, kept, keep, nil
}
