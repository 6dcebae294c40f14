// core/normalize/hvg.go
package normalize

import (
	"fmt"
	"math"
	"sort"
)

// GeneStats is the per-gene variability record produced by feature
// selection. Set once; read-only downstream.
type GeneStats struct {
	Gene           string
	Mean           float64 // mean of expm1(normalized) across cells
	Dispersion     float64 // variance / mean
	NormDispersion float64 // dispersion z-scored within mean bins
	Variable       bool
}

// SelectHVG ranks genes by binned normalized dispersion and flags the top
// nTop as highly variable. Statistics are computed on expm1 of the
// log-normalized values, binned into nBins groups by mean expression;
// within each bin the dispersion is centered and scaled by the bin's
// mean and standard deviation.
func SelectHVG(m *Matrix, nTop, nBins int) ([]GeneStats, error) {
	nGenes, nCells := m.NGenes(), m.NCells()
	if nCells < 2 {
		return nil, fmt.Errorf("hvg: need at least 2 cells, have %d", nCells)
	}
	if nTop <= 0 || nTop > nGenes {
		return nil, fmt.Errorf("hvg: nTop %d out of range (1..%d)", nTop, nGenes)
	}
	if nBins <= 0 {
		nBins = 20
	}

	stats := make([]GeneStats, nGenes)
	buf := make([]float64, nCells)
	for g := 0; g < nGenes; g++ {
		m.GeneValues(g, buf)
		var sum, sumsq float64
		for _, v := range buf {
			e := math.Expm1(v)
			sum += e
			sumsq += e * e
		}
		mean := sum / float64(nCells)
		variance := (sumsq - float64(nCells)*mean*mean) / float64(nCells-1)
		s := GeneStats{Gene: m.Genes[g], Mean: mean}
		if mean > 0 {
			s.Dispersion = variance / mean
		}
		stats[g] = s
	}

	binNormalize(stats, nBins)

	order := make([]int, nGenes)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return stats[order[a]].NormDispersion > stats[order[b]].NormDispersion
	})
	for _, g := range order[:nTop] {
		stats[g].Variable = true
	}
	return stats, nil
}

// binNormalize z-scores dispersions within equal-occupancy mean bins.
// Bins with a single gene or zero spread keep a normalized dispersion
// equal to the centered value (spread treated as 1).
func binNormalize(stats []GeneStats, nBins int) {
	order := make([]int, len(stats))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return stats[order[a]].Mean < stats[order[b]].Mean })

	per := (len(order) + nBins - 1) / nBins
	if per < 1 {
		per = 1
	}
	for start := 0; start < len(order); start += per {
		end := start + per
		if end > len(order) {
			end = len(order)
		}
		bin := order[start:end]

		var sum float64
		for _, g := range bin {
			sum += stats[g].Dispersion
		}
		mean := sum / float64(len(bin))
		var sq float64
		for _, g := range bin {
			d := stats[g].Dispersion - mean
			sq += d * d
		}
		sd := 0.0
		if len(bin) > 1 {
			sd = math.Sqrt(sq / float64(len(bin)-1))
		}
		for _, g := range bin {
			if sd > 0 {
				stats[g].NormDispersion = (stats[g].Dispersion - mean) / sd
			} else {
				stats[g].NormDispersion = stats[g].Dispersion - mean
			}
		}
	}
}

// VariableIndices returns the indices of genes flagged Variable, in gene
// order.
func VariableIndices(stats []GeneStats) []int {
	var idx []int
	for g, s := range stats {
		if s.Variable {
			idx = append(idx, g)
		}
	}
	return idx
}
