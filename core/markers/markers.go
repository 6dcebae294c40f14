// core/markers/markers.go
package markers

import (
	"fmt"
	"math"
	"sort"

	"scell/core/normalize"
)

// Params are the marker-discovery thresholds.
type Params struct {
	MinPct   float64 // minimum expressing fraction in the tested cluster
	MinLogFC float64 // minimum log2 fold-change, positive direction only
	MaxAdjP  float64 // downstream significance cutoff on adjusted p
}

// DefaultParams matches the analysis configuration.
var DefaultParams = Params{MinPct: 0.25, MinLogFC: 0.5, MaxAdjP: 0.05}

// Marker is one (cluster, gene) row of the marker table. Produced once
// per clustering result; read-only downstream.
type Marker struct {
	Cluster   int
	Gene      string
	Log2FC    float64
	PctIn     float64 // fraction of cluster cells expressing the gene
	PctOut    float64 // fraction of other cells expressing the gene
	Score     float64 // rank-sum z statistic
	PValue    float64
	AdjPValue float64
}

// RankGenes compares every cluster against all other cells, gene by gene,
// with a Wilcoxon rank-sum test on the log-normalized values. Adjusted
// p-values are Benjamini-Hochberg across all genes tested within a
// cluster. Only over-expressed genes passing the expression-fraction and
// fold-change floors are reported; rows are ordered by cluster, then
// adjusted p ascending, then fold-change descending.
func RankGenes(nm *normalize.Matrix, labels []int, p Params) ([]Marker, error) {
	nCells := nm.NCells()
	if len(labels) != nCells {
		return nil, fmt.Errorf("markers: %d labels for %d cells", len(labels), nCells)
	}
	if nCells == 0 {
		return nil, fmt.Errorf("markers: no cells")
	}
	nClusters := 0
	for _, l := range labels {
		if l < 0 {
			return nil, fmt.Errorf("markers: negative cluster label %d", l)
		}
		if l+1 > nClusters {
			nClusters = l + 1
		}
	}

	nGenes := nm.NGenes()
	values := make([]float64, nCells)
	var out []Marker
	for c := 0; c < nClusters; c++ {
		inGroup := make([]bool, nCells)
		n1 := 0
		for i, l := range labels {
			if l == c {
				inGroup[i] = true
				n1++
			}
		}
		if n1 == 0 || n1 == nCells {
			continue
		}

		pvals := make([]float64, nGenes)
		rows := make([]Marker, nGenes)
		for g := 0; g < nGenes; g++ {
			nm.GeneValues(g, values)
			row := geneStats(values, inGroup, n1)
			row.Cluster = c
			row.Gene = nm.Genes[g]
			rows[g] = row
			pvals[g] = row.PValue
		}
		adj := benjaminiHochberg(pvals)
		for g := range rows {
			rows[g].AdjPValue = adj[g]
			if rows[g].PctIn >= p.MinPct && rows[g].Log2FC >= p.MinLogFC {
				out = append(out, rows[g])
			}
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Cluster != out[b].Cluster {
			return out[a].Cluster < out[b].Cluster
		}
		if out[a].AdjPValue != out[b].AdjPValue {
			return out[a].AdjPValue < out[b].AdjPValue
		}
		return out[a].Log2FC > out[b].Log2FC
	})
	return out, nil
}

const logFCEps = 1e-9

// geneStats fills every Marker field except Cluster, Gene and AdjPValue.
func geneStats(values []float64, inGroup []bool, n1 int) Marker {
	n := len(values)
	n2 := n - n1

	var nnzIn, nnzOut int
	var sumIn, sumOut float64
	for i, v := range values {
		e := math.Expm1(v)
		if inGroup[i] {
			sumIn += e
			if v != 0 {
				nnzIn++
			}
		} else {
			sumOut += e
			if v != 0 {
				nnzOut++
			}
		}
	}
	m := Marker{
		PctIn:  float64(nnzIn) / float64(n1),
		PctOut: float64(nnzOut) / float64(n2),
		Log2FC: math.Log2((sumIn/float64(n1) + logFCEps) / (sumOut/float64(n2) + logFCEps)),
	}
	m.Score, m.PValue = rankSum(values, inGroup, n1)
	return m
}

// Significant filters the marker table to adjusted p below the cutoff.
func Significant(rows []Marker, maxAdjP float64) []Marker {
	var out []Marker
	for _, m := range rows {
		if m.AdjPValue < maxAdjP {
			out = append(out, m)
		}
	}
	return out
}

// TopPerCluster returns up to n rows per cluster, keeping the input
// order (already ranked by RankGenes).
func TopPerCluster(rows []Marker, n int) []Marker {
	counts := map[int]int{}
	var out []Marker
	for _, m := range rows {
		if counts[m.Cluster] < n {
			out = append(out, m)
			counts[m.Cluster]++
		}
	}
	return out
}

// Genes extracts the deduplicated gene names of a marker slice, in order.
func Genes(rows []Marker) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range rows {
		if !seen[m.Gene] {
			seen[m.Gene] = true
			out = append(out, m.Gene)
		}
	}
	return out
}
