// core/neighbors/knn.go
package neighbors

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
)

// DefaultK is the neighbor count used by the pipeline.
const DefaultK = 15

// KNNGraph builds a weighted undirected k-nearest-neighbor graph over the
// rows of scores (cells in PC space). Node IDs are row indices. Edge
// weight is a connectivity score 1/(1+d) with d the Euclidean distance,
// so closer neighbors bind more strongly in community detection and
// layout. The union of each cell's k neighborhoods is kept (an edge
// exists if either endpoint selects the other).
func KNNGraph(scores *mat.Dense, k int) (*simple.WeightedUndirectedGraph, error) {
	n, d := scores.Dims()
	if n < 2 {
		return nil, fmt.Errorf("neighbors: need at least 2 cells, have %d", n)
	}
	if k <= 0 {
		return nil, fmt.Errorf("neighbors: k %d must be positive", k)
	}
	if k > n-1 {
		k = n - 1
	}

	g := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}

	type cand struct {
		j int
		d float64
	}
	cands := make([]cand, 0, n-1)
	for i := 0; i < n; i++ {
		cands = cands[:0]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			var sq float64
			for c := 0; c < d; c++ {
				diff := scores.At(i, c) - scores.At(j, c)
				sq += diff * diff
			}
			cands = append(cands, cand{j: j, d: math.Sqrt(sq)})
		}
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].d != cands[b].d {
				return cands[a].d < cands[b].d
			}
			return cands[a].j < cands[b].j
		})
		for _, c := range cands[:k] {
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(i), simple.Node(c.j), 1/(1+c.d)))
		}
	}
	return g, nil
}
