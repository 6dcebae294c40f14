// core/embed/embed.go
package embed

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/layout"
)

// DefaultUpdates is the number of layout optimizer sweeps.
const DefaultUpdates = 100

// Coords2D computes a 2D embedding of the neighbor graph with a seeded
// force-directed layout. The embedding is for visualization only; nothing
// downstream reads it back. Node IDs must be 0..n-1.
func Coords2D(g graph.Graph, n int, seed uint64, updates int) ([][2]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("embed: no cells")
	}
	if updates <= 0 {
		updates = DefaultUpdates
	}

	eades := layout.EadesR2{
		Repulsion: 1,
		Rate:      0.05,
		Updates:   updates,
		Theta:     0.1,
		Src:       rand.NewSource(seed),
	}
	opt := layout.NewOptimizerR2(g, eades.Update)
	for opt.Update() {
	}

	out := make([][2]float64, n)
	for i := 0; i < n; i++ {
		v := opt.Coord2(int64(i))
		out[i] = [2]float64{v.X, v.Y}
	}
	return out, nil
}
