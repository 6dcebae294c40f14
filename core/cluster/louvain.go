// core/cluster/louvain.go
package cluster

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
)

// DefaultResolution is the modularity resolution used by the pipeline.
const DefaultResolution = 0.5

// Louvain assigns a community label to every node of the neighbor graph
// using modularity-based community detection at the given resolution.
// Node IDs must be 0..n-1 (as built by neighbors.KNNGraph). The seed
// makes the partition reproducible across runs; the original analysis
// left the seed unpinned, here it is explicit.
//
// Labels are relabeled 0..K-1 by descending community size (ties broken
// by smallest member ID) so that cluster 0 is always the largest.
func Louvain(g graph.Undirected, n int, resolution float64, seed uint64) ([]int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cluster: no cells")
	}
	if resolution <= 0 {
		return nil, fmt.Errorf("cluster: resolution %g must be positive", resolution)
	}

	rg := community.Modularize(g, resolution, rand.NewSource(seed))
	comms := rg.Communities()
	if len(comms) == 0 {
		return nil, fmt.Errorf("cluster: community detection produced no communities")
	}

	type comm struct {
		members []int64
		min     int64
	}
	cs := make([]comm, 0, len(comms))
	for _, c := range comms {
		ids := make([]int64, 0, len(c))
		min := int64(n)
		for _, node := range c {
			id := node.ID()
			if id < 0 || id >= int64(n) {
				return nil, fmt.Errorf("cluster: node ID %d out of range [0,%d)", id, n)
			}
			ids = append(ids, id)
			if id < min {
				min = id
			}
		}
		cs = append(cs, comm{members: ids, min: min})
	}
	sort.Slice(cs, func(a, b int) bool {
		if len(cs[a].members) != len(cs[b].members) {
			return len(cs[a].members) > len(cs[b].members)
		}
		return cs[a].min < cs[b].min
	})

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	for label, c := range cs {
		for _, id := range c.members {
			labels[id] = label
		}
	}
	for i, l := range labels {
		if l < 0 {
			return nil, fmt.Errorf("cluster: cell %d not assigned to any community", i)
		}
	}
	return labels, nil
}

// Sizes returns the per-label cell counts of a labeling.
func Sizes(labels []int) []int {
	max := -1
	for _, l := range labels {
		if l > max {
			max = l
		}
	}
	sizes := make([]int, max+1)
	for _, l := range labels {
		sizes[l]++
	}
	return sizes
}
