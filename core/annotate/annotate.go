// core/annotate/annotate.go
package annotate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Table maps integer cluster labels to analyst-authored cell-type names.
// It is configuration, not derived data: the mapping comes from inspecting
// top markers against a reference atlas and must be re-derived whenever
// clustering parameters change.
type Table map[int]string

// Validate checks the table is a total function on the observed label
// set. Unmapped labels are a fatal diagnostic listing every offender.
func (t Table) Validate(labels []int) error {
	seen := map[int]bool{}
	var missing []int
	for _, l := range labels {
		if seen[l] {
			continue
		}
		seen[l] = true
		if _, ok := t[l]; !ok {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		parts := make([]string, len(missing))
		for i, l := range missing {
			parts[i] = strconv.Itoa(l)
		}
		return fmt.Errorf("annotate: clusters with no cell type mapping: %s", strings.Join(parts, ", "))
	}
	return nil
}

// Apply returns the per-cell cell-type names. When the table is empty the
// numeric labels are kept as names ("cluster N"), so annotation stays an
// optional, injected step.
func (t Table) Apply(labels []int) ([]string, error) {
	if len(t) == 0 {
		out := make([]string, len(labels))
		for i, l := range labels {
			out[i] = "cluster " + strconv.Itoa(l)
		}
		return out, nil
	}
	if err := t.Validate(labels); err != nil {
		return nil, err
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = t[l]
	}
	return out, nil
}

// Name returns the display name for a cluster label.
func (t Table) Name(label int) string {
	if n, ok := t[label]; ok {
		return n
	}
	return "cluster " + strconv.Itoa(label)
}
