// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"scell/core/enrich"
	"scell/core/markers"
	"scell/core/qc"
)

// Table writer registries (format → handler), populated from init()
// blocks in the per-table files. Last registration wins.
var (
	MarkerWriters     = map[string]func(w io.Writer, rows []markers.Marker) error{}
	QCWriters         = map[string]func(w io.Writer, rows []qc.Metrics) error{}
	EnrichmentWriters = map[string]func(w io.Writer, rows []enrich.DBResult) error{}
)

func RegisterMarker(format string, fn func(io.Writer, []markers.Marker) error) {
	MarkerWriters[format] = fn
}

func RegisterQC(format string, fn func(io.Writer, []qc.Metrics) error) {
	QCWriters[format] = fn
}

func RegisterEnrichment(format string, fn func(io.Writer, []enrich.DBResult) error) {
	EnrichmentWriters[format] = fn
}

func WriteMarkers(format string, w io.Writer, rows []markers.Marker) error {
	fn, ok := MarkerWriters[format]
	if !ok {
		return fmt.Errorf("unknown marker table format %q (have: %s)", format, formats(MarkerWriters))
	}
	return fn(w, rows)
}

func WriteQC(format string, w io.Writer, rows []qc.Metrics) error {
	fn, ok := QCWriters[format]
	if !ok {
		return fmt.Errorf("unknown QC table format %q (have: %s)", format, formats(QCWriters))
	}
	return fn(w, rows)
}

func WriteEnrichment(format string, w io.Writer, rows []enrich.DBResult) error {
	fn, ok := EnrichmentWriters[format]
	if !ok {
		return fmt.Errorf("unknown enrichment table format %q (have: %s)", format, formats(EnrichmentWriters))
	}
	return fn(w, rows)
}

func formats[T any](m map[string]T) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
