// core/enrich/parse.go
package enrich

import (
	"encoding/json"
	"fmt"
)

// parseEnrichment decodes the Enrichr enrich payload. The wire format is
// a map keyed by database name whose values are positional arrays:
// [rank, term, p-value, z-score, combined score, overlap genes,
// adjusted p-value, old p, old adjusted p].
func parseEnrichment(data []byte, database string) ([]Result, error) {
	var payload map[string][]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	rows, ok := payload[database]
	if !ok {
		return nil, fmt.Errorf("payload has no %q key", database)
	}

	out := make([]Result, 0, len(rows))
	for i, raw := range rows {
		var fields []json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if len(fields) < 7 {
			return nil, fmt.Errorf("row %d: %d fields, want at least 7", i, len(fields))
		}
		r := Result{Database: database}
		if err := json.Unmarshal(fields[1], &r.Term); err != nil {
			return nil, fmt.Errorf("row %d term: %w", i, err)
		}
		if err := json.Unmarshal(fields[2], &r.PValue); err != nil {
			return nil, fmt.Errorf("row %d p-value: %w", i, err)
		}
		if err := json.Unmarshal(fields[4], &r.CombinedScore); err != nil {
			return nil, fmt.Errorf("row %d combined score: %w", i, err)
		}
		if err := json.Unmarshal(fields[5], &r.Overlap); err != nil {
			return nil, fmt.Errorf("row %d overlap: %w", i, err)
		}
		if err := json.Unmarshal(fields[6], &r.AdjPValue); err != nil {
			return nil, fmt.Errorf("row %d adjusted p-value: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}
