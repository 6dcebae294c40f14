// internal/writers/enrichment.go
package writers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"scell/core/enrich"
)

// EnrichmentTSVHeader is the canonical header row for enrichment output.
const EnrichmentTSVHeader = "database\tterm\tcombined_score\tp_value\tadj_p_value\toverlap"

func init() {
	RegisterEnrichment("tsv", writeEnrichmentTSV)
	RegisterEnrichment("json", writeEnrichmentJSON)
	RegisterEnrichment("jsonl", writeEnrichmentJSONL)
}

func writeEnrichmentTSV(w io.Writer, rows []enrich.DBResult) error {
	if _, err := fmt.Fprintln(w, EnrichmentTSVHeader); err != nil {
		return err
	}
	for _, db := range rows {
		if db.Err != nil {
			// Failed databases surface as an explicit row, not silence.
			if _, err := fmt.Fprintf(w, "%s\tERROR: %v\t\t\t\t\n", db.Database, db.Err); err != nil {
				return err
			}
			continue
		}
		for _, r := range db.Results {
			_, err := fmt.Fprintf(w, "%s\t%s\t%.4f\t%.6g\t%.6g\t%s\n",
				r.Database, r.Term, r.CombinedScore, r.PValue, r.AdjPValue, strings.Join(r.Overlap, ";"))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// dbOut is the JSON shape of one database's outcome; Err is flattened to
// a string so failures survive marshaling.
type dbOut struct {
	Database string          `json:"database"`
	Error    string          `json:"error,omitempty"`
	Results  []enrich.Result `json:"results,omitempty"`
}

func toDBOut(db enrich.DBResult) dbOut {
	o := dbOut{Database: db.Database, Results: db.Results}
	if db.Err != nil {
		o.Error = db.Err.Error()
	}
	return o
}

func writeEnrichmentJSON(w io.Writer, rows []enrich.DBResult) error {
	out := make([]dbOut, 0, len(rows))
	for _, db := range rows {
		out = append(out, toDBOut(db))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeEnrichmentJSONL(w io.Writer, rows []enrich.DBResult) error {
	enc := json.NewEncoder(w)
	for _, db := range rows {
		if err := enc.Encode(toDBOut(db)); err != nil {
			return err
		}
	}
	return nil
}
