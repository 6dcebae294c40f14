// internal/writers/qcmetrics.go
package writers

import (
	"encoding/json"
	"fmt"
	"io"

	"scell/core/qc"
)

// QCTSVHeader is the canonical header row for the per-cell QC table.
const QCTSVHeader = "cell\ttotal_counts\tdetected_genes\tpct_mito"

func init() {
	RegisterQC("tsv", writeQCTSV)
	RegisterQC("json", writeQCJSON)
	RegisterQC("jsonl", writeQCJSONL)
}

func writeQCTSV(w io.Writer, rows []qc.Metrics) error {
	if _, err := fmt.Fprintln(w, QCTSVHeader); err != nil {
		return err
	}
	for _, m := range rows {
		_, err := fmt.Fprintf(w, "%s\t%.0f\t%d\t%.4f\n",
			m.Cell, m.TotalCounts, m.DetectedGenes, m.PctMito)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeQCJSON(w io.Writer, rows []qc.Metrics) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeQCJSONL(w io.Writer, rows []qc.Metrics) error {
	enc := json.NewEncoder(w)
	for _, m := range rows {
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return nil
}
