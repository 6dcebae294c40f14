// internal/writers/markers.go
package writers

import (
	"encoding/json"
	"fmt"
	"io"

	"scell/core/markers"
)

// MarkerTSVHeader is the canonical header row for the marker table.
// Keep this as the single source of truth.
const MarkerTSVHeader = "cluster\tgene\tlog2_fc\tpct_in\tpct_out\tscore\tp_value\tadj_p_value"

func init() {
	RegisterMarker("tsv", writeMarkersTSV)
	RegisterMarker("json", writeMarkersJSON)
	RegisterMarker("jsonl", writeMarkersJSONL)
}

func writeMarkersTSV(w io.Writer, rows []markers.Marker) error {
	if _, err := fmt.Fprintln(w, MarkerTSVHeader); err != nil {
		return err
	}
	for _, m := range rows {
		_, err := fmt.Fprintf(w, "%d\t%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.6g\t%.6g\n",
			m.Cluster, m.Gene, m.Log2FC, m.PctIn, m.PctOut, m.Score, m.PValue, m.AdjPValue)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeMarkersJSON(w io.Writer, rows []markers.Marker) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeMarkersJSONL(w io.Writer, rows []markers.Marker) error {
	enc := json.NewEncoder(w)
	for _, m := range rows {
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return nil
}
