// internal/writers/writers_test.go
package writers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"scell/core/enrich"
	"scell/core/markers"
	"scell/core/qc"
)

func TestMarkerTSVHeaderStable(t *testing.T) {
	const want = "cluster\tgene\tlog2_fc\tpct_in\tpct_out\tscore\tp_value\tadj_p_value"
	if MarkerTSVHeader != want {
		t.Fatalf("MarkerTSVHeader changed:\n got:  %q\n want: %q", MarkerTSVHeader, want)
	}
}

func TestWriteMarkersTSV(t *testing.T) {
	rows := []markers.Marker{
		{Cluster: 0, Gene: "Myl7", Log2FC: 2.5, PctIn: 0.9, PctOut: 0.1, Score: 8.1, PValue: 1e-10, AdjPValue: 1e-8},
	}
	var buf bytes.Buffer
	if err := WriteMarkers("tsv", &buf, rows); err != nil {
		t.Fatalf("WriteMarkers: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row", len(lines))
	}
	if !strings.HasPrefix(lines[1], "0\tMyl7\t") {
		t.Fatalf("row = %q", lines[1])
	}
}

func TestWriteMarkersJSONRoundtrips(t *testing.T) {
	rows := []markers.Marker{{Cluster: 1, Gene: "Col1a1", Log2FC: 1.0, AdjPValue: 0.01}}
	var buf bytes.Buffer
	if err := WriteMarkers("json", &buf, rows); err != nil {
		t.Fatalf("WriteMarkers: %v", err)
	}
	var got []markers.Marker
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 1 || got[0].Gene != "Col1a1" {
		t.Fatalf("roundtrip = %+v", got)
	}
}

func TestWriteQCUnknownFormat(t *testing.T) {
	err := WriteQC("xml", &bytes.Buffer{}, []qc.Metrics{})
	if err == nil || !strings.Contains(err.Error(), "xml") {
		t.Fatalf("expected unknown-format error, got %v", err)
	}
}

// Every format the CLIs accept must have a registered writer for every
// table, or a run fails after the work is already done.
func TestAllCLIFormatsRegistered(t *testing.T) {
	for _, format := range []string{"tsv", "json", "jsonl"} {
		if _, ok := MarkerWriters[format]; !ok {
			t.Errorf("marker table: format %q not registered", format)
		}
		if _, ok := QCWriters[format]; !ok {
			t.Errorf("qc table: format %q not registered", format)
		}
		if _, ok := EnrichmentWriters[format]; !ok {
			t.Errorf("enrichment table: format %q not registered", format)
		}
	}
}

func TestWriteEnrichmentJSONL(t *testing.T) {
	rows := []enrich.DBResult{
		{Database: "KEGG_2019_Mouse", Results: []enrich.Result{
			{Database: "KEGG_2019_Mouse", Term: "Cardiac muscle contraction", CombinedScore: 42, AdjPValue: 0.001},
		}},
		{Database: "Mouse_Gene_Atlas", Err: errors.New("request failed after retry")},
	}
	var buf bytes.Buffer
	if err := WriteEnrichment("jsonl", &buf, rows); err != nil {
		t.Fatalf("WriteEnrichment: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want one per database", len(lines))
	}
	var ok struct {
		Database string `json:"database"`
		Results  []enrich.Result
	}
	if err := json.Unmarshal([]byte(lines[0]), &ok); err != nil {
		t.Fatalf("line 0 invalid JSON: %v", err)
	}
	if ok.Database != "KEGG_2019_Mouse" || len(ok.Results) != 1 {
		t.Fatalf("line 0 = %+v", ok)
	}
	var failed struct {
		Database string `json:"database"`
		Error    string `json:"error"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &failed); err != nil {
		t.Fatalf("line 1 invalid JSON: %v", err)
	}
	if failed.Error == "" {
		t.Fatalf("failed database lost its error: %+v", failed)
	}
}

func TestWriteEnrichmentWithFailure(t *testing.T) {
	rows := []enrich.DBResult{
		{Database: "KEGG_2019_Mouse", Results: []enrich.Result{
			{Database: "KEGG_2019_Mouse", Term: "Cardiac muscle contraction", CombinedScore: 42, AdjPValue: 0.001, Overlap: []string{"Myl7"}},
		}},
		{Database: "Mouse_Gene_Atlas", Err: errors.New("request failed after retry")},
	}
	var buf bytes.Buffer
	if err := WriteEnrichment("tsv", &buf, rows); err != nil {
		t.Fatalf("WriteEnrichment: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Cardiac muscle contraction") {
		t.Fatalf("missing result row: %q", out)
	}
	if !strings.Contains(out, "ERROR: request failed after retry") {
		t.Fatalf("failed database not surfaced: %q", out)
	}
}
