// internal/integration/integration_test.go
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scell/internal/app"
	"scell/internal/store"
	"scell/testutil"
)

// enrichrStub mimics the two-call Enrichr protocol: one list submission,
// then one positional-array payload per database.
func enrichrStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/addList":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if r.FormValue("list") == "" {
				http.Error(w, "empty list", http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]int64{"userListId": 42})
		case "/enrich":
			db := r.URL.Query().Get("backgroundType")
			payload := map[string][][]interface{}{
				db: {
					{1, "Cardiac muscle contraction", 0.0005, 2.1, 95.0, []string{"Gene000", "Gene001"}, 0.001},
					{2, "Some weaker term", 0.01, 1.1, 12.0, []string{"Gene002"}, 0.04},
				},
			}
			_ = json.NewEncoder(w).Encode(payload)
		default:
			http.NotFound(w, r)
		}
	}))
}

func writeInput(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "tenx")
	syn := testutil.SyntheticCounts(100, 200, 6, 10, 1)
	if err := testutil.WriteTenxDir(dir, syn.Counts); err != nil {
		t.Fatalf("write input dir: %v", err)
	}
	return dir
}

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scell.yaml")
	cfg := `
hvg:
  n_top: 100
neighbors: 10
resolution: 1.0
seed: 1
` + extra
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestEndToEnd(t *testing.T) {
	srv := enrichrStub(t)
	defer srv.Close()

	input := writeInput(t)
	cfg := writeConfig(t, "cell_types:\n  0: alpha\n  1: beta\n  2: gamma\n  3: delta\n  4: epsilon\n  5: zeta\n")
	outDir := t.TempDir()
	report := filepath.Join(outDir, "report.html")
	markersOut := filepath.Join(outDir, "markers.tsv")
	archive := filepath.Join(outDir, "runs.db")

	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		"--input", input,
		"--config", cfg,
		"--report", report,
		"--markers-out", markersOut,
		"--archive", archive,
		"--enrich-url", srv.URL,
		"--quiet",
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("run exit %d, err=%s", code, errBuf.String())
	}

	html, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{
		"<svg", // embedded figures
		"alpha",
		"Cardiac muscle contraction",
		"Mouse_Gene_Atlas",
	} {
		if !strings.Contains(string(html), want) {
			t.Errorf("report missing %q", want)
		}
	}

	tbl, err := os.ReadFile(markersOut)
	if err != nil {
		t.Fatalf("read markers table: %v", err)
	}
	if !strings.HasPrefix(string(tbl), "cluster\tgene") {
		t.Errorf("marker table header wrong: %q", string(tbl[:40]))
	}

	st, err := store.Open(archive)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer func() { _ = st.Close() }()
	runs, err := st.Runs()
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("archived %d runs, want 1", len(runs))
	}
	if runs[0].Clusters != 6 || runs[0].CellsKept != 200 {
		t.Fatalf("archived run %+v", runs[0])
	}
	saved, err := st.Markers(runs[0].ID)
	if err != nil {
		t.Fatalf("read back markers: %v", err)
	}
	if len(saved) == 0 {
		t.Fatal("no markers archived")
	}
}

func TestEndToEndSurvivesEnrichmentOutage(t *testing.T) {
	// A server that is already closed stands in for an unreachable
	// service; the run must still finish with a complete report.
	srv := enrichrStub(t)
	srv.Close()

	input := writeInput(t)
	cfg := writeConfig(t, "")
	report := filepath.Join(t.TempDir(), "report.html")

	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		"--input", input,
		"--config", cfg,
		"--report", report,
		"--enrich-url", srv.URL,
		"--quiet",
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("run exit %d, err=%s", code, errBuf.String())
	}
	html, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(html), "Enrichment unavailable") {
		t.Error("report does not note the enrichment outage")
	}
	if !strings.Contains(string(html), "<svg") {
		t.Error("report lost its figures")
	}
}

func TestNoEnrichFlag(t *testing.T) {
	input := writeInput(t)
	cfg := writeConfig(t, "")
	report := filepath.Join(t.TempDir(), "report.html")

	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		"--input", input,
		"--config", cfg,
		"--report", report,
		"--no-enrich",
		"--quiet",
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("run exit %d, err=%s", code, errBuf.String())
	}
	html, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(html), "Enrichment was not run") {
		t.Error("report should say enrichment was not run")
	}
}

func TestUsageErrors(t *testing.T) {
	var out, errBuf bytes.Buffer
	if code := app.Run([]string{"--report", "x.html"}, &out, &errBuf); code != 2 {
		t.Fatalf("missing --input: exit %d, want 2", code)
	}
	if !strings.Contains(errBuf.String(), "--input is required") {
		t.Errorf("stderr: %q", errBuf.String())
	}

	out.Reset()
	errBuf.Reset()
	if code := app.Run([]string{"--input", "dir", "--format", "xml"}, &out, &errBuf); code != 2 {
		t.Fatalf("bad format: exit %d, want 2", code)
	}

	out.Reset()
	errBuf.Reset()
	if code := app.Run([]string{"--input", "/does/not/exist"}, &out, &errBuf); code != 2 {
		t.Fatalf("missing input dir: exit %d, want 2", code)
	}
}

func TestVersionAndHelp(t *testing.T) {
	var out, errBuf bytes.Buffer
	if code := app.Run([]string{"--version"}, &out, &errBuf); code != 0 {
		t.Fatalf("--version exit %d", code)
	}
	if !strings.Contains(out.String(), "scell version") {
		t.Errorf("version output: %q", out.String())
	}

	out.Reset()
	if code := app.Run([]string{"-h"}, &out, &errBuf); code != 0 {
		t.Fatalf("-h exit %d", code)
	}
	if !strings.Contains(out.String(), "Usage of scell") {
		t.Errorf("help output: %q", out.String())
	}
}

func TestAnnotationTableMustCoverClusters(t *testing.T) {
	input := writeInput(t)
	cfg := writeConfig(t, "cell_types:\n  0: only one\n")
	report := filepath.Join(t.TempDir(), "report.html")

	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		"--input", input,
		"--config", cfg,
		"--report", report,
		"--no-enrich",
		"--quiet",
	}, &out, &errBuf)
	if code != 3 {
		t.Fatalf("partial annotation: exit %d, want 3 (err=%s)", code, errBuf.String())
	}
	if !strings.Contains(errBuf.String(), "cluster") {
		t.Errorf("stderr should name the unmapped clusters: %q", errBuf.String())
	}
}

func TestMarkersToStdout(t *testing.T) {
	input := writeInput(t)
	cfg := writeConfig(t, "")
	report := filepath.Join(t.TempDir(), "report.html")

	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		"--input", input,
		"--config", cfg,
		"--report", report,
		"--markers-out", "-",
		"--no-enrich",
		"--quiet",
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("run exit %d, err=%s", code, errBuf.String())
	}
	if !strings.HasPrefix(out.String(), "cluster\tgene") {
		head := out.String()
		if len(head) > 40 {
			head = head[:40]
		}
		t.Fatalf("stdout marker table header wrong: %q", head)
	}
	if n := strings.Count(out.String(), "\n"); n < 2 {
		t.Fatalf("marker table too short: %d lines", n)
	}
}
