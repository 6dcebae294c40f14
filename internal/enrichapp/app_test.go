// internal/enrichapp/app_test.go
package enrichapp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func stubServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/addList":
			_ = json.NewEncoder(w).Encode(map[string]int64{"userListId": 7})
		case "/enrich":
			db := r.URL.Query().Get("backgroundType")
			_ = json.NewEncoder(w).Encode(map[string][][]interface{}{
				db: {{1, "Muscle contraction", 0.001, 2.0, 80.0, []string{"Myh6"}, 0.003}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestRunFromFile(t *testing.T) {
	srv := stubServer(t)
	defer srv.Close()

	genes := filepath.Join(t.TempDir(), "genes.txt")
	if err := os.WriteFile(genes, []byte("# markers\nMyh6\nNppa\n\nActc1\n"), 0o644); err != nil {
		t.Fatalf("write gene list: %v", err)
	}

	var out, errBuf bytes.Buffer
	code := Run([]string{
		"--genes", genes,
		"--databases", "Mouse_Gene_Atlas",
		"--url", srv.URL,
		"--quiet",
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("exit %d, err=%s", code, errBuf.String())
	}
	if !strings.Contains(out.String(), "Muscle contraction") {
		t.Errorf("output missing term: %q", out.String())
	}
	if !strings.HasPrefix(out.String(), "database\t") {
		t.Errorf("output missing header: %q", out.String())
	}
}

func TestRunEveryAcceptedFormat(t *testing.T) {
	srv := stubServer(t)
	defer srv.Close()

	genes := filepath.Join(t.TempDir(), "genes.txt")
	if err := os.WriteFile(genes, []byte("Myh6\n"), 0o644); err != nil {
		t.Fatalf("write gene list: %v", err)
	}

	for _, format := range []string{"tsv", "json", "jsonl"} {
		var out, errBuf bytes.Buffer
		code := Run([]string{
			"--genes", genes,
			"--databases", "Mouse_Gene_Atlas",
			"--url", srv.URL,
			"--format", format,
			"--quiet",
		}, &out, &errBuf)
		if code != 0 {
			t.Fatalf("format %s: exit %d, err=%s", format, code, errBuf.String())
		}
		if !strings.Contains(out.String(), "Muscle contraction") {
			t.Errorf("format %s: output missing term: %q", format, out.String())
		}
	}
}

func TestRunServiceDownIsFatal(t *testing.T) {
	srv := stubServer(t)
	srv.Close()

	genes := filepath.Join(t.TempDir(), "genes.txt")
	if err := os.WriteFile(genes, []byte("Myh6\n"), 0o644); err != nil {
		t.Fatalf("write gene list: %v", err)
	}

	var out, errBuf bytes.Buffer
	code := Run([]string{"--genes", genes, "--url", srv.URL, "--quiet"}, &out, &errBuf)
	if code != 3 {
		t.Fatalf("exit %d, want 3", code)
	}
}

func TestRunUsageErrors(t *testing.T) {
	var out, errBuf bytes.Buffer
	if code := Run([]string{"--genes", "/does/not/exist"}, &out, &errBuf); code != 2 {
		t.Fatalf("missing gene file: exit %d, want 2", code)
	}
	out.Reset()
	errBuf.Reset()
	if code := Run([]string{"--format", "xml"}, &out, &errBuf); code != 2 {
		t.Fatalf("bad format: exit %d, want 2", code)
	}
	out.Reset()
	errBuf.Reset()
	if code := Run([]string{"--databases", " , "}, &out, &errBuf); code != 2 {
		t.Fatalf("empty databases: exit %d, want 2", code)
	}
}

func TestReadGenesStdin(t *testing.T) {
	genes, err := readGenes("-", strings.NewReader("A\nB\n"))
	if err != nil {
		t.Fatalf("readGenes: %v", err)
	}
	if len(genes) != 2 || genes[0] != "A" {
		t.Fatalf("genes = %v", genes)
	}
	if _, err := readGenes("-", strings.NewReader("\n# only comments\n")); err == nil {
		t.Fatal("empty list accepted")
	}
}
