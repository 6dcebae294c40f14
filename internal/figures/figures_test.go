// internal/figures/figures_test.go
package figures

import (
	"bytes"
	"testing"

	"scell/core/annotate"
	"scell/core/enrich"
	"scell/core/markers"
	"scell/core/qc"
)

func checkSVG(t *testing.T, f Figure) {
	t.Helper()
	if f.Title == "" {
		t.Fatal("figure has no title")
	}
	if !bytes.Contains(f.SVG, []byte("<svg")) {
		t.Fatalf("figure %q is not SVG", f.Title)
	}
}

func testMetrics() []qc.Metrics {
	ms := make([]qc.Metrics, 30)
	for i := range ms {
		ms[i] = qc.Metrics{
			Cell:          "c",
			TotalCounts:   float64(1000 + 100*i),
			DetectedGenes: 200 + 10*i,
			PctMito:       float64(i % 12),
		}
	}
	return ms
}

func TestQCFigures(t *testing.T) {
	dist, err := QCDistributions(testMetrics())
	if err != nil {
		t.Fatalf("QCDistributions: %v", err)
	}
	if len(dist) != 3 {
		t.Fatalf("want 3 distribution panels, got %d", len(dist))
	}
	for _, f := range dist {
		checkSVG(t, f)
	}

	sc, err := QCScatter(testMetrics())
	if err != nil {
		t.Fatalf("QCScatter: %v", err)
	}
	if len(sc) != 2 {
		t.Fatalf("want 2 scatter panels, got %d", len(sc))
	}
	for _, f := range sc {
		checkSVG(t, f)
	}
}

func TestElbowAndEmbedding(t *testing.T) {
	f, err := Elbow([]float64{0.3, 0.2, 0.1, 0.05})
	if err != nil {
		t.Fatalf("Elbow: %v", err)
	}
	checkSVG(t, f)

	coords := [][2]float64{{0, 0}, {1, 1}, {10, 10}, {11, 11}}
	labels := []int{0, 0, 1, 1}
	emb, err := Embedding(coords, labels, annotate.Table{0: "Cardiomyocytes", 1: "Fibroblasts"})
	if err != nil {
		t.Fatalf("Embedding: %v", err)
	}
	checkSVG(t, emb)

	if _, err := Embedding(coords, labels[:2], nil); err == nil {
		t.Fatal("expected error for coord/label mismatch")
	}
}

func TestMarkerAndEnrichmentBars(t *testing.T) {
	rows := []markers.Marker{
		{Cluster: 0, Gene: "Myl7", Log2FC: 3},
		{Cluster: 0, Gene: "Actc1", Log2FC: 2},
		{Cluster: 1, Gene: "Col1a1", Log2FC: 2.5},
	}
	f, err := MarkerBars(rows, 0, "Cardiomyocytes", 5)
	if err != nil {
		t.Fatalf("MarkerBars: %v", err)
	}
	checkSVG(t, f)
	if _, err := MarkerBars(rows, 9, "none", 5); err == nil {
		t.Fatal("expected error for cluster with no markers")
	}

	db := enrich.DBResult{
		Database: "KEGG_2019_Mouse",
		Results: []enrich.Result{
			{Term: "Cardiac muscle contraction", CombinedScore: 40},
			{Term: "Dilated cardiomyopathy", CombinedScore: 22},
		},
	}
	ef, err := EnrichmentBars(db)
	if err != nil {
		t.Fatalf("EnrichmentBars: %v", err)
	}
	checkSVG(t, ef)
}
