// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsMatchAnalysis(t *testing.T) {
	c := Default()
	if c.QC.MaxTotalCounts != 20000 || c.QC.MaxDetectedGenes != 4000 || c.QC.MaxPctMito != 15 {
		t.Fatalf("QC defaults wrong: %+v", c.QC)
	}
	if c.PCAComponents != 30 || c.Resolution != 0.5 {
		t.Fatalf("clustering defaults wrong: %d %v", c.PCAComponents, c.Resolution)
	}
	if c.Markers.MinPct != 0.25 || c.Markers.MinLogFC != 0.5 || c.Markers.MaxAdjP != 0.05 {
		t.Fatalf("marker defaults wrong: %+v", c.Markers)
	}
	if len(c.Enrichment.Databases) != 3 {
		t.Fatalf("enrichment databases: %v", c.Enrichment.Databases)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scell.yaml")
	data := `
resolution: 1.2
seed: 7
qc:
  max_pct_mito: 10
cell_types:
  0: Cardiomyocytes
  1: Fibroblasts
enrichment:
  cluster: 1
  databases: [KEGG_2019_Mouse]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Resolution != 1.2 || c.Seed != 7 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.QC.MaxPctMito != 10 {
		t.Fatalf("nested override not applied: %+v", c.QC)
	}
	if c.QC.MaxTotalCounts != 20000 {
		t.Fatalf("unrelated default lost: %+v", c.QC)
	}
	tbl := c.AnnotationTable()
	if tbl[0] != "Cardiomyocytes" || tbl[1] != "Fibroblasts" {
		t.Fatalf("cell types: %v", tbl)
	}
	if len(c.Enrichment.Databases) != 1 || c.Enrichment.Cluster != 1 {
		t.Fatalf("enrichment override: %+v", c.Enrichment)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(c *Config) { c.QC.MaxPctMito = 0 },
		func(c *Config) { c.HVG.NTop = 0 },
		func(c *Config) { c.PCAComponents = -1 },
		func(c *Config) { c.Resolution = 0 },
		func(c *Config) { c.Markers.MinPct = 2 },
		func(c *Config) { c.Enrichment.Databases = nil },
	} {
		c := Default()
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("expected validation error for %+v", c)
		}
	}
}
