// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"scell/core/annotate"
	"scell/core/enrich"
	"scell/core/markers"
	"scell/core/qc"
)

// Config is the analyst-supplied run configuration. Everything has a
// default matching the E18 mouse heart analysis; a YAML file overrides
// fields, and CLI flags override the file.
type Config struct {
	MitoPrefix string `yaml:"mito_prefix"`

	QC struct {
		MaxTotalCounts   float64 `yaml:"max_total_counts"`
		MaxDetectedGenes int     `yaml:"max_detected_genes"`
		MaxPctMito       float64 `yaml:"max_pct_mito"`
	} `yaml:"qc"`

	HVG struct {
		NTop  int `yaml:"n_top"`
		NBins int `yaml:"n_bins"`
	} `yaml:"hvg"`

	ScaleMax      float64 `yaml:"scale_max"`
	PCAComponents int     `yaml:"pca_components"`
	Neighbors     int     `yaml:"neighbors"`
	Resolution    float64 `yaml:"resolution"`
	Seed          uint64  `yaml:"seed"`

	Markers struct {
		MinPct   float64 `yaml:"min_pct"`
		MinLogFC float64 `yaml:"min_log_fc"`
		MaxAdjP  float64 `yaml:"max_adj_p"`
	} `yaml:"markers"`

	// CellTypes is the human-in-the-loop cluster annotation table. It is
	// injected configuration, never derived; empty means clusters keep
	// numeric labels.
	CellTypes map[int]string `yaml:"cell_types"`

	Enrichment struct {
		Databases      []string `yaml:"databases"`
		TopN           int      `yaml:"top_n"`
		Cluster        int      `yaml:"cluster"` // cluster of interest, -1 = all significant markers
		BaseURL        string   `yaml:"base_url"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		Disabled       bool     `yaml:"disabled"`
	} `yaml:"enrichment"`

	Report struct {
		Title string `yaml:"title"`
	} `yaml:"report"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.MitoPrefix = "mt-"
	c.QC.MaxTotalCounts = qc.Defaults.MaxTotalCounts
	c.QC.MaxDetectedGenes = qc.Defaults.MaxDetectedGenes
	c.QC.MaxPctMito = qc.Defaults.MaxPctMito
	c.HVG.NTop = 2000
	c.HVG.NBins = 20
	c.ScaleMax = 10
	c.PCAComponents = 30
	c.Neighbors = 15
	c.Resolution = 0.5
	c.Seed = 1
	c.Markers.MinPct = markers.DefaultParams.MinPct
	c.Markers.MinLogFC = markers.DefaultParams.MinLogFC
	c.Markers.MaxAdjP = markers.DefaultParams.MaxAdjP
	c.Enrichment.Databases = append([]string(nil), enrich.DefaultDatabases...)
	c.Enrichment.TopN = enrich.DefaultTopN
	c.Enrichment.Cluster = -1
	c.Enrichment.TimeoutSeconds = 30
	c.Report.Title = "Single-cell RNA-seq exploratory analysis"
	return c
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Validate rejects configurations no stage could run with.
func (c Config) Validate() error {
	if c.QC.MaxTotalCounts <= 0 || c.QC.MaxDetectedGenes <= 0 || c.QC.MaxPctMito <= 0 {
		return fmt.Errorf("config: QC thresholds must be positive")
	}
	if c.HVG.NTop <= 0 {
		return fmt.Errorf("config: hvg.n_top must be positive")
	}
	if c.PCAComponents <= 0 {
		return fmt.Errorf("config: pca_components must be positive")
	}
	if c.Neighbors <= 0 {
		return fmt.Errorf("config: neighbors must be positive")
	}
	if c.Resolution <= 0 {
		return fmt.Errorf("config: resolution must be positive")
	}
	if c.Markers.MinPct < 0 || c.Markers.MinPct > 1 {
		return fmt.Errorf("config: markers.min_pct must be in [0,1]")
	}
	if c.Markers.MaxAdjP <= 0 || c.Markers.MaxAdjP > 1 {
		return fmt.Errorf("config: markers.max_adj_p must be in (0,1]")
	}
	if !c.Enrichment.Disabled && len(c.Enrichment.Databases) == 0 {
		return fmt.Errorf("config: enrichment.databases must not be empty")
	}
	return nil
}

// QCThresholds converts to the qc package's type.
func (c Config) QCThresholds() qc.Thresholds {
	return qc.Thresholds{
		MaxTotalCounts:   c.QC.MaxTotalCounts,
		MaxDetectedGenes: c.QC.MaxDetectedGenes,
		MaxPctMito:       c.QC.MaxPctMito,
	}
}

// MarkerParams converts to the markers package's type.
func (c Config) MarkerParams() markers.Params {
	return markers.Params{
		MinPct:   c.Markers.MinPct,
		MinLogFC: c.Markers.MinLogFC,
		MaxAdjP:  c.Markers.MaxAdjP,
	}
}

// AnnotationTable converts the cell-type map.
func (c Config) AnnotationTable() annotate.Table {
	t := annotate.Table{}
	for k, v := range c.CellTypes {
		t[k] = v
	}
	return t
}
