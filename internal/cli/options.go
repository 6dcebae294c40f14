// internal/cli/options.go
package cli

import (
	"flag"
	"fmt"

	"scell/internal/version"
)

// Options holds all CLI flags for the scell pipeline binary.
type Options struct {
	// Input
	Input      string // 10x-style matrix directory [*]
	ConfigPath string

	// Parameter overrides (negative = keep config value)
	Seed       int64
	PCs        int
	Neighbors  int
	Resolution float64

	// Enrichment
	NoEnrich      bool
	EnrichURL     string
	EnrichCluster int

	// Output
	Report        string
	MarkersOut    string
	QCOut         string
	EnrichmentOut string
	Format        string
	Archive       string

	Quiet   bool
	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: single-cell RNA-seq exploratory analysis

Runs QC, normalization, PCA, graph clustering, marker discovery,
annotation and gene-set enrichment on a 10x-style matrix directory,
rendering a standalone HTML report.

Version: %s

Usage of %s:
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.StringVar(&opt.Input, "input", "", "10x matrix directory (matrix.mtx + features.tsv + barcodes.tsv) [*]")
	fs.StringVar(&opt.ConfigPath, "config", "", "YAML config with thresholds and cell-type table [none]")

	fs.Int64Var(&opt.Seed, "seed", -1, "random seed for clustering/embedding (-1 = from config) [-1]")
	fs.IntVar(&opt.PCs, "pcs", -1, "principal components to keep (-1 = from config) [-1]")
	fs.IntVar(&opt.Neighbors, "neighbors", -1, "kNN graph neighbor count (-1 = from config) [-1]")
	fs.Float64Var(&opt.Resolution, "resolution", -1, "clustering resolution (-1 = from config) [-1]")

	fs.BoolVar(&opt.NoEnrich, "no-enrich", false, "skip the enrichment lookup [false]")
	fs.StringVar(&opt.EnrichURL, "enrich-url", "", "enrichment service base URL [Enrichr]")
	fs.IntVar(&opt.EnrichCluster, "enrich-cluster", -2, "cluster whose markers are submitted (-1 = all, -2 = from config) [-2]")

	fs.StringVar(&opt.Report, "report", "scell-report.html", "HTML report output path [scell-report.html]")
	fs.StringVar(&opt.MarkersOut, "markers-out", "", "write the marker table to this path ('-' = stdout) [none]")
	fs.StringVar(&opt.QCOut, "qc-out", "", "write the per-cell QC table to this path ('-' = stdout) [none]")
	fs.StringVar(&opt.EnrichmentOut, "enrichment-out", "", "write the enrichment table to this path ('-' = stdout) [none]")
	fs.StringVar(&opt.Format, "format", "tsv", "table format: tsv | json | jsonl [tsv]")
	fs.StringVar(&opt.Archive, "archive", "", "SQLite run archive path [none]")

	fs.BoolVar(&opt.Quiet, "quiet", false, "log warnings only [false]")
	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}
	if opt.Input == "" {
		return opt, fmt.Errorf("--input is required")
	}
	switch opt.Format {
	case "tsv", "json", "jsonl":
	default:
		return opt, fmt.Errorf("unknown --format %q (tsv | json | jsonl)", opt.Format)
	}
	return opt, nil
}
