// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"scell/core/cluster"
	"scell/core/enrich"
	"scell/core/matrix"
	"scell/core/session"
	"scell/internal/cli"
	"scell/internal/config"
	"scell/internal/logging"
	"scell/internal/pipeline"
	"scell/internal/store"
	"scell/internal/version"
	"scell/internal/writers"
)

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("scell")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		_, _ = cli.ParseArgs(fs, []string{"-h"})
		fs.SetOutput(outw)
		fs.Usage()
		return 0
	}

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(outw)
			fs.Usage()
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(outw)
		fs.Usage()
		return 2
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "scell version %s\n", version.Version)
		return 0
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	applyOverrides(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	log := logging.New(stderr, opts.Quiet)
	defer func() { _ = log.Sync() }()

	raw, err := matrix.LoadDir(opts.Input)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	s, err := pipeline.Run(parent, raw, cfg, log)
	if err != nil {
		if parent.Err() != nil {
			_, _ = fmt.Fprintln(stderr, "interrupted")
			return 130
		}
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}

	genes, results, enrichNote := runEnrichment(parent, s, cfg, log)

	d, err := assembleReport(s, cfg, opts.Input, genes, results, enrichNote)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	if err := writeReport(opts.Report, d); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	log.Info("report written", zap.String("path", opts.Report))

	if err := exportTables(opts, s, results, outw); err != nil {
		if writers.IsBrokenPipe(err) {
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}

	if opts.Archive != "" {
		if err := archiveRun(opts, cfg, s, results); err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 3
		}
		log.Info("run archived", zap.String("path", opts.Archive))
	}
	return 0
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// applyOverrides lets CLI flags win over the config file. Negative
// numeric flags mean "keep the config value".
func applyOverrides(cfg *config.Config, opts cli.Options) {
	if opts.Seed >= 0 {
		cfg.Seed = uint64(opts.Seed)
	}
	if opts.PCs > 0 {
		cfg.PCAComponents = opts.PCs
	}
	if opts.Neighbors > 0 {
		cfg.Neighbors = opts.Neighbors
	}
	if opts.Resolution > 0 {
		cfg.Resolution = opts.Resolution
	}
	if opts.NoEnrich {
		cfg.Enrichment.Disabled = true
	}
	if opts.EnrichURL != "" {
		cfg.Enrichment.BaseURL = opts.EnrichURL
	}
	if opts.EnrichCluster >= -1 {
		cfg.Enrichment.Cluster = opts.EnrichCluster
	}
}

// runEnrichment performs the external lookup. Any failure here degrades
// to a report note; the analysis itself is already complete and must not
// be discarded over a network error.
func runEnrichment(ctx context.Context, s session.Session, cfg config.Config, log *zap.Logger) (genes []string, results []enrich.DBResult, note string) {
	if cfg.Enrichment.Disabled {
		return nil, nil, ""
	}
	genes, err := pipeline.EnrichmentGenes(s, cfg.Enrichment.Cluster, cfg.Markers.MaxAdjP)
	if err != nil {
		log.Warn("enrichment skipped", zap.Error(err))
		return nil, nil, fmt.Sprintf("Enrichment skipped: %v.", err)
	}
	client := enrich.NewClient(cfg.Enrichment.BaseURL, time.Duration(cfg.Enrichment.TimeoutSeconds)*time.Second)
	results, err = client.Query(ctx, genes, cfg.Enrichment.Databases, cfg.Enrichment.TopN)
	if err != nil {
		log.Warn("enrichment failed", zap.Error(err))
		return genes, nil, fmt.Sprintf("Enrichment unavailable: %v. All other results are unaffected.", err)
	}
	for _, db := range results {
		if db.Err != nil {
			log.Warn("enrichment database failed",
				zap.String("database", db.Database), zap.Error(db.Err))
		}
	}
	log.Info("enrichment", zap.Int("genes", len(genes)), zap.Int("databases", len(results)))
	return genes, results, ""
}

func writeReport(path string, d reportData) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := renderReport(fh, d); err != nil {
		_ = fh.Close()
		return fmt.Errorf("report: %w", err)
	}
	return fh.Close()
}

// exportTables writes the optional marker / QC / enrichment tables.
// '-' sends a table to stdout.
func exportTables(opts cli.Options, s session.Session, results []enrich.DBResult, stdout io.Writer) error {
	write := func(path string, fn func(io.Writer) error) error {
		if path == "-" {
			return fn(stdout)
		}
		fh, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := fn(fh); err != nil {
			_ = fh.Close()
			return err
		}
		return fh.Close()
	}
	if opts.MarkersOut != "" {
		if err := write(opts.MarkersOut, func(w io.Writer) error {
			return writers.WriteMarkers(opts.Format, w, s.Markers)
		}); err != nil {
			return fmt.Errorf("markers table: %w", err)
		}
	}
	if opts.QCOut != "" {
		if err := write(opts.QCOut, func(w io.Writer) error {
			return writers.WriteQC(opts.Format, w, s.QCAll)
		}); err != nil {
			return fmt.Errorf("qc table: %w", err)
		}
	}
	if opts.EnrichmentOut != "" {
		if err := write(opts.EnrichmentOut, func(w io.Writer) error {
			return writers.WriteEnrichment(opts.Format, w, results)
		}); err != nil {
			return fmt.Errorf("enrichment table: %w", err)
		}
	}
	return nil
}

func archiveRun(opts cli.Options, cfg config.Config, s session.Session, results []enrich.DBResult) error {
	st, err := store.Open(opts.Archive)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	runID, err := st.SaveRun(store.Run{
		Input:        opts.Input,
		CellsRaw:     s.Raw.NCells(),
		CellsKept:    s.Counts.NCells(),
		Clusters:     len(cluster.Sizes(s.Clusters)),
		Seed:         cfg.Seed,
		Resolution:   cfg.Resolution,
		PCs:          cfg.PCAComponents,
		ExplainedVar: s.PCA.ExplainedVar,
	})
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if err := st.SaveMarkers(runID, s.Markers); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if len(results) > 0 {
		if err := st.SaveEnrichment(runID, results); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
	}
	return nil
}
