// internal/enrichapp/app.go
package enrichapp

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"scell/core/enrich"
	"scell/internal/enrichcli"
	"scell/internal/logging"
	"scell/internal/version"
	"scell/internal/writers"
)

// RunContext is the scell-enrich entry point: read genes, query the
// service, print the table. Unlike the pipeline binary, a failed lookup
// here is fatal; the lookup is the whole job.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := enrichcli.NewFlagSet("scell-enrich")
	fs.SetOutput(io.Discard)

	opts, err := enrichcli.ParseArgs(fs, argv)
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
		_, _ = fmt.Fprintf(outw, "scell-enrich version %s\n", version.Version)
		return 0
	}

	log := logging.New(stderr, opts.Quiet)
	defer func() { _ = log.Sync() }()

	genes, err := readGenes(opts.GeneFile, os.Stdin)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	client := enrich.NewClient(opts.BaseURL, time.Duration(opts.Timeout)*time.Second)
	results, err := client.Query(parent, genes, opts.Databases(), opts.TopN)
	if err != nil {
		if parent.Err() != nil {
			_, _ = fmt.Fprintln(stderr, "interrupted")
			return 130
		}
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	log.Info("enrichment", zap.Int("genes", len(genes)), zap.Int("databases", len(results)))

	if err := writers.WriteEnrichment(opts.Format, outw, results); err != nil {
		if writers.IsBrokenPipe(err) {
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	return 0
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// readGenes loads one symbol per line, skipping blanks and '#' comments.
func readGenes(path string, stdin io.Reader) ([]string, error) {
	var r io.Reader = stdin
	if path != "-" {
		fh, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("gene list: %w", err)
		}
		defer func() { _ = fh.Close() }()
		r = fh
	}
	var genes []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		genes = append(genes, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("gene list: %w", err)
	}
	if len(genes) == 0 {
		return nil, fmt.Errorf("gene list %s is empty", path)
	}
	return genes, nil
}
