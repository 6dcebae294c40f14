// internal/enrichcli/options.go
package enrichcli

import (
	"flag"
	"fmt"
	"strings"

	"scell/core/enrich"
	"scell/internal/version"
)

// Options holds the flags of the standalone enrichment lookup tool.
type Options struct {
	GeneFile string // '-' = stdin
	DBs      string // comma-separated database names
	TopN     int
	BaseURL  string
	Timeout  int // seconds
	Format   string
	Quiet    bool
	Version  bool
}

// Databases splits the flag into database names.
func (o Options) Databases() []string {
	if o.DBs == "" {
		return append([]string(nil), enrich.DefaultDatabases...)
	}
	var out []string
	for _, db := range strings.Split(o.DBs, ",") {
		if db = strings.TrimSpace(db); db != "" {
			out = append(out, db)
		}
	}
	return out
}

func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: gene-set enrichment lookup

Submits a gene list to an Enrichr-protocol service and prints the top
terms per gene-set library.

Version: %s

Usage of %s:
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.StringVar(&opt.GeneFile, "genes", "-", "gene list file, one symbol per line ('-' = stdin) [-]")
	fs.StringVar(&opt.DBs, "databases", strings.Join(enrich.DefaultDatabases, ","),
		"comma-separated gene-set libraries ["+strings.Join(enrich.DefaultDatabases, ",")+"]")
	fs.IntVar(&opt.TopN, "top", enrich.DefaultTopN, "terms kept per library [5]")
	fs.StringVar(&opt.BaseURL, "url", "", "service base URL [Enrichr]")
	fs.IntVar(&opt.Timeout, "timeout", 30, "request timeout in seconds [30]")
	fs.StringVar(&opt.Format, "format", "tsv", "output format: tsv | json | jsonl [tsv]")
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
	if opt.TopN <= 0 {
		return opt, fmt.Errorf("--top must be positive")
	}
	switch opt.Format {
	case "tsv", "json", "jsonl":
	default:
		return opt, fmt.Errorf("unknown --format %q (tsv | json | jsonl)", opt.Format)
	}
	if len(opt.Databases()) == 0 {
		return opt, fmt.Errorf("--databases must name at least one library")
	}
	return opt, nil
}
