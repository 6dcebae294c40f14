// internal/report/report.go
package report

import (
	"html/template"
	"io"

	"scell/core/enrich"
	"scell/core/markers"
	"scell/core/qc"
	"scell/internal/figures"
)

// ClusterInfo summarizes one cluster for the report table.
type ClusterInfo struct {
	Label int
	Name  string
	Size  int
}

// Data is everything the report renders. Pure presentation: nothing here
// feeds back into the analysis.
type Data struct {
	Title   string
	Version string

	NCellsRaw  int
	NCellsKept int
	NGenes     int
	Thresholds qc.Thresholds

	NHVG       int
	NPCs       int
	Neighbors  int
	Resolution float64
	Seed       uint64

	Clusters []ClusterInfo

	QCDistributions []figures.Figure
	QCScatter       []figures.Figure
	Elbow           figures.Figure
	Embedding       figures.Figure
	MarkerFigures   []figures.Figure
	TopMarkers      []markers.Marker

	EnrichmentGenes   []string
	EnrichmentCluster string
	Enrichment        []enrich.DBResult
	EnrichmentFigures []figures.Figure

	Notes []string
}

// Render writes the full HTML report.
func Render(w io.Writer, d Data) error {
	return reportTmpl.Execute(w, d)
}

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"svg": func(b []byte) template.HTML { return template.HTML(b) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 70rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
h1, h2 { border-bottom: 1px solid #ddd; padding-bottom: .3rem; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: .3rem .6rem; text-align: left; }
.figs { display: flex; flex-wrap: wrap; gap: 1rem; }
.fig { flex: 0 0 auto; }
.note { background: #f6f6f6; padding: .6rem 1rem; border-left: 3px solid #999; margin: 1rem 0; }
.err { color: #a00; }
footer { margin-top: 2rem; color: #888; font-size: .85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>

<h2>Quality control</h2>
<p>{{.NCellsRaw}} cells &times; {{.NGenes}} genes loaded; {{.NCellsKept}} cells retained
(total counts &lt; {{.Thresholds.MaxTotalCounts}}, detected genes &lt; {{.Thresholds.MaxDetectedGenes}},
mitochondrial counts &lt; {{.Thresholds.MaxPctMito}}%).</p>
<div class="figs">{{range .QCDistributions}}<div class="fig">{{svg .SVG}}</div>{{end}}</div>
<div class="figs">{{range .QCScatter}}<div class="fig">{{svg .SVG}}</div>{{end}}</div>

<h2>Dimensionality reduction</h2>
<p>{{.NHVG}} highly variable genes scaled and reduced to {{.NPCs}} principal components.
The component count is picked by eye from the elbow plot; there is no automatic stopping rule.</p>
<div class="fig">{{svg .Elbow.SVG}}</div>

<h2>Clustering</h2>
<p>Neighbor graph (k = {{.Neighbors}}) in PC space, modularity clustering at
resolution {{.Resolution}}, seed {{.Seed}}. Labels are stable only for this
parameter set; the annotation table below must be re-derived if they change.</p>
<div class="fig">{{svg .Embedding.SVG}}</div>
<table>
<tr><th>Cluster</th><th>Cell type</th><th>Cells</th></tr>
{{range .Clusters}}<tr><td>{{.Label}}</td><td>{{.Name}}</td><td>{{.Size}}</td></tr>{{end}}
</table>

<h2>Cluster markers</h2>
<div class="figs">{{range .MarkerFigures}}<div class="fig">{{svg .SVG}}</div>{{end}}</div>
<table>
<tr><th>Cluster</th><th>Gene</th><th>log2 FC</th><th>pct in</th><th>pct out</th><th>adj. p</th></tr>
{{range .TopMarkers}}<tr><td>{{.Cluster}}</td><td>{{.Gene}}</td><td>{{printf "%.2f" .Log2FC}}</td><td>{{printf "%.2f" .PctIn}}</td><td>{{printf "%.2f" .PctOut}}</td><td>{{printf "%.2g" .AdjPValue}}</td></tr>{{end}}
</table>

<h2>Enrichment</h2>
{{if .Enrichment}}
<p>Significant markers of {{.EnrichmentCluster}} ({{len .EnrichmentGenes}} genes) against each gene-set library.</p>
<div class="figs">{{range .EnrichmentFigures}}<div class="fig">{{svg .SVG}}</div>{{end}}</div>
{{range .Enrichment}}
{{if .Err}}<p class="err">{{.Database}}: lookup failed: {{.Err}}</p>{{else}}
<h3>{{.Database}}</h3>
<table>
<tr><th>Term</th><th>Combined score</th><th>Adj. p</th><th>Overlap</th></tr>
{{range .Results}}<tr><td>{{.Term}}</td><td>{{printf "%.1f" .CombinedScore}}</td><td>{{printf "%.2g" .AdjPValue}}</td><td>{{range $i, $g := .Overlap}}{{if $i}}, {{end}}{{$g}}{{end}}</td></tr>{{end}}
</table>
{{end}}{{end}}
{{else}}<p>Enrichment was not run.</p>{{end}}

{{range .Notes}}<div class="note">{{.}}</div>{{end}}

<footer>generated by scell {{.Version}}</footer>
</body>
</html>
`))
