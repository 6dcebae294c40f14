// internal/figures/figures.go
package figures

import (
	"bytes"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"scell/core/annotate"
	"scell/core/enrich"
	"scell/core/markers"
	"scell/core/qc"
)

// Figure is one rendered SVG panel for the report.
type Figure struct {
	Title string
	SVG   []byte
}

func render(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "svg")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// QCDistributions renders one box plot per QC metric (total counts,
// detected genes, mito percentage) over all cells.
func QCDistributions(ms []qc.Metrics) ([]Figure, error) {
	panels := []struct {
		title string
		sel   func(qc.Metrics) float64
	}{
		{"Total counts per cell", func(m qc.Metrics) float64 { return m.TotalCounts }},
		{"Detected genes per cell", func(m qc.Metrics) float64 { return float64(m.DetectedGenes) }},
		{"Mitochondrial counts (%)", func(m qc.Metrics) float64 { return m.PctMito }},
	}
	var out []Figure
	for _, panel := range panels {
		vals := make(plotter.Values, len(ms))
		for i, m := range ms {
			vals[i] = panel.sel(m)
		}
		p := plot.New()
		p.Title.Text = panel.title
		p.HideX()
		box, err := plotter.NewBoxPlot(vg.Points(40), 0, vals)
		if err != nil {
			return nil, fmt.Errorf("box plot %q: %w", panel.title, err)
		}
		p.Add(box)
		svg, err := render(p, 3*vg.Inch, 4*vg.Inch)
		if err != nil {
			return nil, err
		}
		out = append(out, Figure{Title: panel.title, SVG: svg})
	}
	return out, nil
}

// QCScatter renders total counts against mito percentage and against
// detected genes, the two panels used to pick the thresholds.
func QCScatter(ms []qc.Metrics) ([]Figure, error) {
	panels := []struct {
		title, ylabel string
		sel           func(qc.Metrics) float64
	}{
		{"Counts vs mito fraction", "pct mito", func(m qc.Metrics) float64 { return m.PctMito }},
		{"Counts vs detected genes", "detected genes", func(m qc.Metrics) float64 { return float64(m.DetectedGenes) }},
	}
	var out []Figure
	for _, panel := range panels {
		xys := make(plotter.XYs, len(ms))
		for i, m := range ms {
			xys[i] = plotter.XY{X: m.TotalCounts, Y: panel.sel(m)}
		}
		p := plot.New()
		p.Title.Text = panel.title
		p.X.Label.Text = "total counts"
		p.Y.Label.Text = panel.ylabel
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("scatter %q: %w", panel.title, err)
		}
		sc.Radius = vg.Points(1.5)
		p.Add(sc)
		svg, err := render(p, 4*vg.Inch, 4*vg.Inch)
		if err != nil {
			return nil, err
		}
		out = append(out, Figure{Title: panel.title, SVG: svg})
	}
	return out, nil
}

// Elbow renders the explained-variance-per-component curve used to pick
// the PC count by eye.
func Elbow(explained []float64) (Figure, error) {
	xys := make(plotter.XYs, len(explained))
	for i, v := range explained {
		xys[i] = plotter.XY{X: float64(i + 1), Y: v}
	}
	p := plot.New()
	p.Title.Text = "PCA explained variance"
	p.X.Label.Text = "component"
	p.Y.Label.Text = "variance fraction"
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return Figure{}, fmt.Errorf("elbow plot: %w", err)
	}
	p.Add(line, points)
	svg, err := render(p, 5*vg.Inch, 4*vg.Inch)
	if err != nil {
		return Figure{}, err
	}
	return Figure{Title: "PCA explained variance", SVG: svg}, nil
}

// Embedding renders the 2D embedding with one colored scatter series per
// cluster, legended with the annotated cell-type names.
func Embedding(coords [][2]float64, labels []int, types annotate.Table) (Figure, error) {
	if len(coords) != len(labels) {
		return Figure{}, fmt.Errorf("embedding: %d coords for %d labels", len(coords), len(labels))
	}
	byCluster := map[int]plotter.XYs{}
	maxLabel := 0
	for i, c := range coords {
		l := labels[i]
		byCluster[l] = append(byCluster[l], plotter.XY{X: c[0], Y: c[1]})
		if l > maxLabel {
			maxLabel = l
		}
	}

	p := plot.New()
	p.Title.Text = "Cluster embedding"
	p.X.Label.Text = "dim 1"
	p.Y.Label.Text = "dim 2"
	var args []interface{}
	for l := 0; l <= maxLabel; l++ {
		xys, ok := byCluster[l]
		if !ok {
			continue
		}
		args = append(args, types.Name(l), xys)
	}
	if err := plotutil.AddScatters(p, args...); err != nil {
		return Figure{}, fmt.Errorf("embedding scatter: %w", err)
	}
	svg, err := render(p, 6*vg.Inch, 5*vg.Inch)
	if err != nil {
		return Figure{}, err
	}
	return Figure{Title: "Cluster embedding", SVG: svg}, nil
}

// MarkerBars renders a fold-change bar chart of a cluster's top markers.
func MarkerBars(rows []markers.Marker, cluster int, name string, topN int) (Figure, error) {
	var genes []string
	var vals plotter.Values
	for _, m := range rows {
		if m.Cluster != cluster {
			continue
		}
		genes = append(genes, m.Gene)
		vals = append(vals, m.Log2FC)
		if len(genes) == topN {
			break
		}
	}
	if len(genes) == 0 {
		return Figure{}, fmt.Errorf("no markers for cluster %d", cluster)
	}

	title := fmt.Sprintf("Top markers: %s", name)
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "log2 fold-change"
	bars, err := plotter.NewBarChart(vals, vg.Points(18))
	if err != nil {
		return Figure{}, fmt.Errorf("marker bars: %w", err)
	}
	p.Add(bars)
	p.NominalX(genes...)
	svg, err := render(p, 5*vg.Inch, 4*vg.Inch)
	if err != nil {
		return Figure{}, err
	}
	return Figure{Title: title, SVG: svg}, nil
}

// EnrichmentBars renders one database's top terms as a combined-score
// bar chart.
func EnrichmentBars(db enrich.DBResult) (Figure, error) {
	if db.Err != nil || len(db.Results) == 0 {
		return Figure{}, fmt.Errorf("no results for %s", db.Database)
	}
	var terms []string
	var vals plotter.Values
	for _, r := range db.Results {
		terms = append(terms, r.Term)
		vals = append(vals, r.CombinedScore)
	}
	p := plot.New()
	p.Title.Text = db.Database
	p.Y.Label.Text = "combined score"
	bars, err := plotter.NewBarChart(vals, vg.Points(18))
	if err != nil {
		return Figure{}, fmt.Errorf("enrichment bars: %w", err)
	}
	p.Add(bars)
	p.NominalX(terms...)
	p.X.Tick.Label.Rotation = 0.9
	p.X.Tick.Label.XAlign = -0.9
	svg, err := render(p, 6*vg.Inch, 4.5*vg.Inch)
	if err != nil {
		return Figure{}, err
	}
	return Figure{Title: db.Database, SVG: svg}, nil
}
