// internal/app/report.go
package app

import (
	"fmt"
	"io"

	"scell/core/cluster"
	"scell/core/enrich"
	"scell/core/markers"
	"scell/core/session"
	"scell/internal/config"
	"scell/internal/figures"
	"scell/internal/report"
	"scell/internal/version"
)

type reportData = report.Data

func renderReport(w io.Writer, d reportData) error { return report.Render(w, d) }

// markersPerClusterFigure caps the bar-chart length; the full table is
// still exported via --markers-out.
const markersPerClusterFigure = 5

// assembleReport renders every figure and collects the report payload
// from a finished session.
func assembleReport(s session.Session, cfg config.Config, input string, genes []string, results []enrich.DBResult, note string) (reportData, error) {
	var d reportData
	d.Title = cfg.Report.Title
	d.Version = version.Version

	d.NCellsRaw = s.Raw.NCells()
	d.NCellsKept = s.Counts.NCells()
	d.NGenes = s.Raw.NGenes()
	d.Thresholds = cfg.QCThresholds()

	d.NHVG = len(s.HVG)
	_, d.NPCs = s.PCA.Scores.Dims()
	d.Neighbors = cfg.Neighbors
	d.Resolution = cfg.Resolution
	d.Seed = cfg.Seed

	sizes := cluster.Sizes(s.Clusters)
	for l, n := range sizes {
		d.Clusters = append(d.Clusters, report.ClusterInfo{Label: l, Name: s.Types.Name(l), Size: n})
	}

	var err error
	if d.QCDistributions, err = figures.QCDistributions(s.QCAll); err != nil {
		return d, fmt.Errorf("figures: %w", err)
	}
	if d.QCScatter, err = figures.QCScatter(s.QCAll); err != nil {
		return d, fmt.Errorf("figures: %w", err)
	}
	if d.Elbow, err = figures.Elbow(s.PCA.ExplainedVar); err != nil {
		return d, fmt.Errorf("figures: %w", err)
	}
	if d.Embedding, err = figures.Embedding(s.Embedding, s.Clusters, s.Types); err != nil {
		return d, fmt.Errorf("figures: %w", err)
	}
	for l := range sizes {
		fig, err := figures.MarkerBars(s.Markers, l, s.Types.Name(l), markersPerClusterFigure)
		if err != nil {
			// A cluster can legitimately have no passing markers.
			continue
		}
		d.MarkerFigures = append(d.MarkerFigures, fig)
	}
	d.TopMarkers = markers.TopPerCluster(s.Markers, markersPerClusterFigure)

	d.EnrichmentGenes = genes
	if cfg.Enrichment.Cluster < 0 {
		d.EnrichmentCluster = "all clusters"
	} else {
		d.EnrichmentCluster = fmt.Sprintf("%s (cluster %d)", s.Types.Name(cfg.Enrichment.Cluster), cfg.Enrichment.Cluster)
	}
	d.Enrichment = results
	for _, db := range results {
		fig, err := figures.EnrichmentBars(db)
		if err != nil {
			continue // failed databases are reported in the table instead
		}
		d.EnrichmentFigures = append(d.EnrichmentFigures, fig)
	}

	if note != "" {
		d.Notes = append(d.Notes, note)
	}
	if len(cfg.CellTypes) == 0 {
		d.Notes = append(d.Notes, "No cell-type table was supplied; clusters keep numeric labels. "+
			"Annotate by matching the marker tables against reference atlases and rerun with a cell_types table.")
	}
	d.Notes = append(d.Notes, fmt.Sprintf("Input: %s.", input))
	return d, nil
}
