// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"scell/core/cluster"
	"scell/core/embed"
	"scell/core/markers"
	"scell/core/matrix"
	"scell/core/neighbors"
	"scell/core/normalize"
	"scell/core/qc"
	"scell/core/reduce"
	"scell/core/session"
	"scell/internal/config"
)

// Run executes the in-process pipeline stages in order: QC, normalization
// and feature selection, PCA, neighbor graph, clustering, embedding,
// marker discovery, annotation. Each stage consumes the previous
// snapshot and produces a new one. Enrichment is not run here: it is the
// only stage with an external dependency and its failure must not undo
// this work (the app layer runs it and degrades gracefully).
func Run(ctx context.Context, raw *matrix.Counts, cfg config.Config, log *zap.Logger) (session.Session, error) {
	s := session.New(raw)
	log.Info("loaded matrix", zap.Int("genes", raw.NGenes()), zap.Int("cells", raw.NCells()))

	if err := ctx.Err(); err != nil {
		return s, err
	}

	// Quality control.
	all := qc.Compute(raw, cfg.MitoPrefix)
	filtered, kept, _, err := qc.Filter(raw, all, cfg.QCThresholds())
	if err != nil {
		return s, err
	}
	s = s.WithQC(all, kept, filtered)
	log.Info("qc filter",
		zap.Int("cells_in", raw.NCells()),
		zap.Int("cells_kept", filtered.NCells()),
		zap.Int("cells_removed", raw.NCells()-filtered.NCells()))

	if err := ctx.Err(); err != nil {
		return s, err
	}

	// Normalization, HVG selection, scaling.
	nm := normalize.LogNormalize(filtered, 0)
	s = s.WithNormalized(nm)

	nTop := cfg.HVG.NTop
	if nTop > nm.NGenes() {
		nTop = nm.NGenes()
	}
	stats, err := normalize.SelectHVG(nm, nTop, cfg.HVG.NBins)
	if err != nil {
		return s, err
	}
	hvg := normalize.VariableIndices(stats)
	scaled, err := normalize.Scale(nm, hvg, cfg.ScaleMax)
	if err != nil {
		return s, err
	}
	s = s.WithHVG(stats, hvg, scaled)
	log.Info("feature selection", zap.Int("variable_genes", len(hvg)))

	if err := ctx.Err(); err != nil {
		return s, err
	}

	// PCA.
	pca, err := reduce.Project(scaled, cfg.PCAComponents)
	if err != nil {
		return s, err
	}
	s = s.WithPCA(pca)
	_, nPCs := pca.Scores.Dims()
	log.Info("pca", zap.Int("components", nPCs))

	if err := ctx.Err(); err != nil {
		return s, err
	}

	// Neighbor graph, clustering, embedding.
	g, err := neighbors.KNNGraph(pca.Scores, cfg.Neighbors)
	if err != nil {
		return s, err
	}
	s = s.WithGraph(g)

	labels, err := cluster.Louvain(g, filtered.NCells(), cfg.Resolution, cfg.Seed)
	if err != nil {
		return s, err
	}
	s = s.WithClusters(labels)
	log.Info("clustering",
		zap.Int("clusters", len(cluster.Sizes(labels))),
		zap.Float64("resolution", cfg.Resolution),
		zap.Uint64("seed", cfg.Seed))

	coords, err := embed.Coords2D(g, filtered.NCells(), cfg.Seed, 0)
	if err != nil {
		return s, err
	}
	s = s.WithEmbedding(coords)

	if err := ctx.Err(); err != nil {
		return s, err
	}

	// Marker discovery.
	rows, err := markers.RankGenes(nm, labels, cfg.MarkerParams())
	if err != nil {
		return s, err
	}
	s = s.WithMarkers(rows)
	log.Info("marker discovery", zap.Int("markers", len(rows)))

	// Annotation: injected mapping; must cover every observed cluster
	// when present.
	table := cfg.AnnotationTable()
	names, err := table.Apply(labels)
	if err != nil {
		return s, err
	}
	s = s.WithCellTypes(table, names)

	return s, nil
}

// EnrichmentGenes picks the significant marker genes submitted for
// enrichment: the chosen cluster's markers, or every cluster's when
// cluster is negative.
func EnrichmentGenes(s session.Session, clusterOfInterest int, maxAdjP float64) ([]string, error) {
	sig := markers.Significant(s.Markers, maxAdjP)
	if clusterOfInterest >= 0 {
		var sub []markers.Marker
		for _, m := range sig {
			if m.Cluster == clusterOfInterest {
				sub = append(sub, m)
			}
		}
		sig = sub
	}
	genes := markers.Genes(sig)
	if len(genes) == 0 {
		return nil, fmt.Errorf("no significant markers to submit (cluster %d, adj p < %g)", clusterOfInterest, maxAdjP)
	}
	return genes, nil
}
