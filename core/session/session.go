// core/session/session.go
package session

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"

	"scell/core/annotate"
	"scell/core/markers"
	"scell/core/matrix"
	"scell/core/normalize"
	"scell/core/qc"
	"scell/core/reduce"
)

// Session is the accumulating analysis state. It is passed by value and
// every stage returns a new snapshot with fields added, never mutating
// the one it received; rerunning a stage on an earlier snapshot cannot
// corrupt later ones.
type Session struct {
	Raw *matrix.Counts // as ingested; fixed

	// QC stage.
	QCAll  []qc.Metrics   // pre-filter metrics, one per raw cell
	QC     []qc.Metrics   // metrics of retained cells
	Counts *matrix.Counts // retained submatrix

	// Normalization and feature selection.
	Norm      *normalize.Matrix
	GeneStats []normalize.GeneStats
	HVG       []int // indices of variable genes

	// Reduced representations; recomputed when upstream stages rerun.
	Scaled    *mat.Dense
	PCA       *reduce.PCA
	Graph     *simple.WeightedUndirectedGraph
	Clusters  []int
	Embedding [][2]float64

	// Marker table and annotation.
	Markers   []markers.Marker
	Types     annotate.Table
	CellTypes []string // per retained cell
}

// New starts a session from an ingested count matrix.
func New(raw *matrix.Counts) Session {
	return Session{Raw: raw}
}

// NCells is the number of cells in the current working matrix (post-QC
// once filtering has run, otherwise the raw count).
func (s Session) NCells() int {
	if s.Counts != nil {
		return s.Counts.NCells()
	}
	if s.Raw != nil {
		return s.Raw.NCells()
	}
	return 0
}

func (s Session) WithQC(all, kept []qc.Metrics, filtered *matrix.Counts) Session {
	s.QCAll = all
	s.QC = kept
	s.Counts = filtered
	return s
}

func (s Session) WithNormalized(nm *normalize.Matrix) Session {
	s.Norm = nm
	return s
}

func (s Session) WithHVG(stats []normalize.GeneStats, hvg []int, scaled *mat.Dense) Session {
	s.GeneStats = stats
	s.HVG = hvg
	s.Scaled = scaled
	return s
}

func (s Session) WithPCA(p *reduce.PCA) Session {
	s.PCA = p
	return s
}

func (s Session) WithGraph(g *simple.WeightedUndirectedGraph) Session {
	s.Graph = g
	return s
}

func (s Session) WithClusters(labels []int) Session {
	s.Clusters = labels
	return s
}

func (s Session) WithEmbedding(coords [][2]float64) Session {
	s.Embedding = coords
	return s
}

func (s Session) WithMarkers(rows []markers.Marker) Session {
	s.Markers = rows
	return s
}

func (s Session) WithCellTypes(table annotate.Table, names []string) Session {
	s.Types = table
	s.CellTypes = names
	return s
}
