// internal/store/store.go
package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"scell/core/enrich"
	"scell/core/markers"
)

// Store is the optional run archive: one SQLite file accumulating run
// metadata, marker tables and enrichment results so reruns can be
// compared without re-parsing reports.
type Store struct {
	db *sql.DB
}

// Run is the per-execution metadata row. ExplainedVar keeps the
// per-component variance fractions so elbow curves of past runs can be
// compared without re-parsing reports.
type Run struct {
	ID           int64
	Input        string
	CellsRaw     int
	CellsKept    int
	Clusters     int
	Seed         uint64
	Resolution   float64
	PCs          int
	ExplainedVar []float64
	CreatedAt    time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	input TEXT NOT NULL,
	cells_raw INTEGER NOT NULL,
	cells_kept INTEGER NOT NULL,
	clusters INTEGER NOT NULL,
	seed INTEGER NOT NULL,
	resolution REAL NOT NULL,
	pcs INTEGER NOT NULL,
	explained_var TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS markers (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	cluster INTEGER NOT NULL,
	gene TEXT NOT NULL,
	log2_fc REAL NOT NULL,
	pct_in REAL NOT NULL,
	pct_out REAL NOT NULL,
	score REAL NOT NULL,
	p_value REAL NOT NULL,
	adj_p_value REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS enrichment (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	db_name TEXT NOT NULL,
	term TEXT NOT NULL,
	combined_score REAL NOT NULL,
	p_value REAL NOT NULL,
	adj_p_value REAL NOT NULL,
	overlap TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT ''
);
`

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveRun inserts the run metadata and returns its ID.
func (s *Store) SaveRun(r Run) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO runs (input, cells_raw, cells_kept, clusters, seed, resolution, pcs, explained_var, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Input, r.CellsRaw, r.CellsKept, r.Clusters, int64(r.Seed), r.Resolution, r.PCs,
		joinFloats(r.ExplainedVar), r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// SaveMarkers archives the full marker table of a run.
func (s *Store) SaveMarkers(runID int64, rows []markers.Marker) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT INTO markers (run_id, cluster, gene, log2_fc, pct_in, pct_out, score, p_value, adj_p_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, m := range rows {
		if _, err := stmt.Exec(runID, m.Cluster, m.Gene, m.Log2FC, m.PctIn, m.PctOut, m.Score, m.PValue, m.AdjPValue); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert marker %s/%d: %w", m.Gene, m.Cluster, err)
		}
	}
	return tx.Commit()
}

// SaveEnrichment archives enrichment outcomes, including per-database
// failures (as rows with a non-empty error column and no term).
func (s *Store) SaveEnrichment(runID int64, rows []enrich.DBResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT INTO enrichment (run_id, db_name, term, combined_score, p_value, adj_p_value, overlap, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, db := range rows {
		if db.Err != nil {
			if _, err := stmt.Exec(runID, db.Database, "", 0.0, 0.0, 0.0, "", db.Err.Error()); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert enrichment failure for %s: %w", db.Database, err)
			}
			continue
		}
		for _, r := range db.Results {
			if _, err := stmt.Exec(runID, r.Database, r.Term, r.CombinedScore, r.PValue, r.AdjPValue,
				strings.Join(r.Overlap, ";"), ""); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert enrichment %s/%s: %w", r.Database, r.Term, err)
			}
		}
	}
	return tx.Commit()
}

// Runs lists archived runs, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, input, cells_raw, cells_kept, clusters, seed, resolution, pcs, explained_var, created_at
		 FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Run
	for rows.Next() {
		var r Run
		var seed int64
		var explained, created string
		if err := rows.Scan(&r.ID, &r.Input, &r.CellsRaw, &r.CellsKept, &r.Clusters, &seed, &r.Resolution, &r.PCs, &explained, &created); err != nil {
			return nil, err
		}
		r.Seed = uint64(seed)
		r.ExplainedVar = splitFloats(explained)
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ";")
}

func splitFloats(s string) []float64 {
	if s == "" {
		return nil
	}
	var out []float64
	for _, p := range strings.Split(s, ";") {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Markers reads back a run's marker table.
func (s *Store) Markers(runID int64) ([]markers.Marker, error) {
	rows, err := s.db.Query(
		`SELECT cluster, gene, log2_fc, pct_in, pct_out, score, p_value, adj_p_value
		 FROM markers WHERE run_id = ? ORDER BY cluster, adj_p_value`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []markers.Marker
	for rows.Next() {
		var m markers.Marker
		if err := rows.Scan(&m.Cluster, &m.Gene, &m.Log2FC, &m.PctIn, &m.PctOut, &m.Score, &m.PValue, &m.AdjPValue); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
