package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Store manages the PostgreSQL connection holding the run ledger.
type Store struct {
	conn *pgx.Conn
}

// Run is one recorded golden generation.
type Run struct {
	ID        string
	InputPath string
	WidthIn   int
	HeightIn  int
	WidthOut  int
	HeightOut int
	Scale     float64
	Mode      string
	Units     int
	PerfCyc   *int64
	PerfPix   *int64
	CreatedAt time.Time
}

// Comparison is one recorded golden vs candidate check.
type Comparison struct {
	ID            int64
	RunID         string
	GoldenPath    string
	CandidatePath string
	Matches       int
	Total         int
	MaxDiff       int
	CreatedAt     time.Time
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// initSchema creates the ledger tables if they don't exist (Auto-Migration).
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			input_path TEXT NOT NULL,
			w_in INT NOT NULL,
			h_in INT NOT NULL,
			w_out INT NOT NULL,
			h_out INT NOT NULL,
			scale DOUBLE PRECISION NOT NULL,
			mode TEXT NOT NULL,
			units INT NOT NULL,
			perf_cyc BIGINT,
			perf_pix BIGINT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS comparisons (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT REFERENCES runs(id) ON DELETE CASCADE,
			golden_path TEXT NOT NULL,
			candidate_path TEXT NOT NULL,
			matches INT NOT NULL,
			total INT NOT NULL,
			max_diff INT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS comparisons_run_id_idx ON comparisons (run_id);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// RecordRun registers a run. Re-recording the same id refreshes it and drops
// the comparisons made against the previous output.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM comparisons WHERE run_id = $1", r.ID); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO runs (id, input_path, w_in, h_in, w_out, h_out, scale, mode, units, perf_cyc, perf_pix, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (id) DO UPDATE SET
			input_path = EXCLUDED.input_path,
			mode = EXCLUDED.mode,
			units = EXCLUDED.units,
			perf_cyc = EXCLUDED.perf_cyc,
			perf_pix = EXCLUDED.perf_pix,
			created_at = NOW()
	`, r.ID, r.InputPath, r.WidthIn, r.HeightIn, r.WidthOut, r.HeightOut, r.Scale, r.Mode, r.Units, r.PerfCyc, r.PerfPix)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RecordComparison saves a comparison outcome and returns its id. An empty
// run id stores a comparison not tied to a recorded run.
func (s *Store) RecordComparison(ctx context.Context, c Comparison) (int64, error) {
	var runID *string
	if c.RunID != "" {
		runID = &c.RunID
	}
	var id int64
	err := s.conn.QueryRow(ctx, `
		INSERT INTO comparisons (run_id, golden_path, candidate_path, matches, total, max_diff)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, runID, c.GoldenPath, c.CandidatePath, c.Matches, c.Total, c.MaxDiff).Scan(&id)
	return id, err
}

// ListRuns returns every recorded run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, input_path, w_in, h_in, w_out, h_out, scale, mode, units, perf_cyc, perf_pix, created_at
		FROM runs
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.InputPath, &r.WidthIn, &r.HeightIn, &r.WidthOut, &r.HeightOut,
			&r.Scale, &r.Mode, &r.Units, &r.PerfCyc, &r.PerfPix, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetComparisons returns the comparisons recorded against a run, oldest first.
func (s *Store) GetComparisons(ctx context.Context, runID string) ([]Comparison, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, run_id, golden_path, candidate_path, matches, total, max_diff, created_at
		FROM comparisons
		WHERE run_id = $1
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comparison
	for rows.Next() {
		var c Comparison
		if err := rows.Scan(&c.ID, &c.RunID, &c.GoldenPath, &c.CandidatePath, &c.Matches, &c.Total, &c.MaxDiff, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Reset drops all ledger tables. The next New recreates them.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS comparisons CASCADE;
		DROP TABLE IF EXISTS runs CASCADE;
	`)
	return err
}
