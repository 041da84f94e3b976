// Package history records command-line runs in a SQLite database so that
// results can be compared across invocations. It uses the pure-Go
// modernc.org/sqlite driver, so no C toolchain is needed.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agbru/primelab/internal/logging"
	"github.com/agbru/primelab/pkg/models"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailure = "failure"
)

// ErrClosed is returned by every method after Close.
var ErrClosed = errors.New("history store is closed")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id       TEXT PRIMARY KEY,
	started  INTEGER NOT NULL,
	duration TEXT NOT NULL,
	limit_n  INTEGER NOT NULL,
	status   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started ON runs(started);
CREATE TABLE IF NOT EXISTS outcomes (
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name     TEXT NOT NULL,
	status   TEXT NOT NULL,
	duration TEXT NOT NULL,
	error    TEXT,
	summary  TEXT,
	PRIMARY KEY (run_id, position)
);`

// Store is a run history backed by SQLite. Its methods are safe for
// concurrent use until Close.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens or creates the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
//
// Parameters:
//   - ctx: The context for the schema statements.
//   - path: The database file.
//   - logger: Receives debug events; nil disables logging.
//
// Returns:
//   - *Store: The store.
//   - error: An error if the database cannot be opened or migrated.
func Open(ctx context.Context, path string, logger logging.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("history: empty database path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared and serialises
	// writers, which SQLite requires anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	if logger == nil {
		logger = nopLogger{}
	}
	logger.Debug("history opened", logging.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return ErrClosed
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// RecordRun stores run and its analyses in one transaction. An empty ID is
// replaced by a new UUID.
//
// Returns:
//   - string: The run ID.
//   - error: An error if the run could not be stored.
func (s *Store) RecordRun(ctx context.Context, run models.Run) (string, error) {
	if s.db == nil {
		return "", ErrClosed
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started, duration, limit_n, status) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Started.UnixNano(), run.Duration, run.Limit, run.Status); err != nil {
		return "", fmt.Errorf("history: insert run: %w", err)
	}
	for i, a := range run.Analyses {
		summary, err := json.Marshal(finiteOnly(a.Summary))
		if err != nil {
			return "", fmt.Errorf("history: encode summary of %s: %w", a.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes (run_id, position, name, status, duration, error, summary) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, a.Name, a.Status, a.Duration, a.Error, string(summary)); err != nil {
			return "", fmt.Errorf("history: insert outcome %s: %w", a.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("history: commit: %w", err)
	}

	s.logger.Debug("run recorded",
		logging.String("id", run.ID),
		logging.Int("analyses", len(run.Analyses)),
		logging.String("status", run.Status))
	return run.ID, nil
}

// Recent returns up to n runs, newest first, with their analyses.
func (s *Store) Recent(ctx context.Context, n int) ([]models.Run, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if n <= 0 {
		return []models.Run{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started, duration, limit_n, status FROM runs ORDER BY started DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	runs := []models.Run{}
	for rows.Next() {
		var r models.Run
		var started int64
		if err := rows.Scan(&r.ID, &started, &r.Duration, &r.Limit, &r.Status); err != nil {
			rows.Close()
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.Started = time.Unix(0, started)
		runs = append(runs, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		outcomes, err := s.outcomes(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Analyses = outcomes
	}
	return runs, nil
}

func (s *Store) outcomes(ctx context.Context, runID string) ([]models.AnalysisOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, status, duration, error, summary FROM outcomes WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: query outcomes: %w", err)
	}
	defer rows.Close()

	out := []models.AnalysisOutcome{}
	for rows.Next() {
		var a models.AnalysisOutcome
		var errText, summary sql.NullString
		if err := rows.Scan(&a.Name, &a.Status, &a.Duration, &errText, &summary); err != nil {
			return nil, fmt.Errorf("history: scan outcome: %w", err)
		}
		a.Error = errText.String
		if summary.Valid && summary.String != "" && summary.String != "null" {
			if err := json.Unmarshal([]byte(summary.String), &a.Summary); err != nil {
				return nil, fmt.Errorf("history: decode summary of %s: %w", a.Name, err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// finiteOnly drops NaN and infinite values, which JSON cannot encode.
func finiteOnly(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

// Count returns the number of recorded runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...logging.Field)         {}
func (nopLogger) Error(string, error, ...logging.Field) {}
func (nopLogger) Debug(string, ...logging.Field)        {}
func (nopLogger) Printf(string, ...any)                 {}
func (nopLogger) Println(...any)                        {}
