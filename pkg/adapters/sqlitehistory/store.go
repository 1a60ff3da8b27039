// Package sqlitehistory persists run reports in an SQLite database so
// capture digests can be compared across runs.
package sqlitehistory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/user/docshot/pkg/ports"
)

// Schema creates the runs and results tables.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	base_url TEXT NOT NULL,
	succeeded INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	cancelled INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	target TEXT NOT NULL,
	status TEXT NOT NULL,
	kind TEXT NOT NULL,
	reason TEXT NOT NULL,
	path TEXT NOT NULL,
	digest TEXT NOT NULL,
	changed INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_target ON results(target, recorded_at);
CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
`

// Store implements ports.HistoryStore on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	// One connection keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveRun stores run and its results in one transaction. Saving a run id
// twice replaces the earlier record.
func (s *Store) SaveRun(ctx context.Context, run ports.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("history: replace run: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, base_url, succeeded, failed, skipped, cancelled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.BaseURL,
		run.Succeeded, run.Failed, run.Skipped, run.Cancelled)
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, target, status, kind, reason, path, digest, changed, duration_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("history: prepare: %w", err)
	}
	defer stmt.Close()
	for _, r := range run.Results {
		recorded := r.RecordedAt
		if recorded.IsZero() {
			recorded = run.FinishedAt
		}
		_, err := stmt.ExecContext(ctx, run.ID, r.Target, r.Status, r.Kind, r.Reason,
			r.Path, r.Digest, r.Changed, r.DurationMs, recorded.UnixMilli())
		if err != nil {
			return fmt.Errorf("history: insert result %s: %w", r.Target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs with their results, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, base_url, succeeded, failed, skipped, cancelled
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	var runs []ports.RunRecord
	for rows.Next() {
		var (
			run               ports.RunRecord
			started, finished int64
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.BaseURL,
			&run.Succeeded, &run.Failed, &run.Skipped, &run.Cancelled); err != nil {
			rows.Close()
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		run.StartedAt = time.UnixMilli(started).UTC()
		run.FinishedAt = time.UnixMilli(finished).UTC()
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}

	for i := range runs {
		results, err := s.query(ctx, `WHERE run_id = ? ORDER BY id`, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Results = results
	}
	return runs, nil
}

// TargetHistory returns up to limit results recorded for target, newest
// first.
func (s *Store) TargetHistory(ctx context.Context, target string, limit int) ([]ports.ResultRecord, error) {
	return s.query(ctx, `WHERE target = ? ORDER BY recorded_at DESC, id DESC LIMIT ?`, target, limit)
}

func (s *Store) query(ctx context.Context, clause string, args ...interface{}) ([]ports.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, target, status, kind, reason, path, digest, changed, duration_ms, recorded_at
		 FROM results `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query results: %w", err)
	}
	defer rows.Close()

	var results []ports.ResultRecord
	for rows.Next() {
		var (
			r        ports.ResultRecord
			recorded int64
		)
		if err := rows.Scan(&r.RunID, &r.Target, &r.Status, &r.Kind, &r.Reason,
			&r.Path, &r.Digest, &r.Changed, &r.DurationMs, &recorded); err != nil {
			return nil, fmt.Errorf("history: scan result: %w", err)
		}
		r.RecordedAt = time.UnixMilli(recorded).UTC()
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements ports.HistoryStore
var _ ports.HistoryStore = (*Store)(nil)
