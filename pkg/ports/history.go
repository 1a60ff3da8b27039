package ports

import (
	"context"
	"time"
)

// HistoryStore persists run reports so digests can be compared across runs.
type HistoryStore interface {
	// SaveRun stores a run and all of its results.
	SaveRun(ctx context.Context, run RunRecord) error

	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// TargetHistory returns up to limit results for one target, newest first.
	TargetHistory(ctx context.Context, target string, limit int) ([]ResultRecord, error)

	// Close releases the store.
	Close() error
}

// RunRecord is the persisted form of a run report.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	BaseURL    string
	Succeeded  int
	Failed     int
	Skipped    int
	Cancelled  bool
	Results    []ResultRecord
}

// ResultRecord is the persisted form of one target result.
type ResultRecord struct {
	RunID      string
	Target     string
	Status     string
	Kind       string
	Reason     string
	Path       string
	Digest     string
	Changed    bool
	DurationMs int64
	RecordedAt time.Time
}
