// Package etl provides the ingestion run log and schema migrations shared
// by every data source.
package etl

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/finsign/marketsync/internal/db"
)

// Run statuses. A run is created as running and moves exactly once to a
// terminal state.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusError   = "error"
)

// RunEntry is one row of raw.etl_log: the lifecycle record of a single
// ingestion invocation.
type RunEntry struct {
	ID         int64      `json:"id"`
	Source     string     `json:"source"`
	Endpoint   string     `json:"endpoint"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	RowsLoaded int64      `json:"rows_loaded"`
	Message    string     `json:"message,omitempty"`
}

// RunLog reads and writes raw.etl_log. The schema is guaranteed to exist
// before any run starts (Migrate runs first), so log writes never need to
// be suppressed.
type RunLog struct {
	pool db.Pool
}

// NewRunLog creates a RunLog backed by the given pool.
func NewRunLog(pool db.Pool) *RunLog {
	return &RunLog{pool: pool}
}

// Start inserts a running entry for one ingestion invocation and returns
// its id.
func (l *RunLog) Start(ctx context.Context, source, endpoint string) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx,
		`INSERT INTO raw.etl_log (source, endpoint, status, started_at)
		 VALUES ($1, $2, 'running', now()) RETURNING id`,
		source, endpoint,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "runlog: start run for %s", source)
	}
	return id, nil
}

// Complete marks a run as successfully finished with its loaded row count
// and an optional free-text message.
func (l *RunLog) Complete(ctx context.Context, runID, rowsLoaded int64, message string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE raw.etl_log
		 SET finished_at = now(), status = 'ok', rows_loaded = $1, message = $2
		 WHERE id = $3`,
		rowsLoaded, message, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete run %d", runID)
	}
	return nil
}

// Fail marks a run as failed, carrying the triggering error message.
func (l *RunLog) Fail(ctx context.Context, runID int64, message string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE raw.etl_log
		 SET finished_at = now(), status = 'error', rows_loaded = 0, message = $1
		 WHERE id = $2`,
		message, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail run %d", runID)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (l *RunLog) List(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, source, endpoint, started_at, finished_at, status, rows_loaded, COALESCE(message, '')
		 FROM raw.etl_log ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list")
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		if err := rows.Scan(&e.ID, &e.Source, &e.Endpoint, &e.StartedAt, &e.FinishedAt, &e.Status, &e.RowsLoaded, &e.Message); err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
