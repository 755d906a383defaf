// Package store persists normalized batches into the raw schema and owns
// the mart.fact_sales rebuild.
package store

import (
	"context"
	"time"
)

// Store is the write contract of the pipeline. Postgres implements it for
// real runs; Nop implements it for --dry-run, so the pipeline logic is
// identical in both modes.
type Store interface {
	// InsertRawPayloads appends unprocessed API records as JSONB blobs into
	// a raw capture table. Append-only, write-once.
	InsertRawPayloads(ctx context.Context, table string, records []map[string]any) (int64, error)

	// Append inserts a normalized batch into a raw table with no
	// deduplication.
	Append(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// ReplaceWindow deletes existing rows whose date falls within [from, to]
	// and inserts the batch, all in one transaction. Repeated runs over the
	// same window are idempotent in row count.
	ReplaceWindow(ctx context.Context, table, dateColumn string, from, to time.Time, columns []string, rows [][]any) (int64, error)

	// RebuildFacts atomically rebuilds mart.fact_sales from the raw tables.
	// On failure the previous contents remain visible.
	RebuildFacts(ctx context.Context) error
}
