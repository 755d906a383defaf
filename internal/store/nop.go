package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Nop implements Store without touching the database. --dry-run swaps it in
// so every code path still runs, reporting the row counts a real run would
// have written.
type Nop struct{}

// NewNop creates the no-op store.
func NewNop() *Nop { return &Nop{} }

func (Nop) InsertRawPayloads(_ context.Context, table string, records []map[string]any) (int64, error) {
	zap.L().Info("dry-run: skipping raw payload insert",
		zap.String("table", table),
		zap.Int("records", len(records)),
	)
	return int64(len(records)), nil
}

func (Nop) Append(_ context.Context, table string, _ []string, rows [][]any) (int64, error) {
	zap.L().Info("dry-run: skipping append",
		zap.String("table", table),
		zap.Int("rows", len(rows)),
	)
	return int64(len(rows)), nil
}

func (Nop) ReplaceWindow(_ context.Context, table, _ string, from, to time.Time, _ []string, rows [][]any) (int64, error) {
	zap.L().Info("dry-run: skipping windowed replace",
		zap.String("table", table),
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("rows", len(rows)),
	)
	return int64(len(rows)), nil
}

func (Nop) RebuildFacts(context.Context) error {
	zap.L().Info("dry-run: skipping fact rebuild")
	return nil
}
