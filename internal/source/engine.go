package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finsign/marketsync/internal/etl"
	"github.com/finsign/marketsync/internal/mpapi"
	"github.com/finsign/marketsync/internal/store"
)

// Engine runs one ingestion invocation: run-log entry, fetch, normalize,
// load, terminal run-log update. It holds no state across runs.
type Engine struct {
	client *mpapi.Client
	store  store.Store
	runLog *etl.RunLog
	dryRun bool
}

// NewEngine wires the engine. In dry-run mode the run log is not written
// at all; callers pair that with the no-op store.
func NewEngine(client *mpapi.Client, st store.Store, runLog *etl.RunLog, dryRun bool) *Engine {
	return &Engine{client: client, store: st, runLog: runLog, dryRun: dryRun}
}

// Run executes the source end to end and returns the normalized row count.
// The run-log entry reaches exactly one terminal state; the error is also
// returned so the process can exit non-zero.
func (e *Engine) Run(ctx context.Context, src Source) (int64, error) {
	log := zap.L().With(zap.String("source", src.Name()))

	var runID int64
	if !e.dryRun {
		id, err := e.runLog.Start(ctx, src.Name(), src.Endpoint())
		if err != nil {
			return 0, eris.Wrapf(err, "engine: start run for %s", src.Name())
		}
		runID = id
	}

	start := time.Now()
	rows, msg, err := e.ingest(ctx, src, log)
	elapsed := time.Since(start)

	if err != nil {
		log.Error("run failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		if !e.dryRun {
			if logErr := e.runLog.Fail(ctx, runID, err.Error()); logErr != nil {
				log.Error("failed to record run failure", zap.Error(logErr))
			}
		}
		return 0, err
	}

	if !e.dryRun {
		if err := e.runLog.Complete(ctx, runID, rows, msg); err != nil {
			return rows, eris.Wrapf(err, "engine: complete run for %s", src.Name())
		}
	}

	log.Info("run complete",
		zap.Int64("rows", rows),
		zap.String("summary", msg),
		zap.Duration("elapsed", elapsed),
		zap.Bool("dry_run", e.dryRun),
	)
	return rows, nil
}

func (e *Engine) ingest(ctx context.Context, src Source, log *zap.Logger) (int64, string, error) {
	items, err := src.Fetch(ctx, e.client)
	if err != nil {
		return 0, "", eris.Wrapf(err, "engine: fetch %s", src.Name())
	}
	log.Info("fetched records", zap.Int("count", len(items)))

	batch := src.Normalize(items)
	if dropped := len(items) - batch.Len(); dropped > 0 {
		log.Warn("dropped rows during normalization", zap.Int("dropped", dropped))
	}

	rows, msg, err := src.Load(ctx, e.store, items, batch)
	if err != nil {
		return 0, "", eris.Wrapf(err, "engine: load %s", src.Name())
	}
	return rows, msg, nil
}
