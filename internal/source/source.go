// Package source defines the ingestion sources (one per marketplace API)
// and the engine that runs them.
package source

import (
	"context"

	"github.com/finsign/marketsync/internal/mpapi"
	"github.com/finsign/marketsync/internal/normalize"
	"github.com/finsign/marketsync/internal/store"
)

// Source is one external data provider. Implementations hold no state
// across runs; only the target storage is shared.
type Source interface {
	// Name returns the source identifier recorded in the run log.
	Name() string

	// Endpoint returns the API path recorded in the run log.
	Endpoint() string

	// Fetch retrieves all pages of raw records from the upstream API.
	Fetch(ctx context.Context, client *mpapi.Client) ([]mpapi.Record, error)

	// Normalize maps raw records onto the source's fixed-schema batch.
	Normalize(items []mpapi.Record) normalize.Batch

	// Load persists the raw payloads and the normalized batch. Returns the
	// normalized row count and a free-text summary for the run log.
	Load(ctx context.Context, st store.Store, items []mpapi.Record, batch normalize.Batch) (int64, string, error)
}
