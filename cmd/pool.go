package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// storePool connects to Postgres and verifies reachability. Storage being
// unreachable is fatal before any work is attempted.
func storePool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn, err := cfg.Store.DSN()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping database")
	}

	return pool, nil
}
