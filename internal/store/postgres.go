package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finsign/marketsync/internal/db"
)

// rawSchema holds the ingestion tables; factTable is the rebuild target.
const (
	rawSchema = "raw"
	factTable = "mart.fact_sales"
)

// Postgres implements Store against a pgx pool.
type Postgres struct {
	pool db.Pool
}

// NewPostgres creates a Postgres store on the given pool.
func NewPostgres(pool db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) InsertRawPayloads(ctx context.Context, table string, records []map[string]any) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		blob, err := json.Marshal(rec)
		if err != nil {
			return 0, eris.Wrapf(err, "store: marshal payload for %s", table)
		}
		rows = append(rows, []any{string(blob)})
	}

	return db.CopyInto(ctx, s.pool, rawSchema, table, []string{"payload"}, rows)
}

func (s *Postgres) Append(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return db.CopyInto(ctx, s.pool, rawSchema, table, columns, rows)
}

func (s *Postgres) ReplaceWindow(ctx context.Context, table, dateColumn string, from, to time.Time, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "store: replace window on %s: begin", table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Delete and insert share the transaction so readers never observe an
	// emptied window.
	deleteSQL := fmt.Sprintf(
		"DELETE FROM %s WHERE %s BETWEEN $1 AND $2",
		pgx.Identifier{rawSchema, table}.Sanitize(),
		pgx.Identifier{dateColumn}.Sanitize(),
	)
	tag, err := tx.Exec(ctx, deleteSQL, from, to)
	if err != nil {
		return 0, eris.Wrapf(err, "store: replace window on %s: delete", table)
	}

	n, err := db.CopyIntoTx(ctx, tx, rawSchema, table, columns, rows)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "store: replace window on %s: commit", table)
	}

	zap.L().Info("replaced window",
		zap.String("table", table),
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int64("deleted", tag.RowsAffected()),
		zap.Int64("inserted", n),
	)
	return n, nil
}

// fact rebuild statements: stock-derived revenue is quantity*price; the
// report source carries a row amount and falls back to quantity*price when
// the amount is zero. Cost is unknown upstream and loads as zero; profit is
// a generated column.
const (
	truncateFactsSQL = `TRUNCATE TABLE mart.fact_sales`

	insertOzonFactsSQL = `
		INSERT INTO mart.fact_sales (date, marketplace, sku, region, revenue, cost)
		SELECT
		    COALESCE(date, CURRENT_DATE),
		    'ozon',
		    COALESCE(NULLIF(sku, ''), 'UNKNOWN'),
		    COALESCE(region, ''),
		    SUM(COALESCE(quantity, 0) * COALESCE(price, 0)),
		    0
		FROM raw.ozon_stock
		GROUP BY 1, 2, 3, 4`

	insertWBFactsSQL = `
		INSERT INTO mart.fact_sales (date, marketplace, sku, region, revenue, cost)
		SELECT
		    COALESCE(date, CURRENT_DATE),
		    'wb',
		    COALESCE(NULLIF(sku, ''), 'UNKNOWN'),
		    COALESCE(region, ''),
		    SUM(CASE WHEN COALESCE(amount, 0) <> 0
		             THEN amount
		             ELSE COALESCE(quantity, 0) * COALESCE(price, 0) END),
		    0
		FROM raw.wb_sales
		GROUP BY 1, 2, 3, 4`
)

func (s *Postgres) RebuildFacts(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "store: rebuild facts: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, truncateFactsSQL); err != nil {
		return eris.Wrap(err, "store: rebuild facts: truncate")
	}
	if _, err := tx.Exec(ctx, insertOzonFactsSQL); err != nil {
		return eris.Wrap(err, "store: rebuild facts: load ozon")
	}
	if _, err := tx.Exec(ctx, insertWBFactsSQL); err != nil {
		return eris.Wrap(err, "store: rebuild facts: load wb")
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "store: rebuild facts: commit")
	}

	zap.L().Info("rebuilt fact table", zap.String("table", factTable))
	return nil
}
