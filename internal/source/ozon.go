package source

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/finsign/marketsync/internal/config"
	"github.com/finsign/marketsync/internal/mpapi"
	"github.com/finsign/marketsync/internal/normalize"
	"github.com/finsign/marketsync/internal/store"
)

const ozonStockEndpoint = "/v2/analytics/stock_on_warehouses"

// Ozon ingests the stock-on-warehouses snapshot. The endpoint is
// offset/limit paginated and the load is append-only: each run captures one
// full snapshot.
type Ozon struct {
	cfg config.Ozon
}

// NewOzon validates the credentials and returns the source. A missing
// credential fails here, before any run-log entry exists.
func NewOzon(cfg config.Ozon) (*Ozon, error) {
	if cfg.ClientID == "" || cfg.APIKey == "" {
		return nil, eris.New("ozon: client_id and api_key are required")
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 1000
	}
	return &Ozon{cfg: cfg}, nil
}

func (s *Ozon) Name() string     { return "ozon" }
func (s *Ozon) Endpoint() string { return ozonStockEndpoint }

func (s *Ozon) Fetch(ctx context.Context, client *mpapi.Client) ([]mpapi.Record, error) {
	headers := map[string]string{
		"Client-Id": s.cfg.ClientID,
		"Api-Key":   s.cfg.APIKey,
	}
	url := s.cfg.BaseURL + ozonStockEndpoint

	return mpapi.FetchAllOffset(ctx, "ozon.stock", s.cfg.PageLimit,
		func(ctx context.Context, limit, offset int) ([]mpapi.Record, error) {
			body, err := client.PostJSON(ctx, "ozon.stock", url, headers, map[string]any{
				"limit":  limit,
				"offset": offset,
			})
			if err != nil {
				return nil, err
			}
			return mpapi.DecodeRecords(body)
		})
}

// ozonSchema fixes the raw.ozon_stock column set. The snapshot date falls
// back to the record's update timestamp and then to the current date.
var ozonSchema = normalize.Schema{
	Fields: []normalize.Field{
		{Name: "date", Candidates: []string{"date", "updated_at"}, Kind: normalize.Date},
		{Name: "warehouse_name", Candidates: []string{"warehouse_name", "warehouseName"}, Kind: normalize.String},
		{Name: "region", Candidates: []string{"region", "region_name"}, Kind: normalize.String},
		{Name: "product_id", Candidates: []string{"product_id", "productId"}, Kind: normalize.String, Default: "UNKNOWN"},
		{Name: "sku", Candidates: []string{"sku", "offer_id"}, Kind: normalize.String, Default: "UNKNOWN"},
		{Name: "item_name", Candidates: []string{"item_name", "name"}, Kind: normalize.String},
		{Name: "quantity", Candidates: []string{"quantity", "free_to_sell_amount"}, Kind: normalize.Number},
		{Name: "reserved", Candidates: []string{"reserved", "reserved_amount"}, Kind: normalize.Number},
		{Name: "price", Candidates: []string{"price"}, Kind: normalize.Number},
	},
}

func (s *Ozon) Normalize(items []mpapi.Record) normalize.Batch {
	return ozonSchema.Apply(items)
}

func (s *Ozon) Load(ctx context.Context, st store.Store, items []mpapi.Record, batch normalize.Batch) (int64, string, error) {
	rawRows, err := st.InsertRawPayloads(ctx, "ozon_stock_raw", items)
	if err != nil {
		return 0, "", err
	}

	normRows, err := st.Append(ctx, "ozon_stock", batch.Columns, batch.Rows)
	if err != nil {
		return 0, "", err
	}

	return normRows, fmt.Sprintf("raw=%d, norm=%d", rawRows, normRows), nil
}
