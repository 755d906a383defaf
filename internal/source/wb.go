package source

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/finsign/marketsync/internal/config"
	"github.com/finsign/marketsync/internal/mpapi"
	"github.com/finsign/marketsync/internal/normalize"
	"github.com/finsign/marketsync/internal/store"
)

const wbReportEndpoint = "/api/v1/supplier/reportDetailByPeriod"

// WB ingests the Wildberries sales report for a date window. The endpoint
// is cursor-paginated on rrdid; the load is a windowed replace over
// [min(batch.date), max(batch.date)] so re-running a period is idempotent.
type WB struct {
	cfg   config.WB
	since time.Time
	until time.Time
}

// NewWB validates the credentials and the date window.
func NewWB(cfg config.WB, since, until time.Time) (*WB, error) {
	if cfg.Token == "" {
		return nil, eris.New("wb: token is required")
	}
	if since.IsZero() || until.IsZero() {
		return nil, eris.New("wb: since and until are required")
	}
	if until.Before(since) {
		return nil, eris.Errorf("wb: until %s precedes since %s",
			until.Format("2006-01-02"), since.Format("2006-01-02"))
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 100000
	}
	return &WB{cfg: cfg, since: since, until: until}, nil
}

func (s *WB) Name() string     { return "wb" }
func (s *WB) Endpoint() string { return wbReportEndpoint }

// recordID reads a report row's pagination id, rrd_id over rrdid.
func recordID(rec mpapi.Record) int64 {
	v := normalize.Coalesce(rec, "rrd_id", "rrdid")
	return int64(normalize.ToFloat(v))
}

func (s *WB) Fetch(ctx context.Context, client *mpapi.Client) ([]mpapi.Record, error) {
	headers := map[string]string{"Authorization": s.cfg.Token}
	url := s.cfg.BaseURL + wbReportEndpoint

	// ~0.2s between pages as a politeness throttle.
	limiter := rate.NewLimiter(rate.Every(200*time.Millisecond), 1)

	return mpapi.FetchAllCursor(ctx, "wb.report", limiter, recordID,
		func(ctx context.Context, cursor int64) ([]mpapi.Record, error) {
			body, err := client.PostJSON(ctx, "wb.report", url, headers, map[string]any{
				"dateFrom": s.since.Format("2006-01-02"),
				"dateTo":   s.until.Format("2006-01-02"),
				"rrdid":    cursor,
				"limit":    s.cfg.PageLimit,
			})
			if err != nil {
				return nil, err
			}
			return mpapi.DecodeRecords(body)
		})
}

// wbSchema fixes the raw.wb_sales column set. The sale date is required:
// a report row without a resolvable date carries no value downstream and
// is dropped. Field names vary across report revisions, hence the chains.
var wbSchema = normalize.Schema{
	Fields: []normalize.Field{
		{Name: "date", Candidates: []string{"sale_dt", "saleDt", "date"}, Kind: normalize.Date, Required: true},
		{Name: "sku", Candidates: []string{"supplierArticle", "sa_article", "sa_name", "nm_id", "barcode"}, Kind: normalize.String, Default: "UNKNOWN"},
		{Name: "region", Candidates: []string{"regionName", "region_name"}, Kind: normalize.String},
		{Name: "quantity", Candidates: []string{"quantity", "sale_qty"}, Kind: normalize.Number},
		{Name: "price", Candidates: []string{"retail_price", "price"}, Kind: normalize.Number},
		{Name: "amount", Candidates: []string{"retail_amount", "retail_price_withdisc_rub"}, Kind: normalize.Number},
	},
}

func (s *WB) Normalize(items []mpapi.Record) normalize.Batch {
	return wbSchema.Apply(items)
}

func (s *WB) Load(ctx context.Context, st store.Store, items []mpapi.Record, batch normalize.Batch) (int64, string, error) {
	rawRows, err := st.InsertRawPayloads(ctx, "wb_sales_raw", items)
	if err != nil {
		return 0, "", err
	}

	from, to, ok := batch.DateWindow("date")
	if !ok {
		// Nothing normalized; leave existing rows untouched.
		return 0, fmt.Sprintf("raw=%d, norm=0", rawRows), nil
	}

	normRows, err := st.ReplaceWindow(ctx, "wb_sales", "date", from, to, batch.Columns, batch.Rows)
	if err != nil {
		return 0, "", err
	}

	return normRows, fmt.Sprintf("raw=%d, norm=%d, window=%s..%s",
		rawRows, normRows, from.Format("2006-01-02"), to.Format("2006-01-02")), nil
}
