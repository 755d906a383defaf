package mpapi

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MaxPages bounds any pagination sequence. The APIs signal exhaustion via
// empty or short pages, but nothing upstream guarantees they ever do, so a
// run that keeps paging is cut off rather than left to spin forever.
const MaxPages = 1000

// PageFetchOffset fetches one page of records at the given limit/offset.
type PageFetchOffset func(ctx context.Context, limit, offset int) ([]Record, error)

// PageFetchCursor fetches one page of records starting after cursor.
type PageFetchCursor func(ctx context.Context, cursor int64) ([]Record, error)

// FetchAllOffset accumulates every page of an offset/limit-paginated
// endpoint. The offset starts at 0 and advances by pageLimit; the sequence
// terminates when a page is empty or shorter than pageLimit.
func FetchAllOffset(ctx context.Context, op string, pageLimit int, fetch PageFetchOffset) ([]Record, error) {
	log := zap.L().With(zap.String("operation", op))

	var all []Record
	offset := 0
	for page := 0; page < MaxPages; page++ {
		batch, err := fetch(ctx, pageLimit, offset)
		if err != nil {
			return nil, eris.Wrapf(err, "paginate: %s page at offset %d", op, offset)
		}

		log.Debug("fetched page",
			zap.Int("page", page+1),
			zap.Int("offset", offset),
			zap.Int("records", len(batch)),
		)

		if len(batch) == 0 {
			return all, nil
		}
		all = append(all, batch...)
		if len(batch) < pageLimit {
			return all, nil
		}
		offset += pageLimit
	}
	return nil, eris.Errorf("paginate: %s exceeded %d pages without exhaustion", op, MaxPages)
}

// FetchAllCursor accumulates every page of a cursor-paginated endpoint. The
// cursor starts at 0 ("from start"); after each page it advances to the
// maximum id among the page's records, as reported by idOf. The sequence
// terminates on the first empty page. limiter, if non-nil, throttles
// between pages as a politeness delay.
func FetchAllCursor(ctx context.Context, op string, limiter *rate.Limiter, idOf func(Record) int64, fetch PageFetchCursor) ([]Record, error) {
	log := zap.L().With(zap.String("operation", op))

	var all []Record
	var cursor int64
	for page := 0; page < MaxPages; page++ {
		batch, err := fetch(ctx, cursor)
		if err != nil {
			return nil, eris.Wrapf(err, "paginate: %s page at cursor %d", op, cursor)
		}

		log.Debug("fetched page",
			zap.Int("page", page+1),
			zap.Int64("cursor", cursor),
			zap.Int("records", len(batch)),
		)

		if len(batch) == 0 {
			return all, nil
		}
		all = append(all, batch...)

		for _, rec := range batch {
			if id := idOf(rec); id > cursor {
				cursor = id
			}
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, eris.Wrapf(err, "paginate: %s throttle", op)
			}
		}
	}
	return nil, eris.Errorf("paginate: %s exceeded %d pages without exhaustion", op, MaxPages)
}
