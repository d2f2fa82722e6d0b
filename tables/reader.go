package tables

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/types"
)

// Reader pages through whole contract tables, retrying each page on failure.
type Reader struct {
	source   PageSource
	code     string
	limit    uint32
	attempts int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

type ReaderOption func(r *Reader)

func WithLimit(limit uint32) ReaderOption {
	return func(r *Reader) {
		if limit > 0 {
			r.limit = limit
		}
	}
}

// WithRetry sets how many times a page is requested and the fixed delay between tries.
func WithRetry(attempts int, delay time.Duration) ReaderOption {
	return func(r *Reader) {
		if attempts > 0 {
			r.attempts = attempts
		}
		r.delay = delay
	}
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ReaderOption {
	return func(r *Reader) {
		r.sleep = sleep
	}
}

func NewReader(source PageSource, code string, opts ...ReaderOption) *Reader {
	r := &Reader{
		source:   source,
		code:     code,
		limit:    DefaultLimit,
		attempts: 3,
		delay:    2 * time.Second,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// fetch requests the same page until it succeeds or the attempts run out.
func (r *Reader) fetch(ctx context.Context, req PageRequest) (*Page, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		page, err := r.source.Page(ctx, req)
		if err == nil {
			return page, nil
		}
		lastErr = err
		pageErrors.WithLabelValues(req.Table).Inc()

		log.Warn().
			Err(err).
			Str("table", req.Table).
			Str("lower_bound", req.LowerBound).
			Int("attempt", attempt).
			Msg("table page request failed")

		if attempt == r.attempts {
			break
		}
		if err := r.sleep(ctx, r.delay); err != nil {
			return nil, errors.Join(err, lastErr)
		}
	}

	return nil, errors.Join(
		fmt.Errorf("%w: %s after %d attempts", ErrReadExhausted, req.Table, r.attempts),
		lastErr,
	)
}

// ReadAll loads every row of a table, keeping the rows accepted by keep. A nil keep
// accepts everything. Any exhausted page fails the whole read.
func ReadAll[T any](ctx context.Context, r *Reader, table, keyField string, keep func(T) bool) ([]T, error) {
	out := make([]T, 0)
	cursor := ""
	pages := 0

	for {
		req := PageRequest{
			Code:       r.code,
			Scope:      r.code,
			Table:      table,
			LowerBound: cursor,
			Limit:      r.limit,
			KeyField:   keyField,
		}

		page, err := r.fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		pages++

		for _, raw := range page.Rows {
			var row T
			if err := json.Unmarshal(raw, &row); err != nil {
				return nil, fmt.Errorf("cannot decode %s row: %w", table, err)
			}
			if keep == nil || keep(row) {
				out = append(out, row)
			}
		}

		if !page.More || len(page.Rows) == 0 {
			break
		}
		if page.NextKey == "" || page.NextKey == cursor {
			return nil, fmt.Errorf("%w: %s at %q", ErrCursorStalled, table, cursor)
		}
		cursor = page.NextKey
	}

	rowsRead.WithLabelValues(table).Set(float64(len(out)))
	log.Debug().Str("table", table).Int("pages", pages).Int("rows", len(out)).Msg("table read")

	return out, nil
}

// StakedNFTs returns every staked asset owned by owner.
func (r *Reader) StakedNFTs(ctx context.Context, owner string) ([]types.StakedNFT, error) {
	rows, err := ReadAll(ctx, r, TableStakedNFT, "asset_id", func(row StakedNFTRow) bool {
		return row.Owner == owner
	})
	if err != nil {
		return nil, err
	}

	nfts := make([]types.StakedNFT, 0, len(rows))
	for _, row := range rows {
		nfts = append(nfts, row.StakedNFT())
	}
	return nfts, nil
}

// Catalog loads the template id to display name mapping.
func (r *Reader) Catalog(ctx context.Context) (types.Catalog, error) {
	rows, err := ReadAll[NFTConfigRow](ctx, r, TableNFTConfig, "template_id", nil)
	if err != nil {
		return nil, err
	}

	catalog := make(types.Catalog, len(rows))
	for _, row := range rows {
		catalog[uint64(row.TemplateID)] = row.Name
	}
	return catalog, nil
}

// FindStakedNFT reads the single stakednft row for an asset.
func (r *Reader) FindStakedNFT(ctx context.Context, assetID uint64) (types.StakedNFT, error) {
	id := strconv.FormatUint(assetID, 10)
	page, err := r.fetch(ctx, PageRequest{
		Code:       r.code,
		Scope:      r.code,
		Table:      TableStakedNFT,
		LowerBound: id,
		UpperBound: id,
		Limit:      1,
		KeyField:   "asset_id",
	})
	if err != nil {
		return types.StakedNFT{}, err
	}

	for _, raw := range page.Rows {
		var row StakedNFTRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return types.StakedNFT{}, fmt.Errorf("cannot decode %s row: %w", TableStakedNFT, err)
		}
		if uint64(row.AssetID) == assetID {
			return row.StakedNFT(), nil
		}
	}

	return types.StakedNFT{}, fmt.Errorf("%w: %d", ErrAssetNotFound, assetID)
}
