package tables

import (
	"context"
	"fmt"
	"strconv"

	eos "github.com/eoscanada/eos-go"
	jsoniter "github.com/json-iterator/go"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/rpc"
)

// EOSSource reads table pages from a chain node through the failover client.
type EOSSource struct {
	client *rpc.FailoverClient
}

func NewEOSSource(client *rpc.FailoverClient) *EOSSource {
	return &EOSSource{client: client}
}

func (s *EOSSource) Page(ctx context.Context, req PageRequest) (*Page, error) {
	resp, err := rpc.QueryWithFailover(s.client, func(api *eos.API) (*eos.GetTableRowsResp, error) {
		return api.GetTableRows(ctx, eos.GetTableRowsRequest{
			Code:       req.Code,
			Scope:      req.Scope,
			Table:      req.Table,
			LowerBound: req.LowerBound,
			UpperBound: req.UpperBound,
			Limit:      req.Limit,
			JSON:       true,
		})
	})
	if err != nil {
		return nil, err
	}

	var rows []jsoniter.RawMessage
	if len(resp.Rows) > 0 {
		if err := json.Unmarshal(resp.Rows, &rows); err != nil {
			return nil, fmt.Errorf("cannot decode rows of %s: %w", req.Table, err)
		}
	}

	page := &Page{
		Rows: rows,
		More: resp.More,
	}
	if page.More && len(rows) > 0 && req.KeyField != "" {
		page.NextKey, err = nextKey(rows[len(rows)-1], req.KeyField)
		if err != nil {
			return nil, err
		}
	}
	return page, nil
}

// nextKey returns the primary key following the given row. lower_bound is
// inclusive so the cursor has to move past the last row read.
func nextKey(raw jsoniter.RawMessage, field string) (string, error) {
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", err
	}

	value, ok := fields[field]
	if !ok {
		return "", fmt.Errorf("row has no %q field", field)
	}

	var key eos.Uint64
	if err := json.Unmarshal(value, &key); err != nil {
		return "", fmt.Errorf("cannot read %q as a key: %w", field, err)
	}
	return strconv.FormatUint(uint64(key)+1, 10), nil
}
