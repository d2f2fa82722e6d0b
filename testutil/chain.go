package testutil

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/tables"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/types"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/wallet"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	_ tables.PageSource = (*FakeChain)(nil)
	_ wallet.Submitter  = (*FakeChain)(nil)
)

var (
	ErrNotStaked    = errors.New("asset is not staked")
	ErrNotClaimable = errors.New("assertion failure with message: claim is not available yet")
)

// ClaimCall is a claim received by FakeChain.
type ClaimCall struct {
	AssetID uint64
	At      time.Time
	TxID    string
	Err     error
}

// FakeChain serves the stakednft and nftconfig tables from memory and accepts claims
// against them. A successful claim pushes next_claim forward by Cooldown.
type FakeChain struct {
	mu sync.Mutex

	now      func() time.Time
	Cooldown time.Duration

	staked    map[uint64]types.StakedNFT
	templates map[uint64]string

	pageFailures  int
	pageCalls     int
	claimFailures map[uint64]int
	claims        []ClaimCall
}

func NewFakeChain(now func() time.Time) *FakeChain {
	return &FakeChain{
		now:           now,
		Cooldown:      time.Hour,
		staked:        make(map[uint64]types.StakedNFT),
		templates:     make(map[uint64]string),
		claimFailures: make(map[uint64]int),
	}
}

func (f *FakeChain) Stake(nfts ...types.StakedNFT) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range nfts {
		f.staked[n.AssetID] = n
	}
}

func (f *FakeChain) Unstake(assetID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.staked, assetID)
}

func (f *FakeChain) AddTemplate(templateID uint64, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates[templateID] = name
}

// FailPages makes the next n page requests fail with a transport error.
func (f *FakeChain) FailPages(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageFailures = n
}

// FailClaims makes the next n claims of assetID fail.
func (f *FakeChain) FailClaims(assetID uint64, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimFailures[assetID] = n
}

func (f *FakeChain) PageCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageCalls
}

func (f *FakeChain) Claims() []ClaimCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.claims)
}

// ClaimsOf returns the claims received for one asset.
func (f *FakeChain) ClaimsOf(assetID uint64) []ClaimCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ClaimCall, 0)
	for _, c := range f.claims {
		if c.AssetID == assetID {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeChain) StakedNFT(assetID uint64) (types.StakedNFT, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.staked[assetID]
	return n, ok
}

func (f *FakeChain) Page(ctx context.Context, req tables.PageRequest) (*tables.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pageCalls++
	if f.pageFailures > 0 {
		f.pageFailures--
		return nil, errors.New("read tcp: i/o timeout")
	}

	var rows map[uint64]any
	switch req.Table {
	case tables.TableStakedNFT:
		rows = make(map[uint64]any, len(f.staked))
		for id, n := range f.staked {
			rows[id] = map[string]any{
				"owner":       n.Owner,
				"asset_id":    strconv.FormatUint(n.AssetID, 10),
				"template_id": n.TemplateID,
				"next_claim":  n.NextClaim,
			}
		}
	case tables.TableNFTConfig:
		rows = make(map[uint64]any, len(f.templates))
		for id, name := range f.templates {
			rows[id] = map[string]any{
				"template_id": id,
				"nft_name":    name,
			}
		}
	default:
		return nil, fmt.Errorf("unknown table %q", req.Table)
	}

	return page(rows, req)
}

func page(rows map[uint64]any, req tables.PageRequest) (*tables.Page, error) {
	keys := make([]uint64, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	lower, upper := uint64(0), ^uint64(0)
	var err error
	if req.LowerBound != "" {
		if lower, err = strconv.ParseUint(req.LowerBound, 10, 64); err != nil {
			return nil, err
		}
	}
	if req.UpperBound != "" {
		if upper, err = strconv.ParseUint(req.UpperBound, 10, 64); err != nil {
			return nil, err
		}
	}

	p := &tables.Page{Rows: make([]jsoniter.RawMessage, 0)}
	for _, k := range keys {
		if k < lower || k > upper {
			continue
		}
		if uint32(len(p.Rows)) == req.Limit {
			p.More = true
			p.NextKey = strconv.FormatUint(k, 10)
			break
		}
		raw, err := json.Marshal(rows[k])
		if err != nil {
			return nil, err
		}
		p.Rows = append(p.Rows, raw)
	}
	return p, nil
}

func (f *FakeChain) Claim(ctx context.Context, assetID uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	call := ClaimCall{AssetID: assetID, At: now}

	n, ok := f.staked[assetID]
	switch {
	case f.claimFailures[assetID] > 0:
		f.claimFailures[assetID]--
		call.Err = fmt.Errorf("claim of asset %d: %w", assetID, ErrNotClaimable)
	case !ok:
		call.Err = ErrNotStaked
	case n.NextClaim > now.Unix():
		call.Err = ErrNotClaimable
	default:
		n.NextClaim = now.Add(f.Cooldown).Unix()
		f.staked[assetID] = n
		call.TxID = fmt.Sprintf("tx-%d-%d", assetID, len(f.claims)+1)
	}

	f.claims = append(f.claims, call)
	return call.TxID, call.Err
}
