package claims_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/claims"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/tables"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/testutil"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/testutil/mocks"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/types"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/wallet"
)

const owner = "rancher11111"

var t0 = time.Unix(1_700_000_000, 0)

type harness struct {
	clock    *testutil.FakeClock
	chain    *testutil.FakeChain
	store    *store.Store
	reader   *tables.Reader
	claimer  *claims.Claimer
	outcomes []types.ClaimOutcome
}

func newHarness(cfg claims.Config, submitter wallet.Submitter) *harness {
	h := &harness{
		clock: testutil.NewFakeClock(t0),
		store: store.NewStore(owner),
	}
	h.chain = testutil.NewFakeChain(h.clock.Now)
	h.chain.AddTemplate(7, "Brown Cow")
	h.chain.AddTemplate(9, "Chicken Coop")
	h.reader = tables.NewReader(h.chain, tables.Contract, tables.WithSleep(h.clock.Sleep))

	if submitter == nil {
		submitter = h.chain
	}
	h.claimer = claims.NewClaimer(cfg, h.store, h.reader, submitter,
		claims.WithClock(h.clock),
		claims.WithObservers(claims.ObserverFunc(func(o types.ClaimOutcome) {
			h.outcomes = append(h.outcomes, o)
		})),
	)
	return h
}

// step advances the clock by one second and runs one tick.
func (h *harness) step(ctx context.Context) {
	h.clock.Advance(time.Second)
	h.claimer.Step(ctx)
}

func (h *harness) stepUntil(ctx context.Context, at time.Time) {
	for h.clock.Now().Before(at) {
		h.step(ctx)
	}
}

func TestTwoAssetScenario(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	h := newHarness(claims.DefaultConfig(owner), nil)
	h.chain.Stake(
		types.StakedNFT{Owner: owner, AssetID: 1, TemplateID: 7, NextClaim: t0.Unix() - 30},
		types.StakedNFT{Owner: owner, AssetID: 2, TemplateID: 9, NextClaim: t0.Unix() + 90},
		types.StakedNFT{Owner: "neighbour1111", AssetID: 3, TemplateID: 7, NextClaim: t0.Unix() - 30},
	)

	r.NoError(h.claimer.Load(ctx))
	r.Equal([]uint64{1, 2}, h.store.IDs())

	a, _ := h.store.Get(1)
	r.Equal(store.Available, a.Status)
	r.Equal("Brown Cow", a.Name)

	b, _ := h.store.Get(2)
	r.Equal(store.Waiting, b.Status)
	r.Equal("00:01:30", b.Remaining())

	h.stepUntil(ctx, t0.Add(4*time.Second))
	r.Empty(h.chain.Claims(), "due assets wait for the settle delay")

	h.step(ctx)
	claimsA := h.chain.ClaimsOf(1)
	r.Len(claimsA, 1)
	r.Equal(t0.Add(5*time.Second), claimsA[0].At)
	r.NoError(claimsA[0].Err)

	a, _ = h.store.Get(1)
	r.Equal(store.Claimed, a.Status)
	r.Equal(claimsA[0].TxID, a.LastTxID)

	prev, _ := h.store.Get(2)
	for h.clock.Now().Before(t0.Add(89 * time.Second)) {
		h.step(ctx)
		b, _ = h.store.Get(2)
		r.Equal(store.Waiting, b.Status)
		r.Equal(prev.SecondsRemaining-1, b.SecondsRemaining, "at %s", h.clock.Now())
		prev = b
	}
	r.Equal("00:00:01", b.Remaining())

	a, _ = h.store.Get(1)
	r.Equal(store.Waiting, a.Status, "the claimed asset is reloaded from the chain")

	h.step(ctx)
	b, _ = h.store.Get(2)
	r.Equal(store.Available, b.Status)
	r.Equal("00:00:00", b.Remaining())

	h.stepUntil(ctx, t0.Add(100*time.Second))

	claimsB := h.chain.ClaimsOf(2)
	r.Len(claimsB, 1)
	r.Equal(t0.Add(95*time.Second), claimsB[0].At)
	r.Empty(h.chain.ClaimsOf(3), "assets of other owners are never claimed")
	r.Len(h.chain.Claims(), 2)
	r.Len(h.outcomes, 2)
	r.True(h.outcomes[0].Success())
	r.Equal("Chicken Coop", h.outcomes[1].Name)
}

func TestRetryAfterBackoff(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	cfg := claims.DefaultConfig(owner)
	cfg.Settle = 0
	h := newHarness(cfg, nil)
	h.chain.Stake(
		types.StakedNFT{Owner: owner, AssetID: 5, TemplateID: 7, NextClaim: t0.Unix()},
		types.StakedNFT{Owner: owner, AssetID: 6, TemplateID: 9, NextClaim: t0.Unix()},
	)
	h.chain.FailClaims(5, 2)

	r.NoError(h.claimer.Load(ctx))

	h.step(ctx)
	x, _ := h.store.Get(5)
	r.Equal(store.FailedRetrying, x.Status)
	r.Equal(1, x.Failures)

	y, _ := h.store.Get(6)
	r.Equal(store.Claimed, y.Status)
	r.Equal(0, y.Failures)

	h.stepUntil(ctx, t0.Add(30*time.Second))

	claimsX := h.chain.ClaimsOf(5)
	r.Len(claimsX, 3)
	r.Equal(t0.Add(1*time.Second), claimsX[0].At)
	r.Equal(t0.Add(11*time.Second), claimsX[1].At)
	r.Equal(t0.Add(21*time.Second), claimsX[2].At)
	r.Error(claimsX[0].Err)
	r.Error(claimsX[1].Err)
	r.NoError(claimsX[2].Err)

	claimsY := h.chain.ClaimsOf(6)
	r.Len(claimsY, 1, "failures of one asset never touch another")
	r.Equal(t0.Add(3*time.Second), claimsY[0].At, "claims in one pass are paced")

	x, _ = h.store.Get(5)
	r.Equal(store.Waiting, x.Status)
	r.Zero(h.claimer.Retries().Len())

	r.Len(h.outcomes, 4)
	r.Equal(1, h.outcomes[0].Attempt)
	r.Equal(2, h.outcomes[2].Attempt)
	r.Equal(3, h.outcomes[3].Attempt)
}

func TestRetryDroppedWhenAssetLeaves(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	cfg := claims.DefaultConfig(owner)
	cfg.Settle = 0
	h := newHarness(cfg, nil)
	h.chain.Stake(types.StakedNFT{Owner: owner, AssetID: 5, NextClaim: t0.Unix()})
	h.chain.FailClaims(5, 100)

	r.NoError(h.claimer.Load(ctx))
	h.step(ctx)
	r.Equal(1, h.claimer.Retries().Len())

	h.chain.Unstake(5)
	h.stepUntil(ctx, t0.Add(30*time.Second))

	r.Len(h.chain.ClaimsOf(5), 1)
	r.Zero(h.claimer.Retries().Len())
	r.Zero(h.store.Len())
}

func TestClaimFirstDueOnly(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	cfg := claims.DefaultConfig(owner)
	cfg.Settle = 0
	cfg.ClaimAll = false
	h := newHarness(cfg, nil)
	h.chain.Stake(
		types.StakedNFT{Owner: owner, AssetID: 1, NextClaim: t0.Unix()},
		types.StakedNFT{Owner: owner, AssetID: 2, NextClaim: t0.Unix()},
		types.StakedNFT{Owner: owner, AssetID: 3, NextClaim: t0.Unix()},
	)

	r.NoError(h.claimer.Load(ctx))

	h.step(ctx)
	r.Len(h.chain.Claims(), 1)
	r.EqualValues(1, h.chain.Claims()[0].AssetID)

	h.stepUntil(ctx, t0.Add(10*time.Second))
	r.Len(h.chain.Claims(), 3)
	for _, id := range []uint64{1, 2, 3} {
		r.Len(h.chain.ClaimsOf(id), 1)
	}
}

func TestReloadFailureKeepsDirty(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	cfg := claims.DefaultConfig(owner)
	cfg.Settle = 0
	h := newHarness(cfg, nil)
	h.chain.Stake(
		types.StakedNFT{Owner: owner, AssetID: 1, NextClaim: t0.Unix()},
		types.StakedNFT{Owner: owner, AssetID: 2, NextClaim: t0.Unix() + 100},
	)

	r.NoError(h.claimer.Load(ctx))
	h.step(ctx)
	r.True(h.store.Dirty())
	w, _ := h.store.Get(2)
	r.EqualValues(99, w.SecondsRemaining)

	h.chain.FailPages(3)
	h.step(ctx)
	r.True(h.store.Dirty(), "a failed reload is retried on the next tick")
	w, _ = h.store.Get(2)
	r.EqualValues(98, w.SecondsRemaining, "the countdown keeps running while the chain is unreachable")

	h.step(ctx)
	r.False(h.store.Dirty())
	e, _ := h.store.Get(1)
	r.Equal(store.Waiting, e.Status)
}

func TestDiscoversAssetsStakedAfterLoad(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	h := newHarness(claims.DefaultConfig(owner), nil)
	r.NoError(h.claimer.Load(ctx))
	r.Zero(h.store.Len())

	h.chain.Stake(types.StakedNFT{Owner: owner, AssetID: 1, TemplateID: 7, NextClaim: t0.Unix()})

	h.stepUntil(ctx, t0.Add(59*time.Second))
	r.Zero(h.store.Len(), "the chain is read again once per pass period")

	h.step(ctx)
	r.Equal([]uint64{1}, h.store.IDs())
	e, _ := h.store.Get(1)
	r.Equal("Brown Cow", e.Name)
	r.Equal(store.Available, e.Status)

	h.stepUntil(ctx, t0.Add(70*time.Second))
	found := h.chain.ClaimsOf(1)
	r.Len(found, 1)
	r.Equal(t0.Add(65*time.Second), found[0].At)
	r.NoError(found[0].Err)
}

type missingLoader struct {
	claims.Loader
	missing uint64
}

func (l missingLoader) FindStakedNFT(ctx context.Context, assetID uint64) (types.StakedNFT, error) {
	if assetID == l.missing {
		return types.StakedNFT{}, tables.ErrAssetNotFound
	}
	return l.Loader.FindStakedNFT(ctx, assetID)
}

func TestSimplePass(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	clock := testutil.NewFakeClock(t0)
	chain := testutil.NewFakeChain(clock.Now)
	chain.Stake(
		types.StakedNFT{Owner: owner, AssetID: 1, TemplateID: 7, NextClaim: t0.Unix() - 1},
		types.StakedNFT{Owner: owner, AssetID: 2, TemplateID: 7, NextClaim: t0.Unix() + 150},
		types.StakedNFT{Owner: owner, AssetID: 3, TemplateID: 7, NextClaim: t0.Unix() - 1},
	)
	reader := tables.NewReader(chain, tables.Contract, tables.WithSleep(clock.Sleep))

	submitter := mocks.SetupSubmitter(t)
	submitter.EXPECT().
		Claim(gomock.Any(), uint64(1)).
		DoAndReturn(func(ctx context.Context, id uint64) (string, error) {
			_, ok := ctx.Deadline()
			r.True(ok, "submissions carry a timeout")
			return "tx1", nil
		}).
		Times(2)

	cfg := claims.DefaultConfig(owner)
	cfg.Mode = claims.ModeSimple
	s := store.NewStore(owner)
	c := claims.NewClaimer(cfg, s, missingLoader{Loader: reader, missing: 3}, submitter, claims.WithClock(clock))

	r.NoError(c.Load(ctx))

	r.NoError(c.Pass(ctx))
	r.Equal([]time.Duration{2 * time.Second, 2 * time.Second}, clock.Sleeps())

	e, _ := s.Get(1)
	r.Equal(store.Claimed, e.Status)
	e, _ = s.Get(2)
	r.Equal(store.Waiting, e.Status)
	r.EqualValues(148, e.SecondsRemaining, "synced from the chain after one pacing delay")
	e, _ = s.Get(3)
	r.Equal(store.Available, e.Status, "lookup misses are skipped")

	clock.Advance(time.Minute)
	r.NoError(c.Pass(ctx))
}

func TestSimplePassRetries(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	clock := testutil.NewFakeClock(t0)
	chain := testutil.NewFakeChain(clock.Now)
	chain.Stake(types.StakedNFT{Owner: owner, AssetID: 1, NextClaim: t0.Unix()})
	reader := tables.NewReader(chain, tables.Contract, tables.WithSleep(clock.Sleep))

	var calls []time.Time
	submitter := mocks.SetupSubmitter(t)
	submitter.EXPECT().
		Claim(gomock.Any(), uint64(1)).
		DoAndReturn(func(ctx context.Context, id uint64) (string, error) {
			calls = append(calls, clock.Now())
			if len(calls) < 3 {
				return "", errors.New("transaction declared expired")
			}
			return "tx1", nil
		}).
		Times(3)

	cfg := claims.DefaultConfig(owner)
	cfg.Mode = claims.ModeSimple
	s := store.NewStore(owner)
	c := claims.NewClaimer(cfg, s, reader, submitter, claims.WithClock(clock))

	r.NoError(c.Load(ctx))
	r.NoError(c.Pass(ctx))

	for i := 0; i < 25; i++ {
		clock.Advance(time.Second)
		c.Step(ctx)
	}

	r.Equal([]time.Time{t0, t0.Add(10 * time.Second), t0.Add(20 * time.Second)}, calls)
	e, _ := s.Get(1)
	r.Equal(store.Claimed, e.Status)
}

func TestParseMode(t *testing.T) {
	r := require.New(t)

	m, err := claims.ParseMode("")
	r.NoError(err)
	r.Equal(claims.ModeTicking, m)

	m, err = claims.ParseMode("simple")
	r.NoError(err)
	r.Equal(claims.ModeSimple, m)

	_, err = claims.ParseMode("turbo")
	r.Error(err)
}
