package claims

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/queue"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/tables"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/types"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/wallet"
)

// Claimer owns the claim schedule of one owner account. Step, Pass and Load must
// be called from a single goroutine; Start does that.
type Claimer struct {
	cfg       Config
	store     *store.Store
	loader    Loader
	submitter wallet.Submitter
	retries   *queue.RetryQueue
	clock     Clock
	observers []Observer

	catalog        types.Catalog
	availableSince map[uint64]time.Time
	lastReload     time.Time
	passSignal     chan struct{}
}

type Option func(c *Claimer)

func WithClock(clock Clock) Option {
	return func(c *Claimer) {
		c.clock = clock
	}
}

func WithObservers(observers ...Observer) Option {
	return func(c *Claimer) {
		c.observers = append(c.observers, observers...)
	}
}

func WithRetryQueue(q *queue.RetryQueue) Option {
	return func(c *Claimer) {
		c.retries = q
	}
}

func NewClaimer(cfg Config, s *store.Store, loader Loader, submitter wallet.Submitter, opts ...Option) *Claimer {
	c := &Claimer{
		cfg:            cfg,
		store:          s,
		loader:         loader,
		submitter:      submitter,
		retries:        queue.NewRetryQueue(),
		clock:          systemClock{},
		availableSince: make(map[uint64]time.Time),
		passSignal:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Claimer) Retries() *queue.RetryQueue {
	return c.retries
}

// Load reads the template catalog once and builds the initial asset state.
func (c *Claimer) Load(ctx context.Context) error {
	if c.catalog == nil {
		catalog, err := c.loader.Catalog(ctx)
		if err != nil {
			return fmt.Errorf("cannot load template catalog: %w", err)
		}
		c.catalog = catalog
		log.Info().Int("templates", len(catalog)).Msg("Template catalog loaded")
	}

	if err := c.reload(ctx); err != nil {
		return err
	}
	c.trackAvailable(c.clock.Now())

	snap := c.store.Snapshot()
	if len(snap.Entries) == 0 {
		log.Info().Str("owner", c.cfg.Owner).Msg("No staked NFTs to claim for owner")
		return nil
	}

	ids := make([]string, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		ids = append(ids, strconv.FormatUint(e.ID, 10))
		log.Info().
			Uint64("asset_id", e.ID).
			Str("name", e.Name).
			Str("remaining", e.Remaining()).
			Str("status", e.Status.String()).
			Msg("Found staked NFT")
	}
	log.Info().
		Str("owner", c.cfg.Owner).
		Int("count", len(ids)).
		Str("assets", strings.Join(ids, ",")).
		Msg("Staked NFTs found")

	return nil
}

// reload rebuilds the store from the chain and reconciles pending retries with it.
func (c *Claimer) reload(ctx context.Context) error {
	rows, err := c.loader.StakedNFTs(ctx, c.cfg.Owner)
	if err != nil {
		reloads.WithLabelValues("failed").Inc()
		return fmt.Errorf("cannot load staked NFTs: %w", err)
	}
	reloads.WithLabelValues("ok").Inc()

	now := c.clock.Now()
	c.lastReload = now
	c.store.Rebuild(rows, c.catalog, now.Unix())

	for _, id := range c.retries.IDs() {
		e, ok := c.store.Get(id)
		switch {
		case !ok:
			c.retries.Cancel(id)
			log.Info().Uint64("asset_id", id).Msg("Asset is no longer staked, dropping retry")
		case e.Status == store.Waiting:
			c.retries.Cancel(id)
			log.Info().
				Uint64("asset_id", id).
				Str("remaining", e.Remaining()).
				Msg("Claim window closed on chain, dropping retry")
		default:
			c.store.Hold(id)
		}
	}

	for id := range c.availableSince {
		if e, ok := c.store.Get(id); !ok || e.Status != store.Available {
			delete(c.availableSince, id)
		}
	}

	return nil
}

// trackAvailable remembers when each asset was first seen with an open claim window.
func (c *Claimer) trackAvailable(now time.Time) {
	for _, id := range c.store.Available() {
		if _, ok := c.availableSince[id]; !ok {
			c.availableSince[id] = now
		}
	}
}

// Step runs one tick of the schedule. In ticking mode it reloads a dirty store,
// marking it dirty once per pass period so newly staked assets are discovered.
// Without a successful reload the countdown advances locally. Both modes issue due retries.
func (c *Claimer) Step(ctx context.Context) {
	now := c.clock.Now()

	reloaded := false
	if c.cfg.Mode == ModeTicking {
		if now.Sub(c.lastReload) >= c.cfg.PassPeriod {
			c.store.MarkDirty()
		}
		if c.store.Dirty() {
			if err := c.reload(ctx); err != nil {
				log.Error().Err(err).Msg("Reload failed, will retry on the next tick")
			} else {
				reloaded = true
			}
		}
	}
	if !reloaded {
		c.store.Tick()
	}

	candidates := c.dueRetries(now)
	if c.cfg.Mode == ModeTicking {
		candidates = append(candidates, c.settled(now)...)
	}

	c.run(ctx, candidates)
}

// dueRetries returns the assets whose backoff ran out.
func (c *Claimer) dueRetries(now time.Time) []uint64 {
	ids := make([]uint64, 0)
	for _, r := range c.retries.PopDue(now) {
		e, ok := c.store.Get(r.AssetID)
		if !ok || e.Status != store.FailedRetrying {
			log.Debug().Uint64("asset_id", r.AssetID).Msg("Retry no longer applies")
			continue
		}
		ids = append(ids, r.AssetID)
	}
	return ids
}

// settled returns available assets that stayed available for the settle delay.
func (c *Claimer) settled(now time.Time) []uint64 {
	c.trackAvailable(now)

	ids := make([]uint64, 0)
	for _, id := range c.store.Available() {
		if now.Sub(c.availableSince[id]) < c.cfg.Settle {
			continue
		}
		ids = append(ids, id)
		if !c.cfg.ClaimAll {
			break
		}
	}
	return ids
}

func (c *Claimer) run(ctx context.Context, ids []uint64) {
	for i, id := range ids {
		if i > 0 {
			if err := c.clock.Sleep(ctx, c.cfg.Pacing); err != nil {
				return
			}
		}
		c.attempt(ctx, id)
	}
}

// Pass checks every known asset against its chain row and claims the due ones.
func (c *Claimer) Pass(ctx context.Context) error {
	defer lastPass.SetToCurrentTime()

	if err := c.reload(ctx); err != nil {
		return err
	}

	ids := c.store.IDs()
	log.Info().Int("assets", len(ids)).Msg("Updating claim status")

	claimed := 0
	for i, id := range ids {
		if i > 0 {
			if err := c.clock.Sleep(ctx, c.cfg.Pacing); err != nil {
				return err
			}
		}

		nft, err := c.loader.FindStakedNFT(ctx, id)
		if err == nil && nft.Owner != c.cfg.Owner {
			err = tables.ErrAssetNotFound
		}
		if err != nil {
			l := log.Warn().Err(err).Uint64("asset_id", id)
			if errors.Is(err, tables.ErrAssetNotFound) {
				l.Msg("NFT not found or has no next claim, skipping")
			} else {
				l.Msg("Cannot read NFT, skipping")
			}
			continue
		}

		now := c.clock.Now().Unix()
		e, ok := c.store.Sync(id, nft.NextClaim, now)
		if !ok {
			continue
		}

		if nft.NextClaim > now {
			left := nft.NextClaim - now
			log.Info().
				Uint64("asset_id", id).
				Int64("seconds", left).
				Int64("minutes", int64(math.Ceil(float64(left)/60))).
				Str("remaining", store.FormatRemaining(left)).
				Msg("Claim not available yet")
			continue
		}

		if e.Status.Busy() {
			log.Debug().Uint64("asset_id", id).Str("status", e.Status.String()).Msg("Claim already pending")
			continue
		}
		if !c.cfg.ClaimAll && claimed > 0 {
			continue
		}

		log.Info().Uint64("asset_id", id).Str("name", e.Name).Msg("Claim available, claiming")
		c.attempt(ctx, id)
		claimed++
	}

	return nil
}

// attempt submits exactly one claim for the asset and records the outcome.
func (c *Claimer) attempt(ctx context.Context, id uint64) types.ClaimOutcome {
	e, err := c.store.MarkClaiming(id)
	if err != nil {
		log.Debug().Err(err).Uint64("asset_id", id).Msg("Skipping claim")
		return types.ClaimOutcome{AssetID: id, Err: err}
	}

	outcome := types.ClaimOutcome{
		AssetID: id,
		Name:    e.Name,
		Attempt: c.retries.Attempts(id) + 1,
	}

	log.Info().
		Uint64("asset_id", id).
		Str("name", e.Name).
		Int("attempt", outcome.Attempt).
		Msg("Sending claim")

	subCtx, cancel := context.WithTimeout(ctx, c.cfg.SubmitTimeout)
	outcome.TxID, outcome.Err = c.submitter.Claim(subCtx, id)
	cancel()

	now := c.clock.Now()
	outcome.At = now

	if outcome.Err != nil {
		c.store.MarkFailed(id, outcome.Err)
		retry := c.retries.Add(id, now.Add(c.cfg.Backoff))
		attempts.WithLabelValues("failed").Inc()

		log.Error().
			Err(outcome.Err).
			Uint64("asset_id", id).
			Str("name", e.Name).
			Int("attempt", outcome.Attempt).
			Time("retry_at", retry.Due).
			Msg("Claim failed")
	} else {
		c.store.MarkClaimed(id, outcome.TxID)
		c.retries.Cancel(id)
		attempts.WithLabelValues("ok").Inc()

		log.Info().
			Uint64("asset_id", id).
			Str("name", e.Name).
			Str("tx_id", outcome.TxID).
			Msg("Claim succeeded")
	}

	delete(c.availableSince, id)
	c.store.MarkDirty()

	for _, o := range c.observers {
		o.Observe(outcome)
	}

	return outcome
}

// Start loads the state and drives the schedule until ctx is cancelled.
func (c *Claimer) Start(ctx context.Context) error {
	if err := c.Load(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	if c.cfg.Mode == ModeSimple {
		sched := cron.New()
		_, err := sched.AddFunc(fmt.Sprintf("@every %s", c.cfg.PassPeriod), c.signalPass)
		if err != nil {
			return fmt.Errorf("cannot schedule passes: %w", err)
		}
		sched.Start()
		defer sched.Stop()

		c.signalPass()
	}

	log.Info().
		Str("mode", string(c.cfg.Mode)).
		Str("owner", c.cfg.Owner).
		Msg("Claim scheduler started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Claim scheduler stopped")
			return nil
		case <-ticker.C:
			c.Step(ctx)
		case <-c.passSignal:
			if err := c.Pass(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Pass failed")
			}
		}
	}
}

func (c *Claimer) signalPass() {
	select {
	case c.passSignal <- struct{}{}:
	default:
	}
}
