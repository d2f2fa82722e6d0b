package monitoring

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
)

func (m *Monitor) updateBalance(ctx context.Context) {
	if m.balance == nil {
		return
	}
	b, err := m.balance(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("cannot read balance")
		return
	}

	tokenBalance.Set(b)
}

func (m *Monitor) updateHeight(ctx context.Context) {
	if m.chain == nil {
		return
	}
	info, err := m.chain.HealthCheck(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("cannot read chain info")
		return
	}

	blockHeight.Set(float64(info.HeadBlockNum))
}

func (m *Monitor) updateStatuses() {
	counts := m.store.Snapshot().Count()
	for _, s := range []store.Status{store.Waiting, store.Available, store.Claiming, store.Claimed, store.FailedRetrying} {
		assetsByStatus.WithLabelValues(s.String()).Set(float64(counts[s]))
	}
}

func (m *Monitor) update(ctx context.Context) {
	m.updateBalance(ctx)
	m.updateHeight(ctx)
	m.updateStatuses()
}

// Start refreshes the gauges every interval until ctx is done or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.running.Store(true)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for m.running.Load() {
		m.update(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) Stop() {
	m.running.Store(false)
}
