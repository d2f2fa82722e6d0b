package monitoring

import (
	"context"
	"sync/atomic"
	"time"

	eos "github.com/eoscanada/eos-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
)

var blockHeight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "rancher_block_height",
	Help: "The head block of the chain at a given time",
})

var tokenBalance = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "rancher_balance",
	Help: "Owner token balance",
})

var assetsByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "rancher_assets",
	Help: "Tracked assets by claim status",
}, []string{"status"})

type ChainInfo interface {
	HealthCheck(ctx context.Context) (*eos.InfoResp, error)
}

// BalanceFunc returns the owner balance in whole tokens.
type BalanceFunc func(ctx context.Context) (float64, error)

type Monitor struct {
	running  atomic.Bool
	chain    ChainInfo
	balance  BalanceFunc
	store    *store.Store
	interval time.Duration
}

func NewMonitor(chain ChainInfo, balance BalanceFunc, s *store.Store, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		chain:    chain,
		balance:  balance,
		store:    s,
		interval: interval,
	}
}
