package claims

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rancher_claim_attempts_total",
		Help: "Claim attempts by result",
	}, []string{"result"})
	reloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rancher_state_reloads_total",
		Help: "Full reloads of the asset state from the chain by result",
	}, []string{"result"})
	lastPass = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rancher_last_pass_timestamp",
		Help: "Unix time of the last completed scheduling pass",
	})
)
