package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var claimsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rancher_claim_submissions_total",
	Help: "Claim transactions pushed to the chain by result",
}, []string{"result"})
