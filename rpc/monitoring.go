package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var failovers = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rancher_rpc_failovers_total",
	Help: "The number of times the client switched chain nodes",
})
