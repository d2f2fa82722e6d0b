package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var trackedAssets = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "rancher_tracked_assets",
	Help: "The number of staked assets currently tracked",
})

var subscribers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "rancher_store_subscribers",
	Help: "The number of presenters subscribed to asset state changes",
})
