package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var queueSize = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "rancher_retry_queue_size",
	Help: "The number of claim retries waiting for their backoff to elapse",
})
