package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var published = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rancher_events_published_total",
	Help: "Claim events sent to NATS by result",
}, []string{"result"})
