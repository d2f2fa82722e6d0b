package journal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var recordsWritten = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rancher_journal_records_total",
	Help: "Claim attempts written to the journal",
})
