package tables

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rancher_table_page_errors_total",
		Help: "Failed table page requests",
	}, []string{"table"})
	rowsRead = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rancher_table_rows",
		Help: "Rows kept by the last full read of a table",
	}, []string{"table"})
)
