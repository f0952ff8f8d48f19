package simnet

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Transaction statuses recorded in simnet_transactions_total.
const (
	statusSuccess = "success"
	statusFailure = "failure" // (err ...) response
	statusAbort   = "abort"   // runtime error or post-condition
)

type metrics struct {
	registry     *prometheus.Registry
	transactions *prometheus.CounterVec
	queries      prometheus.Counter
	blockHeight  prometheus.Gauge
}

// newMetrics registers collectors on a private registry so networks never
// share counters.
func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simnet_transactions_total",
			Help: "Mined transactions by kind and outcome.",
		}, []string{"kind", "status"}),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simnet_queries_total",
			Help: "Read-only queries executed.",
		}),
		blockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "simnet_block_height",
			Help: "Current chain tip.",
		}),
	}
	m.registry.MustRegister(m.transactions, m.queries, m.blockHeight)
	return m
}
