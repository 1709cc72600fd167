package rpa

import "github.com/prometheus/client_golang/prometheus"

// batchesTotal/distinguishedTotal let a long-running CLI distinguishing
// batch (ecsim rpa distinguish, possibly looping over many oracle/trial
// sets) expose progress over a /metrics endpoint. Grounded on
// cli/server/metrics.go's prometheus.MustRegister pattern.
var (
	batchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ecsim",
		Subsystem: "rpa",
		Name:      "batches_total",
		Help:      "Number of RPA Distinguish batches run.",
	})
	distinguishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ecsim",
		Subsystem: "rpa",
		Name:      "distinguished_total",
		Help:      "Number of RPA Distinguish batches that narrowed to exactly one surviving candidate.",
	})
)

func init() {
	prometheus.MustRegister(batchesTotal, distinguishedTotal)
}
