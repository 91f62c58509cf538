package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Runtime is the block-driver metrics registry: one gauge for the chain's
// current height, counters for transaction outcomes and a histogram of
// cycles used, mirroring
// PotsoMetrics' lazily-initialised singleton shape.
type Runtime struct {
	height   prometheus.Gauge
	txTotal  *prometheus.CounterVec
	cycles   prometheus.Histogram
}

var (
	runtimeOnce     sync.Once
	runtimeRegistry *Runtime
)

// RuntimeMetrics returns the process-wide runtime metrics registry,
// registering it with the default prometheus registerer on first use.
func RuntimeMetrics() *Runtime {
	runtimeOnce.Do(func() {
		runtimeRegistry = &Runtime{
			height: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "servicechain_block_height",
				Help: "Height of the most recently applied block.",
			}),
			txTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "servicechain_transactions_total",
				Help: "Count of applied transactions by service, method and outcome.",
			}, []string{"service", "method", "outcome"}),
			cycles: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "servicechain_transaction_cycles",
				Help:    "Cycles consumed per applied transaction.",
				Buckets: prometheus.ExponentialBuckets(10, 2, 12),
			}),
		}
		prometheus.MustRegister(runtimeRegistry.height, runtimeRegistry.txTotal, runtimeRegistry.cycles)
	})
	return runtimeRegistry
}

// ObserveBlock records a block's resulting height and its transactions'
// outcomes and cycle usage.
func (r *Runtime) ObserveBlock(height uint64, txs []TxOutcome) {
	if r == nil {
		return
	}
	r.height.Set(float64(height))
	for _, tx := range txs {
		outcome := "ok"
		if tx.Failed {
			outcome = "error"
		}
		r.txTotal.WithLabelValues(tx.Service, tx.Method, outcome).Inc()
		r.cycles.Observe(float64(tx.CyclesUsed))
	}
}

// TxOutcome is the minimal per-transaction shape ObserveBlock needs, kept
// independent of the runtime package to avoid a metrics<->runtime import
// cycle.
type TxOutcome struct {
	Service    string
	Method     string
	Failed     bool
	CyclesUsed uint64
}
