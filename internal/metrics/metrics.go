// Package metrics exposes ledger counters and gauges to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Klingon-tech/utxoledger/pkg/block"
)

const namespace = "utxoledger"

// Metrics holds the collectors of one ledger. Each instance owns its
// registry so several ledgers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	Height    prometheus.Gauge
	Pending   prometheus.Gauge
	UTXOCount prometheus.Gauge

	TxAdmittedTotal prometheus.Counter
	TxRejectedTotal *prometheus.CounterVec
	BlocksMined     prometheus.Counter

	SealDuration prometheus.Histogram
	SealAttempts prometheus.Histogram
	RPCDuration  *prometheus.HistogramVec
}

// New creates and registers the ledger collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		// ===============================
		// STATE
		// ===============================
		Height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "height",
			Help:      "Index of the latest block",
		}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mempool",
			Name:      "size",
			Help:      "Current number of pending transactions",
		}),
		UTXOCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "utxo",
			Name:      "count",
			Help:      "Number of unspent outputs",
		}),

		// ===============================
		// TX PIPELINE
		// ===============================
		TxAdmittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "admitted_total",
			Help:      "Transactions accepted into the mempool",
		}),
		TxRejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "rejected_total",
			Help:      "Transactions refused at admission",
		}, []string{"reason"}),

		// ===============================
		// MINING (CPU HEAVY)
		// ===============================
		BlocksMined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "miner",
			Name:      "blocks_total",
			Help:      "Blocks sealed and appended",
		}),
		SealDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "miner",
			Name:      "seal_duration_ms",
			Help:      "Time spent producing and sealing a block",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 18),
		}),
		SealAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "miner",
			Name:      "seal_attempts",
			Help:      "Nonces tried before a block met the difficulty",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 14),
		}),

		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "duration_ms",
			Help:      "Request handling duration",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 15),
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.Height,
		m.Pending,
		m.UTXOCount,
		m.TxAdmittedTotal,
		m.TxRejectedTotal,
		m.BlocksMined,
		m.SealDuration,
		m.SealAttempts,
		m.RPCDuration,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TxAdmitted records an accepted transaction.
func (m *Metrics) TxAdmitted() {
	m.TxAdmittedTotal.Inc()
}

// TxRejected records a refused transaction.
func (m *Metrics) TxRejected(reason string) {
	m.TxRejectedTotal.WithLabelValues(reason).Inc()
}

// BlockMined records a sealed block.
func (m *Metrics) BlockMined(blk *block.Block, elapsed time.Duration) {
	m.BlocksMined.Inc()
	m.SealDuration.Observe(float64(elapsed.Microseconds()) / 1000)
	m.SealAttempts.Observe(float64(blk.Nonce + 1))
}

// StateChanged updates the state gauges.
func (m *Metrics) StateChanged(height int64, pending, utxos int) {
	m.Height.Set(float64(height))
	m.Pending.Set(float64(pending))
	m.UTXOCount.Set(float64(utxos))
}

// ObserveDuration records the time elapsed since start on h.
func ObserveDuration(h prometheus.Observer, start time.Time) {
	h.Observe(float64(time.Since(start).Microseconds()) / 1000)
}
