// Package metrics exposes Prometheus metrics for the brain.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes Prometheus metrics for the brain.
type Recorder struct {
	requests       *prometheus.CounterVec
	requestDur     *prometheus.HistogramVec
	panics         prometheus.Counter
	blocks         prometheus.Counter
	sealedTx       prometheus.Counter
	miningDur      prometheus.Histogram
	rejectedTx     *prometheus.CounterVec
	ledgerBlocks   prometheus.Gauge
	queueDepth     prometheus.Gauge
	phase          prometheus.Gauge
	failedAttempts prometheus.Gauge
	peers          prometheus.Gauge
	shutdown       prometheus.Gauge
}

// NewRecorder registers metrics with provided registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lockbox_http_requests_total",
			Help: "Total number of HTTP requests grouped by method and status",
		}, []string{"method", "status"}),
		requestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lockbox_http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lockbox_http_panics_total",
			Help: "Total number of recovered handler panics",
		}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lockbox_blocks_appended_total",
			Help: "Total number of blocks appended to the ledger",
		}),
		sealedTx: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lockbox_transactions_sealed_total",
			Help: "Total number of transactions sealed into blocks",
		}),
		miningDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lockbox_mining_duration_seconds",
			Help:    "Time spent mining and appending a block",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		rejectedTx: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lockbox_transactions_rejected_total",
			Help: "Total number of transactions rejected grouped by reason",
		}, []string{"reason"}),
		ledgerBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lockbox_ledger_blocks",
			Help: "Number of blocks currently in the ledger",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lockbox_queue_depth",
			Help: "Number of transactions waiting to be sealed",
		}),
		phase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lockbox_access_phase",
			Help: "Current phase of the access state machine",
		}),
		failedAttempts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lockbox_failed_attempts",
			Help: "Consecutive failed passcode attempts",
		}),
		peers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lockbox_peers_connected",
			Help: "Number of connected peers",
		}),
		shutdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lockbox_shutdown",
			Help: "Set to 1 once the system has halted",
		}),
	}

	reg.MustRegister(
		r.requests,
		r.requestDur,
		r.panics,
		r.blocks,
		r.sealedTx,
		r.miningDur,
		r.rejectedTx,
		r.ledgerBlocks,
		r.queueDepth,
		r.phase,
		r.failedAttempts,
		r.peers,
		r.shutdown,
	)
	return r
}

// Handler returns HTTP handler serving /metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// ObserveRequest records a completed HTTP request.
func (r *Recorder) ObserveRequest(method string, status int, d time.Duration) {
	r.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.requestDur.WithLabelValues(method).Observe(d.Seconds())
}

// ObservePanic increments the recovered panic counter.
func (r *Recorder) ObservePanic() { r.panics.Inc() }

// ObserveBlock records a block appended to the ledger.
func (r *Recorder) ObserveBlock(txCount int, totalBlocks uint32) {
	r.blocks.Inc()
	r.sealedTx.Add(float64(txCount))
	r.ledgerBlocks.Set(float64(totalBlocks))
}

// ObserveMining records how long a block took to mine.
func (r *Recorder) ObserveMining(d time.Duration) { r.miningDur.Observe(d.Seconds()) }

// ObserveRejected records a transaction that never made it into the queue.
func (r *Recorder) ObserveRejected(reason string) {
	r.rejectedTx.WithLabelValues(reason).Inc()
}

// SetLedgerBlocks sets the number of blocks in the ledger.
func (r *Recorder) SetLedgerBlocks(n uint32) { r.ledgerBlocks.Set(float64(n)) }

// SetQueueDepth sets the number of pending transactions.
func (r *Recorder) SetQueueDepth(n int) { r.queueDepth.Set(float64(n)) }

// SetAccess sets the access phase and the failed attempt count.
func (r *Recorder) SetAccess(phase uint8, failedAttempts uint8) {
	r.phase.Set(float64(phase))
	r.failedAttempts.Set(float64(failedAttempts))
}

// SetPeers sets the number of connected peers.
func (r *Recorder) SetPeers(n int) { r.peers.Set(float64(n)) }

// SetShutdown records whether the system has halted.
func (r *Recorder) SetShutdown(halted bool) {
	if halted {
		r.shutdown.Set(1)
		return
	}
	r.shutdown.Set(0)
}
