package pregel

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus-compatible metrics for a running worker,
// following the same shape as the teacher's PrometheusMetrics
// (graph/metrics.go), relabeled for supersteps instead of workflow steps.
//
// Metrics exposed (all namespaced with "pregel_"):
//
//  1. active_vertices (gauge): vertices not yet halted. Labels: job_id, worker_id.
//  2. inflight_messages (gauge): messages buffered awaiting flush. Labels: job_id, worker_id.
//  3. superstep_latency_ms (histogram): wall time per superstep. Labels: job_id, stage.
//  4. barrier_retries_total (counter): barrier re-evaluations that did not advance state.
//  5. aggregator_merges_total (counter): global aggregator merges performed by the master.
type Metrics struct {
	mu sync.RWMutex

	activeVertices   *prometheus.GaugeVec
	inflightMessages *prometheus.GaugeVec
	superstepLatency *prometheus.HistogramVec
	barrierRetries   *prometheus.CounterVec
	aggregatorMerges *prometheus.CounterVec

	registry prometheus.Registerer
}

// NewMetrics registers Pregel metrics with registry and returns the
// collector. Pass a *prometheus.Registry (or prometheus.DefaultRegisterer)
// the same way the teacher's NewPrometheusMetrics does.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		activeVertices: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pregel_active_vertices",
			Help: "Number of vertices that have not voted to halt.",
		}, []string{"job_id", "worker_id"}),
		inflightMessages: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pregel_inflight_messages",
			Help: "Number of outbound messages buffered awaiting flush.",
		}, []string{"job_id", "worker_id"}),
		superstepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pregel_superstep_latency_ms",
			Help:    "Superstep phase duration in milliseconds.",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"job_id", "stage"}),
		barrierRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pregel_barrier_retries_total",
			Help: "Barrier re-evaluations that observed no advancement.",
		}, []string{"job_id", "phase"}),
		aggregatorMerges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pregel_aggregator_merges_total",
			Help: "Global aggregator merges performed by the elected master.",
		}, []string{"job_id"}),
	}
}

func (m *Metrics) setActiveVertices(jobID, workerID string, n int) {
	if m == nil {
		return
	}
	m.activeVertices.WithLabelValues(jobID, workerID).Set(float64(n))
}

func (m *Metrics) setInflightMessages(jobID, workerID string, n int) {
	if m == nil {
		return
	}
	m.inflightMessages.WithLabelValues(jobID, workerID).Set(float64(n))
}

func (m *Metrics) observeSuperstepLatency(jobID, stage string, ms float64) {
	if m == nil {
		return
	}
	m.superstepLatency.WithLabelValues(jobID, stage).Observe(ms)
}

func (m *Metrics) incBarrierRetry(jobID, phase string) {
	if m == nil {
		return
	}
	m.barrierRetries.WithLabelValues(jobID, phase).Inc()
}

func (m *Metrics) incAggregatorMerge(jobID string) {
	if m == nil {
		return
	}
	m.aggregatorMerges.WithLabelValues(jobID).Inc()
}
