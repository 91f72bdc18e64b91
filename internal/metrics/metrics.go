// Package metrics holds the Prometheus collectors for the question-answering
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "medqa"

// Metrics holds Prometheus metrics for question answering.
type Metrics struct {
	// Question pipeline
	questionsTotal   *prometheus.CounterVec
	questionDuration prometheus.Histogram
	intentsTotal     *prometheus.CounterVec

	// Graph access
	graphQueriesTotal  *prometheus.CounterVec
	graphQueryDuration prometheus.Histogram
	graphRetriesTotal  prometheus.Counter
	graphRowsTruncated prometheus.Counter
	graphRowsDropped   prometheus.Counter

	// Result cache
	cacheRequestsTotal *prometheus.CounterVec
	cacheStoresTotal   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg creates
// unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		questionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "questions_total",
				Help:      "Questions answered, by outcome",
			},
			[]string{"outcome"},
		),
		questionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "question_duration_seconds",
				Help:      "End-to-end question handling latency",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
		),
		intentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intents_total",
				Help:      "Classified intents, by intent name",
			},
			[]string{"intent"},
		),
		graphQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_queries_total",
				Help:      "Graph queries executed, by status",
			},
			[]string{"status"},
		),
		graphQueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_query_duration_seconds",
				Help:      "Graph query latency including retries",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
			},
		),
		graphRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_retries_total",
				Help:      "Graph query attempts after the first",
			},
		),
		graphRowsTruncated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_results_truncated_total",
				Help:      "Graph queries that hit the row cap",
			},
		),
		graphRowsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_rows_dropped_total",
				Help:      "Result rows dropped for lacking a main entity",
			},
		),
		cacheRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Result cache lookups, by tier and result",
			},
			[]string{"tier", "result"},
		),
		cacheStoresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_stores_total",
				Help:      "Result cache writes, by tier and status",
			},
			[]string{"tier", "status"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.questionsTotal,
			m.questionDuration,
			m.intentsTotal,
			m.graphQueriesTotal,
			m.graphQueryDuration,
			m.graphRetriesTotal,
			m.graphRowsTruncated,
			m.graphRowsDropped,
			m.cacheRequestsTotal,
			m.cacheStoresTotal,
		)
	}
	return m
}

// ObserveQuestion records one handled question.
func (m *Metrics) ObserveQuestion(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.questionsTotal.WithLabelValues(outcome).Inc()
	m.questionDuration.Observe(d.Seconds())
}

// IncIntent counts one classified intent.
func (m *Metrics) IncIntent(intent string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent).Inc()
}

// ObserveGraphQuery records one logical graph query, retries included.
func (m *Metrics) ObserveGraphQuery(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	m.graphQueriesTotal.WithLabelValues(status).Inc()
	m.graphQueryDuration.Observe(d.Seconds())
}

// IncGraphRetry counts one retried graph query attempt.
func (m *Metrics) IncGraphRetry() {
	if m == nil {
		return
	}
	m.graphRetriesTotal.Inc()
}

// IncGraphTruncated counts one query that hit the row cap.
func (m *Metrics) IncGraphTruncated() {
	if m == nil {
		return
	}
	m.graphRowsTruncated.Inc()
}

// AddGraphRowsDropped counts rows discarded during normalization.
func (m *Metrics) AddGraphRowsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.graphRowsDropped.Add(float64(n))
}

// ObserveCacheLookup records a lookup against tier with result "hit", "miss"
// or "error".
func (m *Metrics) ObserveCacheLookup(tier, result string) {
	if m == nil {
		return
	}
	m.cacheRequestsTotal.WithLabelValues(tier, result).Inc()
}

// ObserveCacheStore records a write to tier.
func (m *Metrics) ObserveCacheStore(tier string, ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	m.cacheStoresTotal.WithLabelValues(tier, status).Inc()
}
