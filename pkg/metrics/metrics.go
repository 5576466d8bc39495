// Package metrics defines the Prometheus collectors for ranking experiments and
// parameter sweeps, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the toolkit.
type Metrics struct {
	QueriesRankedTotal    *prometheus.CounterVec
	RankingLatency        *prometheus.HistogramVec
	RankedListLength      prometheus.Histogram
	CacheHitsTotal        prometheus.Counter
	CacheMissesTotal      prometheus.Counter
	GridPointsTotal       prometheus.Counter
	GridPointMAP          *prometheus.GaugeVec
	BestMAP               prometheus.Gauge
	SweepsTotal           *prometheus.CounterVec
	JudgementsRecorded    prometheus.Counter
	InvalidJudgementTotal prometheus.Counter
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg registers
// against the process-wide default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		QueriesRankedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queries_ranked_total",
				Help: "Total queries ranked by scoring method and result type (hit, zero_result, error).",
			},
			[]string{"method", "result_type"},
		),
		RankingLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ranking_latency_seconds",
				Help:    "Latency of ranking one query in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method"},
		),
		RankedListLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ranked_list_length",
				Help:    "Number of results returned per ranked query.",
				Buckets: []float64{0, 1, 10, 50, 100, 500, 1000},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rank_cache_hits_total",
				Help: "Total number of ranked-list cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rank_cache_misses_total",
				Help: "Total number of ranked-list cache misses.",
			},
		),
		GridPointsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tuning_grid_points_total",
				Help: "Total (c, lambda) grid points evaluated.",
			},
		),
		GridPointMAP: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tuning_grid_point_map",
				Help: "MAP of the most recently evaluated grid point per c value.",
			},
			[]string{"c"},
		),
		BestMAP: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tuning_best_map",
				Help: "Best MAP of the last completed sweep.",
			},
		),
		SweepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tuning_sweeps_total",
				Help: "Total parameter sweeps by status.",
			},
			[]string{"status"},
		),
		JudgementsRecorded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "judgements_recorded_total",
				Help: "Total relevance judgement sets recorded.",
			},
		),
		InvalidJudgementTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "judgements_invalid_total",
				Help: "Total judgement lines rejected by validation.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests by method, route pattern and status code.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being served.",
			},
		),
	}

	reg.MustRegister(
		m.QueriesRankedTotal,
		m.RankingLatency,
		m.RankedListLength,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.GridPointsTotal,
		m.GridPointMAP,
		m.BestMAP,
		m.SweepsTotal,
		m.JudgementsRecorded,
		m.InvalidJudgementTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Handler returns the Prometheus scrape HTTP handler for the registry the
// collectors were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
