package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several servers can coexist in tests.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	computeDuration *prometheus.HistogramVec
	computeErrors   *prometheus.CounterVec
	wsConnections   prometheus.Gauge
}

// -----------------------------------------------------------------------------

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypto_indices_http_requests_total",
				Help: "HTTP requests by route and status code.",
			},
			[]string{"route", "status"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypto_indices_cache_lookups_total",
				Help: "Index payload cache lookups by result.",
			},
			[]string{"result"},
		),
		computeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crypto_indices_compute_duration_seconds",
				Help:    "Latency of index requests that missed the cache.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
			},
			[]string{"time_period"},
		),
		computeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypto_indices_compute_errors_total",
				Help: "Failed index computations by error kind.",
			},
			[]string{"kind"},
		),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crypto_indices_ws_connections",
			Help: "Open websocket connections.",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.cacheLookups,
		m.computeDuration,
		m.computeErrors,
		m.wsConnections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// -----------------------------------------------------------------------------

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
