package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsRegistry holds the Prometheus metrics for the web server.
type metricsRegistry struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ComputeDuration *prometheus.HistogramVec
}

// webMetrics is registered once at package init; every server instance
// shares it so tests can construct servers freely.
var webMetrics = newMetricsRegistry()

// newMetricsRegistry creates and registers the web server metrics
func newMetricsRegistry() *metricsRegistry {
	registry := &metricsRegistry{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taosim_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"path", "method", "status"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taosim_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds by route",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"path"},
		),

		ComputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taosim_computation_duration_seconds",
				Help:    "Duration of curve and simulation computations in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation"},
		),
	}

	prometheus.MustRegister(
		registry.RequestsTotal,
		registry.RequestDuration,
		registry.ComputeDuration,
	)

	return registry
}

// metricsHandler returns the HTTP handler for the Prometheus scrape endpoint
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
