package blog

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Alp4ka/keypager"
)

// Metrics holds the Prometheus collectors of blogd. A nil *Metrics records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	// pages counts served pages. Labels: entity, outcome
	pages *prometheus.CounterVec
	// httpRequests counts HTTP requests. Labels: method, path, status
	httpRequests *prometheus.CounterVec
	// httpDuration tracks HTTP request duration in seconds.
	// Labels: method, path, status
	httpDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blogd_pagination_pages_total",
				Help: "Total number of served pages by pagination outcome",
			},
			[]string{"entity", "outcome"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blogd_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blogd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
	m.registry.MustRegister(m.pages, m.httpRequests, m.httpDuration)

	return m
}

func (m *Metrics) ObservePage(entity string, outcome keypager.Outcome) {
	if m == nil {
		return
	}

	m.pages.WithLabelValues(entity, outcome.String()).Inc()
}

func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	statusStr := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, statusStr).Inc()
	m.httpDuration.WithLabelValues(method, path, statusStr).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
