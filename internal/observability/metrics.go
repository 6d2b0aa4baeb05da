package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	errorCount      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ticketsCreated  *prometheus.CounterVec
	classifierWarn  *prometheus.CounterVec
	breachedTickets prometheus.Gauge
}

// NewMetrics initializes and registers collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "HTTP error responses by route, method and error code.",
		}, []string{"path", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		ticketsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_created_total",
			Help: "Tickets opened, by category.",
		}, []string{"category"}),
		classifierWarn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classifier_warnings_total",
			Help: "Classifier fields replaced by a fallback value.",
		}, []string{"field"}),
		breachedTickets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sla_breached_tickets",
			Help: "Unresolved tickets past their SLA at the last sweep.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestCount,
		m.errorCount,
		m.requestDuration,
		m.ticketsCreated,
		m.classifierWarn,
		m.breachedTickets,
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(path, method, code).Inc()
}

// RecordTicketCreated counts a new ticket.
func (m *Metrics) RecordTicketCreated(category string) {
	if m == nil {
		return
	}
	m.ticketsCreated.WithLabelValues(category).Inc()
}

// RecordClassifierWarning counts a fallback applied to a classifier field.
func (m *Metrics) RecordClassifierWarning(field string) {
	if m == nil {
		return
	}
	m.classifierWarn.WithLabelValues(field).Inc()
}

// SetBreachedTickets publishes the latest sweep result.
func (m *Metrics) SetBreachedTickets(n int) {
	if m == nil {
		return
	}
	m.breachedTickets.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
