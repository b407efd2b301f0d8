// internal/services/metrics.go
package services

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in
// tests. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	gateDecisions   *prometheus.CounterVec
	publishOutcomes *prometheus.CounterVec
	ledgerMutations *prometheus.CounterVec
	sessionEvents   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_decisions_total",
			Help: "Route and payment gate decisions by outcome.",
		}, []string{"gate", "outcome"}),
		publishOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "publish_outcomes_total",
			Help: "Blockchain publish attempts reaching a terminal state.",
		}, []string{"entity_type", "state"}),
		ledgerMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_ledger_mutations_total",
			Help: "Payment verification ledger writes.",
		}, []string{"operation"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_events_total",
			Help: "Session logins, restores and logouts by result.",
		}, []string{"event"}),
	}

	m.registry.MustRegister(
		m.httpRequests, m.httpDuration,
		m.gateDecisions, m.publishOutcomes, m.ledgerMutations, m.sessionEvents,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveGate(gate, outcome string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(gate, outcome).Inc()
}

func (m *Metrics) ObservePublish(entityType, state string) {
	if m == nil {
		return
	}
	m.publishOutcomes.WithLabelValues(entityType, state).Inc()
}

func (m *Metrics) ObserveLedger(operation string) {
	if m == nil {
		return
	}
	m.ledgerMutations.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveSession(event string) {
	if m == nil {
		return
	}
	m.sessionEvents.WithLabelValues(event).Inc()
}
