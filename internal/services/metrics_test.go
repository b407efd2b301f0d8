package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveGate("route", "allow")
	m.ObserveGate("route", "allow")
	m.ObservePublish("copyright", "confirmed")
	m.ObserveRequest(http.MethodGet, "/health", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.gateDecisions.WithLabelValues("route", "allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishOutcomes.WithLabelValues("copyright", "confirmed")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gate_decisions_total")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveGate("route", "allow")
		m.ObserveLedger("upsert")
		m.ObserveSession("login")
		m.ObservePublish("transfer", "failed")
		m.ObserveRequest(http.MethodGet, "/", 200, time.Second)
	})
	assert.Nil(t, m.Registry())
}
