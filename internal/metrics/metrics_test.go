package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEngineMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)

	m.ObserveHold(true)
	m.ObserveHold(false)
	m.ObserveHold(false)
	m.ObserveOrderTransition("paid")
	m.ObserveCallback("applied", 0.01)
	m.ObserveGateway("charge", "ok")
	m.ObserveSwept("expired", 2)
	m.ObserveSwept("completed", 0)
	m.ObserveNotification("BookingConfirmed", "sent")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.holdsTotal.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.holdsTotal.WithLabelValues("granted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sweptTotal.WithLabelValues("expired")))
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var m *EngineMetrics
	m.ObserveHold(true)
	m.ObserveOrderTransition("paid")
	m.ObserveCallback("applied", 0.1)
	m.ObserveGateway("refund", "error")
	m.ObserveSwept("expired", 1)
	m.ObserveNotification("x", "dropped")
}
