package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for booking and settlement flows.
// A nil *EngineMetrics is valid and records nothing.
type EngineMetrics struct {
	holdsTotal         *prometheus.CounterVec
	orderTransitions   *prometheus.CounterVec
	callbacksTotal     *prometheus.CounterVec
	callbackLatency    prometheus.Histogram
	gatewayCalls       *prometheus.CounterVec
	sweptTotal         *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		holdsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "counselor",
			Subsystem: "slots",
			Name:      "hold_attempts_total",
			Help:      "Slot hold attempts by result",
		}, []string{"result"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "counselor",
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order status transitions",
		}, []string{"to"}),
		callbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "counselor",
			Subsystem: "payments",
			Name:      "callbacks_total",
			Help:      "Provider callbacks by outcome",
		}, []string{"outcome"}),
		callbackLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "counselor",
			Subsystem: "payments",
			Name:      "callback_latency_seconds",
			Help:      "Latency of callback processing",
			Buckets:   prometheus.DefBuckets,
		}),
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "counselor",
			Subsystem: "payments",
			Name:      "gateway_calls_total",
			Help:      "Outbound gateway calls by operation and status",
		}, []string{"op", "status"}),
		sweptTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "counselor",
			Subsystem: "scheduler",
			Name:      "swept_total",
			Help:      "Records advanced by background sweeps",
		}, []string{"kind"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "counselor",
			Subsystem: "notify",
			Name:      "events_total",
			Help:      "Lifecycle events by type and delivery status",
		}, []string{"type", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.holdsTotal,
		m.orderTransitions,
		m.callbacksTotal,
		m.callbackLatency,
		m.gatewayCalls,
		m.sweptTotal,
		m.notificationsTotal,
	)
	return m
}

func (m *EngineMetrics) ObserveHold(granted bool) {
	if m == nil {
		return
	}
	result := "conflict"
	if granted {
		result = "granted"
	}
	m.holdsTotal.WithLabelValues(result).Inc()
}

func (m *EngineMetrics) ObserveOrderTransition(to string) {
	if m == nil {
		return
	}
	m.orderTransitions.WithLabelValues(to).Inc()
}

func (m *EngineMetrics) ObserveCallback(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.callbacksTotal.WithLabelValues(outcome).Inc()
	m.callbackLatency.Observe(seconds)
}

func (m *EngineMetrics) ObserveGateway(op, status string) {
	if m == nil {
		return
	}
	m.gatewayCalls.WithLabelValues(op, status).Inc()
}

func (m *EngineMetrics) ObserveSwept(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweptTotal.WithLabelValues(kind).Add(float64(n))
}

func (m *EngineMetrics) ObserveNotification(eventType, status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(eventType, status).Inc()
}
