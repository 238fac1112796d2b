package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ServerMetrics instruments the mock script endpoint.
type ServerMetrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	activeTokens prometheus.Gauge
}

// NewServerMetrics creates the endpoint metrics and registers them with reg.
func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	m := &ServerMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "mock",
			Name:      "requests_total",
			Help:      "Script requests by action and response code.",
		}, []string{"action", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "mock",
			Name:      "request_duration_seconds",
			Help:      "Script request handling latency by action.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
		}, []string{"action"}),
		activeTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "mock",
			Name:      "active_tokens",
			Help:      "Session tokens currently accepted by the endpoint.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.activeTokens)
	}
	return m
}

// ObserveRequest records one handled request.
func (m *ServerMetrics) ObserveRequest(action, code string, d time.Duration) {
	if m == nil {
		return
	}
	if action == "" {
		action = "unknown"
	}
	m.requests.WithLabelValues(action, code).Inc()
	m.duration.WithLabelValues(action).Observe(d.Seconds())
}

// SetActiveTokens sets the live token gauge.
func (m *ServerMetrics) SetActiveTokens(n int) {
	if m == nil {
		return
	}
	m.activeTokens.Set(float64(n))
}
