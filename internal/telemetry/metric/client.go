package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes.
const (
	OutcomeOK                 = "ok"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeUnauthenticated    = "unauthenticated"
	OutcomeRetryable          = "retryable"
	OutcomeProtocol           = "protocol_error"
	OutcomeUnreachable        = "unreachable"
	OutcomeRejected           = "rejected"
)

// Session clear reasons.
const (
	ClearLogout       = "logout"
	ClearAuthRejected = "auth_rejected"
	ClearLoginFailed  = "login_failed"
)

// ClientMetrics instruments the session client.
type ClientMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	clears   *prometheus.CounterVec
}

// NewClientMetrics creates the client metrics and registers them with reg.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "client",
			Name:      "calls_total",
			Help:      "Remote calls by operation and classified outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "client",
			Name:      "call_duration_seconds",
			Help:      "Remote call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		clears: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "client",
			Name:      "session_clears_total",
			Help:      "Times the stored session was cleared, by reason.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration, m.clears)
	}
	return m
}

// ObserveCall records one finished remote call.
func (m *ClientMetrics) ObserveCall(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// SessionCleared records one session clear.
func (m *ClientMetrics) SessionCleared(reason string) {
	if m == nil {
		return
	}
	m.clears.WithLabelValues(reason).Inc()
}
