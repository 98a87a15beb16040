package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the auth service.
type Metrics struct {
	LoginAttempts  *prometheus.CounterVec
	LockoutsActive prometheus.Counter
	TokensIssued   prometheus.Counter
	TokensRevoked  prometheus.Counter
	VerifyFailures *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_auth_login_attempts_total",
			Help: "Login attempts by outcome (success, invalid_credentials, locked).",
		}, []string{"outcome"}),
		LockoutsActive: promauto.NewCounter(prometheus.CounterOpts{
			Name: "admin_auth_lockouts_triggered_total",
			Help: "Number of times an identifier entered the locked state.",
		}),
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "admin_auth_tokens_issued_total",
			Help: "Session tokens issued on successful login.",
		}),
		TokensRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "admin_auth_tokens_revoked_total",
			Help: "Session tokens revoked via logout.",
		}),
		VerifyFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_auth_verify_failures_total",
			Help: "Token verification failures by reason (expired, malformed, revoked).",
		}, []string{"reason"}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_auth_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// RecordLogin increments the login attempt counter for the given outcome.
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// RecordVerifyFailure increments the verify failure counter for a reason.
func (m *Metrics) RecordVerifyFailure(reason string) {
	if m == nil {
		return
	}
	m.VerifyFailures.WithLabelValues(reason).Inc()
}

// RecordTokenIssued counts a session token issued on successful login.
func (m *Metrics) RecordTokenIssued() {
	if m == nil {
		return
	}
	m.TokensIssued.Inc()
}

// RecordTokenRevoked counts a session token revoked via logout.
func (m *Metrics) RecordTokenRevoked() {
	if m == nil {
		return
	}
	m.TokensRevoked.Inc()
}

// RecordLockout counts a transition into the locked state.
func (m *Metrics) RecordLockout() {
	if m == nil {
		return
	}
	m.LockoutsActive.Inc()
}

// ObserveRequest records one HTTP request's latency.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, status).Observe(seconds)
}
