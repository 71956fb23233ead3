package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LoginAttempts      *prometheus.CounterVec
	MFAVerifications   *prometheus.CounterVec
	AuditWritesDropped prometheus.Counter
	TokensIssued       prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "splitledger_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		MFAVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "splitledger_mfa_verifications_total",
			Help: "MFA code verifications by outcome",
		}, []string{"outcome"}),
		AuditWritesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_audit_writes_dropped_total",
			Help: "Login attempt records dropped because the audit store timed out or failed",
		}),
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_tokens_issued_total",
			Help: "Session tokens issued",
		}),
	}
}

// ObserveLogin records a login attempt outcome ("success" or "failure").
func (m *Metrics) ObserveLogin(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// ObserveMFA records an MFA verification outcome.
func (m *Metrics) ObserveMFA(outcome string) {
	m.MFAVerifications.WithLabelValues(outcome).Inc()
}
