// Package metrics holds the Prometheus collectors exported by Gatekeeper.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeBadPassword = "bad_credentials"
	OutcomeUnknownUser = "unknown_user"
	OutcomeExpired     = "expired"
	OutcomeTimedOut    = "timed_out"
	OutcomeBlocked     = "blocked"
	OutcomeRejected    = "rejected"
	OutcomeError       = "error"
)

// Metrics contains the application collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	LoginAttempts   *prometheus.CounterVec
	Lockouts        prometheus.Counter
	Blocks          prometheus.Counter
	PasswordChanges *prometheus.CounterVec
	AccountsCreated *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them on a private registry
// together with the standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_login_attempts_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		Lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_lockouts_total",
			Help: "Total number of lockout windows imposed after failed logins",
		}),
		Blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_blocks_total",
			Help: "Total number of accounts blocked after reaching the attempt limit",
		}),
		PasswordChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_password_changes_total",
				Help: "Total number of password changes by outcome",
			},
			[]string{"outcome"},
		),
		AccountsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_accounts_created_total",
				Help: "Total number of accounts created by role",
			},
			[]string{"role"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatekeeper_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.LoginAttempts,
		m.Lockouts,
		m.Blocks,
		m.PasswordChanges,
		m.AccountsCreated,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the scrape handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordLogin counts a login attempt.
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// RecordLockout counts an imposed lockout window.
func (m *Metrics) RecordLockout() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

// RecordBlock counts an account transitioning to blocked.
func (m *Metrics) RecordBlock() {
	if m == nil {
		return
	}
	m.Blocks.Inc()
}

// RecordPasswordChange counts a password change attempt.
func (m *Metrics) RecordPasswordChange(outcome string) {
	if m == nil {
		return
	}
	m.PasswordChanges.WithLabelValues(outcome).Inc()
}

// RecordAccountCreated counts a created account.
func (m *Metrics) RecordAccountCreated(role string) {
	if m == nil {
		return
	}
	m.AccountsCreated.WithLabelValues(role).Inc()
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
