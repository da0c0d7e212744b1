package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the session authority and the
// development authentication endpoint.
type Metrics struct {
	Logins        *prometheus.CounterVec
	LoginDuration *prometheus.HistogramVec
	Logouts       prometheus.Counter
	Hydrations    *prometheus.CounterVec

	EndpointLogins *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates a Metrics instance registered on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	return NewWithRegistry(registry, registry)
}

// NewWithRegistry registers all metrics on registerer.
func NewWithRegistry(registerer prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		Logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "electrobill_session_logins_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		LoginDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "electrobill_session_login_duration_seconds",
				Help:    "Login attempt duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		Logouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "electrobill_session_logouts_total",
				Help: "Total number of logouts",
			},
		),
		Hydrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "electrobill_session_hydrations_total",
				Help: "Total number of session restores from the persistent store by outcome",
			},
			[]string{"outcome"},
		),
		EndpointLogins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "electrobill_devauth_logins_total",
				Help: "Total number of logins served by the development endpoint by status",
			},
			[]string{"status"},
		),
		gatherer: gatherer,
	}
}

// LoginAttempt records a login attempt. All recording methods are no-ops on
// a nil *Metrics.
func (m *Metrics) LoginAttempt(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
	m.LoginDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Logout records a logout.
func (m *Metrics) Logout() {
	if m == nil {
		return
	}
	m.Logouts.Inc()
}

// Hydration records a session restore attempt.
func (m *Metrics) Hydration(outcome string) {
	if m == nil {
		return
	}
	m.Hydrations.WithLabelValues(outcome).Inc()
}

// EndpointLogin records a login served by the development endpoint.
func (m *Metrics) EndpointLogin(status int) {
	if m == nil {
		return
	}
	m.EndpointLogins.WithLabelValues(fmt.Sprint(status)).Inc()
}

// Gatherer exposes the registry for HTTP handlers and textfile export. It is
// nil for a nil *Metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}
	return m.gatherer
}

// WriteTextfile writes all metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
