// Package metrics holds the Prometheus collectors for the service. Every
// recording method is safe to call on a nil *Metrics so components can run
// without instrumentation in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheErrorsTotal *prometheus.CounterVec

	// result: authenticated, anonymous, invalid, expired, unknown_subject
	AuthenticationsTotal *prometheus.CounterVec
	// result: success, bad_credentials, not_found, error
	LoginsTotal *prometheus.CounterVec
	// type: register, reset_password, ...
	UserEventsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them on registry. A nil registry
// gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: registry,
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userdir_cache_hits_total",
				Help: "Total number of profile cache hits",
			},
			[]string{"key_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userdir_cache_misses_total",
				Help: "Total number of profile cache misses",
			},
			[]string{"key_type"},
		),
		CacheErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userdir_cache_errors_total",
				Help: "Total number of profile cache failures",
			},
			[]string{"op"},
		),
		AuthenticationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userdir_request_authentications_total",
				Help: "Bearer token resolutions by outcome",
			},
			[]string{"result"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userdir_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"result"},
		),
		UserEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userdir_user_events_total",
				Help: "User lifecycle events by type and publish outcome",
			},
			[]string{"type", "published"},
		),
	}
	registry.MustRegister(
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheErrorsTotal,
		m.AuthenticationsTotal,
		m.LoginsTotal,
		m.UserEventsTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit(keyType string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(keyType).Inc()
}

func (m *Metrics) CacheMiss(keyType string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(keyType).Inc()
}

func (m *Metrics) CacheError(op string) {
	if m == nil {
		return
	}
	m.CacheErrorsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) Authentication(result string) {
	if m == nil {
		return
	}
	m.AuthenticationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) UserEvent(eventType string, published bool) {
	if m == nil {
		return
	}
	p := "false"
	if published {
		p = "true"
	}
	m.UserEventsTotal.WithLabelValues(eventType, p).Inc()
}
