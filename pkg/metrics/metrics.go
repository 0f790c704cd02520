package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "checkout"

// ServerMetrics are the HTTP request metrics of one binary
type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// CheckoutMetrics count what the session workflow does
type CheckoutMetrics struct {
	Events             *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	VersionConflicts   prometheus.Counter
	PublishFailures    *prometheus.CounterVec
	ExpiredSessions    prometheus.Counter
	RelayedEvents      *prometheus.CounterVec
	DBPoolAcquired     prometheus.Gauge
	DBPoolTotal        prometheus.Gauge
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	m := &CheckoutMetrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events recorded, by event type.",
		}, []string{"event_type"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Line item validation errors at start or confirm, by error type.",
		}, []string{"type"}),
		VersionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_total",
			Help:      "Saves rejected by optimistic locking.",
		}),
		PublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Events that could not be handed to the transport after save.",
		}, []string{"publisher"}),
		ExpiredSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_sessions_total",
			Help:      "Sessions expired by the stale session sweep.",
		}),
		RelayedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relayed_events_total",
			Help:      "Events forwarded to the broker by the worker, by event type.",
		}, []string{"event_type"}),
		DBPoolAcquired: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_acquired_connections",
			Help:      "Database connections currently in use.",
		}),
		DBPoolTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_total_connections",
			Help:      "Database connections currently open.",
		}),
	}

	reg.MustRegister(
		m.Events,
		m.ValidationFailures,
		m.VersionConflicts,
		m.PublishFailures,
		m.ExpiredSessions,
		m.RelayedEvents,
		m.DBPoolAcquired,
		m.DBPoolTotal,
	)
	return m
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor serves a custom registry
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// The recorders below are nil-safe so callers can run without metrics.

func (m *CheckoutMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(eventType).Inc()
}

func (m *CheckoutMetrics) RecordValidationFailure(errorType string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(errorType).Inc()
}

func (m *CheckoutMetrics) RecordVersionConflict() {
	if m == nil {
		return
	}
	m.VersionConflicts.Inc()
}

func (m *CheckoutMetrics) RecordPublishFailure(publisher string) {
	if m == nil {
		return
	}
	m.PublishFailures.WithLabelValues(publisher).Inc()
}

func (m *CheckoutMetrics) RecordExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ExpiredSessions.Add(float64(n))
}

func (m *CheckoutMetrics) RecordRelayed(eventType string) {
	if m == nil {
		return
	}
	m.RelayedEvents.WithLabelValues(eventType).Inc()
}

// ObservePool updates the pool gauges
func (m *CheckoutMetrics) ObservePool(acquired, total int32) {
	if m == nil {
		return
	}
	m.DBPoolAcquired.Set(float64(acquired))
	m.DBPoolTotal.Set(float64(total))
}
