// Package metrics holds the Prometheus instruments for the booking service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics tracks booking operations and HTTP traffic.
type Metrics struct {
	BookingOps        *prometheus.CounterVec
	BookingOpDuration *prometheus.HistogramVec
	EventsCreated     prometheus.Counter
	AttendeesCreated  prometheus.Counter
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers all instruments on reg. Passing a fresh registry in tests
// avoids duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BookingOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_operations_total",
			Help: "Booking engine operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		BookingOpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "booking_operation_duration_seconds",
			Help:    "Duration of booking engine operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		EventsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "events_created_total",
			Help: "Total number of events created",
		}),
		AttendeesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "attendees_registered_total",
			Help: "Total number of attendees registered",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveBooking records one booking engine call. Nil-safe.
func (m *Metrics) ObserveBooking(op, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.BookingOps.WithLabelValues(op, outcome).Inc()
	m.BookingOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// IncrementEventsCreated records a created event. Nil-safe.
func (m *Metrics) IncrementEventsCreated() {
	if m == nil {
		return
	}
	m.EventsCreated.Inc()
}

// IncrementAttendeesCreated records a registered attendee. Nil-safe.
func (m *Metrics) IncrementAttendeesCreated() {
	if m == nil {
		return
	}
	m.AttendeesCreated.Inc()
}

// ObserveHTTP records one served request. Nil-safe.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
