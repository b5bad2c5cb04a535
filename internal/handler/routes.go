package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shivanand-hulikatti/event-booking/internal/auth"
	"github.com/Shivanand-hulikatti/event-booking/internal/metrics"
)

// RouterConfig carries what NewRouter needs. Metrics and Gatherer may be nil.
type RouterConfig struct {
	Countries CountryService
	Attendees AttendeeService
	Events    EventService
	Bookings  BookingService

	Tokens   *auth.Tokens
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter builds the full HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	countries := NewCountryHandler(cfg.Countries, cfg.Logger)
	attendees := NewAttendeeHandler(cfg.Attendees, cfg.Logger)
	events := NewEventHandler(cfg.Events, cfg.Logger)
	bookings := NewBookingHandler(cfg.Bookings, cfg.Logger)
	requireAuth := RequireAuth(cfg.Tokens, cfg.Logger)

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(cfg.Logger, cfg.Metrics))
	r.Use(CORS)

	r.Get("/health", HealthCheck)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/countries", func(r chi.Router) {
			r.Get("/", countries.List)
			r.Get("/{id}", countries.Get)
			r.With(requireAuth).Post("/", countries.Create)
			r.With(requireAuth).Delete("/{id}", countries.Delete)
		})

		r.Route("/attendees", func(r chi.Router) {
			r.Post("/", attendees.Register)
			r.Get("/", attendees.List)
			r.Get("/{id}", attendees.Get)
			r.Put("/{id}", attendees.Replace)
			r.Patch("/{id}", attendees.Patch)
			r.Delete("/{id}", attendees.Delete)
			r.Get("/{id}/bookings", bookings.ListForAttendee)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", events.List)
			r.Get("/available", events.Available)
			r.Get("/{id}", events.Get)
			r.Get("/{id}/bookings", bookings.ListForEvent)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", events.Create)
				r.Put("/{id}", events.Replace)
				r.Patch("/{id}", events.Patch)
				r.Delete("/{id}", events.Delete)
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", bookings.List)
			r.Post("/", bookings.Create)
			r.Get("/{id}", bookings.Get)
			r.Delete("/{id}", bookings.Delete)
			r.Post("/{id}/confirm", bookings.Confirm)
			r.Post("/{id}/cancel", bookings.Cancel)
		})
	})

	return r
}
