package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

//go:generate mockgen -source=booking.go -destination=mocks/booking_mocks.go -package=mocks BookingService

// BookingService is the booking engine used by BookingHandler.
type BookingService interface {
	Create(ctx context.Context, req model.CreateBookingRequest) (*model.BookingView, error)
	Confirm(ctx context.Context, id string) (*model.BookingView, error)
	Cancel(ctx context.Context, id string) (*model.BookingView, error)
	Get(ctx context.Context, id string) (*model.BookingView, error)
	List(ctx context.Context, f model.BookingFilter) ([]model.BookingView, error)
	ListForEvent(ctx context.Context, eventID string) ([]model.BookingView, error)
	ListForAttendee(ctx context.Context, attendeeID string) ([]model.BookingView, error)
	Delete(ctx context.Context, id string) error
}

// BookingHandler serves /api/bookings and the nested booking listings of
// events and attendees.
type BookingHandler struct {
	svc BookingService
	log *slog.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc BookingService, log *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, log: log}
}

// Create handles POST /api/bookings
// Books an attendee into an event; the booking starts pending.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// Confirm handles POST /api/bookings/{id}/confirm
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Confirm)
}

// Cancel handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*model.BookingView, error)) {
	b, err := op(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Get handles GET /api/bookings/{id}
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// List handles GET /api/bookings?event=&attendee=&status=
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.BookingFilter{
		EventID:    q.Get("event"),
		AttendeeID: q.Get("attendee"),
		Status:     model.BookingStatus(q.Get("status")),
	}
	bookings, err := h.svc.List(r.Context(), f)
	h.writeList(w, r, bookings, err)
}

// ListForEvent handles GET /api/events/{id}/bookings
func (h *BookingHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.ListForEvent(r.Context(), chi.URLParam(r, "id"))
	h.writeList(w, r, bookings, err)
}

// ListForAttendee handles GET /api/attendees/{id}/bookings
func (h *BookingHandler) ListForAttendee(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.ListForAttendee(r.Context(), chi.URLParam(r, "id"))
	h.writeList(w, r, bookings, err)
}

func (h *BookingHandler) writeList(w http.ResponseWriter, r *http.Request, bookings []model.BookingView, err error) {
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if bookings == nil {
		bookings = []model.BookingView{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// Delete handles DELETE /api/bookings/{id}
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
