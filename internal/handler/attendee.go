package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

// AttendeeService is the attendee registry used by AttendeeHandler.
type AttendeeService interface {
	Register(ctx context.Context, req model.CreateAttendeeRequest) (*model.Attendee, error)
	Get(ctx context.Context, id string) (*model.Attendee, error)
	List(ctx context.Context) ([]model.Attendee, error)
	Update(ctx context.Context, id string, patch model.UpdateAttendeeRequest) (*model.Attendee, error)
	Delete(ctx context.Context, id string) error
}

// AttendeeHandler serves /api/attendees.
type AttendeeHandler struct {
	svc AttendeeService
	log *slog.Logger
}

// NewAttendeeHandler constructs an AttendeeHandler.
func NewAttendeeHandler(svc AttendeeService, log *slog.Logger) *AttendeeHandler {
	return &AttendeeHandler{svc: svc, log: log}
}

// Register handles POST /api/attendees
func (h *AttendeeHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAttendeeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// List handles GET /api/attendees
func (h *AttendeeHandler) List(w http.ResponseWriter, r *http.Request) {
	attendees, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if attendees == nil {
		attendees = []model.Attendee{}
	}
	writeJSON(w, http.StatusOK, attendees)
}

// Get handles GET /api/attendees/{id}
func (h *AttendeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Replace handles PUT /api/attendees/{id}; every field is required.
func (h *AttendeeHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAttendeeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Normalize()
	if err := model.Validate(req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.update(w, r, req.Patch())
}

// Patch handles PATCH /api/attendees/{id}
func (h *AttendeeHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var patch model.UpdateAttendeeRequest
	if !decodeBody(w, r, &patch) {
		return
	}
	h.update(w, r, patch)
}

func (h *AttendeeHandler) update(w http.ResponseWriter, r *http.Request, patch model.UpdateAttendeeRequest) {
	a, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Delete handles DELETE /api/attendees/{id}
func (h *AttendeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
