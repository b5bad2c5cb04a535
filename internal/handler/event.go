package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-booking/internal/auth"
	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

//go:generate mockgen -source=event.go -destination=mocks/event_mocks.go -package=mocks EventService

// EventService is the event catalog used by EventHandler.
type EventService interface {
	Create(ctx context.Context, req model.CreateEventRequest, creator string) (*model.EventView, error)
	Get(ctx context.Context, id string) (*model.EventView, error)
	List(ctx context.Context) ([]model.EventView, error)
	Available(ctx context.Context) ([]model.EventView, error)
	Update(ctx context.Context, id string, patch model.UpdateEventRequest, actor string) (*model.EventView, error)
	Delete(ctx context.Context, id, actor string) error
}

// EventHandler serves /api/events.
type EventHandler struct {
	svc EventService
	log *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventService, log *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, log: log}
}

// Create handles POST /api/events
// The caller becomes the event's creator.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	creator, _ := auth.IdentityFrom(r.Context())

	event, err := h.svc.Create(r.Context(), req, creator)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// List handles GET /api/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.svc.List)
}

// Available handles GET /api/events/available
// Returns active events that still have free seats.
func (h *EventHandler) Available(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.svc.Available)
}

func (h *EventHandler) writeList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]model.EventView, error)) {
	events, err := list(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.EventView{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Get handles GET /api/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Replace handles PUT /api/events/{id}; every field is required.
func (h *EventHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
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

// Patch handles PATCH /api/events/{id}
func (h *EventHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var patch model.UpdateEventRequest
	if !decodeBody(w, r, &patch) {
		return
	}
	h.update(w, r, patch)
}

func (h *EventHandler) update(w http.ResponseWriter, r *http.Request, patch model.UpdateEventRequest) {
	actor, _ := auth.IdentityFrom(r.Context())
	event, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch, actor)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Delete handles DELETE /api/events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFrom(r.Context())
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
