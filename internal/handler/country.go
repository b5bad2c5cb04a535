package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

// CountryService is the country registry used by CountryHandler.
type CountryService interface {
	List(ctx context.Context) ([]model.Country, error)
	Get(ctx context.Context, id string) (*model.Country, error)
	Create(ctx context.Context, req model.CreateCountryRequest) (*model.Country, error)
	Delete(ctx context.Context, id string) error
}

// CountryHandler serves /api/countries.
type CountryHandler struct {
	svc CountryService
	log *slog.Logger
}

// NewCountryHandler constructs a CountryHandler.
func NewCountryHandler(svc CountryService, log *slog.Logger) *CountryHandler {
	return &CountryHandler{svc: svc, log: log}
}

// List handles GET /api/countries
func (h *CountryHandler) List(w http.ResponseWriter, r *http.Request) {
	countries, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if countries == nil {
		countries = []model.Country{}
	}
	writeJSON(w, http.StatusOK, countries)
}

// Get handles GET /api/countries/{id}
func (h *CountryHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Create handles POST /api/countries
func (h *CountryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCountryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Delete handles DELETE /api/countries/{id}
func (h *CountryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
