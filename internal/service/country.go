package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-booking/internal/repository"
)

// CountryService manages the country reference data.
type CountryService struct {
	stores Stores
	deps   Deps
}

// NewCountryService constructs a CountryService.
func NewCountryService(stores Stores, deps Deps) *CountryService {
	return &CountryService{stores: stores, deps: deps.withDefaults()}
}

// List returns every country ordered by name.
func (s *CountryService) List(ctx context.Context) ([]model.Country, error) {
	countries, err := s.stores.Countries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return countries, nil
}

// Get returns a single country.
func (s *CountryService) Get(ctx context.Context, id string) (*model.Country, error) {
	if err := checkID("country", id); err != nil {
		return nil, err
	}
	c, err := s.stores.Countries.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs("country", "get country", err)
	}
	return c, nil
}

// Create adds a country. Codes are stored upper-case.
func (s *CountryService) Create(ctx context.Context, req model.CreateCountryRequest) (*model.Country, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	c := &model.Country{ID: uuid.NewString(), Name: req.Name, Code: req.Code}
	if err := s.stores.Countries.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			if repository.ConstraintOf(err) == repository.ConstraintCountryCode {
				return nil, model.Conflict("code", "duplicate_code", "country with this code already exists")
			}
			return nil, model.Conflict("name", "duplicate_name", "country with this name already exists")
		}
		return nil, fmt.Errorf("create country: %w", err)
	}
	s.deps.Logger.InfoContext(ctx, "country created", "country_id", c.ID, "code", c.Code)
	return c, nil
}

// Delete removes a country no event points at.
func (s *CountryService) Delete(ctx context.Context, id string) error {
	if err := checkID("country", id); err != nil {
		return err
	}
	err := s.stores.Countries.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrReferenced):
		return model.Conflict("", "country_in_use", "Country is used by one or more events")
	default:
		return notFoundAs("country", "delete country", err)
	}
}
