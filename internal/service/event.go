package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-booking/internal/repository"
)

var (
	errUnknownLocation = model.Validation("location_id", "invalid_location", "Country does not exist")
	errNotCreator      = model.Forbidden("Only the event creator can modify this event")
)

// EventService is the event catalog.
type EventService struct {
	stores Stores
	deps   Deps
	views  views
}

// NewEventService constructs an EventService.
func NewEventService(stores Stores, deps Deps) *EventService {
	return &EventService{stores: stores, deps: deps.withDefaults(), views: views{stores: stores}}
}

// Create validates req and publishes an event owned by creator.
func (s *EventService) Create(ctx context.Context, req model.CreateEventRequest, creator string) (*model.EventView, error) {
	if creator == "" {
		return nil, model.Unauthorized("authentication required")
	}
	req.Normalize()
	if err := model.Validate(req); err != nil {
		return nil, err
	}
	if err := model.ValidatePrice(*req.Price); err != nil {
		return nil, err
	}

	now := s.deps.Clock.Now()
	if err := model.ValidateSchedule(*req.StartDatetime, *req.EndDatetime, now, true); err != nil {
		return nil, err
	}

	location, err := s.location(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	e := &model.Event{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Description:   req.Description,
		StartDatetime: req.StartDatetime.UTC(),
		EndDatetime:   req.EndDatetime.UTC(),
		LocationID:    req.LocationID,
		Capacity:      *req.Capacity,
		Price:         *req.Price,
		IsActive:      active,
		CreatedBy:     creator,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.stores.Events.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return nil, errUnknownLocation
		}
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.deps.Metrics.IncrementEventsCreated()
	s.deps.Logger.InfoContext(ctx, "event created", "event_id", e.ID, "capacity", e.Capacity, "created_by", creator)
	return model.NewEventView(e, location, 0), nil
}

// Get returns an event with live occupancy.
func (s *EventService) Get(ctx context.Context, id string) (*model.EventView, error) {
	if err := checkID("event", id); err != nil {
		return nil, err
	}
	e, err := s.stores.Events.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs("event", "get event", err)
	}
	return s.views.event(ctx, e)
}

// List returns all events ordered by start time.
func (s *EventService) List(ctx context.Context) ([]model.EventView, error) {
	events, err := s.stores.Events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return s.views.events(ctx, events)
}

// Available returns active events that still have seats.
func (s *EventService) Available(ctx context.Context) ([]model.EventView, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.EventView, 0, len(all))
	for _, v := range all {
		if v.IsActive && !v.IsFullyBooked {
			out = append(out, v)
		}
	}
	return out, nil
}

// Update applies the non-nil fields of patch on behalf of actor. The event
// row stays locked while capacity is checked against confirmed bookings.
func (s *EventService) Update(ctx context.Context, id string, patch model.UpdateEventRequest, actor string) (*model.EventView, error) {
	if err := checkID("event", id); err != nil {
		return nil, err
	}
	patch.Normalize()
	if err := model.Validate(patch); err != nil {
		return nil, err
	}
	if patch.Price != nil {
		if err := model.ValidatePrice(*patch.Price); err != nil {
			return nil, err
		}
	}

	now := s.deps.Clock.Now()
	var updated *model.Event
	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		e, err := s.stores.Events.GetForUpdate(ctx, id)
		if err != nil {
			return notFoundAs("event", "lock event", err)
		}
		if e.CreatedBy != actor {
			return errNotCreator
		}

		if patch.Title != nil {
			e.Title = *patch.Title
		}
		if patch.Description != nil {
			e.Description = *patch.Description
		}
		if patch.StartDatetime != nil {
			e.StartDatetime = patch.StartDatetime.UTC()
		}
		if patch.EndDatetime != nil {
			e.EndDatetime = patch.EndDatetime.UTC()
		}
		if patch.StartDatetime != nil || patch.EndDatetime != nil {
			if err := model.ValidateSchedule(e.StartDatetime, e.EndDatetime, now, patch.StartDatetime != nil); err != nil {
				return err
			}
		}
		if patch.LocationID != nil && *patch.LocationID != e.LocationID {
			if _, err := s.location(ctx, *patch.LocationID); err != nil {
				return err
			}
			e.LocationID = *patch.LocationID
		}
		if patch.Capacity != nil {
			confirmed, err := s.stores.Bookings.CountConfirmed(ctx, e.ID)
			if err != nil {
				return fmt.Errorf("count confirmed bookings: %w", err)
			}
			if *patch.Capacity < confirmed {
				return model.Validation("capacity", "capacity_below_confirmed",
					fmt.Sprintf("Capacity cannot be lower than the %d confirmed bookings", confirmed))
			}
			e.Capacity = *patch.Capacity
		}
		if patch.Price != nil {
			e.Price = *patch.Price
		}
		if patch.IsActive != nil {
			e.IsActive = *patch.IsActive
		}
		e.UpdatedAt = now

		if err := s.stores.Events.Update(ctx, e); err != nil {
			if errors.Is(err, repository.ErrReferenced) {
				return errUnknownLocation
			}
			return notFoundAs("event", "update event", err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.InfoContext(ctx, "event updated", "event_id", id, "actor", actor)
	return s.views.event(ctx, updated)
}

// Delete removes an event and its bookings on behalf of actor.
func (s *EventService) Delete(ctx context.Context, id, actor string) error {
	if err := checkID("event", id); err != nil {
		return err
	}
	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		e, err := s.stores.Events.GetForUpdate(ctx, id)
		if err != nil {
			return notFoundAs("event", "lock event", err)
		}
		if e.CreatedBy != actor {
			return errNotCreator
		}
		if err := s.stores.Events.Delete(ctx, id); err != nil {
			return notFoundAs("event", "delete event", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.deps.Logger.InfoContext(ctx, "event deleted", "event_id", id, "actor", actor)
	return nil
}

func (s *EventService) location(ctx context.Context, id string) (*model.Country, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errUnknownLocation
	}
	c, err := s.stores.Countries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUnknownLocation
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return c, nil
}
