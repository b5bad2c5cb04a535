package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-booking/internal/repository"
)

var errDuplicateEmail = model.Conflict("email", "duplicate_email", "attendee with this email already exists")

// AttendeeService is the attendee registry.
type AttendeeService struct {
	stores Stores
	deps   Deps
}

// NewAttendeeService constructs an AttendeeService.
func NewAttendeeService(stores Stores, deps Deps) *AttendeeService {
	return &AttendeeService{stores: stores, deps: deps.withDefaults()}
}

// Register validates req and stores a new attendee.
func (s *AttendeeService) Register(ctx context.Context, req model.CreateAttendeeRequest) (*model.Attendee, error) {
	req.Normalize()
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	now := s.deps.Clock.Now()
	if err := model.ValidateBirthDate(*req.DateOfBirth, now); err != nil {
		return nil, err
	}

	a := &model.Attendee{
		ID:          uuid.NewString(),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: *req.DateOfBirth,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.stores.Attendees.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errDuplicateEmail
		}
		return nil, fmt.Errorf("create attendee: %w", err)
	}

	s.deps.Metrics.IncrementAttendeesCreated()
	s.deps.Logger.InfoContext(ctx, "attendee registered", "attendee_id", a.ID)
	return a, nil
}

// Get returns a single attendee.
func (s *AttendeeService) Get(ctx context.Context, id string) (*model.Attendee, error) {
	if err := checkID("attendee", id); err != nil {
		return nil, err
	}
	a, err := s.stores.Attendees.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs("attendee", "get attendee", err)
	}
	return a, nil
}

// List returns all attendees ordered by last then first name.
func (s *AttendeeService) List(ctx context.Context) ([]model.Attendee, error) {
	attendees, err := s.stores.Attendees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return attendees, nil
}

// Update applies the non-nil fields of patch.
func (s *AttendeeService) Update(ctx context.Context, id string, patch model.UpdateAttendeeRequest) (*model.Attendee, error) {
	patch.Normalize()
	if err := model.Validate(patch); err != nil {
		return nil, err
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.FirstName != nil {
		a.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		a.LastName = *patch.LastName
	}
	if patch.Email != nil {
		a.Email = *patch.Email
	}
	if patch.Phone != nil {
		a.Phone = *patch.Phone
	}

	now := s.deps.Clock.Now()
	if patch.DateOfBirth != nil {
		if err := model.ValidateBirthDate(*patch.DateOfBirth, now); err != nil {
			return nil, err
		}
		a.DateOfBirth = *patch.DateOfBirth
	}
	a.UpdatedAt = now

	if err := s.stores.Attendees.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errDuplicateEmail
		}
		return nil, notFoundAs("attendee", "update attendee", err)
	}
	return a, nil
}

// Delete removes an attendee and, through the store, their bookings.
func (s *AttendeeService) Delete(ctx context.Context, id string) error {
	if err := checkID("attendee", id); err != nil {
		return err
	}
	if err := s.stores.Attendees.Delete(ctx, id); err != nil {
		return notFoundAs("attendee", "delete attendee", err)
	}
	s.deps.Logger.InfoContext(ctx, "attendee deleted", "attendee_id", id)
	return nil
}
