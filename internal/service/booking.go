package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-booking/internal/repository"
)

// BookingService is the booking engine: it admits, confirms and cancels
// bookings while keeping confirmed bookings within each event's capacity.
//
// Every write locks the event row before touching a booking, so concurrent
// confirmations of one event queue on that lock and each sees the count left
// by the previous one.
type BookingService struct {
	stores Stores
	deps   Deps
	views  views
}

// NewBookingService constructs a BookingService.
func NewBookingService(stores Stores, deps Deps) *BookingService {
	return &BookingService{stores: stores, deps: deps.withDefaults(), views: views{stores: stores}}
}

// Create books an attendee into an event in the pending state.
//
// Checks run in a fixed order: the event and attendee must exist, the event
// must be active and not fully booked, and the pair must not already have a
// booking of any status.
func (s *BookingService) Create(ctx context.Context, req model.CreateBookingRequest) (view *model.BookingView, err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.ObserveBooking("create", outcome(err), start) }()

	if err := model.Validate(req); err != nil {
		return nil, err
	}

	var b *model.Booking
	err = s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.stores.Events.GetForUpdate(ctx, req.EventID)
		if err != nil {
			return notFoundAs("event", "lock event", err)
		}
		if _, err := s.stores.Attendees.GetByID(ctx, req.AttendeeID); err != nil {
			return notFoundAs("attendee", "get attendee", err)
		}
		if !event.IsActive {
			return model.ErrInactiveEvent
		}

		confirmed, err := s.stores.Bookings.CountConfirmed(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("count confirmed bookings: %w", err)
		}
		if event.IsFull(confirmed) {
			return model.ErrEventFull
		}

		exists, err := s.stores.Bookings.Exists(ctx, event.ID, req.AttendeeID)
		if err != nil {
			return fmt.Errorf("check existing booking: %w", err)
		}
		if exists {
			return model.ErrDuplicateBooking
		}

		now := s.deps.Clock.Now()
		b = &model.Booking{
			ID:          uuid.NewString(),
			EventID:     event.ID,
			AttendeeID:  req.AttendeeID,
			Status:      model.BookingPending,
			BookingDate: now,
			UpdatedAt:   now,
		}
		if err := s.stores.Bookings.Create(ctx, b); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return model.ErrDuplicateBooking
			}
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logRejected(ctx, "create", err, "event_id", req.EventID, "attendee_id", req.AttendeeID)
		return nil, err
	}

	s.deps.Logger.InfoContext(ctx, "booking created",
		"booking_id", b.ID, "event_id", b.EventID, "attendee_id", b.AttendeeID)
	return s.view(ctx, b)
}

// Confirm moves a pending or cancelled booking to confirmed if the event still
// has a free seat. A booking that is already confirmed is rejected before
// capacity is considered.
func (s *BookingService) Confirm(ctx context.Context, id string) (view *model.BookingView, err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.ObserveBooking("confirm", outcome(err), start) }()

	b, err := s.transition(ctx, id, func(ctx context.Context, b *model.Booking, event *model.Event) error {
		if err := b.CanConfirm(); err != nil {
			return err
		}
		confirmed, err := s.stores.Bookings.CountConfirmed(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("count confirmed bookings: %w", err)
		}
		if event.IsFull(confirmed) {
			return model.ErrEventFull
		}
		b.ApplyStatus(model.BookingConfirmed, s.deps.Clock.Now())
		return nil
	})
	if err != nil {
		s.logRejected(ctx, "confirm", err, "booking_id", id)
		return nil, err
	}

	s.deps.Logger.InfoContext(ctx, "booking confirmed", "booking_id", b.ID, "event_id", b.EventID)
	return s.view(ctx, b)
}

// Cancel moves any booking that is not already cancelled to cancelled. The
// freed seat shows up in the next occupancy computation.
func (s *BookingService) Cancel(ctx context.Context, id string) (view *model.BookingView, err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.ObserveBooking("cancel", outcome(err), start) }()

	b, err := s.transition(ctx, id, func(_ context.Context, b *model.Booking, _ *model.Event) error {
		if err := b.CanCancel(); err != nil {
			return err
		}
		b.ApplyStatus(model.BookingCancelled, s.deps.Clock.Now())
		return nil
	})
	if err != nil {
		s.logRejected(ctx, "cancel", err, "booking_id", id)
		return nil, err
	}

	s.deps.Logger.InfoContext(ctx, "booking cancelled", "booking_id", b.ID, "event_id", b.EventID)
	return s.view(ctx, b)
}

// transition locks the booking's event, then the booking, lets apply mutate
// the locked copy and persists the new status.
func (s *BookingService) transition(
	ctx context.Context,
	id string,
	apply func(ctx context.Context, b *model.Booking, event *model.Event) error,
) (*model.Booking, error) {
	if err := checkID("booking", id); err != nil {
		return nil, err
	}
	current, err := s.stores.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs("booking", "get booking", err)
	}

	var b *model.Booking
	err = s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.stores.Events.GetForUpdate(ctx, current.EventID)
		if err != nil {
			return notFoundAs("booking", "lock event", err)
		}
		// Re-read under the lock; the status may have moved since.
		locked, err := s.stores.Bookings.GetForUpdate(ctx, id)
		if err != nil {
			return notFoundAs("booking", "lock booking", err)
		}
		if err := apply(ctx, locked, event); err != nil {
			return err
		}
		if err := s.stores.Bookings.UpdateStatus(ctx, locked); err != nil {
			return notFoundAs("booking", "update booking status", err)
		}
		b = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Get returns a booking with its event and attendee expanded.
func (s *BookingService) Get(ctx context.Context, id string) (*model.BookingView, error) {
	if err := checkID("booking", id); err != nil {
		return nil, err
	}
	b, err := s.stores.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs("booking", "get booking", err)
	}
	return s.view(ctx, b)
}

// List returns bookings matching f, newest first.
func (s *BookingService) List(ctx context.Context, f model.BookingFilter) ([]model.BookingView, error) {
	if f.EventID != "" {
		if _, err := uuid.Parse(f.EventID); err != nil {
			return nil, model.Validation("event", "invalid_id", "Must be a valid UUID.")
		}
	}
	if f.AttendeeID != "" {
		if _, err := uuid.Parse(f.AttendeeID); err != nil {
			return nil, model.Validation("attendee", "invalid_id", "Must be a valid UUID.")
		}
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, model.Validation("status", "invalid_status", "Status must be one of pending, confirmed, cancelled.")
	}

	bookings, err := s.stores.Bookings.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return s.viewAll(ctx, bookings)
}

// ListForEvent returns the bookings of one event.
func (s *BookingService) ListForEvent(ctx context.Context, eventID string) ([]model.BookingView, error) {
	if err := checkID("event", eventID); err != nil {
		return nil, err
	}
	if _, err := s.stores.Events.GetByID(ctx, eventID); err != nil {
		return nil, notFoundAs("event", "get event", err)
	}
	return s.List(ctx, model.BookingFilter{EventID: eventID})
}

// ListForAttendee returns the bookings of one attendee.
func (s *BookingService) ListForAttendee(ctx context.Context, attendeeID string) ([]model.BookingView, error) {
	if err := checkID("attendee", attendeeID); err != nil {
		return nil, err
	}
	if _, err := s.stores.Attendees.GetByID(ctx, attendeeID); err != nil {
		return nil, notFoundAs("attendee", "get attendee", err)
	}
	return s.List(ctx, model.BookingFilter{AttendeeID: attendeeID})
}

// Delete removes a booking outright.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	if err := checkID("booking", id); err != nil {
		return err
	}
	if err := s.stores.Bookings.Delete(ctx, id); err != nil {
		return notFoundAs("booking", "delete booking", err)
	}
	s.deps.Logger.InfoContext(ctx, "booking deleted", "booking_id", id)
	return nil
}

func (s *BookingService) logRejected(ctx context.Context, op string, err error, attrs ...any) {
	if model.KindOf(err) == "" {
		s.deps.Logger.ErrorContext(ctx, "booking "+op+" failed", append(attrs, "error", err)...)
		return
	}
	s.deps.Logger.DebugContext(ctx, "booking "+op+" rejected", append(attrs, "reason", err.Error())...)
}

func (s *BookingService) view(ctx context.Context, b *model.Booking) (*model.BookingView, error) {
	out := &model.BookingView{Booking: *b}

	event, err := s.stores.Events.GetByID(ctx, b.EventID)
	switch {
	case err == nil:
		if out.EventDetails, err = s.views.event(ctx, event); err != nil {
			return nil, err
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("get booking event: %w", err)
	}

	attendee, err := s.stores.Attendees.GetByID(ctx, b.AttendeeID)
	switch {
	case err == nil:
		out.AttendeeDetails = attendee
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("get booking attendee: %w", err)
	}
	return out, nil
}

func (s *BookingService) viewAll(ctx context.Context, bookings []model.Booking) ([]model.BookingView, error) {
	out := make([]model.BookingView, 0, len(bookings))
	events := make(map[string]*model.EventView)
	attendees := make(map[string]*model.Attendee)

	for _, b := range bookings {
		ev, ok := events[b.EventID]
		if !ok {
			e, err := s.stores.Events.GetByID(ctx, b.EventID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("get booking event: %w", err)
			}
			if e != nil {
				if ev, err = s.views.event(ctx, e); err != nil {
					return nil, err
				}
			}
			events[b.EventID] = ev
		}

		a, ok := attendees[b.AttendeeID]
		if !ok {
			var err error
			a, err = s.stores.Attendees.GetByID(ctx, b.AttendeeID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("get booking attendee: %w", err)
			}
			attendees[b.AttendeeID] = a
		}

		out = append(out, model.BookingView{Booking: b, EventDetails: ev, AttendeeDetails: a})
	}
	return out, nil
}
