// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-booking/internal/clock"
	"github.com/Shivanand-hulikatti/event-booking/internal/metrics"
	"github.com/Shivanand-hulikatti/event-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-booking/internal/repository"
)

// Transactor runs fn in a single storage transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CountryStore interface {
	Create(ctx context.Context, c *model.Country) error
	GetByID(ctx context.Context, id string) (*model.Country, error)
	List(ctx context.Context) ([]model.Country, error)
	Delete(ctx context.Context, id string) error
}

type AttendeeStore interface {
	Create(ctx context.Context, a *model.Attendee) error
	GetByID(ctx context.Context, id string) (*model.Attendee, error)
	List(ctx context.Context) ([]model.Attendee, error)
	Update(ctx context.Context, a *model.Attendee) error
	Delete(ctx context.Context, id string) error
}

type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	// GetForUpdate locks the event row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id string) error
}

type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetForUpdate(ctx context.Context, id string) (*model.Booking, error)
	Exists(ctx context.Context, eventID, attendeeID string) (bool, error)
	CountConfirmed(ctx context.Context, eventID string) (int, error)
	ConfirmedCounts(ctx context.Context, eventIDs []string) (map[string]int, error)
	List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, b *model.Booking) error
	Delete(ctx context.Context, id string) error
}

// Stores bundles the storage dependencies shared by every service.
type Stores struct {
	Tx        Transactor
	Countries CountryStore
	Attendees AttendeeStore
	Events    EventStore
	Bookings  BookingStore
}

// PostgresStores wires the pgx-backed repositories. countries may replace the
// plain country repository, e.g. with a cached one; pass nil to keep it.
func PostgresStores(db *repository.Postgres, countries CountryStore) Stores {
	if countries == nil {
		countries = db.Countries()
	}
	return Stores{
		Tx:        db,
		Countries: countries,
		Attendees: db.Attendees(),
		Events:    db.Events(),
		Bookings:  db.Bookings(),
	}
}

// MemoryStores wires the in-memory store.
func MemoryStores(db *repository.Memory) Stores {
	return Stores{
		Tx:        db,
		Countries: db.Countries(),
		Attendees: db.Attendees(),
		Events:    db.Events(),
		Bookings:  db.Bookings(),
	}
}

// Deps are the ambient dependencies shared by every service. Metrics may be nil.
type Deps struct {
	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clock.NewSystem()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// checkID rejects identifiers that cannot name a stored row.
func checkID(resource, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.NotFound(resource)
	}
	return nil
}

// notFoundAs converts a repository miss into a typed not-found error and
// wraps anything else with op.
func notFoundAs(resource, op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return model.NotFound(resource)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// outcome classifies err for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case model.KindOf(err) != "":
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

// views builds event read models with location and live occupancy.
type views struct {
	stores Stores
}

func (v views) event(ctx context.Context, e *model.Event) (*model.EventView, error) {
	confirmed, err := v.stores.Bookings.CountConfirmed(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("count confirmed bookings: %w", err)
	}
	loc, err := v.stores.Countries.GetByID(ctx, e.LocationID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("get event location: %w", err)
	}
	return model.NewEventView(e, loc, confirmed), nil
}

func (v views) events(ctx context.Context, events []model.Event) ([]model.EventView, error) {
	if len(events) == 0 {
		return []model.EventView{}, nil
	}
	ids := make([]string, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}
	counts, err := v.stores.Bookings.ConfirmedCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count confirmed bookings: %w", err)
	}
	countries, err := v.stores.Countries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	byID := make(map[string]*model.Country, len(countries))
	for i := range countries {
		byID[countries[i].ID] = &countries[i]
	}

	out := make([]model.EventView, 0, len(events))
	for i := range events {
		out = append(out, *model.NewEventView(&events[i], byID[events[i].LocationID], counts[events[i].ID]))
	}
	return out, nil
}
