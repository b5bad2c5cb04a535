package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db *Postgres
}

// price travels as text so NUMERIC keeps its exact value.
const eventColumns = `id, title, description, start_datetime, end_datetime, location_id,
	capacity, price::text, is_active, created_by, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*model.Event, error) {
	var (
		e     model.Event
		price string
	)
	if err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.StartDatetime, &e.EndDatetime, &e.LocationID,
		&e.Capacity, &price, &e.IsActive, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	e.Price = p
	return &e, nil
}

// Create inserts e.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.conn(ctx).Exec(ctx,
		`INSERT INTO events (id, title, description, start_datetime, end_datetime, location_id,
		                     capacity, price, is_active, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $12)`,
		e.ID, e.Title, e.Description, e.StartDatetime, e.EndDatetime, e.LocationID,
		e.Capacity, e.Price.StringFixed(2), e.IsActive, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	return mapError("insert event", err)
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.conn(ctx).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
	))
	if err != nil {
		return nil, mapError("get event", err)
	}
	return e, nil
}

// GetForUpdate reads an event and takes a row-level exclusive lock on it for
// the rest of the surrounding transaction.
//
// Every path that counts confirmed bookings and then writes based on that
// count (create, confirm, capacity edits) calls this first. Concurrent
// callers for the same event queue on the lock, so the count each one sees
// already includes the previous holder's committed write. Without it two
// confirms could both read "one seat left" and overbook the event.
//
// Must be called inside Postgres.WithTx; outside a transaction the lock is
// released as soon as the statement finishes.
func (r *EventRepository) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.conn(ctx).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id,
	))
	if err != nil {
		return nil, mapError("lock event row", err)
	}
	return e, nil
}

// List returns all events ordered by start time.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.conn(ctx).Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY start_datetime, id`,
	)
	if err != nil {
		return nil, mapError("list events", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, mapError("scan event", err)
		}
		out = append(out, *e)
	}
	return out, mapError("list events", rows.Err())
}

// Update overwrites the mutable fields of e. created_by and created_at are
// never changed.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	tag, err := r.db.conn(ctx).Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, start_datetime = $4, end_datetime = $5, location_id = $6,
		     capacity = $7, price = $8::numeric, is_active = $9, updated_at = $10
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.StartDatetime, e.EndDatetime, e.LocationID,
		e.Capacity, e.Price.StringFixed(2), e.IsActive, e.UpdatedAt,
	)
	if err != nil {
		return mapError("update event", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an event; the schema cascades to its bookings.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return mapError("delete event", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
