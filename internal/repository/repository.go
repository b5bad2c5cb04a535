// Package repository implements persistence for countries, attendees, events
// and bookings. The Postgres stores use pgx directly (no ORM); Memory offers
// the same semantics for tests and local runs without a database.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a write hits a unique constraint.
var ErrDuplicate = errors.New("duplicate")

// ErrReferenced is returned when a write breaks a foreign key: deleting a
// row that others still point to, or pointing at a row that is missing.
var ErrReferenced = errors.New("referenced")

// Constraint names shared by the SQL schema and the in-memory store.
const (
	ConstraintCountryName     = "countries_name_key"
	ConstraintCountryCode     = "countries_code_key"
	ConstraintAttendeeEmail   = "attendees_email_key"
	ConstraintBookingPair     = "bookings_event_attendee_key"
	ConstraintEventLocation   = "events_location_id_fkey"
	ConstraintBookingEvent    = "bookings_event_id_fkey"
	ConstraintBookingAttendee = "bookings_attendee_id_fkey"
)

// ConstraintError carries the name of the violated constraint alongside one
// of the sentinels above.
type ConstraintError struct {
	Err        error
	Constraint string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Err, e.Constraint)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// ConstraintOf returns the violated constraint name, or "".
func ConstraintOf(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// Postgres owns the pool and hands out a transaction scope. Stores built
// from it pick up the transaction from the context when one is open.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// WithTx runs fn inside a transaction. Nested calls join the outer one.
func (p *Postgres) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback after Commit is a no-op; this also releases the connection
	// when fn panics.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

func (p *Postgres) conn(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return p.pool
}

// Countries returns the country store.
func (p *Postgres) Countries() *CountryRepository { return &CountryRepository{db: p} }

// Attendees returns the attendee store.
func (p *Postgres) Attendees() *AttendeeRepository { return &AttendeeRepository{db: p} }

// Events returns the event store.
func (p *Postgres) Events() *EventRepository { return &EventRepository{db: p} }

// Bookings returns the booking store.
func (p *Postgres) Bookings() *BookingRepository { return &BookingRepository{db: p} }

// mapError turns pgx/Postgres failures into the package sentinels. Anything
// else is returned wrapped with op.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return &ConstraintError{Err: ErrDuplicate, Constraint: pgErr.ConstraintName}
		case "23503": // foreign_key_violation
			return &ConstraintError{Err: ErrReferenced, Constraint: pgErr.ConstraintName}
		case "22P02": // invalid_text_representation, e.g. a malformed uuid
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
