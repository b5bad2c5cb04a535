package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *Postgres
}

const bookingColumns = `id, event_id, attendee_id, status, booking_date, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	if err := row.Scan(&b.ID, &b.EventID, &b.AttendeeID, &b.Status, &b.BookingDate, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts b. The (event, attendee) pair is unique regardless of status;
// a second row for the same pair fails with ErrDuplicate.
func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) error {
	_, err := r.db.conn(ctx).Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.EventID, b.AttendeeID, b.Status, b.BookingDate, b.UpdatedAt,
	)
	return mapError("insert booking", err)
}

// GetByID returns a single booking or ErrNotFound.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(r.db.conn(ctx).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id,
	))
	if err != nil {
		return nil, mapError("get booking", err)
	}
	return b, nil
}

// GetForUpdate reads a booking and locks its row until the transaction ends.
// Callers that also lock the event must lock the event first.
func (r *BookingRepository) GetForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(r.db.conn(ctx).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id,
	))
	if err != nil {
		return nil, mapError("lock booking row", err)
	}
	return b, nil
}

// Exists reports whether any booking, of any status, links the pair.
func (r *BookingRepository) Exists(ctx context.Context, eventID, attendeeID string) (bool, error) {
	var exists bool
	err := r.db.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE event_id = $1 AND attendee_id = $2)`,
		eventID, attendeeID,
	).Scan(&exists)
	if err != nil {
		return false, mapError("check duplicate", err)
	}
	return exists, nil
}

// CountConfirmed returns the number of confirmed bookings for an event.
func (r *BookingRepository) CountConfirmed(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.db.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE event_id = $1 AND status = $2`,
		eventID, model.BookingConfirmed,
	).Scan(&n)
	if err != nil {
		return 0, mapError("count confirmed", err)
	}
	return n, nil
}

// ConfirmedCounts returns confirmed counts keyed by event id. Events with no
// confirmed bookings are absent from the map.
func (r *BookingRepository) ConfirmedCounts(ctx context.Context, eventIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	rows, err := r.db.conn(ctx).Query(ctx,
		`SELECT event_id, COUNT(*) FROM bookings
		 WHERE event_id = ANY($1::uuid[]) AND status = $2
		 GROUP BY event_id`,
		eventIDs, model.BookingConfirmed,
	)
	if err != nil {
		return nil, mapError("count confirmed by event", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, mapError("scan confirmed count", err)
		}
		counts[id] = n
	}
	return counts, mapError("count confirmed by event", rows.Err())
}

// List returns bookings matching f, newest first.
func (r *BookingRepository) List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	var (
		where []string
		args  []any
	)
	if f.EventID != "" {
		args = append(args, f.EventID)
		where = append(where, fmt.Sprintf("event_id = $%d", len(args)))
	}
	if f.AttendeeID != "" {
		args = append(args, f.AttendeeID)
		where = append(where, fmt.Sprintf("attendee_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY booking_date DESC, id`

	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list bookings", err)
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapError("scan booking", err)
		}
		out = append(out, *b)
	}
	return out, mapError("list bookings", rows.Err())
}

// UpdateStatus persists b.Status and b.UpdatedAt. booking_date is immutable.
func (r *BookingRepository) UpdateStatus(ctx context.Context, b *model.Booking) error {
	tag, err := r.db.conn(ctx).Exec(ctx,
		`UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`,
		b.ID, b.Status, b.UpdatedAt,
	)
	if err != nil {
		return mapError("update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a booking.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return mapError("delete booking", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
