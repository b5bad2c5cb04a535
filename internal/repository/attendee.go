package repository

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

// AttendeeRepository handles persistence for attendees.
type AttendeeRepository struct {
	db *Postgres
}

const attendeeColumns = `id, first_name, last_name, email, phone, date_of_birth, created_at, updated_at`

func scanAttendee(row interface{ Scan(...any) error }) (*model.Attendee, error) {
	var (
		a   model.Attendee
		dob time.Time
	)
	if err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &dob, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.DateOfBirth = model.DateOf(dob)
	return &a, nil
}

// Create inserts a. Email is unique.
func (r *AttendeeRepository) Create(ctx context.Context, a *model.Attendee) error {
	_, err := r.db.conn(ctx).Exec(ctx,
		`INSERT INTO attendees (`+attendeeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.FirstName, a.LastName, a.Email, a.Phone, a.DateOfBirth.Time, a.CreatedAt, a.UpdatedAt,
	)
	return mapError("insert attendee", err)
}

// GetByID returns a single attendee or ErrNotFound.
func (r *AttendeeRepository) GetByID(ctx context.Context, id string) (*model.Attendee, error) {
	a, err := scanAttendee(r.db.conn(ctx).QueryRow(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE id = $1`, id,
	))
	if err != nil {
		return nil, mapError("get attendee", err)
	}
	return a, nil
}

// List returns all attendees ordered by last name, then first name.
func (r *AttendeeRepository) List(ctx context.Context) ([]model.Attendee, error) {
	rows, err := r.db.conn(ctx).Query(ctx,
		`SELECT `+attendeeColumns+` FROM attendees ORDER BY last_name, first_name`,
	)
	if err != nil {
		return nil, mapError("list attendees", err)
	}
	defer rows.Close()

	var out []model.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, mapError("scan attendee", err)
		}
		out = append(out, *a)
	}
	return out, mapError("list attendees", rows.Err())
}

// Update overwrites the mutable profile fields of a.
func (r *AttendeeRepository) Update(ctx context.Context, a *model.Attendee) error {
	tag, err := r.db.conn(ctx).Exec(ctx,
		`UPDATE attendees
		 SET first_name = $2, last_name = $3, email = $4, phone = $5, date_of_birth = $6, updated_at = $7
		 WHERE id = $1`,
		a.ID, a.FirstName, a.LastName, a.Email, a.Phone, a.DateOfBirth.Time, a.UpdatedAt,
	)
	if err != nil {
		return mapError("update attendee", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an attendee; the schema cascades to its bookings.
func (r *AttendeeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM attendees WHERE id = $1`, id)
	if err != nil {
		return mapError("delete attendee", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
