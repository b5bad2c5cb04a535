// Package model defines the core domain types for the event booking system.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Country is reference data used to tag where an event takes place.
type Country struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Attendee is a person who can be booked into events.
type Attendee struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	DateOfBirth Date      `json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (a *Attendee) FullName() string {
	return a.FirstName + " " + a.LastName
}

func (a Attendee) MarshalJSON() ([]byte, error) {
	type plain Attendee
	return json.Marshal(struct {
		plain
		FullName string `json:"full_name"`
	}{plain(a), a.FullName()})
}

// Event is a bookable event. Occupancy is never stored on it; see Remaining.
type Event struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	StartDatetime time.Time       `json:"start_datetime"`
	EndDatetime   time.Time       `json:"end_datetime"`
	LocationID    string          `json:"location_id"`
	Capacity      int             `json:"capacity"`
	Price         decimal.Decimal `json:"price"`
	IsActive      bool            `json:"is_active"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Remaining returns the number of seats left given the current count of
// confirmed bookings. It can be negative if capacity was lowered by hand in
// storage; callers treat anything <= 0 as full.
func (e *Event) Remaining(confirmed int) int {
	return e.Capacity - confirmed
}

// IsFull reports whether no seats remain for the given confirmed count.
func (e *Event) IsFull(confirmed int) bool {
	return e.Remaining(confirmed) <= 0
}

// EventView is the read representation of an event with its location
// expanded and occupancy computed for the moment it was built.
type EventView struct {
	Event
	Location          *Country `json:"location,omitempty"`
	RemainingCapacity int      `json:"remaining_capacity"`
	IsFullyBooked     bool     `json:"is_fully_booked"`
}

// MarshalJSON renders price with two decimal places, matching NUMERIC(10,2).
func (v EventView) MarshalJSON() ([]byte, error) {
	type plain EventView
	return json.Marshal(struct {
		plain
		Price string `json:"price"`
	}{plain(v), v.Price.StringFixed(2)})
}

// NewEventView computes occupancy from confirmed and wraps e.
func NewEventView(e *Event, location *Country, confirmed int) *EventView {
	return &EventView{
		Event:             *e,
		Location:          location,
		RemainingCapacity: e.Remaining(confirmed),
		IsFullyBooked:     e.IsFull(confirmed),
	}
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

// Booking links an attendee to an event.
type Booking struct {
	ID          string        `json:"id"`
	EventID     string        `json:"event"`
	AttendeeID  string        `json:"attendee"`
	Status      BookingStatus `json:"status"`
	BookingDate time.Time     `json:"booking_date"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CanConfirm rejects re-confirming. Cancelled bookings may be confirmed again.
func (b *Booking) CanConfirm() error {
	if b.Status == BookingConfirmed {
		return ErrAlreadyConfirmed
	}
	return nil
}

// CanCancel rejects cancelling twice.
func (b *Booking) CanCancel() error {
	if b.Status == BookingCancelled {
		return ErrAlreadyCancelled
	}
	return nil
}

// ApplyStatus moves the booking to status. booking_date is left alone.
func (b *Booking) ApplyStatus(status BookingStatus, now time.Time) {
	b.Status = status
	b.UpdatedAt = now
}

// BookingView is a booking with its event and attendee expanded.
type BookingView struct {
	Booking
	EventDetails    *EventView `json:"event_details,omitempty"`
	AttendeeDetails *Attendee  `json:"attendee_details,omitempty"`
}

// BookingFilter narrows a booking listing. Empty fields match everything.
type BookingFilter struct {
	EventID    string
	AttendeeID string
	Status     BookingStatus
}

// Date is a calendar date without time of day, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate truncates t to its calendar date in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ─── Requests ────────────────────────────────────────────────────────────────

// CreateCountryRequest is the payload for adding a country.
type CreateCountryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,alpha,min=2,max=3"`
}

// CreateAttendeeRequest is the payload for registering an attendee.
type CreateAttendeeRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Phone       string `json:"phone" validate:"required,max=20"`
	DateOfBirth *Date  `json:"date_of_birth" validate:"required"`
}

// UpdateAttendeeRequest is a partial profile edit; nil fields are unchanged.
type UpdateAttendeeRequest struct {
	FirstName   *string `json:"first_name" validate:"omitnil,min=1,max=100"`
	LastName    *string `json:"last_name" validate:"omitnil,min=1,max=100"`
	Email       *string `json:"email" validate:"omitnil,email,max=254"`
	Phone       *string `json:"phone" validate:"omitnil,min=1,max=20"`
	DateOfBirth *Date   `json:"date_of_birth"`
}

// Normalize trims the text fields and normalizes the email address.
func (r *CreateAttendeeRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = NormalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

// Normalize trims the supplied text fields and normalizes the email address.
func (r *UpdateAttendeeRequest) Normalize() {
	r.FirstName = trimmed(r.FirstName)
	r.LastName = trimmed(r.LastName)
	r.Phone = trimmed(r.Phone)
	if r.Email != nil {
		email := NormalizeEmail(*r.Email)
		r.Email = &email
	}
}

// Patch converts a full request into an update touching every field.
func (r CreateAttendeeRequest) Patch() UpdateAttendeeRequest {
	return UpdateAttendeeRequest{
		FirstName:   &r.FirstName,
		LastName:    &r.LastName,
		Email:       &r.Email,
		Phone:       &r.Phone,
		DateOfBirth: r.DateOfBirth,
	}
}

// CreateEventRequest is the payload for publishing an event.
type CreateEventRequest struct {
	Title         string           `json:"title" validate:"required,max=200"`
	Description   string           `json:"description" validate:"required"`
	StartDatetime *time.Time       `json:"start_datetime" validate:"required"`
	EndDatetime   *time.Time       `json:"end_datetime" validate:"required"`
	LocationID    string           `json:"location_id" validate:"required,uuid"`
	Capacity      *int             `json:"capacity" validate:"required,min=1"`
	Price         *decimal.Decimal `json:"price" validate:"required"`
	IsActive      *bool            `json:"is_active"`
}

// UpdateEventRequest is a partial event edit; nil fields are unchanged.
type UpdateEventRequest struct {
	Title         *string          `json:"title" validate:"omitnil,min=1,max=200"`
	Description   *string          `json:"description" validate:"omitnil,min=1"`
	StartDatetime *time.Time       `json:"start_datetime"`
	EndDatetime   *time.Time       `json:"end_datetime"`
	LocationID    *string          `json:"location_id" validate:"omitnil,uuid"`
	Capacity      *int             `json:"capacity" validate:"omitnil,min=1"`
	Price         *decimal.Decimal `json:"price"`
	IsActive      *bool            `json:"is_active"`
}

// Normalize trims the text fields.
func (r *CreateEventRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
}

// Normalize trims the supplied text fields.
func (r *UpdateEventRequest) Normalize() {
	r.Title = trimmed(r.Title)
	r.Description = trimmed(r.Description)
}

// trimmed returns a trimmed copy so the caller's string is left alone.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// Patch converts a full request into an update touching every field.
func (r CreateEventRequest) Patch() UpdateEventRequest {
	return UpdateEventRequest{
		Title:         &r.Title,
		Description:   &r.Description,
		StartDatetime: r.StartDatetime,
		EndDatetime:   r.EndDatetime,
		LocationID:    &r.LocationID,
		Capacity:      r.Capacity,
		Price:         r.Price,
		IsActive:      r.IsActive,
	}
}

// CreateBookingRequest is the payload for booking an attendee into an event.
type CreateBookingRequest struct {
	EventID    string `json:"event" validate:"required,uuid"`
	AttendeeID string `json:"attendee" validate:"required,uuid"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Field  string            `json:"field,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// BookingResult summarises the outcome of a single confirmation attempt.
// Used by the concurrent confirm tests.
type BookingResult struct {
	BookingID string
	Success   bool
	Error     error
}
