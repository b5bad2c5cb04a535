package model

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for the request boundary.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindCapacity     Kind = "capacity"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
)

// Error is a business-rule failure. Code is the machine-readable reason
// returned to clients; Field names the offending input when there is one.
type Error struct {
	Kind    Kind
	Code    string
	Field   string
	Message string
	// Fields holds one message per field when several inputs failed at once.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Is matches on Kind and Code so callers can compare against the
// package-level errors below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Booking admission errors.
var (
	ErrEventFull = &Error{Kind: KindCapacity, Code: "fully_booked", Message: "This event is fully booked"}

	ErrDuplicateBooking = &Error{Kind: KindConflict, Code: "duplicate", Message: "Attendee has already booked this event"}
	ErrAlreadyConfirmed = &Error{Kind: KindConflict, Code: "already_confirmed", Message: "Booking is already confirmed"}
	ErrAlreadyCancelled = &Error{Kind: KindConflict, Code: "already_cancelled", Message: "Booking is already cancelled"}

	ErrInactiveEvent = &Error{Kind: KindValidation, Code: "inactive_event", Field: "event", Message: "Cannot book an inactive event"}
)

// Validation errors for entity invariants.
var (
	ErrInvalidDateRange = &Error{Kind: KindValidation, Code: "invalid_date_range", Field: "end_datetime", Message: "Start datetime must be before end datetime"}
	ErrStartInPast      = &Error{Kind: KindValidation, Code: "start_in_past", Field: "start_datetime", Message: "Event cannot start in the past"}
	ErrFutureBirthDate  = &Error{Kind: KindValidation, Code: "future_birth_date", Field: "date_of_birth", Message: "Date of birth cannot be in the future"}
	ErrNegativePrice    = &Error{Kind: KindValidation, Code: "invalid_price", Field: "price", Message: "Price must be greater than or equal to 0"}
)

// Validation builds a single-field validation error.
func Validation(field, code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Field: field, Message: msg}
}

// NotFound reports a missing entity by its resource name.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Code: resource + "_not_found", Message: resource + " not found"}
}

// Conflict reports a uniqueness or state conflict.
func Conflict(field, code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Field: field, Message: msg}
}

// Forbidden reports an actor acting on something it does not own.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: "forbidden", Message: msg}
}

// Unauthorized reports a missing identity.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: "unauthorized", Message: msg}
}

// KindOf returns the Kind of err, or "" when err is not a business error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
