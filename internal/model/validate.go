package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so field errors line up with the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the struct tags on a request and returns a *Error of kind
// validation listing every failing field.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	out := &Error{Kind: KindValidation, Code: "invalid_request", Fields: make(map[string]string, len(verrs))}
	for i, fe := range verrs {
		msg := fieldMessage(fe)
		out.Fields[fe.Field()] = msg
		if i == 0 {
			out.Field = fe.Field()
			out.Message = msg
		}
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "uuid":
		return "Must be a valid UUID."
	case "alpha":
		return "Only letters are allowed."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	}
	return fmt.Sprintf("Failed %q validation.", fe.Tag())
}

// ValidateSchedule enforces start < end and, when checkStart is set, that the
// event does not start before now.
func ValidateSchedule(start, end, now time.Time, checkStart bool) error {
	if !start.Before(end) {
		return ErrInvalidDateRange
	}
	if checkStart && start.Before(now) {
		return ErrStartInPast
	}
	return nil
}

// ValidateBirthDate rejects dates of birth after today.
func ValidateBirthDate(dob Date, now time.Time) error {
	if dob.After(DateOf(now).Time) {
		return ErrFutureBirthDate
	}
	return nil
}

var maxPrice = decimal.New(1, 8) // NUMERIC(10,2)

// ValidatePrice enforces price >= 0 with at most two decimal places.
func ValidatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return ErrNegativePrice
	}
	if !p.Equal(p.Round(2)) {
		return Validation("price", "invalid_price", "Ensure that there are no more than 2 decimal places.")
	}
	if p.GreaterThanOrEqual(maxPrice) {
		return Validation("price", "invalid_price", "Ensure that there are no more than 10 digits in total.")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
