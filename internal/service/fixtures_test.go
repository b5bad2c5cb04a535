package service

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/Shivanand-hulikatti/event-booking/internal/clock"
	"github.com/Shivanand-hulikatti/event-booking/internal/logger"
	"github.com/Shivanand-hulikatti/event-booking/internal/metrics"
	"github.com/Shivanand-hulikatti/event-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-booking/internal/repository"
)

const organiser = "organiser-1"

var testNow = time.Date(2030, time.March, 1, 9, 0, 0, 0, time.UTC)

// serviceSuite wires every service against a fresh in-memory store.
type serviceSuite struct {
	suite.Suite
	ctx       context.Context
	clock     *clock.Fixed
	metrics   *metrics.Metrics
	store     *repository.Memory
	location  *model.Country
	countries *CountryService
	attendees *AttendeeService
	events    *EventService
	bookings  *BookingService
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewFixed(testNow)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.store = repository.NewMemory()

	stores := MemoryStores(s.store)
	deps := Deps{Clock: s.clock, Logger: logger.Discard(), Metrics: s.metrics}
	s.countries = NewCountryService(stores, deps)
	s.attendees = NewAttendeeService(stores, deps)
	s.events = NewEventService(stores, deps)
	s.bookings = NewBookingService(stores, deps)

	s.location = s.country("Kenya", "KE")
}

func (s *serviceSuite) country(name, code string) *model.Country {
	c, err := s.countries.Create(s.ctx, model.CreateCountryRequest{Name: name, Code: code})
	s.Require().NoError(err)
	return c
}

func (s *serviceSuite) attendee(email string) *model.Attendee {
	dob := model.NewDate(1990, time.May, 4)
	a, err := s.attendees.Register(s.ctx, model.CreateAttendeeRequest{
		FirstName: "Test", LastName: "Attendee", Email: email, Phone: "+1234567890", DateOfBirth: &dob,
	})
	s.Require().NoError(err)
	return a
}

func (s *serviceSuite) eventRequest(locationID string, capacity int) model.CreateEventRequest {
	start := testNow.Add(24 * time.Hour)
	end := start.Add(3 * time.Hour)
	price := decimal.RequireFromString("25.00")
	return model.CreateEventRequest{
		Title:         "Go Meetup",
		Description:   "Monthly meetup",
		StartDatetime: &start,
		EndDatetime:   &end,
		LocationID:    locationID,
		Capacity:      &capacity,
		Price:         &price,
	}
}

func (s *serviceSuite) event(capacity int) *model.EventView {
	return s.eventAt(s.location.ID, capacity)
}

func (s *serviceSuite) eventAt(locationID string, capacity int) *model.EventView {
	e, err := s.events.Create(s.ctx, s.eventRequest(locationID, capacity), organiser)
	s.Require().NoError(err)
	return e
}

func (s *serviceSuite) booking(eventID, attendeeID string) *model.BookingView {
	b, err := s.bookings.Create(s.ctx, model.CreateBookingRequest{EventID: eventID, AttendeeID: attendeeID})
	s.Require().NoError(err)
	return b
}
