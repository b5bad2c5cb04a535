package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

type EventServiceSuite struct {
	serviceSuite
}

func TestEventServiceSuite(t *testing.T) {
	suite.Run(t, new(EventServiceSuite))
}

func (s *EventServiceSuite) TestCreate() {
	s.Run("defaults to active with full capacity", func() {
		e := s.event(50)
		s.True(e.IsActive)
		s.Equal(organiser, e.CreatedBy)
		s.Equal(50, e.RemainingCapacity)
		s.False(e.IsFullyBooked)
		s.Require().NotNil(e.Location)
		s.Equal("KE", e.Location.Code)
	})

	s.Run("start must be before end", func() {
		req := s.eventRequest(s.location.ID, 10)
		end := *req.StartDatetime
		req.EndDatetime = &end
		_, err := s.events.Create(s.ctx, req, organiser)
		s.ErrorIs(err, model.ErrInvalidDateRange)

		before := req.StartDatetime.Add(-time.Hour)
		req.EndDatetime = &before
		_, err = s.events.Create(s.ctx, req, organiser)
		s.ErrorIs(err, model.ErrInvalidDateRange)
	})

	s.Run("start in the past", func() {
		req := s.eventRequest(s.location.ID, 10)
		start := testNow.Add(-time.Hour)
		req.StartDatetime = &start
		_, err := s.events.Create(s.ctx, req, organiser)
		s.ErrorIs(err, model.ErrStartInPast)
	})

	s.Run("capacity and price", func() {
		req := s.eventRequest(s.location.ID, 0)
		_, err := s.events.Create(s.ctx, req, organiser)
		var verr *model.Error
		s.Require().ErrorAs(err, &verr)
		s.Contains(verr.Fields, "capacity")

		req = s.eventRequest(s.location.ID, 1)
		negative := decimal.RequireFromString("-1")
		req.Price = &negative
		_, err = s.events.Create(s.ctx, req, organiser)
		s.ErrorIs(err, model.ErrNegativePrice)
	})

	s.Run("unknown location", func() {
		_, err := s.events.Create(s.ctx, s.eventRequest(uuid.NewString(), 10), organiser)
		s.Require().Error(err)
		var verr *model.Error
		s.Require().ErrorAs(err, &verr)
		s.Equal("location_id", verr.Field)
	})

	s.Run("requires a creator", func() {
		_, err := s.events.Create(s.ctx, s.eventRequest(s.location.ID, 10), "")
		s.Equal(model.KindUnauthorized, model.KindOf(err))
	})
}

func (s *EventServiceSuite) TestUpdate() {
	s.Run("partial update keeps other fields", func() {
		e := s.event(10)
		title := "Renamed"
		got, err := s.events.Update(s.ctx, e.ID, model.UpdateEventRequest{Title: &title}, organiser)
		s.Require().NoError(err)
		s.Equal("Renamed", got.Title)
		s.Equal(e.Capacity, got.Capacity)
		s.True(got.StartDatetime.Equal(e.StartDatetime))
	})

	s.Run("blank text is rejected after trimming", func() {
		e := s.event(10)
		blank := "   "
		_, err := s.events.Update(s.ctx, e.ID, model.UpdateEventRequest{Title: &blank, Description: &blank}, organiser)
		var verr *model.Error
		s.Require().ErrorAs(err, &verr)
		s.Equal(model.KindValidation, verr.Kind)
		s.Contains(verr.Fields, "title")
		s.Contains(verr.Fields, "description")

		got, err := s.events.Get(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(e.Title, got.Title)
		s.Equal(e.Description, got.Description)
	})

	s.Run("full replacement trims text", func() {
		e := s.event(10)
		req := s.eventRequest(s.location.ID, 10)
		req.Title = "  Autumn Meetup  "
		got, err := s.events.Update(s.ctx, e.ID, req.Patch(), organiser)
		s.Require().NoError(err)
		s.Equal("Autumn Meetup", got.Title)

		req.Description = "\t"
		_, err = s.events.Update(s.ctx, e.ID, req.Patch(), organiser)
		s.Equal(model.KindValidation, model.KindOf(err))
	})

	s.Run("only the creator may update", func() {
		e := s.event(10)
		title := "Hijacked"
		_, err := s.events.Update(s.ctx, e.ID, model.UpdateEventRequest{Title: &title}, "someone-else")
		s.Equal(model.KindForbidden, model.KindOf(err))
	})

	s.Run("end before start", func() {
		e := s.event(10)
		end := e.StartDatetime.Add(-time.Minute)
		_, err := s.events.Update(s.ctx, e.ID, model.UpdateEventRequest{EndDatetime: &end}, organiser)
		s.ErrorIs(err, model.ErrInvalidDateRange)
	})

	s.Run("start in the past only checked when start changes", func() {
		e := s.event(10)
		s.clock.Set(e.StartDatetime.Add(30 * time.Minute))
		defer s.clock.Set(testNow)

		title := "Running late"
		got, err := s.events.Update(s.ctx, e.ID, model.UpdateEventRequest{Title: &title}, organiser)
		s.Require().NoError(err)
		s.Equal(title, got.Title)

		end := e.EndDatetime.Add(time.Hour)
		_, err = s.events.Update(s.ctx, e.ID, model.UpdateEventRequest{EndDatetime: &end}, organiser)
		s.Require().NoError(err)

		start := e.StartDatetime
		_, err = s.events.Update(s.ctx, e.ID, model.UpdateEventRequest{StartDatetime: &start}, organiser)
		s.ErrorIs(err, model.ErrStartInPast)
	})

	s.Run("capacity cannot drop below confirmed bookings", func() {
		e := s.event(3)
		for _, email := range []string{"cap1@example.com", "cap2@example.com"} {
			b := s.booking(e.ID, s.attendee(email).ID)
			_, err := s.bookings.Confirm(s.ctx, b.ID)
			s.Require().NoError(err)
		}

		one := 1
		_, err := s.events.Update(s.ctx, e.ID, model.UpdateEventRequest{Capacity: &one}, organiser)
		var verr *model.Error
		s.Require().ErrorAs(err, &verr)
		s.Equal("capacity_below_confirmed", verr.Code)

		two := 2
		got, err := s.events.Update(s.ctx, e.ID, model.UpdateEventRequest{Capacity: &two}, organiser)
		s.Require().NoError(err)
		s.True(got.IsFullyBooked)
	})

	s.Run("failed update leaves the event untouched", func() {
		e := s.event(10)
		title := "Should not stick"
		bad := uuid.NewString()
		_, err := s.events.Update(s.ctx, e.ID, model.UpdateEventRequest{Title: &title, LocationID: &bad}, organiser)
		s.Require().Error(err)

		got, err := s.events.Get(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(e.Title, got.Title)
	})

	s.Run("unknown event", func() {
		title := "x"
		_, err := s.events.Update(s.ctx, uuid.NewString(), model.UpdateEventRequest{Title: &title}, organiser)
		s.ErrorIs(err, model.NotFound("event"))
	})
}

func (s *EventServiceSuite) TestAvailable() {
	open := s.event(5)
	full := s.event(1)
	req := s.eventRequest(s.location.ID, 5)
	inactive := false
	req.IsActive = &inactive
	_, err := s.events.Create(s.ctx, req, organiser)
	s.Require().NoError(err)

	b := s.booking(full.ID, s.attendee("full@example.com").ID)
	_, err = s.bookings.Confirm(s.ctx, b.ID)
	s.Require().NoError(err)

	got, err := s.events.Available(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(open.ID, got[0].ID)

	all, err := s.events.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *EventServiceSuite) TestDelete() {
	e := s.event(5)
	b := s.booking(e.ID, s.attendee("gone@example.com").ID)

	err := s.events.Delete(s.ctx, e.ID, "intruder")
	s.Equal(model.KindForbidden, model.KindOf(err))

	s.Require().NoError(s.events.Delete(s.ctx, e.ID, organiser))

	_, err = s.events.Get(s.ctx, e.ID)
	s.ErrorIs(err, model.NotFound("event"))
	_, err = s.bookings.Get(s.ctx, b.ID)
	s.ErrorIs(err, model.NotFound("booking"))
}
