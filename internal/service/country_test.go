package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

type CountryServiceSuite struct {
	serviceSuite
}

func TestCountryServiceSuite(t *testing.T) {
	suite.Run(t, new(CountryServiceSuite))
}

func (s *CountryServiceSuite) TestCreate() {
	s.Run("code is upper-cased", func() {
		c := s.country("Ghana", "gh")
		s.Equal("GH", c.Code)
	})

	s.Run("duplicate name and code", func() {
		_, err := s.countries.Create(s.ctx, model.CreateCountryRequest{Name: "Kenya", Code: "KEN"})
		var merr *model.Error
		s.Require().ErrorAs(err, &merr)
		s.Equal("name", merr.Field)

		_, err = s.countries.Create(s.ctx, model.CreateCountryRequest{Name: "Kenia", Code: "ke"})
		s.Require().ErrorAs(err, &merr)
		s.Equal("code", merr.Field)
	})

	s.Run("invalid code", func() {
		_, err := s.countries.Create(s.ctx, model.CreateCountryRequest{Name: "Nowhere", Code: "1"})
		s.Equal(model.KindValidation, model.KindOf(err))
	})
}

func (s *CountryServiceSuite) TestListGetDelete() {
	s.country("Angola", "AO")

	list, err := s.countries.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("Angola", list[0].Name)

	got, err := s.countries.Get(s.ctx, s.location.ID)
	s.Require().NoError(err)
	s.Equal("Kenya", got.Name)

	_, err = s.countries.Get(s.ctx, uuid.NewString())
	s.ErrorIs(err, model.NotFound("country"))

	s.event(5)
	err = s.countries.Delete(s.ctx, s.location.ID)
	var merr *model.Error
	s.Require().ErrorAs(err, &merr)
	s.Equal("country_in_use", merr.Code)

	s.Require().NoError(s.countries.Delete(s.ctx, list[0].ID))
	s.ErrorIs(s.countries.Delete(s.ctx, list[0].ID), model.NotFound("country"))
}
