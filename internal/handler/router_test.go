package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/Shivanand-hulikatti/event-booking/internal/auth"
	"github.com/Shivanand-hulikatti/event-booking/internal/clock"
	"github.com/Shivanand-hulikatti/event-booking/internal/logger"
	"github.com/Shivanand-hulikatti/event-booking/internal/metrics"
	"github.com/Shivanand-hulikatti/event-booking/internal/repository"
	"github.com/Shivanand-hulikatti/event-booking/internal/service"
)

func newRequest(method, path string) (*http.Request, *httptest.ResponseRecorder) {
	return httptest.NewRequest(method, path, nil), httptest.NewRecorder()
}

// RouterSuite drives the whole API over an in-memory store.
type RouterSuite struct {
	suite.Suite
	router http.Handler
	token  string
	other  string
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	now := time.Date(2030, time.June, 1, 12, 0, 0, 0, time.UTC)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := logger.Discard()

	stores := service.MemoryStores(repository.NewMemory())
	deps := service.Deps{Clock: clock.NewFixed(now), Logger: log, Metrics: m}
	tokens := auth.NewTokens("test-secret", func() time.Time { return now })

	s.router = NewRouter(RouterConfig{
		Countries: service.NewCountryService(stores, deps),
		Attendees: service.NewAttendeeService(stores, deps),
		Events:    service.NewEventService(stores, deps),
		Bookings:  service.NewBookingService(stores, deps),
		Tokens:    tokens,
		Logger:    log,
		Metrics:   m,
		Gatherer:  reg,
	})

	var err error
	s.token, err = tokens.Issue("organiser", "Organiser", time.Hour)
	s.Require().NoError(err)
	s.other, err = tokens.Issue("someone-else", "", time.Hour)
	s.Require().NoError(err)
}

func (s *RouterSuite) call(method, path, token, body string) (int, []byte) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec.Code, rec.Body.Bytes()
}

func (s *RouterSuite) callJSON(method, path, token, body string, wantStatus int) map[string]any {
	status, raw := s.call(method, path, token, body)
	s.Require().Equal(wantStatus, status, string(raw))
	var out map[string]any
	s.Require().NoError(json.Unmarshal(raw, &out))
	return out
}

func (s *RouterSuite) TestHealthAndMetrics() {
	got := s.callJSON(http.MethodGet, "/health", "", "", http.StatusOK)
	s.Equal("ok", got["status"])

	status, body := s.call(http.MethodGet, "/metrics", "", "")
	s.Equal(http.StatusOK, status)
	s.Contains(string(body), "http_requests_total")
}

func (s *RouterSuite) TestAuthRequired() {
	got := s.callJSON(http.MethodPost, "/api/bookings", "", `{}`, http.StatusUnauthorized)
	s.Equal("unauthorized", got["code"])

	got = s.callJSON(http.MethodGet, "/api/bookings", "garbage", "", http.StatusUnauthorized)
	s.Equal("invalid token", got["error"])

	// Reads of the catalog are public.
	status, _ := s.call(http.MethodGet, "/api/events", "", "")
	s.Equal(http.StatusOK, status)
}

func (s *RouterSuite) TestCORSPreflight() {
	status, _ := s.call(http.MethodOptions, "/api/events", "", "")
	s.Equal(http.StatusNoContent, status)
}

func (s *RouterSuite) TestBookingFlow() {
	country := s.callJSON(http.MethodPost, "/api/countries", s.token, `{"name":"Kenya","code":"ke"}`, http.StatusCreated)
	s.Equal("KE", country["code"])

	attendee := func(email string) string {
		a := s.callJSON(http.MethodPost, "/api/attendees", "",
			`{"first_name":"Jo","last_name":"Doe","email":"`+email+`","phone":"+1555","date_of_birth":"1990-04-02"}`,
			http.StatusCreated)
		s.Equal("Jo Doe", a["full_name"])
		return a["id"].(string)
	}
	first, second := attendee("first@example.com"), attendee("second@example.com")

	event := s.callJSON(http.MethodPost, "/api/events", s.token, `{
		"title":"Small room","description":"One seat only",
		"start_datetime":"2030-07-01T18:00:00Z","end_datetime":"2030-07-01T20:00:00Z",
		"location_id":"`+country["id"].(string)+`","capacity":1,"price":"10.50"}`, http.StatusCreated)
	eventID := event["id"].(string)
	s.Equal("organiser", event["created_by"])
	s.Equal(float64(1), event["remaining_capacity"])
	s.Equal("10.50", event["price"])

	b1 := s.callJSON(http.MethodPost, "/api/bookings", s.token,
		`{"event":"`+eventID+`","attendee":"`+first+`"}`, http.StatusCreated)
	s.Equal("pending", b1["status"])
	s.NotNil(b1["event_details"])
	s.NotNil(b1["attendee_details"])

	b2 := s.callJSON(http.MethodPost, "/api/bookings", s.token,
		`{"event":"`+eventID+`","attendee":"`+second+`"}`, http.StatusCreated)

	dup := s.callJSON(http.MethodPost, "/api/bookings", s.token,
		`{"event":"`+eventID+`","attendee":"`+first+`"}`, http.StatusBadRequest)
	s.Equal("duplicate", dup["code"])

	confirmed := s.callJSON(http.MethodPost, "/api/bookings/"+b1["id"].(string)+"/confirm", s.token, "", http.StatusOK)
	s.Equal("confirmed", confirmed["status"])

	full := s.callJSON(http.MethodPost, "/api/bookings/"+b2["id"].(string)+"/confirm", s.token, "", http.StatusBadRequest)
	s.Equal("fully_booked", full["code"])
	s.Equal("This event is fully booked", full["error"])

	again := s.callJSON(http.MethodPost, "/api/bookings/"+b1["id"].(string)+"/confirm", s.token, "", http.StatusBadRequest)
	s.Equal("already_confirmed", again["code"])

	ev := s.callJSON(http.MethodGet, "/api/events/"+eventID, "", "", http.StatusOK)
	s.Equal(float64(0), ev["remaining_capacity"])
	s.Equal(true, ev["is_fully_booked"])

	status, raw := s.call(http.MethodGet, "/api/events/available", "", "")
	s.Equal(http.StatusOK, status)
	s.JSONEq(`[]`, string(raw))

	s.callJSON(http.MethodPost, "/api/bookings/"+b1["id"].(string)+"/cancel", s.token, "", http.StatusOK)
	cancelled := s.callJSON(http.MethodPost, "/api/bookings/"+b1["id"].(string)+"/cancel", s.token, "", http.StatusBadRequest)
	s.Equal("already_cancelled", cancelled["code"])

	s.callJSON(http.MethodPost, "/api/bookings/"+b2["id"].(string)+"/confirm", s.token, "", http.StatusOK)

	status, raw = s.call(http.MethodGet, "/api/attendees/"+second+"/bookings", "", "")
	s.Equal(http.StatusOK, status)
	var list []map[string]any
	s.Require().NoError(json.Unmarshal(raw, &list))
	s.Require().Len(list, 1)
	s.Equal("confirmed", list[0]["status"])

	status, raw = s.call(http.MethodGet, "/api/events/"+eventID+"/bookings", "", "")
	s.Equal(http.StatusOK, status)
	s.Require().NoError(json.Unmarshal(raw, &list))
	s.Len(list, 2)

	forbidden := s.callJSON(http.MethodPatch, "/api/events/"+eventID, s.other, `{"title":"Mine now"}`, http.StatusForbidden)
	s.Equal("forbidden", forbidden["code"])

	below := s.callJSON(http.MethodPatch, "/api/events/"+eventID, s.token, `{"capacity":0}`, http.StatusBadRequest)
	s.Equal("invalid_request", below["code"])

	inUse := s.callJSON(http.MethodDelete, "/api/countries/"+country["id"].(string), s.token, "", http.StatusBadRequest)
	s.Equal("country_in_use", inUse["code"])

	status, _ = s.call(http.MethodDelete, "/api/events/"+eventID, s.token, "")
	s.Equal(http.StatusNoContent, status)
	status, _ = s.call(http.MethodGet, "/api/bookings/"+b2["id"].(string), s.token, "")
	s.Equal(http.StatusNotFound, status)
}

func (s *RouterSuite) TestValidationErrors() {
	got := s.callJSON(http.MethodPost, "/api/attendees", "",
		`{"first_name":"Time","last_name":"Traveller","email":"tt@example.com","phone":"1","date_of_birth":"2031-01-01"}`,
		http.StatusBadRequest)
	s.Equal("future_birth_date", got["code"])
	s.Equal("date_of_birth", got["field"])

	got = s.callJSON(http.MethodPost, "/api/attendees", "",
		`{"first_name":"","last_name":"X","email":"not-an-email","phone":"1","date_of_birth":"1990-01-01"}`,
		http.StatusBadRequest)
	fields, ok := got["fields"].(map[string]any)
	s.Require().True(ok)
	s.Contains(fields, "first_name")
	s.Contains(fields, "email")

	got = s.callJSON(http.MethodGet, "/api/events/not-a-uuid", "", "", http.StatusNotFound)
	s.Equal("event_not_found", got["code"])
}
