//go:build integration

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/Shivanand-hulikatti/event-booking/internal/clock"
	"github.com/Shivanand-hulikatti/event-booking/internal/database"
	"github.com/Shivanand-hulikatti/event-booking/internal/logger"
	"github.com/Shivanand-hulikatti/event-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-booking/internal/repository"
	"github.com/Shivanand-hulikatti/event-booking/internal/service"
)

type PostgresSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	db        *repository.Postgres
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("booking"),
		tcpostgres.WithUsername("booking"),
		tcpostgres.WithPassword("booking"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = database.NewPool(ctx, dsn, logger.Discard())
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(ctx, s.pool, logger.Discard()))
	// A second run must be a no-op.
	s.Require().NoError(database.Migrate(ctx, s.pool, logger.Discard()))

	s.db = repository.NewPostgres(s.pool)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if err := testcontainers.TerminateContainer(s.container); err != nil {
		s.T().Logf("terminate postgres container: %v", err)
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE bookings, events, attendees, countries CASCADE`)
	s.Require().NoError(err)
}

func (s *PostgresSuite) TestMigrateDetectsEditedFile() {
	ctx := context.Background()
	var sum string
	s.Require().NoError(s.pool.QueryRow(ctx, `SELECT checksum FROM schema_migrations WHERE name = '0001_init.sql'`).Scan(&sum))
	defer func() {
		_, err := s.pool.Exec(ctx, `UPDATE schema_migrations SET checksum = $1 WHERE name = '0001_init.sql'`, sum)
		s.Require().NoError(err)
	}()

	_, err := s.pool.Exec(ctx, `UPDATE schema_migrations SET checksum = 'stale' WHERE name = '0001_init.sql'`)
	s.Require().NoError(err)

	err = database.Migrate(ctx, s.pool, logger.Discard())
	s.ErrorContains(err, "0001_init.sql was modified")
}

func (s *PostgresSuite) seed(capacity int) (*model.Country, *model.Event) {
	ctx := context.Background()
	c := &model.Country{ID: uuid.NewString(), Name: "Kenya", Code: "KE"}
	s.Require().NoError(s.db.Countries().Create(ctx, c))

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Microsecond)
	e := &model.Event{
		ID: uuid.NewString(), Title: "Meetup", Description: "d",
		StartDatetime: start, EndDatetime: start.Add(time.Hour),
		LocationID: c.ID, Capacity: capacity, Price: decimal.RequireFromString("12.50"),
		IsActive: true, CreatedBy: "owner", CreatedAt: start, UpdatedAt: start,
	}
	s.Require().NoError(s.db.Events().Create(ctx, e))
	return c, e
}

func (s *PostgresSuite) attendee(email string) *model.Attendee {
	a := &model.Attendee{
		ID: uuid.NewString(), FirstName: "A", LastName: "B", Email: email, Phone: "1",
		DateOfBirth: model.NewDate(1990, time.January, 2), CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.db.Attendees().Create(context.Background(), a))
	return a
}

func (s *PostgresSuite) TestRoundTrip() {
	ctx := context.Background()
	_, e := s.seed(5)

	got, err := s.db.Events().GetByID(ctx, e.ID)
	s.Require().NoError(err)
	s.True(e.Price.Equal(got.Price))
	s.True(e.StartDatetime.Equal(got.StartDatetime))

	a := s.attendee("round@example.com")
	gotA, err := s.db.Attendees().GetByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("1990-01-02", gotA.DateOfBirth.String())

	_, err = s.db.Events().GetByID(ctx, "not-a-uuid")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresSuite) TestConstraints() {
	ctx := context.Background()
	c, e := s.seed(5)
	a := s.attendee("unique@example.com")

	err := s.db.Attendees().Create(ctx, &model.Attendee{ID: uuid.NewString(), FirstName: "x", LastName: "y", Email: a.Email, Phone: "1"})
	s.ErrorIs(err, repository.ErrDuplicate)
	s.Equal(repository.ConstraintAttendeeEmail, repository.ConstraintOf(err))

	b := &model.Booking{ID: uuid.NewString(), EventID: e.ID, AttendeeID: a.ID, Status: model.BookingPending, BookingDate: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	s.Require().NoError(s.db.Bookings().Create(ctx, b))
	err = s.db.Bookings().Create(ctx, &model.Booking{ID: uuid.NewString(), EventID: e.ID, AttendeeID: a.ID, Status: model.BookingPending, BookingDate: time.Now().UTC(), UpdatedAt: time.Now().UTC()})
	s.ErrorIs(err, repository.ErrDuplicate)
	s.Equal(repository.ConstraintBookingPair, repository.ConstraintOf(err))

	s.ErrorIs(s.db.Countries().Delete(ctx, c.ID), repository.ErrReferenced)

	s.Require().NoError(s.db.Attendees().Delete(ctx, a.ID))
	_, err = s.db.Bookings().GetByID(ctx, b.ID)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresSuite) TestWithTxReleasesConnectionOnPanic() {
	ctx := context.Background()
	_, e := s.seed(5)
	a := s.attendee("panic@example.com")

	s.Panics(func() {
		_ = s.db.WithTx(ctx, func(ctx context.Context) error {
			b := &model.Booking{ID: uuid.NewString(), EventID: e.ID, AttendeeID: a.ID, Status: model.BookingPending, BookingDate: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
			s.Require().NoError(s.db.Bookings().Create(ctx, b))
			panic("handler bug")
		})
	})

	s.Zero(s.pool.Stat().AcquiredConns())
	exists, err := s.db.Bookings().Exists(ctx, e.ID, a.ID)
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresSuite) bookingService() *service.BookingService {
	return service.NewBookingService(service.PostgresStores(s.db, nil), service.Deps{
		Clock:  clock.NewSystem(),
		Logger: logger.Discard(),
	})
}

// Concurrent confirmations through the engine never exceed capacity.
func (s *PostgresSuite) TestConcurrentConfirmNeverOverbooks() {
	ctx := context.Background()
	_, e := s.seed(2)
	bookings := s.bookingService()

	ids := make([]string, 8)
	for i := range ids {
		a := s.attendee(uuid.NewString() + "@example.com")
		b, err := bookings.Create(ctx, model.CreateBookingRequest{EventID: e.ID, AttendeeID: a.ID})
		s.Require().NoError(err)
		ids[i] = b.ID
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = bookings.Confirm(ctx, id)
		}()
	}
	wg.Wait()

	confirmed := 0
	for _, err := range errs {
		if err == nil {
			confirmed++
			continue
		}
		s.ErrorIs(err, model.ErrEventFull)
	}
	s.Equal(e.Capacity, confirmed)

	n, err := s.db.Bookings().CountConfirmed(ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(2, n)

	counts, err := s.db.Bookings().ConfirmedCounts(ctx, []string{e.ID})
	s.Require().NoError(err)
	s.Equal(2, counts[e.ID])
}

// Racing creates for one pair leave a single booking behind.
func (s *PostgresSuite) TestConcurrentCreateSamePair() {
	ctx := context.Background()
	_, e := s.seed(5)
	a := s.attendee("racer@example.com")
	bookings := s.bookingService()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = bookings.Create(ctx, model.CreateBookingRequest{EventID: e.ID, AttendeeID: a.ID})
		}()
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		s.ErrorIs(err, model.ErrDuplicateBooking)
	}
	s.Equal(1, created)

	list, err := bookings.ListForEvent(ctx, e.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *PostgresSuite) TestCachedCountries() {
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	defer func() { _ = testcontainers.TerminateContainer(container) }()

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(url)
	s.Require().NoError(err)
	client := redis.NewClient(opts)
	defer client.Close()

	cached := repository.NewCachedCountries(s.db.Countries(), client, time.Minute, logger.Discard())
	c := &model.Country{ID: uuid.NewString(), Name: "Ghana", Code: "GH"}
	s.Require().NoError(cached.Create(ctx, c))

	got, err := cached.GetByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("Ghana", got.Name)

	n, err := client.Exists(ctx, "country:"+c.ID).Result()
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	s.Require().NoError(cached.Delete(ctx, c.ID))
	n, err = client.Exists(ctx, "country:"+c.ID).Result()
	s.Require().NoError(err)
	s.Zero(n)

	_, err = cached.GetByID(ctx, c.ID)
	s.ErrorIs(err, repository.ErrNotFound)
}
