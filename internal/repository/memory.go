package repository

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

// Memory is an in-process store with the same constraints as the SQL
// schema: unique keys, foreign keys and cascades. Transactions are
// serialised by a single mutex and roll back by restoring a snapshot.
type Memory struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	countries map[string]model.Country
	attendees map[string]model.Attendee
	events    map[string]model.Event
	bookings  map[string]model.Booking
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		countries: make(map[string]model.Country),
		attendees: make(map[string]model.Attendee),
		events:    make(map[string]model.Event),
		bookings:  make(map[string]model.Booking),
	}
}

type memTxKey struct{}

type memSnapshot struct {
	countries map[string]model.Country
	attendees map[string]model.Attendee
	events    map[string]model.Event
	bookings  map[string]model.Booking
}

func (m *Memory) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(memTxKey{}).(*Memory)
	return owner == m
}

// WithTx runs fn with exclusive access to the store. If fn fails every
// change it made is discarded.
func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.inTx(ctx) {
		return fn(ctx)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	snap := memSnapshot{
		countries: maps.Clone(m.countries),
		attendees: maps.Clone(m.attendees),
		events:    maps.Clone(m.events),
		bookings:  maps.Clone(m.bookings),
	}
	m.mu.RUnlock()

	committed := false
	defer func() {
		if committed {
			return
		}
		m.mu.Lock()
		m.countries, m.attendees, m.events, m.bookings = snap.countries, snap.attendees, snap.events, snap.bookings
		m.mu.Unlock()
	}()

	if err := fn(context.WithValue(ctx, memTxKey{}, m)); err != nil {
		return err
	}
	committed = true
	return nil
}

// write runs fn under the data lock. Outside a transaction it also takes the
// transaction lock so a concurrent rollback cannot discard it.
func (m *Memory) write(ctx context.Context, fn func() error) error {
	if !m.inTx(ctx) {
		m.txMu.Lock()
		defer m.txMu.Unlock()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}

// Countries returns the country store.
func (m *Memory) Countries() *MemoryCountries { return &MemoryCountries{m: m} }

// Attendees returns the attendee store.
func (m *Memory) Attendees() *MemoryAttendees { return &MemoryAttendees{m: m} }

// Events returns the event store.
func (m *Memory) Events() *MemoryEvents { return &MemoryEvents{m: m} }

// Bookings returns the booking store.
func (m *Memory) Bookings() *MemoryBookings { return &MemoryBookings{m: m} }

// ─── Countries ───────────────────────────────────────────────────────────────

// MemoryCountries is the in-memory country store.
type MemoryCountries struct{ m *Memory }

func (s *MemoryCountries) Create(ctx context.Context, c *model.Country) error {
	return s.m.write(ctx, func() error {
		for _, existing := range s.m.countries {
			if existing.Name == c.Name {
				return &ConstraintError{Err: ErrDuplicate, Constraint: ConstraintCountryName}
			}
			if existing.Code == c.Code {
				return &ConstraintError{Err: ErrDuplicate, Constraint: ConstraintCountryCode}
			}
		}
		s.m.countries[c.ID] = *c
		return nil
	})
}

func (s *MemoryCountries) GetByID(_ context.Context, id string) (*model.Country, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	c, ok := s.m.countries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryCountries) List(_ context.Context) ([]model.Country, error) {
	s.m.mu.RLock()
	out := make([]model.Country, 0, len(s.m.countries))
	for _, c := range s.m.countries {
		out = append(out, c)
	}
	s.m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryCountries) Delete(ctx context.Context, id string) error {
	return s.m.write(ctx, func() error {
		if _, ok := s.m.countries[id]; !ok {
			return ErrNotFound
		}
		for _, e := range s.m.events {
			if e.LocationID == id {
				return &ConstraintError{Err: ErrReferenced, Constraint: ConstraintEventLocation}
			}
		}
		delete(s.m.countries, id)
		return nil
	})
}

// ─── Attendees ───────────────────────────────────────────────────────────────

// MemoryAttendees is the in-memory attendee store.
type MemoryAttendees struct{ m *Memory }

func (s *MemoryAttendees) emailTaken(email, exceptID string) bool {
	for id, a := range s.m.attendees {
		if id != exceptID && a.Email == email {
			return true
		}
	}
	return false
}

func (s *MemoryAttendees) Create(ctx context.Context, a *model.Attendee) error {
	return s.m.write(ctx, func() error {
		if s.emailTaken(a.Email, "") {
			return &ConstraintError{Err: ErrDuplicate, Constraint: ConstraintAttendeeEmail}
		}
		s.m.attendees[a.ID] = *a
		return nil
	})
}

func (s *MemoryAttendees) GetByID(_ context.Context, id string) (*model.Attendee, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	a, ok := s.m.attendees[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryAttendees) List(_ context.Context) ([]model.Attendee, error) {
	s.m.mu.RLock()
	out := make([]model.Attendee, 0, len(s.m.attendees))
	for _, a := range s.m.attendees {
		out = append(out, a)
	}
	s.m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (s *MemoryAttendees) Update(ctx context.Context, a *model.Attendee) error {
	return s.m.write(ctx, func() error {
		existing, ok := s.m.attendees[a.ID]
		if !ok {
			return ErrNotFound
		}
		if s.emailTaken(a.Email, a.ID) {
			return &ConstraintError{Err: ErrDuplicate, Constraint: ConstraintAttendeeEmail}
		}
		updated := *a
		updated.CreatedAt = existing.CreatedAt
		s.m.attendees[a.ID] = updated
		return nil
	})
}

func (s *MemoryAttendees) Delete(ctx context.Context, id string) error {
	return s.m.write(ctx, func() error {
		if _, ok := s.m.attendees[id]; !ok {
			return ErrNotFound
		}
		delete(s.m.attendees, id)
		for bid, b := range s.m.bookings {
			if b.AttendeeID == id {
				delete(s.m.bookings, bid)
			}
		}
		return nil
	})
}

// ─── Events ──────────────────────────────────────────────────────────────────

// MemoryEvents is the in-memory event store.
type MemoryEvents struct{ m *Memory }

func (s *MemoryEvents) Create(ctx context.Context, e *model.Event) error {
	return s.m.write(ctx, func() error {
		if _, ok := s.m.countries[e.LocationID]; !ok {
			return &ConstraintError{Err: ErrReferenced, Constraint: ConstraintEventLocation}
		}
		s.m.events[e.ID] = *e
		return nil
	})
}

func (s *MemoryEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	e, ok := s.m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// GetForUpdate is GetByID; WithTx already gives the caller exclusive access.
func (s *MemoryEvents) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	return s.GetByID(ctx, id)
}

func (s *MemoryEvents) List(_ context.Context) ([]model.Event, error) {
	s.m.mu.RLock()
	out := make([]model.Event, 0, len(s.m.events))
	for _, e := range s.m.events {
		out = append(out, e)
	}
	s.m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDatetime.Equal(out[j].StartDatetime) {
			return out[i].StartDatetime.Before(out[j].StartDatetime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryEvents) Update(ctx context.Context, e *model.Event) error {
	return s.m.write(ctx, func() error {
		existing, ok := s.m.events[e.ID]
		if !ok {
			return ErrNotFound
		}
		if _, ok := s.m.countries[e.LocationID]; !ok {
			return &ConstraintError{Err: ErrReferenced, Constraint: ConstraintEventLocation}
		}
		updated := *e
		updated.CreatedBy = existing.CreatedBy
		updated.CreatedAt = existing.CreatedAt
		s.m.events[e.ID] = updated
		return nil
	})
}

func (s *MemoryEvents) Delete(ctx context.Context, id string) error {
	return s.m.write(ctx, func() error {
		if _, ok := s.m.events[id]; !ok {
			return ErrNotFound
		}
		delete(s.m.events, id)
		for bid, b := range s.m.bookings {
			if b.EventID == id {
				delete(s.m.bookings, bid)
			}
		}
		return nil
	})
}

// ─── Bookings ────────────────────────────────────────────────────────────────

// MemoryBookings is the in-memory booking store.
type MemoryBookings struct{ m *Memory }

func (s *MemoryBookings) Create(ctx context.Context, b *model.Booking) error {
	return s.m.write(ctx, func() error {
		if _, ok := s.m.events[b.EventID]; !ok {
			return &ConstraintError{Err: ErrReferenced, Constraint: ConstraintBookingEvent}
		}
		if _, ok := s.m.attendees[b.AttendeeID]; !ok {
			return &ConstraintError{Err: ErrReferenced, Constraint: ConstraintBookingAttendee}
		}
		for _, existing := range s.m.bookings {
			if existing.EventID == b.EventID && existing.AttendeeID == b.AttendeeID {
				return &ConstraintError{Err: ErrDuplicate, Constraint: ConstraintBookingPair}
			}
		}
		s.m.bookings[b.ID] = *b
		return nil
	})
}

func (s *MemoryBookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	b, ok := s.m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

// GetForUpdate is GetByID; WithTx already gives the caller exclusive access.
func (s *MemoryBookings) GetForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	return s.GetByID(ctx, id)
}

func (s *MemoryBookings) Exists(_ context.Context, eventID, attendeeID string) (bool, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, b := range s.m.bookings {
		if b.EventID == eventID && b.AttendeeID == attendeeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryBookings) CountConfirmed(_ context.Context, eventID string) (int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	n := 0
	for _, b := range s.m.bookings {
		if b.EventID == eventID && b.Status == model.BookingConfirmed {
			n++
		}
	}
	return n, nil
}

func (s *MemoryBookings) ConfirmedCounts(_ context.Context, eventIDs []string) (map[string]int, error) {
	want := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		want[id] = true
	}
	counts := make(map[string]int, len(eventIDs))
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, b := range s.m.bookings {
		if want[b.EventID] && b.Status == model.BookingConfirmed {
			counts[b.EventID]++
		}
	}
	return counts, nil
}

func (s *MemoryBookings) List(_ context.Context, f model.BookingFilter) ([]model.Booking, error) {
	s.m.mu.RLock()
	var out []model.Booking
	for _, b := range s.m.bookings {
		if f.EventID != "" && b.EventID != f.EventID {
			continue
		}
		if f.AttendeeID != "" && b.AttendeeID != f.AttendeeID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	s.m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookingDate.Equal(out[j].BookingDate) {
			return out[i].BookingDate.After(out[j].BookingDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryBookings) UpdateStatus(ctx context.Context, b *model.Booking) error {
	return s.m.write(ctx, func() error {
		existing, ok := s.m.bookings[b.ID]
		if !ok {
			return ErrNotFound
		}
		existing.Status = b.Status
		existing.UpdatedAt = b.UpdatedAt
		s.m.bookings[b.ID] = existing
		return nil
	})
}

func (s *MemoryBookings) Delete(ctx context.Context, id string) error {
	return s.m.write(ctx, func() error {
		if _, ok := s.m.bookings[id]; !ok {
			return ErrNotFound
		}
		delete(s.m.bookings, id)
		return nil
	})
}
