// Package inmem provides process-local implementations of the storage
// interfaces.  They back the memory store driver and the handler and
// service tests.  Every method takes the store mutex, so the counter and
// ledger changes of a purchase or removal are applied together.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iliyamo/event-planner/internal/model"
	"github.com/iliyamo/event-planner/internal/repository"
)

// Store holds events and their attendee ledgers.
type Store struct {
	mu        sync.Mutex
	events    map[string]model.Event
	attendees map[string][]model.Attendee
}

func NewStore() *Store {
	return &Store{
		events:    make(map[string]model.Event),
		attendees: make(map[string][]model.Attendee),
	}
}

func (s *Store) Create(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, ok := s.events[e.ID]; ok {
		return errors.Errorf("event %s already exists", e.ID)
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	s.events[e.ID] = *e
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	return &e, nil
}

func (s *Store) List(_ context.Context, ownerID *uint64) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		if ownerID != nil && e.OwnerID != *ownerID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateByIDAndOwner(_ context.Context, id string, ownerID uint64, p model.EventPatch) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	p.Apply(&e)
	e.UpdatedAt = time.Now().UTC()
	s.events[id] = e
	return &e, nil
}

func (s *Store) DeleteByIDAndOwner(_ context.Context, id string, ownerID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(id, ownerID); err != nil {
		return 0, err
	}
	n := len(s.attendees[id])
	delete(s.events, id)
	delete(s.attendees, id)
	return n, nil
}

func (s *Store) Purchase(_ context.Context, eventID string, a *model.Attendee) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	if a.TicketCount > e.TicketQuantity {
		return nil, repository.ErrInsufficientInventory
	}
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.EventID = eventID
	a.CreatedAt = now
	e.TicketQuantity -= a.TicketCount
	e.TicketsSold += a.TicketCount
	e.UpdatedAt = now
	s.events[eventID] = e
	s.attendees[eventID] = append(s.attendees[eventID], *a)
	return &e, nil
}

func (s *Store) Remove(_ context.Context, eventID, attendeeID string, ownerID uint64) (*model.Event, *model.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.owned(eventID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	ledger := s.attendees[eventID]
	idx := -1
	for i := range ledger {
		if ledger[i].ID == attendeeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, repository.ErrAttendeeNotFound
	}
	a := ledger[idx]
	if e.TicketsSold < a.TicketCount || e.TicketQuantity+a.TicketCount > e.TotalTickets {
		return nil, nil, errors.Wrapf(repository.ErrInconsistentState,
			"event %s sold=%d remaining=%d total=%d, entry %s holds %d",
			e.ID, e.TicketsSold, e.TicketQuantity, e.TotalTickets, a.ID, a.TicketCount)
	}
	e.TicketQuantity += a.TicketCount
	e.TicketsSold -= a.TicketCount
	e.UpdatedAt = time.Now().UTC()
	s.events[eventID] = e
	s.attendees[eventID] = append(ledger[:idx:idx], ledger[idx+1:]...)
	return &e, &a, nil
}

func (s *Store) ListByEvent(_ context.Context, eventID string) ([]model.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Attendee, len(s.attendees[eventID]))
	copy(out, s.attendees[eventID])
	return out, nil
}

// Put stores e verbatim, counters included.  Tests use it to seed states
// the public operations cannot reach.
func (s *Store) Put(e model.Event, ledger ...model.Attendee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
	s.attendees[e.ID] = append([]model.Attendee(nil), ledger...)
}

func (s *Store) owned(id string, ownerID uint64) (model.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return model.Event{}, repository.ErrEventNotFound
	}
	if e.OwnerID != ownerID {
		return model.Event{}, repository.ErrForbidden
	}
	return e, nil
}
