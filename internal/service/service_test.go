package service

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/event-planner/internal/model"
	"github.com/iliyamo/event-planner/internal/queue"
	"github.com/iliyamo/event-planner/internal/repository"
	"github.com/iliyamo/event-planner/internal/repository/inmem"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	if p.fail {
		return errors.New("broker down")
	}
	return nil
}

type fixture struct {
	store  *inmem.Store
	pub    *recordingPublisher
	events *EventService
	ledger *LedgerService
}

func newFixture() *fixture {
	store := inmem.NewStore()
	pub := &recordingPublisher{}
	log := zap.NewNop()
	return &fixture{
		store:  store,
		pub:    pub,
		events: NewEventService(store, pub, log),
		ledger: NewLedgerService(store, store, pub, log),
	}
}

var (
	owner = Session{UserID: 1, Email: "owner@example.com", Username: "owner"}
	buyer = Session{UserID: 2, Email: "buyer@example.com", Username: "buyer"}
)

func (f *fixture) createEvent(t *testing.T, qty, price string) *model.Event {
	t.Helper()
	e, err := f.events.Create(context.Background(), owner, EventInput{
		Name: "Jazz Night", Location: "Oslo", Date: "2026-06-01", Time: "20:00",
		TicketQuantity: qty, TicketPrice: price,
	})
	require.NoError(t, err)
	return e
}

func assertInvariants(t *testing.T, f *fixture, id string) {
	t.Helper()
	e, err := f.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, e.TotalTickets, e.TicketsSold+e.TicketQuantity)
	ledger, err := f.store.ListByEvent(context.Background(), id)
	require.NoError(t, err)
	sum := 0
	for _, a := range ledger {
		sum += a.TicketCount
	}
	assert.Equal(t, e.TicketsSold, sum)
}

func TestCreateEventInitialisesInventory(t *testing.T) {
	f := newFixture()
	e := f.createEvent(t, "100", "20")
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, uint64(1), e.OwnerID)
	assert.Equal(t, 100, e.TotalTickets)
	assert.Equal(t, 100, e.TicketQuantity)
	assert.Equal(t, 0, e.TicketsSold)
	assert.Equal(t, int64(2000), e.TicketPriceCents)
}

func TestCreateEventValidation(t *testing.T) {
	f := newFixture()
	_, err := f.events.Create(context.Background(), owner, EventInput{
		Name: "  ", Date: "2026-06-01", TicketQuantity: "-3", TicketPrice: "abc",
	})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "is required", ve.Fields["name"])
	assert.Equal(t, "is required", ve.Fields["location"])
	assert.Equal(t, "is required", ve.Fields["time"])
	assert.Contains(t, ve.Fields, "ticketQuantity")
	assert.Contains(t, ve.Fields, "ticketPrice")
	assert.NotContains(t, ve.Fields, "date")

	all, err := f.events.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateEventRejectsFractionalQuantity(t *testing.T) {
	f := newFixture()
	_, err := f.events.Create(context.Background(), owner, EventInput{
		Name: "n", Location: "l", Date: "d", Time: "t", TicketQuantity: "2.5", TicketPrice: "10",
	})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "ticketQuantity")
}

func TestCreateEventRequiresSession(t *testing.T) {
	f := newFixture()
	_, err := f.events.Create(context.Background(), Session{}, EventInput{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPurchaseAndRemoveRoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	e := f.createEvent(t, "100", "20")

	updated, a, err := f.ledger.Purchase(ctx, buyer, e.ID, PurchaseInput{BuyerName: "Alice", TicketCount: "30"})
	require.NoError(t, err)
	assert.Equal(t, 70, updated.TicketQuantity)
	assert.Equal(t, 30, updated.TicketsSold)
	assert.Equal(t, 30, a.TicketCount)
	assertInvariants(t, f, e.ID)

	st, err := f.ledger.Stats(ctx, owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 600.0, st.TotalRevenue)
	assert.Equal(t, 30, st.ProgressPercent)
	assert.True(t, st.Consistent)

	restored, removed, err := f.ledger.Remove(ctx, owner, e.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, removed.ID)
	assert.Equal(t, 100, restored.TicketQuantity)
	assert.Equal(t, 0, restored.TicketsSold)
	assertInvariants(t, f, e.ID)

	st, err = f.ledger.Stats(ctx, owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.TotalRevenue)
	assert.Equal(t, 0, st.ProgressPercent)

	again, _, err := f.ledger.Purchase(ctx, buyer, e.ID, PurchaseInput{BuyerName: "Alice", TicketCount: "30"})
	require.NoError(t, err)
	assert.Equal(t, updated.TicketQuantity, again.TicketQuantity)
	assert.Equal(t, updated.TicketsSold, again.TicketsSold)

	assert.Equal(t, []string{queue.TicketsPurchasedQueue, queue.AttendeeRemovedQueue, queue.TicketsPurchasedQueue}, f.pub.keys)
}

func TestPurchaseInsufficientInventoryLeavesEventUnchanged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	e := f.createEvent(t, "3", "15")

	_, _, err := f.ledger.Purchase(ctx, buyer, e.ID, PurchaseInput{BuyerName: "Alice", TicketCount: "5"})
	assert.ErrorIs(t, err, repository.ErrInsufficientInventory)

	got, err := f.store.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TicketQuantity)
	assert.Equal(t, 0, got.TicketsSold)
	ledger, err := f.store.ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, ledger)
	assert.Empty(t, f.pub.keys)
}

func TestPurchaseValidation(t *testing.T) {
	f := newFixture()
	e := f.createEvent(t, "10", "1")
	_, _, err := f.ledger.Purchase(context.Background(), buyer, e.ID, PurchaseInput{BuyerName: "", TicketCount: "0"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "buyerName")
	assert.Contains(t, ve.Fields, "ticketCount")
}

func TestPurchaseUnknownEvent(t *testing.T) {
	f := newFixture()
	_, _, err := f.ledger.Purchase(context.Background(), buyer, "missing", PurchaseInput{BuyerName: "A", TicketCount: "1"})
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestPurchaseSucceedsWhenPublisherFails(t *testing.T) {
	f := newFixture()
	f.pub.fail = true
	e := f.createEvent(t, "10", "1")
	updated, _, err := f.ledger.Purchase(context.Background(), buyer, e.ID, PurchaseInput{BuyerName: "A", TicketCount: "2"})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.TicketQuantity)
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	f := newFixture()
	e := f.createEvent(t, "50", "1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.ledger.Purchase(context.Background(), buyer, e.ID, PurchaseInput{BuyerName: "B", TicketCount: "2"})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 25, ok)
	assertInvariants(t, f, e.ID)
}

func TestRemoveAttendeeErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	e := f.createEvent(t, "10", "5")
	_, a, err := f.ledger.Purchase(ctx, buyer, e.ID, PurchaseInput{BuyerName: "A", TicketCount: "2"})
	require.NoError(t, err)

	_, _, err = f.ledger.Remove(ctx, owner, e.ID, "nope")
	assert.ErrorIs(t, err, repository.ErrAttendeeNotFound)

	_, _, err = f.ledger.Remove(ctx, buyer, e.ID, a.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, _, err = f.ledger.Remove(ctx, Session{}, e.ID, a.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assertInvariants(t, f, e.ID)
}

func TestRemoveAttendeeDetectsInconsistentState(t *testing.T) {
	f := newFixture()
	f.store.Put(
		model.Event{ID: "broken", OwnerID: owner.UserID, TicketQuantity: 9, TicketsSold: 1, TotalTickets: 10},
		model.Attendee{ID: "a1", EventID: "broken", TicketCount: 3},
	)
	_, _, err := f.ledger.Remove(context.Background(), owner, "broken", "a1")
	assert.ErrorIs(t, err, repository.ErrInconsistentState)

	e, err := f.store.GetByID(context.Background(), "broken")
	require.NoError(t, err)
	assert.Equal(t, 1, e.TicketsSold)
	ledger, _ := f.store.ListByEvent(context.Background(), "broken")
	assert.Len(t, ledger, 1)
}

func TestUpdateEvent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	e := f.createEvent(t, "100", "20")
	_, _, err := f.ledger.Purchase(ctx, buyer, e.ID, PurchaseInput{BuyerName: "A", TicketCount: "10"})
	require.NoError(t, err)

	name, price := "Late Jazz", "25.5"
	got, err := f.events.Update(ctx, owner, e.ID, EventUpdate{Name: &name, TicketPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "Late Jazz", got.Name)
	assert.Equal(t, int64(2550), got.TicketPriceCents)
	assert.Equal(t, 100, got.TotalTickets)
	assert.Equal(t, 90, got.TicketQuantity)

	_, err = f.events.Update(ctx, buyer, e.ID, EventUpdate{Name: &name})
	assert.ErrorIs(t, err, repository.ErrForbidden)

	qty := "500"
	_, err = f.events.Update(ctx, owner, e.ID, EventUpdate{TicketQuantity: &qty})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "ticketQuantity")

	_, err = f.events.Update(ctx, owner, e.ID, EventUpdate{})
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "body")
}

func TestDeleteEventCascadesLedger(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	e := f.createEvent(t, "10", "5")
	_, _, err := f.ledger.Purchase(ctx, buyer, e.ID, PurchaseInput{BuyerName: "A", TicketCount: "2"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.events.Delete(ctx, buyer, e.ID), repository.ErrForbidden)
	require.NoError(t, f.events.Delete(ctx, owner, e.ID))

	_, err = f.events.Get(ctx, e.ID)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
	ledger, err := f.store.ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, ledger)
	assert.Equal(t, queue.EventDeletedQueue, f.pub.keys[len(f.pub.keys)-1])
}

func TestListEventsByOwner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.createEvent(t, "10", "5")
	_, err := f.events.Create(ctx, buyer, EventInput{
		Name: "Other", Location: "Bergen", Date: "2026-01-01", Time: "10:00", TicketQuantity: "1", TicketPrice: "1",
	})
	require.NoError(t, err)

	all, err := f.events.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "Other", all[0].Name)

	id := owner.UserID
	mine, err := f.events.List(ctx, &id)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Jazz Night", mine[0].Name)
	assert.Equal(t, mine[0].TicketQuantity, mine[0].View().TicketsRemaining)
}

func TestStatsAndAttendeesAreOwnerOnly(t *testing.T) {
	f := newFixture()
	e := f.createEvent(t, "10", "5")
	_, err := f.ledger.Stats(context.Background(), buyer, e.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	_, err = f.ledger.Attendees(context.Background(), buyer, e.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

type failingStore struct{ EventStore }

func (failingStore) List(context.Context, *uint64) ([]model.Event, error) {
	return nil, errors.New("connection refused")
}

func TestCollaboratorFailuresAreWrapped(t *testing.T) {
	svc := NewEventService(failingStore{}, nil, zap.NewNop())
	_, err := svc.List(context.Background(), nil)
	assert.ErrorIs(t, err, ErrCollaborator)
	var ce *CollaboratorError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "list events", ce.Op)
}

func TestNumericInputsAreBounded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	base := EventInput{Name: "n", Location: "l", Date: "2026-06-01", Time: "t"}
	cases := []struct {
		qty, price, field, msg string
	}{
		{"5000000000", "10", "ticketQuantity", "must be at most 4294967295"},
		{"99999999999999999999", "10", "ticketQuantity", "must be at most 4294967295"},
		{"-99999999999999999999", "10", "ticketQuantity", "must be a positive whole number"},
		{"10", "100000000000000000", "ticketPrice", "must be at most 21474836.48"},
		{"10", "90000000000000000", "ticketPrice", "must be at most 21474836.48"},
		{"10", "21474836.49", "ticketPrice", "must be at most 21474836.48"},
	}
	for _, tc := range cases {
		in := base
		in.TicketQuantity, in.TicketPrice = tc.qty, tc.price
		_, err := f.events.Create(ctx, owner, in)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), "qty=%s price=%s", tc.qty, tc.price)
		assert.Equal(t, tc.msg, ve.Fields[tc.field])
	}

	all, err := f.events.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, _, err = f.ledger.Purchase(ctx, buyer, "any", PurchaseInput{BuyerName: "b", TicketCount: "4294967296"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "must be at most 4294967295", ve.Fields["ticketCount"])
}

func TestLargestInventoryAndPriceKeepRevenuePositive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	e := f.createEvent(t, "4294967295", "21474836.48")
	assert.Equal(t, int64(MaxPriceCents), e.TicketPriceCents)

	_, _, err := f.ledger.Purchase(ctx, buyer, e.ID, PurchaseInput{BuyerName: "b", TicketCount: "4294967295"})
	require.NoError(t, err)

	st, err := f.ledger.Stats(ctx, owner, e.ID)
	require.NoError(t, err)
	assert.Greater(t, st.TotalRevenue, 0.0)
	assert.Equal(t, 100, st.ProgressPercent)
	assertInvariants(t, f, e.ID)
}
