package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/event-planner/internal/model"
	"github.com/iliyamo/event-planner/internal/queue"
	"github.com/iliyamo/event-planner/internal/repository"
)

// PurchaseInput is the ticket purchase form.
type PurchaseInput struct {
	BuyerName           string
	TicketCount         string
	SpecialRequirements string
}

// LedgerService implements the purchase workflow and the per-event
// aggregates.  It never touches counters itself: every change goes through
// Ledger.Purchase or Ledger.Remove.
type LedgerService struct {
	events EventStore
	ledger Ledger
	pub    Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewLedgerService(events EventStore, ledger Ledger, pub Publisher, log *zap.Logger) *LedgerService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &LedgerService{events: events, ledger: ledger, pub: pub, log: log.Named("ledger"), now: time.Now}
}

// Purchase buys tickets for the session user under the given buyer name.
// It returns the event as committed and the new ledger entry.
func (s *LedgerService) Purchase(ctx context.Context, sess Session, eventID string, in PurchaseInput) (*model.Event, *model.Attendee, error) {
	if err := sess.require(); err != nil {
		return nil, nil, err
	}
	fe := fieldErrors{}
	name := required(fe, "buyerName", in.BuyerName)
	n := positiveInt(fe, "ticketCount", in.TicketCount)
	if err := fe.err(); err != nil {
		return nil, nil, err
	}

	a := &model.Attendee{
		Name:        name,
		TicketCount: n,
		BuyerID:     sql.NullInt64{Int64: int64(sess.UserID), Valid: true},
	}
	if req := strings.TrimSpace(in.SpecialRequirements); req != "" {
		a.SpecialRequirements = sql.NullString{String: req, Valid: true}
	}
	e, err := s.ledger.Purchase(ctx, eventID, a)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientInventory) {
			s.log.Info("purchase rejected", zap.String("event_id", eventID), zap.Int("requested", n))
		}
		return nil, nil, classify("purchase tickets", err)
	}
	s.log.Info("tickets purchased", zap.String("event_id", e.ID), zap.String("attendee_id", a.ID),
		zap.Int("tickets", n), zap.Int("remaining", e.TicketQuantity))
	s.publish(ctx, queue.TicketsPurchasedQueue, queue.TicketsPurchasedEvent{
		EventID:          e.ID,
		EventName:        e.Name,
		AttendeeID:       a.ID,
		BuyerID:          sess.UserID,
		BuyerName:        a.Name,
		TicketCount:      n,
		AmountCents:      int64(n) * e.TicketPriceCents,
		TicketsRemaining: e.TicketQuantity,
		TicketsSold:      e.TicketsSold,
		PurchasedAt:      a.CreatedAt.Format(time.RFC3339),
	})
	return e, a, nil
}

// Remove deletes a ledger entry of an event the session owns and returns
// its tickets to the inventory.
func (s *LedgerService) Remove(ctx context.Context, sess Session, eventID, attendeeID string) (*model.Event, *model.Attendee, error) {
	if err := sess.require(); err != nil {
		return nil, nil, err
	}
	e, a, err := s.ledger.Remove(ctx, eventID, attendeeID, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrInconsistentState) {
			s.log.Error("inventory invariant violated", zap.String("event_id", eventID),
				zap.String("attendee_id", attendeeID), zap.Error(err))
		}
		return nil, nil, classify("remove attendee", err)
	}
	s.log.Info("attendee removed", zap.String("event_id", e.ID), zap.String("attendee_id", a.ID),
		zap.Int("tickets", a.TicketCount))
	s.publish(ctx, queue.AttendeeRemovedQueue, queue.AttendeeRemovedEvent{
		EventID:          e.ID,
		AttendeeID:       a.ID,
		AttendeeName:     a.Name,
		TicketCount:      a.TicketCount,
		TicketsRemaining: e.TicketQuantity,
		TicketsSold:      e.TicketsSold,
		RemovedBy:        sess.UserID,
		RemovedAt:        s.now().UTC().Format(time.RFC3339),
	})
	return e, a, nil
}

// Attendees returns the ledger of an event the session owns.
func (s *LedgerService) Attendees(ctx context.Context, sess Session, eventID string) ([]model.Attendee, error) {
	if _, err := s.ownedEvent(ctx, sess, eventID); err != nil {
		return nil, err
	}
	list, err := s.ledger.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, classify("list attendees", err)
	}
	return list, nil
}

// Stats computes the aggregates of an event the session owns.  A ledger
// that disagrees with the stored counters is reported, not corrected.
func (s *LedgerService) Stats(ctx context.Context, sess Session, eventID string) (model.EventStats, error) {
	e, err := s.ownedEvent(ctx, sess, eventID)
	if err != nil {
		return model.EventStats{}, err
	}
	list, err := s.ledger.ListByEvent(ctx, eventID)
	if err != nil {
		return model.EventStats{}, classify("list attendees", err)
	}
	st := ComputeStats(*e, list, s.now())
	if !st.Consistent {
		s.log.Error("ledger does not match counters", zap.String("event_id", e.ID),
			zap.Int("ledger_sum", st.TicketsSoldCount), zap.Int("tickets_sold", e.TicketsSold))
	}
	return st, nil
}

func (s *LedgerService) ownedEvent(ctx context.Context, sess Session, eventID string) (*model.Event, error) {
	if err := sess.require(); err != nil {
		return nil, err
	}
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, classify("get event", err)
	}
	if e.OwnerID != sess.UserID {
		return nil, repository.ErrForbidden
	}
	return e, nil
}

func (s *LedgerService) publish(ctx context.Context, key string, payload any) {
	if err := s.pub.Publish(ctx, key, payload); err != nil {
		s.log.Warn("publish failed", zap.String("queue", key), zap.Error(err))
	}
}
