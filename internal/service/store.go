package service

import (
	"context"

	"github.com/iliyamo/event-planner/internal/model"
)

// EventStore persists events.  repository.EventRepo and inmem.Store satisfy it.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, ownerID *uint64) ([]model.Event, error)
	UpdateByIDAndOwner(ctx context.Context, id string, ownerID uint64, p model.EventPatch) (*model.Event, error)
	DeleteByIDAndOwner(ctx context.Context, id string, ownerID uint64) (int, error)
}

// Ledger is the attendee ledger.  Purchase and Remove each change the event
// counters and the ledger atomically; they are the only inventory mutations.
type Ledger interface {
	Purchase(ctx context.Context, eventID string, a *model.Attendee) (*model.Event, error)
	Remove(ctx context.Context, eventID, attendeeID string, ownerID uint64) (*model.Event, *model.Attendee, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Attendee, error)
}

// FavoriteStore keeps per-user favorites in insertion order.
type FavoriteStore interface {
	// Add stores ref unless its id is already saved and returns the stored
	// snapshot, which is the earlier one when added is false.
	Add(ctx context.Context, userID uint64, ref model.FavoriteRef) (stored model.FavoriteRef, added bool, err error)
	Remove(ctx context.Context, userID uint64, id string) error
	List(ctx context.Context, userID uint64) ([]model.FavoriteRef, error)
}

// Publisher emits domain events after a change has been committed.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// NopPublisher discards everything.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
