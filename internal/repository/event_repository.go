package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iliyamo/event-planner/internal/model"
)

const eventColumns = `id, owner_id, name, location, event_date, event_time, ticket_quantity, tickets_sold,
total_tickets, ticket_price_cents, image_ref, created_at, updated_at`

const (
	qEventInsert = `INSERT INTO events (id, owner_id, name, location, event_date, event_time, ticket_quantity,
tickets_sold, total_tickets, ticket_price_cents, image_ref, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	qEventByID        = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	qEventForUpdate   = `SELECT ` + eventColumns + ` FROM events WHERE id = ? FOR UPDATE`
	qEventList        = `SELECT ` + eventColumns + ` FROM events ORDER BY event_date, event_time, created_at`
	qEventListByOwner = `SELECT ` + eventColumns + ` FROM events WHERE owner_id = ? ORDER BY event_date, event_time, created_at`
	qEventUpdate      = `UPDATE events SET name = ?, location = ?, event_date = ?, event_time = ?,
ticket_price_cents = ?, image_ref = ?, updated_at = ? WHERE id = ?`
	qEventDelete        = `DELETE FROM events WHERE id = ?`
	qEventAttendeeCount = `SELECT COUNT(*) FROM attendees WHERE event_id = ?`
)

// EventRepo stores events in MySQL.  Inventory counters are never written
// here except at creation; AttendeeRepo owns every counter mutation.
type EventRepo struct {
	db *sqlx.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sqlx.DB) *EventRepo { return &EventRepo{db: db} }

// Create assigns an id and timestamps to e and inserts it.  The caller has
// already set TotalTickets = TicketQuantity and TicketsSold = 0.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, qEventInsert,
		e.ID, e.OwnerID, e.Name, e.Location, e.Date, e.Time, e.TicketQuantity,
		e.TicketsSold, e.TotalTickets, e.TicketPriceCents, e.ImageRef, e.CreatedAt, e.UpdatedAt)
	return errors.Wrap(err, "insert event")
}

// GetByID loads a single event.  ErrEventNotFound when absent.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	if err := r.db.GetContext(ctx, &e, qEventByID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, errors.Wrap(err, "select event")
	}
	return &e, nil
}

// List returns every event, or only those owned by *ownerID when non-nil.
func (r *EventRepo) List(ctx context.Context, ownerID *uint64) ([]model.Event, error) {
	var (
		out []model.Event
		err error
	)
	if ownerID != nil {
		err = r.db.SelectContext(ctx, &out, qEventListByOwner, *ownerID)
	} else {
		err = r.db.SelectContext(ctx, &out, qEventList)
	}
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	return out, nil
}

// UpdateByIDAndOwner overwrites the patched fields of an event owned by
// ownerID and returns the stored result.
func (r *EventRepo) UpdateByIDAndOwner(ctx context.Context, id string, ownerID uint64, p model.EventPatch) (*model.Event, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	e, err := lockOwnedEventTx(ctx, tx, id, ownerID)
	if err != nil {
		return nil, err
	}
	p.Apply(e)
	e.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx, qEventUpdate,
		e.Name, e.Location, e.Date, e.Time, e.TicketPriceCents, e.ImageRef, e.UpdatedAt, e.ID); err != nil {
		return nil, errors.Wrap(err, "update event")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	committed = true
	return e, nil
}

// DeleteByIDAndOwner removes an event and, through the foreign key cascade,
// its whole ledger in one transaction.  It returns how many ledger entries
// went with it.
func (r *EventRepo) DeleteByIDAndOwner(ctx context.Context, id string, ownerID uint64) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := lockOwnedEventTx(ctx, tx, id, ownerID); err != nil {
		return 0, err
	}
	var n int
	if err := tx.GetContext(ctx, &n, qEventAttendeeCount, id); err != nil {
		return 0, errors.Wrap(err, "count attendees")
	}
	if _, err := tx.ExecContext(ctx, qEventDelete, id); err != nil {
		return 0, errors.Wrap(err, "delete event")
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	committed = true
	return n, nil
}

// lockEventTx reads an event row with an exclusive lock held until the
// transaction ends.
func lockEventTx(ctx context.Context, tx *sqlx.Tx, id string) (*model.Event, error) {
	var e model.Event
	if err := tx.GetContext(ctx, &e, qEventForUpdate, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, errors.Wrap(err, "lock event")
	}
	return &e, nil
}

func lockOwnedEventTx(ctx context.Context, tx *sqlx.Tx, id string, ownerID uint64) (*model.Event, error) {
	e, err := lockEventTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if e.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return e, nil
}
