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

const attendeeColumns = `id, event_id, buyer_id, name, ticket_count, special_requirements, created_at`

const (
	qTakeTickets = `UPDATE events SET ticket_quantity = ticket_quantity - ?, tickets_sold = tickets_sold + ?,
updated_at = ? WHERE id = ? AND ticket_quantity >= ?`
	qReturnTickets = `UPDATE events SET ticket_quantity = ticket_quantity + ?, tickets_sold = tickets_sold - ?,
updated_at = ? WHERE id = ? AND tickets_sold >= ?`
	qAttendeeInsert = `INSERT INTO attendees (id, event_id, buyer_id, name, ticket_count, special_requirements, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	qAttendeeForUpdate = `SELECT ` + attendeeColumns + ` FROM attendees WHERE id = ? AND event_id = ? FOR UPDATE`
	qAttendeeDelete    = `DELETE FROM attendees WHERE id = ?`
	qAttendeesByEvent  = `SELECT ` + attendeeColumns + ` FROM attendees WHERE event_id = ? ORDER BY created_at, id`
)

// AttendeeRepo is the attendee ledger.  Purchase and Remove are the only
// operations that change an event's inventory counters; each runs as one
// transaction that locks the event row, applies a conditional counter update
// and writes the ledger row.  Any failure rolls everything back.
type AttendeeRepo struct {
	db *sqlx.DB
}

// NewAttendeeRepo returns a new AttendeeRepo bound to the given database.
func NewAttendeeRepo(db *sqlx.DB) *AttendeeRepo { return &AttendeeRepo{db: db} }

// Purchase takes a.TicketCount tickets from the event and records a as a
// new ledger entry.  It returns the event with its committed counters.
func (r *AttendeeRepo) Purchase(ctx context.Context, eventID string, a *model.Attendee) (*model.Event, error) {
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

	e, err := lockEventTx(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	n := a.TicketCount
	if n > e.TicketQuantity {
		return nil, ErrInsufficientInventory
	}
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, qTakeTickets, n, n, now, eventID, n)
	if err != nil {
		return nil, errors.Wrap(err, "take tickets")
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, errors.Wrap(err, "take tickets")
	} else if affected == 0 {
		return nil, ErrInsufficientInventory
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.EventID = eventID
	a.CreatedAt = now
	if _, err := tx.ExecContext(ctx, qAttendeeInsert,
		a.ID, a.EventID, a.BuyerID, a.Name, a.TicketCount, a.SpecialRequirements, a.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "insert attendee")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	committed = true

	e.TicketQuantity -= n
	e.TicketsSold += n
	e.UpdatedAt = now
	return e, nil
}

// Remove deletes a ledger entry of an event owned by ownerID and gives its
// tickets back.  The event is locked before the entry so Remove and Purchase
// acquire row locks in the same order.
func (r *AttendeeRepo) Remove(ctx context.Context, eventID, attendeeID string, ownerID uint64) (*model.Event, *model.Attendee, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "begin")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	e, err := lockOwnedEventTx(ctx, tx, eventID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	var a model.Attendee
	if err := tx.GetContext(ctx, &a, qAttendeeForUpdate, attendeeID, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrAttendeeNotFound
		}
		return nil, nil, errors.Wrap(err, "lock attendee")
	}
	n := a.TicketCount
	if e.TicketsSold < n || e.TicketQuantity+n > e.TotalTickets {
		return nil, nil, errors.Wrapf(ErrInconsistentState,
			"event %s sold=%d remaining=%d total=%d, entry %s holds %d",
			e.ID, e.TicketsSold, e.TicketQuantity, e.TotalTickets, a.ID, n)
	}
	if _, err := tx.ExecContext(ctx, qAttendeeDelete, a.ID); err != nil {
		return nil, nil, errors.Wrap(err, "delete attendee")
	}
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, qReturnTickets, n, n, now, eventID, n)
	if err != nil {
		return nil, nil, errors.Wrap(err, "return tickets")
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, nil, errors.Wrap(err, "return tickets")
	} else if affected == 0 {
		return nil, nil, errors.Wrapf(ErrInconsistentState, "event %s counters changed under lock", e.ID)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, errors.Wrap(err, "commit")
	}
	committed = true

	e.TicketQuantity += n
	e.TicketsSold -= n
	e.UpdatedAt = now
	return e, &a, nil
}

// ListByEvent returns an event's ledger in purchase order.
func (r *AttendeeRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Attendee, error) {
	var out []model.Attendee
	if err := r.db.SelectContext(ctx, &out, qAttendeesByEvent, eventID); err != nil {
		return nil, errors.Wrap(err, "list attendees")
	}
	return out, nil
}
