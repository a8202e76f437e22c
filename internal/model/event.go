package model

import (
    "database/sql"
    "time"
)

// Event is a plannable occasion with a finite ticket inventory.  The three
// counters always satisfy TicketsSold + TicketQuantity == TotalTickets.
// Prices are kept in cents; the JSON view exposes them as decimals.
type Event struct {
    ID               string         `db:"id"`
    OwnerID          uint64         `db:"owner_id"`
    Name             string         `db:"name"`
    Location         string         `db:"location"`
    Date             string         `db:"event_date"`
    Time             string         `db:"event_time"`
    TicketQuantity   int            `db:"ticket_quantity"`
    TicketsSold      int            `db:"tickets_sold"`
    TotalTickets     int            `db:"total_tickets"`
    TicketPriceCents int64          `db:"ticket_price_cents"`
    ImageRef         sql.NullString `db:"image_ref"`
    CreatedAt        time.Time      `db:"created_at"`
    UpdatedAt        time.Time      `db:"updated_at"`
}

// EventView is the JSON representation returned by the API.
type EventView struct {
    ID               string    `json:"id"`
    OwnerID          uint64    `json:"ownerId"`
    Name             string    `json:"name"`
    Location         string    `json:"location"`
    Date             string    `json:"date"`
    Time             string    `json:"time"`
    TicketQuantity   int       `json:"ticketQuantity"`
    TicketsSold      int       `json:"ticketsSold"`
    TotalTickets     int       `json:"totalTickets"`
    TicketsRemaining int       `json:"ticketsRemaining"`
    TicketPrice      float64   `json:"ticketPrice"`
    ImageRef         *string   `json:"imageRef,omitempty"`
    CreatedAt        time.Time `json:"createdAt"`
    UpdatedAt        time.Time `json:"updatedAt"`
}

// View converts the stored row into its API shape.
func (e Event) View() EventView {
    v := EventView{
        ID:               e.ID,
        OwnerID:          e.OwnerID,
        Name:             e.Name,
        Location:         e.Location,
        Date:             e.Date,
        Time:             e.Time,
        TicketQuantity:   e.TicketQuantity,
        TicketsSold:      e.TicketsSold,
        TotalTickets:     e.TotalTickets,
        TicketsRemaining: e.TicketQuantity,
        TicketPrice:      CentsToDecimal(e.TicketPriceCents),
        CreatedAt:        e.CreatedAt,
        UpdatedAt:        e.UpdatedAt,
    }
    if e.ImageRef.Valid {
        s := e.ImageRef.String
        v.ImageRef = &s
    }
    return v
}

// EventPatch carries the fields an owner may overwrite.  Nil means "leave
// unchanged".  Inventory counters are not patchable.
type EventPatch struct {
    Name             *string
    Location         *string
    Date             *string
    Time             *string
    TicketPriceCents *int64
    ImageRef         *string
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
    return p.Name == nil && p.Location == nil && p.Date == nil && p.Time == nil &&
        p.TicketPriceCents == nil && p.ImageRef == nil
}

// Apply overwrites e with the non-nil fields of p.
func (p EventPatch) Apply(e *Event) {
    if p.Name != nil {
        e.Name = *p.Name
    }
    if p.Location != nil {
        e.Location = *p.Location
    }
    if p.Date != nil {
        e.Date = *p.Date
    }
    if p.Time != nil {
        e.Time = *p.Time
    }
    if p.TicketPriceCents != nil {
        e.TicketPriceCents = *p.TicketPriceCents
    }
    if p.ImageRef != nil {
        e.ImageRef = sql.NullString{String: *p.ImageRef, Valid: *p.ImageRef != ""}
    }
}

// CentsToDecimal converts an integer amount of cents to a decimal value.
func CentsToDecimal(c int64) float64 { return float64(c) / 100 }
