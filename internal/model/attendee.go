package model

import (
    "database/sql"
    "time"
)

// Attendee is one ledger entry: a single ticket purchase against an event.
// For every event the ticket counts of its entries sum to TicketsSold.
type Attendee struct {
    ID                  string         `db:"id"`
    EventID             string         `db:"event_id"`
    BuyerID             sql.NullInt64  `db:"buyer_id"`
    Name                string         `db:"name"`
    TicketCount         int            `db:"ticket_count"`
    SpecialRequirements sql.NullString `db:"special_requirements"`
    CreatedAt           time.Time      `db:"created_at"`
}

// AttendeeView is the JSON shape of a ledger entry.
type AttendeeView struct {
    ID                  string    `json:"id"`
    EventID             string    `json:"eventId"`
    Name                string    `json:"name"`
    TicketCount         int       `json:"ticketCount"`
    SpecialRequirements string    `json:"specialRequirements,omitempty"`
    CreatedAt           time.Time `json:"createdAt"`
}

func (a Attendee) View() AttendeeView {
    return AttendeeView{
        ID:                  a.ID,
        EventID:             a.EventID,
        Name:                a.Name,
        TicketCount:         a.TicketCount,
        SpecialRequirements: a.SpecialRequirements.String,
        CreatedAt:           a.CreatedAt,
    }
}
