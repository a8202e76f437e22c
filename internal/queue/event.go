// Package queue defines message payloads exchanged over the message broker,
// the publisher the services use after a commit, and the consumer that
// writes them to the activity log.
package queue

// Queue names.  Messages go through the default exchange so each routing
// key is also the name of a durable queue.
const (
    TicketsPurchasedQueue = "tickets.purchased"
    AttendeeRemovedQueue  = "attendee.removed"
    EventDeletedQueue     = "event.deleted"
)

// Queues lists every queue the consumer drains.
var Queues = []string{TicketsPurchasedQueue, AttendeeRemovedQueue, EventDeletedQueue}

// TicketsPurchasedEvent is published after a purchase transaction commits.
// It carries the counters as committed so consumers never re-read them.
type TicketsPurchasedEvent struct {
    EventID          string `json:"event_id"`
    EventName        string `json:"event_name"`
    AttendeeID       string `json:"attendee_id"`
    BuyerID          uint64 `json:"buyer_id"`
    BuyerName        string `json:"buyer_name"`
    TicketCount      int    `json:"ticket_count"`
    AmountCents      int64  `json:"amount_cents"`
    TicketsRemaining int    `json:"tickets_remaining"`
    TicketsSold      int    `json:"tickets_sold"`
    PurchasedAt      string `json:"purchased_at"`
}

// AttendeeRemovedEvent is published after an owner removes a ledger entry.
type AttendeeRemovedEvent struct {
    EventID          string `json:"event_id"`
    AttendeeID       string `json:"attendee_id"`
    AttendeeName     string `json:"attendee_name"`
    TicketCount      int    `json:"ticket_count"`
    TicketsRemaining int    `json:"tickets_remaining"`
    TicketsSold      int    `json:"tickets_sold"`
    RemovedBy        uint64 `json:"removed_by"`
    RemovedAt        string `json:"removed_at"`
}

// EventDeletedEvent is published after an event and its ledger are deleted.
type EventDeletedEvent struct {
    EventID          string `json:"event_id"`
    EventName        string `json:"event_name"`
    OwnerID          uint64 `json:"owner_id"`
    AttendeesDropped int    `json:"attendees_dropped"`
    DeletedAt        string `json:"deleted_at"`
}
