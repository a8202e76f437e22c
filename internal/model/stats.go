package model

// EventStats summarises an event's sales from its committed row and ledger.
type EventStats struct {
    EventID          string  `json:"eventId"`
    TicketsSoldCount int     `json:"ticketsSoldCount"`
    TicketsSold      int     `json:"ticketsSold"`
    Consistent       bool    `json:"consistent"`
    TotalRevenue     float64 `json:"totalRevenue"`
    TotalTickets     int     `json:"totalTickets"`
    TicketsRemaining int     `json:"ticketsRemaining"`
    ProgressPercent  int     `json:"progressPercent"`
    DaysUntilEvent   *int    `json:"daysUntilEvent"`
    AttendeeCount    int     `json:"attendeeCount"`
}

// CalendarDay groups the events that fall on one date.
type CalendarDay struct {
    Date   string      `json:"date"`
    Events []EventView `json:"events"`
}
