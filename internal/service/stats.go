package service

import (
	"math"
	"sort"
	"time"

	"github.com/iliyamo/event-planner/internal/model"
)

// dateLayouts are the event date formats daysUntilEvent understands.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04", "02/01/2006"}

// ComputeStats derives the sales aggregates of e from its ledger.  It is a
// pure function: now stands for "today" and only its date and location
// matter.  The event row stays authoritative for display; the ledger sum is
// reported next to it as a consistency check.
func ComputeStats(e model.Event, ledger []model.Attendee, now time.Time) model.EventStats {
	var sold int
	var revenueCents int64
	for _, a := range ledger {
		sold += a.TicketCount
		revenueCents += int64(a.TicketCount) * e.TicketPriceCents
	}
	return model.EventStats{
		EventID:          e.ID,
		TicketsSoldCount: sold,
		TicketsSold:      e.TicketsSold,
		Consistent:       sold == e.TicketsSold && e.TicketsSold+e.TicketQuantity == e.TotalTickets,
		TotalRevenue:     model.CentsToDecimal(revenueCents),
		TotalTickets:     e.TotalTickets,
		TicketsRemaining: e.TicketQuantity,
		ProgressPercent:  ProgressPercent(e.TotalTickets, e.TicketQuantity),
		DaysUntilEvent:   DaysUntil(e.Date, now),
		AttendeeCount:    len(ledger),
	}
}

// ProgressPercent is round(100 * sold / total), 0 when total is 0.
func ProgressPercent(total, remaining int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(total-remaining) / float64(total)))
}

// DaysUntil returns ceil((date - now) / 24h) where date is taken at midnight
// in now's location.  Past dates give negative values.  It returns nil when
// date does not parse.
func DaysUntil(date string, now time.Time) *int {
	d, ok := parseDate(date, now.Location())
	if !ok {
		return nil
	}
	days := int(math.Ceil(d.Sub(now).Hours() / 24))
	return &days
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

// GroupByDate buckets events by their date string, dates ascending.
// Events keep their input order within a day.
func GroupByDate(events []model.Event) []model.CalendarDay {
	idx := map[string]int{}
	days := []model.CalendarDay{}
	for _, e := range events {
		i, ok := idx[e.Date]
		if !ok {
			i = len(days)
			idx[e.Date] = i
			days = append(days, model.CalendarDay{Date: e.Date, Events: []model.EventView{}})
		}
		days[i].Events = append(days[i].Events, e.View())
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}
