package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-planner/internal/model"
)

func TestComputeStatsAfterPurchase(t *testing.T) {
	e := model.Event{ID: "e1", Date: "2026-03-10", TicketQuantity: 70, TicketsSold: 30, TotalTickets: 100, TicketPriceCents: 2000}
	ledger := []model.Attendee{{TicketCount: 30}}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	st := ComputeStats(e, ledger, now)
	assert.Equal(t, 30, st.TicketsSoldCount)
	assert.True(t, st.Consistent)
	assert.Equal(t, 600.0, st.TotalRevenue)
	assert.Equal(t, 30, st.ProgressPercent)
	require.NotNil(t, st.DaysUntilEvent)
	assert.Equal(t, 9, *st.DaysUntilEvent)
	assert.Equal(t, 1, st.AttendeeCount)
}

func TestComputeStatsFlagsLedgerMismatch(t *testing.T) {
	e := model.Event{ID: "e1", TicketQuantity: 90, TicketsSold: 10, TotalTickets: 100, TicketPriceCents: 100}
	st := ComputeStats(e, []model.Attendee{{TicketCount: 4}}, time.Now())
	assert.False(t, st.Consistent)
	assert.Equal(t, 4, st.TicketsSoldCount)
	assert.Equal(t, 10, st.TicketsSold)
	assert.Nil(t, st.DaysUntilEvent)
}

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		total, remaining, want int
	}{
		{100, 70, 30},
		{3, 2, 33},
		{3, 1, 67},
		{0, 0, 0},
		{10, 10, 0},
		{10, 0, 100},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ProgressPercent(c.total, c.remaining), "total=%d remaining=%d", c.total, c.remaining)
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 5, 10, 15, 30, 0, 0, time.UTC)
	cases := map[string]int{
		"2026-05-11": 1,
		"2026-05-10": 0,
		"2026-05-09": -1,
		"2026-05-01": -9,
		"2026-06-09": 30,
	}
	for date, want := range cases {
		got := DaysUntil(date, now)
		require.NotNil(t, got, date)
		assert.Equal(t, want, *got, date)
	}
	assert.Nil(t, DaysUntil("next friday", now))
}

func TestGroupByDate(t *testing.T) {
	events := []model.Event{
		{ID: "b", Date: "2026-02-01"},
		{ID: "a", Date: "2026-01-15"},
		{ID: "c", Date: "2026-02-01"},
	}
	days := GroupByDate(events)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-01-15", days[0].Date)
	assert.Equal(t, "2026-02-01", days[1].Date)
	require.Len(t, days[1].Events, 2)
	assert.Equal(t, "b", days[1].Events[0].ID)
	assert.Equal(t, "c", days[1].Events[1].ID)
	assert.Empty(t, GroupByDate(nil))
}
