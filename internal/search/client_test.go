package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/event-planner/internal/config"
)

const discoveryBody = `{
  "_embedded": {"events": [{
    "id": "G5vYZ9",
    "name": "Rock Night",
    "url": "https://tickets.example/rock",
    "images": [
      {"url": "https://img/small.jpg", "ratio": "4_3", "width": 305},
      {"url": "https://img/wide.jpg", "ratio": "16_9", "width": 1024},
      {"url": "https://img/wider.jpg", "ratio": "16_9", "width": 2048}
    ],
    "dates": {"start": {"localDate": "2026-07-04", "localTime": "19:30:00"}},
    "priceRanges": [{"min": 35.5, "max": 99, "currency": "NOK"}],
    "_embedded": {"venues": [{"name": "Spektrum", "city": {"name": "Oslo"}}]}
  }]},
  "page": {"size": 20, "totalElements": 1, "totalPages": 1, "number": 0}
}`

func newTestClient(url string) *Client {
	return NewClient(config.SearchConfig{BaseURL: url, APIKey: "k", Timeout: time.Second, PageSize: 20}, zap.NewNop())
}

func TestSearchMapsListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events.json", r.URL.Path)
		assert.Equal(t, "rock", r.URL.Query().Get("keyword"))
		assert.Equal(t, "Oslo", r.URL.Query().Get("city"))
		assert.Equal(t, "k", r.URL.Query().Get("apikey"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(discoveryBody))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Search(context.Background(), Query{Category: "rock", Town: "Oslo", Page: 2})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	l := res.Events[0]
	assert.Equal(t, "G5vYZ9", l.ID)
	assert.Equal(t, "Rock Night", l.Name)
	assert.Equal(t, "2026-07-04", l.Date)
	assert.Equal(t, "19:30:00", l.Time)
	assert.Equal(t, "Spektrum", l.Venue)
	assert.Equal(t, "Oslo", l.City)
	assert.Equal(t, "https://img/wider.jpg", l.Image)
	require.NotNil(t, l.PriceMin)
	assert.Equal(t, 35.5, *l.PriceMin)
	assert.Equal(t, "NOK", l.Currency)
	assert.Equal(t, 1, res.TotalPages)
}

func TestSearchRequiresCategoryAndTown(t *testing.T) {
	c := newTestClient("http://unused")
	_, err := c.Search(context.Background(), Query{Category: "rock"})
	assert.ErrorIs(t, err, ErrBadQuery)
	_, err = c.Search(context.Background(), Query{Town: "Oslo"})
	assert.ErrorIs(t, err, ErrBadQuery)
}

func TestSearchWithoutAPIKey(t *testing.T) {
	c := NewClient(config.SearchConfig{BaseURL: "http://unused"}, zap.NewNop())
	_, err := c.Search(context.Background(), Query{Category: "rock", Town: "Oslo"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSearchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page": {"size": 20, "totalElements": 0, "totalPages": 0, "number": 0}}`))
	}))
	defer srv.Close()
	res, err := newTestClient(srv.URL).Search(context.Background(), Query{Category: "x", Town: "y"})
	require.NoError(t, err)
	assert.NotNil(t, res.Events)
	assert.Empty(t, res.Events)
}

func TestSearchBreakerOpensAfterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	q := Query{Category: "rock", Town: "Oslo"}
	for i := 0; i < 5; i++ {
		_, err := c.Search(context.Background(), q)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	_, err := c.Search(context.Background(), q)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}
