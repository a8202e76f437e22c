// Package search proxies the external event discovery API (Ticketmaster
// Discovery v2).  Results are only displayed or saved as favorites; nothing
// here is persisted.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/iliyamo/event-planner/internal/config"
)

var (
	// ErrBadQuery is returned when category or town is missing.
	ErrBadQuery = errors.New("category and town are required")
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("search is not configured")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("search temporarily unavailable")
)

const maxPageSize = 100

// Query is one search request.  Page is zero based.
type Query struct {
	Category string
	Town     string
	Page     int
	Size     int
}

// Listing is a third-party event as shown to users.  Its id, name, date,
// time, venue and image are what a favorite stores.
type Listing struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Date     string   `json:"date"`
	Time     string   `json:"time"`
	Venue    string   `json:"venue"`
	City     string   `json:"city"`
	Image    string   `json:"image,omitempty"`
	PriceMin *float64 `json:"priceMin,omitempty"`
	PriceMax *float64 `json:"priceMax,omitempty"`
	Currency string   `json:"currency,omitempty"`
	URL      string   `json:"url,omitempty"`
}

// Result is one page of listings.
type Result struct {
	Events        []Listing `json:"events"`
	Page          int       `json:"page"`
	Size          int       `json:"size"`
	TotalPages    int       `json:"totalPages"`
	TotalElements int       `json:"totalElements"`
}

// Client calls the discovery API through a circuit breaker.  After five
// consecutive upstream failures it fails fast for thirty seconds.
type Client struct {
	base     string
	apiKey   string
	pageSize int
	http     *http.Client
	cb       *gobreaker.CircuitBreaker
	log      *zap.Logger
}

// NewClient builds a Client from cfg.
func NewClient(cfg config.SearchConfig, log *zap.Logger) *Client {
	log = log.Named("search")
	size := cfg.PageSize
	if size <= 0 || size > maxPageSize {
		size = 20
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		pageSize: size,
		http:     &http.Client{Timeout: timeout},
		log:      log,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "search",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state change",
					zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
			},
		}),
	}
}

// Search returns one page of events matching category in town.
func (c *Client) Search(ctx context.Context, q Query) (*Result, error) {
	q.Category = strings.TrimSpace(q.Category)
	q.Town = strings.TrimSpace(q.Town)
	if q.Category == "" || q.Town == "" {
		return nil, ErrBadQuery
	}
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 || q.Size > maxPageSize {
		q.Size = c.pageSize
	}

	out, err := c.cb.Execute(func() (interface{}, error) { return c.fetch(ctx, q) })
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return out.(*Result), nil
}

func (c *Client) fetch(ctx context.Context, q Query) (*Result, error) {
	v := url.Values{}
	v.Set("apikey", c.apiKey)
	v.Set("keyword", q.Category)
	v.Set("city", q.Town)
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	v.Set("sort", "date,asc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/events.json?"+v.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build search request")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "search request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var raw discoveryResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}
	return raw.toResult(q), nil
}

type discoveryResponse struct {
	Embedded struct {
		Events []discoveryEvent `json:"events"`
	} `json:"_embedded"`
	Page struct {
		Size          int `json:"size"`
		TotalElements int `json:"totalElements"`
		TotalPages    int `json:"totalPages"`
		Number        int `json:"number"`
	} `json:"page"`
}

type discoveryEvent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Images []struct {
		URL   string `json:"url"`
		Ratio string `json:"ratio"`
		Width int    `json:"width"`
	} `json:"images"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"`
			LocalTime string `json:"localTime"`
		} `json:"start"`
	} `json:"dates"`
	PriceRanges []struct {
		Min      float64 `json:"min"`
		Max      float64 `json:"max"`
		Currency string  `json:"currency"`
	} `json:"priceRanges"`
	Embedded struct {
		Venues []struct {
			Name string `json:"name"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
		} `json:"venues"`
	} `json:"_embedded"`
}

func (r discoveryResponse) toResult(q Query) *Result {
	res := &Result{
		Events:        make([]Listing, 0, len(r.Embedded.Events)),
		Page:          r.Page.Number,
		Size:          r.Page.Size,
		TotalPages:    r.Page.TotalPages,
		TotalElements: r.Page.TotalElements,
	}
	if res.Size == 0 {
		res.Page, res.Size = q.Page, q.Size
	}
	for _, e := range r.Embedded.Events {
		l := Listing{
			ID:   e.ID,
			Name: e.Name,
			Date: e.Dates.Start.LocalDate,
			Time: e.Dates.Start.LocalTime,
			URL:  e.URL,
		}
		if len(e.Embedded.Venues) > 0 {
			l.Venue = e.Embedded.Venues[0].Name
			l.City = e.Embedded.Venues[0].City.Name
		}
		if len(e.PriceRanges) > 0 {
			pr := e.PriceRanges[0]
			l.PriceMin, l.PriceMax, l.Currency = &pr.Min, &pr.Max, pr.Currency
		}
		best := -1
		for i, img := range e.Images {
			if best < 0 || (img.Ratio == "16_9" && (e.Images[best].Ratio != "16_9" || img.Width > e.Images[best].Width)) {
				best = i
			}
		}
		if best >= 0 {
			l.Image = e.Images[best].URL
		}
		res.Events = append(res.Events, l)
	}
	return res
}
