package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/event-planner/internal/search"
)

// Searcher is the external event search.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
}

// SearchHandler proxies the external search API.
type SearchHandler struct {
	Search Searcher
	Log    *zap.Logger
}

func NewSearchHandler(s Searcher, log *zap.Logger) *SearchHandler {
	return &SearchHandler{Search: s, Log: log}
}

// Events handles GET /v1/search/events?category=&town=&page=&size=.
func (h *SearchHandler) Events(c echo.Context) error {
	q := search.Query{Category: c.QueryParam("category"), Town: c.QueryParam("town")}
	fields := map[string]string{}
	if q.Category == "" {
		fields["category"] = "is required"
	}
	if q.Town == "" {
		fields["town"] = "is required"
	}
	for name, dst := range map[string]*int{"page": &q.Page, "size": &q.Size} {
		if raw := c.QueryParam(name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				fields[name] = "must be a non-negative integer"
				continue
			}
			*dst = n
		}
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	res, err := h.Search.Search(c.Request().Context(), q)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, res)
	case errors.Is(err, search.ErrBadQuery):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, search.ErrNotConfigured), errors.Is(err, search.ErrUnavailable):
		h.Log.Warn("search unavailable", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "search is unavailable, please retry later"})
	default:
		h.Log.Error("search failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "search failed, please retry"})
	}
}
