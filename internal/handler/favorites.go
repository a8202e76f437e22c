package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-planner/internal/middleware"
	"github.com/iliyamo/event-planner/internal/model"
	"github.com/iliyamo/event-planner/internal/service"
)

// FavoriteHandler serves the caller's favorites set.
type FavoriteHandler struct {
	Favorites *service.FavoriteService
	Log       *zap.Logger
}

func NewFavoriteHandler(f *service.FavoriteService, log *zap.Logger) *FavoriteHandler {
	return &FavoriteHandler{Favorites: f, Log: log}
}

// List handles GET /v1/favorites?q=&page=&size=.
func (h *FavoriteHandler) List(c echo.Context) error {
	var page, size int
	fields := map[string]string{}
	for name, dst := range map[string]*int{"page": &page, "size": &size} {
		if raw := c.QueryParam(name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				fields[name] = "must be a whole number"
				continue
			}
			*dst = n
		}
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}
	res, err := h.Favorites.List(c.Request().Context(), middleware.SessionFrom(c), c.QueryParam("q"), page, size)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Add handles POST /v1/favorites.  201 when saved, 200 when it already was;
// the body carries the stored snapshot in both cases.
func (h *FavoriteHandler) Add(c echo.Context) error {
	var ref model.FavoriteRef
	if err := c.Bind(&ref); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	stored, added, err := h.Favorites.Add(c.Request().Context(), middleware.SessionFrom(c), ref)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{"favorite": stored, "added": added})
}

// Remove handles DELETE /v1/favorites/:id.  Absent ids still yield 204.
func (h *FavoriteHandler) Remove(c echo.Context) error {
	if err := h.Favorites.Remove(c.Request().Context(), middleware.SessionFrom(c), c.Param("id")); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
