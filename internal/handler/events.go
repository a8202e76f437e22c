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

// EventHandler serves the event store endpoints.
type EventHandler struct {
	Events *service.EventService
	Log    *zap.Logger
}

func NewEventHandler(events *service.EventService, log *zap.Logger) *EventHandler {
	return &EventHandler{Events: events, Log: log}
}

type createEventReq struct {
	Name           string     `json:"name"`
	Location       string     `json:"location"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	TicketQuantity flexString `json:"ticketQuantity"`
	TicketPrice    flexString `json:"ticketPrice"`
	ImageRef       string     `json:"imageRef"`
}

type updateEventReq struct {
	Name           *string     `json:"name"`
	Location       *string     `json:"location"`
	Date           *string     `json:"date"`
	Time           *string     `json:"time"`
	TicketPrice    *flexString `json:"ticketPrice"`
	ImageRef       *string     `json:"imageRef"`
	TicketQuantity *flexString `json:"ticketQuantity"`
	TicketsSold    *flexString `json:"ticketsSold"`
	TotalTickets   *flexString `json:"totalTickets"`
}

func views(events []model.Event) []model.EventView {
	out := make([]model.EventView, 0, len(events))
	for _, e := range events {
		out = append(out, e.View())
	}
	return out
}

// ownerFilter parses the optional ?owner= query parameter.
func ownerFilter(c echo.Context) (*uint64, bool) {
	raw := c.QueryParam("owner")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, false
	}
	return &id, true
}

// List handles GET /v1/events.
func (h *EventHandler) List(c echo.Context) error {
	owner, ok := ownerFilter(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid owner"})
	}
	events, err := h.Events.List(c.Request().Context(), owner)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": views(events)})
}

// Mine handles GET /v1/my-events.
func (h *EventHandler) Mine(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	if !sess.Authenticated() {
		return respondError(c, h.Log, service.ErrUnauthenticated)
	}
	events, err := h.Events.List(c.Request().Context(), &sess.UserID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": views(events)})
}

// Calendar handles GET /v1/events/calendar.
func (h *EventHandler) Calendar(c echo.Context) error {
	owner, ok := ownerFilter(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid owner"})
	}
	days, err := h.Events.Calendar(c.Request().Context(), owner)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"days": days})
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	e, err := h.Events.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, e.View())
}

// Create handles POST /v1/events.
func (h *EventHandler) Create(c echo.Context) error {
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	e, err := h.Events.Create(c.Request().Context(), middleware.SessionFrom(c), service.EventInput{
		Name:           req.Name,
		Location:       req.Location,
		Date:           req.Date,
		Time:           req.Time,
		TicketQuantity: string(req.TicketQuantity),
		TicketPrice:    string(req.TicketPrice),
		ImageRef:       req.ImageRef,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, e.View())
}

// Update handles PUT and PATCH /v1/events/:id.  Only the fields present in
// the body are overwritten.
func (h *EventHandler) Update(c echo.Context) error {
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	e, err := h.Events.Update(c.Request().Context(), middleware.SessionFrom(c), c.Param("id"), service.EventUpdate{
		Name:           req.Name,
		Location:       req.Location,
		Date:           req.Date,
		Time:           req.Time,
		TicketPrice:    req.TicketPrice.ptr(),
		ImageRef:       req.ImageRef,
		TicketQuantity: req.TicketQuantity.ptr(),
		TicketsSold:    req.TicketsSold.ptr(),
		TotalTickets:   req.TotalTickets.ptr(),
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, e.View())
}

// Delete handles DELETE /v1/events/:id.
func (h *EventHandler) Delete(c echo.Context) error {
	if err := h.Events.Delete(c.Request().Context(), middleware.SessionFrom(c), c.Param("id")); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
