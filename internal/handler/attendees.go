package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-planner/internal/middleware"
	"github.com/iliyamo/event-planner/internal/model"
	"github.com/iliyamo/event-planner/internal/service"
)

// AttendeeHandler serves ticket purchases, the owner's view of the ledger
// and the sales statistics.
type AttendeeHandler struct {
	Ledger *service.LedgerService
	Log    *zap.Logger
}

func NewAttendeeHandler(ledger *service.LedgerService, log *zap.Logger) *AttendeeHandler {
	return &AttendeeHandler{Ledger: ledger, Log: log}
}

type purchaseReq struct {
	BuyerName           string     `json:"buyerName"`
	Name                string     `json:"name"`
	TicketCount         flexString `json:"ticketCount"`
	SpecialRequirements string     `json:"specialRequirements"`
}

type ledgerResp struct {
	Event    model.EventView    `json:"event"`
	Attendee model.AttendeeView `json:"attendee"`
}

// Purchase handles POST /v1/events/:id/attendees.
func (h *AttendeeHandler) Purchase(c echo.Context) error {
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	buyer := req.BuyerName
	if buyer == "" {
		buyer = req.Name
	}
	e, a, err := h.Ledger.Purchase(c.Request().Context(), middleware.SessionFrom(c), c.Param("id"), service.PurchaseInput{
		BuyerName:           buyer,
		TicketCount:         string(req.TicketCount),
		SpecialRequirements: req.SpecialRequirements,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, ledgerResp{Event: e.View(), Attendee: a.View()})
}

// List handles GET /v1/events/:id/attendees (owner only).
func (h *AttendeeHandler) List(c echo.Context) error {
	list, err := h.Ledger.Attendees(c.Request().Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]model.AttendeeView, 0, len(list))
	for _, a := range list {
		out = append(out, a.View())
	}
	return c.JSON(http.StatusOK, echo.Map{"attendees": out})
}

// Remove handles DELETE /v1/events/:id/attendees/:attendee_id (owner only).
func (h *AttendeeHandler) Remove(c echo.Context) error {
	e, a, err := h.Ledger.Remove(c.Request().Context(), middleware.SessionFrom(c), c.Param("id"), c.Param("attendee_id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, ledgerResp{Event: e.View(), Attendee: a.View()})
}

// Stats handles GET /v1/events/:id/stats (owner only).
func (h *AttendeeHandler) Stats(c echo.Context) error {
	st, err := h.Ledger.Stats(c.Request().Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, st)
}
