package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/event-planner/internal/middleware"
	"github.com/iliyamo/event-planner/internal/repository"
	"github.com/iliyamo/event-planner/internal/service"
	"github.com/iliyamo/event-planner/internal/storage"
)

// ImageStore is the binary asset store.
type ImageStore interface {
	SaveImage(r io.Reader) (string, error)
}

// UploadHandler accepts event images.
type UploadHandler struct {
	Events *service.EventService
	Assets ImageStore
	Log    *zap.Logger
}

func NewUploadHandler(events *service.EventService, assets ImageStore, log *zap.Logger) *UploadHandler {
	return &UploadHandler{Events: events, Assets: assets, Log: log}
}

// EventImage handles POST /v1/events/:id/image with a multipart "image"
// field.  Ownership is checked before anything is written.
func (h *UploadHandler) EventImage(c echo.Context) error {
	ctx := c.Request().Context()
	sess := middleware.SessionFrom(c)
	if !sess.Authenticated() {
		return respondError(c, h.Log, service.ErrUnauthenticated)
	}
	e, err := h.Events.Get(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if e.OwnerID != sess.UserID {
		return respondError(c, h.Log, repository.ErrForbidden)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"image": "is required"}})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid upload"})
	}
	defer f.Close()

	url, err := h.Assets.SaveImage(f)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "image too large"})
	case errors.Is(err, storage.ErrUnsupportedType):
		return c.JSON(http.StatusUnsupportedMediaType, echo.Map{"error": "only jpeg, png, gif and webp images are accepted"})
	case err != nil:
		return respondError(c, h.Log, err)
	}

	updated, err := h.Events.SetImage(ctx, sess, e.ID, url)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, updated.View())
}
