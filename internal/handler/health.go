package handler

import (
    "context"
    "net/http"
    "sort"
    "time"

    "github.com/labstack/echo/v4"
)

// Check probes one backing service.
type Check func(ctx context.Context) error

// HealthHandler reports whether the service and its backends are up.  It is
// used by load balancers and monitoring.
type HealthHandler struct {
    checks map[string]Check
}

func NewHealthHandler(checks map[string]Check) *HealthHandler {
    return &HealthHandler{checks: checks}
}

// Health handles GET /healthz.  Every check gets two seconds; any failure
// turns the response into a 503 naming the backend.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    names := make([]string, 0, len(h.checks))
    for name := range h.checks {
        names = append(names, name)
    }
    sort.Strings(names)

    status, code := "ok", http.StatusOK
    results := make(map[string]string, len(names))
    for _, name := range names {
        if err := h.checks[name](ctx); err != nil {
            results[name] = err.Error()
            status, code = "degraded", http.StatusServiceUnavailable
            continue
        }
        results[name] = "ok"
    }
    return c.JSON(code, echo.Map{"status": status, "checks": results})
}
