package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/event-planner/internal/handler"
	"github.com/iliyamo/event-planner/internal/middleware"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Events    *handler.EventHandler
	Attendees *handler.AttendeeHandler
	Favorites *handler.FavoriteHandler
	Search    *handler.SearchHandler
	Upload    *handler.UploadHandler
}

// Middleware carries the per-route middleware built in main.  Nil entries
// are skipped.
type Middleware struct {
	JWTSecret   string
	EventCache  echo.MiddlewareFunc // short-lived cache for public event reads
	SearchCache echo.MiddlewareFunc // longer-lived cache for the search proxy
	RateLimit   echo.MiddlewareFunc // token bucket for writes
}

func chain(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers the operational routes.  "/healthz" is used by
// load balancers and monitoring.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// Register wires every API route.
func Register(e *echo.Echo, h Handlers, m Middleware) {
	RegisterRoutes(e, h.Health)
	RegisterAuth(e, h.Auth, m)
	RegisterPublic(e, h, m)
	RegisterProtected(e, h, m)
}

// RegisterAuth registers all authentication‑related routes.  Unauthenticated
// operations live under /v1/auth; /v1/me requires an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, m Middleware) {
	g := e.Group("/v1/auth", chain(m.RateLimit)...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token and keeps the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a refresh token in the body, a bearer token, or both.
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(m.JWTSecret))
}

// RegisterPublic registers unauthenticated read endpoints: event browsing,
// the calendar and the external search proxy.
func RegisterPublic(e *echo.Echo, h Handlers, m Middleware) {
	cached := chain(m.EventCache)
	e.GET("/v1/events", h.Events.List, cached...)
	// Static segment, matched before /v1/events/:id.
	e.GET("/v1/events/calendar", h.Events.Calendar, cached...)
	e.GET("/v1/events/:id", h.Events.Get, cached...)
	e.GET("/v1/search/events", h.Search.Events, chain(m.SearchCache)...)
}

// RegisterProtected registers the endpoints that need a session.  Owner
// checks happen in the services.
func RegisterProtected(e *echo.Echo, h Handlers, m Middleware) {
	auth := middleware.JWTAuth(m.JWTSecret)
	write := chain(auth, m.RateLimit)
	read := chain(auth)

	e.GET("/v1/my-events", h.Events.Mine, read...)
	e.POST("/v1/events", h.Events.Create, write...)
	e.PUT("/v1/events/:id", h.Events.Update, write...)
	e.PATCH("/v1/events/:id", h.Events.Update, write...)
	e.DELETE("/v1/events/:id", h.Events.Delete, write...)
	e.POST("/v1/events/:id/image", h.Upload.EventImage, write...)

	e.POST("/v1/events/:id/attendees", h.Attendees.Purchase, write...)
	e.GET("/v1/events/:id/attendees", h.Attendees.List, read...)
	e.DELETE("/v1/events/:id/attendees/:attendee_id", h.Attendees.Remove, write...)
	e.GET("/v1/events/:id/stats", h.Attendees.Stats, read...)

	e.GET("/v1/favorites", h.Favorites.List, read...)
	e.POST("/v1/favorites", h.Favorites.Add, write...)
	e.DELETE("/v1/favorites/:id", h.Favorites.Remove, write...)
}
