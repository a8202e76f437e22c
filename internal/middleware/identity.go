package middleware

// identity.go keeps the authenticated session in the Echo context.  JWTAuth
// writes it; handlers and the rate limiter read it.  A request without a
// session yields the zero Session, which owns nothing.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-planner/internal/service"
)

const (
    sessionKey = "session"
    userIDKey  = "user_id"
)

func setSession(c echo.Context, s service.Session) {
    c.Set(sessionKey, s)
    c.Set(userIDKey, s.UserID)
}

// SessionFrom returns the session stored by JWTAuth, or the anonymous
// session when there is none.
func SessionFrom(c echo.Context) service.Session {
    if s, ok := c.Get(sessionKey).(service.Session); ok {
        return s
    }
    return service.Session{}
}

// WithSession stores s on c.  Tests use it to bypass token parsing.
func WithSession(c echo.Context, s service.Session) { setSession(c, s) }

// userID returns the caller's id as a string, or "anon".
func userID(c echo.Context) string {
    if s := SessionFrom(c); s.Authenticated() {
        return strconv.FormatUint(s.UserID, 10)
    }
    return "anon"
}
