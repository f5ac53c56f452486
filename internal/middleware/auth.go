package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/session"
)

// SessionCookie carries the session JWT for browsers that do not send an
// Authorization header.
const SessionCookie = "hotel_session"

const sessionKey = "session"

// Resolver turns a raw session token into its live session.
type Resolver interface {
	Resolve(ctx context.Context, rawToken string) (*model.Session, error)
}

// rawToken reads the bearer token, falling back to the session cookie.
func rawToken(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if ck, err := c.Cookie(SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

// SessionAuth resolves the caller's session and binds it to both the echo
// context and the request context, so backend calls carry its token.
// With required set, a missing or dead session is answered with 401 and a
// pointer to the login page; otherwise the request continues anonymously.
func SessionAuth(r Resolver, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := rawToken(c)
			if raw == "" {
				if required {
					return unauthorized(c, "missing session token")
				}
				return next(c)
			}
			s, err := r.Resolve(c.Request().Context(), raw)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					return err
				}
				if required {
					return unauthorized(c, "Your session has expired. Please log in again.")
				}
				return next(c)
			}
			c.Set(sessionKey, s)
			c.SetRequest(c.Request().WithContext(session.WithSession(c.Request().Context(), s)))
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg, "redirect": "/login"})
}

// CurrentSession returns the session SessionAuth bound to c, or nil.
func CurrentSession(c echo.Context) *model.Session {
	s, _ := c.Get(sessionKey).(*model.Session)
	return s
}
