package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// RequireRole lets the request through only when the session bound by
// SessionAuth has one of roles.  Place it after SessionAuth(required).
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := CurrentSession(c)
			if !s.IsAuthenticated() {
				return unauthorized(c, "Please log in to continue.")
			}
			if !allowed[s.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "You do not have permission to perform this action."})
			}
			return next(c)
		}
	}
}
