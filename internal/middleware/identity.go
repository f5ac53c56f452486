package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// principalKey identifies the caller for rate limiting: the principal id
// when logged in, "anon" otherwise.
func principalKey(c echo.Context) string {
	if s := CurrentSession(c); s.IsAuthenticated() {
		return string(s.Role) + "-" + strconv.FormatInt(s.PrincipalID, 10)
	}
	return "anon"
}

// clientIP is the caller's address as echo sees it behind proxies.
func clientIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}
