package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is the liveness check.  It answers "ok" as long as the process
// serves requests.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Check is one readiness dependency, e.g. the database ping.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Ready returns the readiness check.  Each check gets two seconds; any
// failure answers 503 with the failing dependency named.
func Ready(checks ...Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		status := map[string]string{}
		code := http.StatusOK
		for _, ch := range checks {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			err := ch.Ping(ctx)
			cancel()
			if err != nil {
				status[ch.Name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			status[ch.Name] = "ok"
		}
		return c.JSON(code, status)
	}
}
