package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/apiclient"
)

// ErrorHandler renders every error as {"error": msg}.  Handlers translate
// domain errors into *echo.HTTPError whose message is either a string or a
// ready body; anything else is a 500 with the generic backend message.
func ErrorHandler(log *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		body := echo.Map{"error": apiclient.Message(err)}
		cause := err

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			switch m := he.Message.(type) {
			case string:
				body = echo.Map{"error": m}
			case echo.Map:
				body = m
			default:
				body = echo.Map{"error": http.StatusText(code)}
			}
			if he.Internal != nil {
				cause = he.Internal
			}
		}

		if code >= http.StatusInternalServerError {
			log.WithError(cause).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"uri":    c.Request().RequestURI,
				"status": code,
			}).Error("request failed")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}
