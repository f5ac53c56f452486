package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/apiclient"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/backoffice"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/booking"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/catalog"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/customer"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/middleware"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/repository"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/session"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/validation"
)

var (
	forbidden = []error{
		booking.ErrNotCustomer, customer.ErrNotCustomer, customer.ErrForbidden,
		backoffice.ErrNotStaff, backoffice.ErrNotManager, backoffice.ErrSelfDelete,
	}
	conflict = []error{
		booking.ErrAvailabilityConflict, booking.ErrStepNotReached, booking.ErrNoCompanions, booking.ErrSubmitInProgress,
		backoffice.ErrRoomStatusLocked, backoffice.ErrNoRoom,
	}
	missing = []error{booking.ErrNoDraft, repository.ErrNotFound, catalog.ErrRoomTypeMissing}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func reply(code int, body echo.Map, cause error) *echo.HTTPError {
	he := echo.NewHTTPError(code, body)
	he.Internal = cause
	return he
}

// fail translates a domain error into the HTTP answer.  It is the only
// place handlers pick status codes for failures.
func fail(err error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var (
		stepErr *booking.ValidationError
		verr    *validation.Error
		refused *backoffice.RefusedError
		trErr   *backoffice.TransitionError
	)
	switch {
	case errors.As(err, &stepErr):
		return reply(http.StatusUnprocessableEntity, echo.Map{
			"error":  stepErr.Result.First().Message,
			"step":   stepErr.Step.String(),
			"errors": stepErr.Result.Errors,
		}, err)
	case errors.As(err, &verr):
		return reply(http.StatusUnprocessableEntity, echo.Map{"error": verr.Error(), "errors": verr.Result.Errors}, err)
	case errors.Is(err, apiclient.ErrSessionExpired):
		return reply(http.StatusUnauthorized, echo.Map{"error": apiclient.Message(err), "redirect": "/login"}, err)
	case errors.Is(err, session.ErrNoSession):
		return reply(http.StatusUnauthorized, echo.Map{"error": "Please log in to continue.", "redirect": "/login"}, err)
	case errors.Is(err, session.ErrInvalidCredentials):
		return reply(http.StatusUnauthorized, echo.Map{"error": err.Error()}, err)
	case errors.As(err, &refused):
		return reply(http.StatusConflict, echo.Map{"error": refused.Error(), "status": refused.Current}, err)
	case errors.As(err, &trErr) && trErr.BookingWritten:
		return reply(http.StatusBadGateway, echo.Map{
			"error":          "The booking was updated but its room could not be. Please update the room status manually.",
			"bookingId":      trErr.BookingID,
			"roomId":         trErr.RoomID,
			"bookingWritten": true,
		}, err)
	case errors.Is(err, booking.ErrJournal):
		return reply(http.StatusServiceUnavailable, echo.Map{"error": "Booking is temporarily unavailable. Please try again."}, err)
	case isAny(err, forbidden):
		return reply(http.StatusForbidden, echo.Map{"error": capitalize(err.Error())}, err)
	case isAny(err, conflict):
		return reply(http.StatusConflict, echo.Map{"error": capitalize(err.Error())}, err)
	case isAny(err, missing):
		return reply(http.StatusNotFound, echo.Map{"error": capitalize(err.Error())}, err)
	}

	switch apiclient.KindOf(err) {
	case apiclient.KindForbidden:
		return reply(http.StatusForbidden, echo.Map{"error": apiclient.Message(err)}, err)
	case apiclient.KindNotFound:
		return reply(http.StatusNotFound, echo.Map{"error": apiclient.Message(err)}, err)
	case apiclient.KindValidation:
		return reply(http.StatusUnprocessableEntity, echo.Map{"error": apiclient.Message(err)}, err)
	case apiclient.KindNetwork, apiclient.KindServer:
		return reply(http.StatusBadGateway, echo.Map{"error": apiclient.Message(err)}, err)
	}
	return err
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// bind decodes the request body into v.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

// idParam reads a positive integer path parameter.
func idParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid " + name)
	}
	return id, nil
}

// currentSession is the caller's session or ErrNoSession.
func currentSession(c echo.Context) (*model.Session, error) {
	s := middleware.CurrentSession(c)
	if !s.IsAuthenticated() {
		return nil, session.ErrNoSession
	}
	return s, nil
}
