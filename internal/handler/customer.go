package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/customer"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// SelfService is the customer's own pages as customer.Service exposes them.
type SelfService interface {
	Profile(ctx context.Context, s *model.Session) (*model.Customer, error)
	UpdateProfile(ctx context.Context, s *model.Session, in model.Customer) (*model.Customer, error)
	Bookings(ctx context.Context, s *model.Session, status model.BookingStatus) ([]model.Booking, error)
	Booking(ctx context.Context, s *model.Session, bookingID int64) (*customer.BookingView, error)
	Star(ctx context.Context, s *model.Session, roomID int64) error
	Unstar(ctx context.Context, s *model.Session, roomID int64) error
	Favorites(ctx context.Context, s *model.Session, lang string) ([]model.RoomView, error)
}

type CustomerHandler struct {
	Svc SelfService
}

func NewCustomerHandler(svc SelfService) *CustomerHandler { return &CustomerHandler{Svc: svc} }

// Profile handles GET /v1/profile.
func (h *CustomerHandler) Profile(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	cu, err := h.Svc.Profile(c.Request().Context(), s)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, cu)
}

// UpdateProfile handles PUT /v1/profile.
func (h *CustomerHandler) UpdateProfile(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	var in model.Customer
	if err := bind(c, &in); err != nil {
		return err
	}
	cu, err := h.Svc.UpdateProfile(c.Request().Context(), s, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, cu)
}

// MyBookings handles GET /v1/my-bookings?status=.
func (h *CustomerHandler) MyBookings(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	list, err := h.Svc.Bookings(c.Request().Context(), s, model.BookingStatus(c.QueryParam("status")))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, list)
}

// MyBooking handles GET /v1/my-bookings/:id.
func (h *CustomerHandler) MyBooking(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	v, err := h.Svc.Booking(c.Request().Context(), s, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, v)
}

// Favorites handles GET /v1/favorites.
func (h *CustomerHandler) Favorites(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	list, err := h.Svc.Favorites(c.Request().Context(), s, lang(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, list)
}

// Star handles PUT /v1/favorites/:roomId.
func (h *CustomerHandler) Star(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	id, err := idParam(c, "roomId")
	if err != nil {
		return err
	}
	if err := h.Svc.Star(c.Request().Context(), s, id); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Unstar handles DELETE /v1/favorites/:roomId.
func (h *CustomerHandler) Unstar(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	id, err := idParam(c, "roomId")
	if err != nil {
		return err
	}
	if err := h.Svc.Unstar(c.Request().Context(), s, id); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
