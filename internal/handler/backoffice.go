package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/backoffice"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// Lifecycle moves bookings through their statuses.
type Lifecycle interface {
	ConfirmPayment(ctx context.Context, actor *model.Session, bookingID int64) (*backoffice.Transition, error)
	CheckIn(ctx context.Context, actor *model.Session, bookingID int64) (*backoffice.Transition, error)
	CheckOut(ctx context.Context, actor *model.Session, bookingID int64) (*backoffice.Transition, error)
	Cancel(ctx context.Context, actor *model.Session, bookingID int64, reason string) (*backoffice.Transition, error)
}

// Registry is the CRUD side of the back office.
type Registry interface {
	Bookings(ctx context.Context, actor *model.Session, f model.BookingFilter) ([]model.Booking, error)
	Export(ctx context.Context, actor *model.Session, f model.BookingFilter, w io.Writer) error

	Rooms(ctx context.Context, actor *model.Session) ([]model.Room, error)
	CreateRoom(ctx context.Context, actor *model.Session, r model.Room) (*model.Room, error)
	UpdateRoom(ctx context.Context, actor *model.Session, r model.Room) (*model.Room, error)
	DeleteRoom(ctx context.Context, actor *model.Session, id int64) error
	ReleaseRoom(ctx context.Context, actor *model.Session, id int64) (*model.Room, error)

	RoomTypes(ctx context.Context, actor *model.Session) ([]model.RoomType, error)
	CreateRoomType(ctx context.Context, actor *model.Session, t model.RoomType) (*model.RoomType, error)
	UpdateRoomType(ctx context.Context, actor *model.Session, t model.RoomType) (*model.RoomType, error)
	DeleteRoomType(ctx context.Context, actor *model.Session, id int64) error

	Employees(ctx context.Context, actor *model.Session) ([]model.Employee, error)
	CreateEmployee(ctx context.Context, actor *model.Session, e model.Employee) (*model.Employee, error)
	UpdateEmployee(ctx context.Context, actor *model.Session, e model.Employee) (*model.Employee, error)
	DeleteEmployee(ctx context.Context, actor *model.Session, id int64) error
}

// BackofficeHandler serves the staff and admin screens.  Purge, when set,
// drops cached catalog pages after a room or room type changes.
type BackofficeHandler struct {
	Lifecycle Lifecycle
	Registry  Registry
	Purge     func(ctx context.Context) error
	Log       *logrus.Logger
}

func NewBackofficeHandler(l Lifecycle, r Registry, purge func(ctx context.Context) error, log *logrus.Logger) *BackofficeHandler {
	return &BackofficeHandler{Lifecycle: l, Registry: r, Purge: purge, Log: log}
}

func (h *BackofficeHandler) purge(c echo.Context) {
	if h.Purge == nil {
		return
	}
	if err := h.Purge(context.WithoutCancel(c.Request().Context())); err != nil {
		h.Log.WithError(err).Warn("backoffice: catalog cache purge failed")
	}
}

func bookingFilter(c echo.Context) (model.BookingFilter, error) {
	f := model.BookingFilter{Status: model.BookingStatus(c.QueryParam("status"))}
	id, err := optInt(c, "customerId")
	f.CustomerID = id
	return f, err
}

// Bookings handles GET /v1/backoffice/bookings?status=&customerId=.
func (h *BackofficeHandler) Bookings(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	f, err := bookingFilter(c)
	if err != nil {
		return err
	}
	list, err := h.Registry.Bookings(c.Request().Context(), s, f)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, list)
}

// Export handles GET /v1/backoffice/bookings/export and streams an .xlsx
// workbook.
func (h *BackofficeHandler) Export(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	f, err := bookingFilter(c)
	if err != nil {
		return err
	}
	// Buffer so a failure can still be answered as JSON.
	var buf bytes.Buffer
	if err := h.Registry.Export(c.Request().Context(), s, f, &buf); err != nil {
		return fail(err)
	}
	name := fmt.Sprintf("bookings-%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// Transition handles POST /v1/backoffice/bookings/:id/:action where action
// is confirm-payment, check-in, check-out or cancel.
func (h *BackofficeHandler) Transition(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var t *backoffice.Transition
	switch c.Param("action") {
	case "confirm-payment":
		t, err = h.Lifecycle.ConfirmPayment(ctx, s, id)
	case "check-in":
		t, err = h.Lifecycle.CheckIn(ctx, s, id)
	case "check-out":
		t, err = h.Lifecycle.CheckOut(ctx, s, id)
	case "cancel":
		var req cancelReq
		if c.Request().ContentLength != 0 {
			if err := bind(c, &req); err != nil {
				return err
			}
		}
		t, err = h.Lifecycle.Cancel(ctx, s, id, req.Reason)
	default:
		return echo.NewHTTPError(http.StatusNotFound, "unknown action")
	}
	if err != nil {
		return fail(err)
	}
	if t.RoomStatus != "" {
		h.purge(c)
	}
	return c.JSON(http.StatusOK, t)
}

// Rooms handles GET /v1/backoffice/rooms.
func (h *BackofficeHandler) Rooms(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	list, err := h.Registry.Rooms(c.Request().Context(), s)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, list)
}

// CreateRoom handles POST /v1/backoffice/rooms.
func (h *BackofficeHandler) CreateRoom(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	var r model.Room
	if err := bind(c, &r); err != nil {
		return err
	}
	out, err := h.Registry.CreateRoom(c.Request().Context(), s, r)
	if err != nil {
		return fail(err)
	}
	h.purge(c)
	return c.JSON(http.StatusCreated, out)
}

// UpdateRoom handles PUT /v1/backoffice/rooms/:id.
func (h *BackofficeHandler) UpdateRoom(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var r model.Room
	if err := bind(c, &r); err != nil {
		return err
	}
	r.RoomID = id
	out, err := h.Registry.UpdateRoom(c.Request().Context(), s, r)
	if err != nil {
		return fail(err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, out)
}

// ReleaseRoom handles POST /v1/backoffice/rooms/:id/release.
func (h *BackofficeHandler) ReleaseRoom(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	out, err := h.Registry.ReleaseRoom(c.Request().Context(), s, id)
	if err != nil {
		return fail(err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, out)
}

// DeleteRoom handles DELETE /v1/backoffice/rooms/:id.
func (h *BackofficeHandler) DeleteRoom(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Registry.DeleteRoom(c.Request().Context(), s, id); err != nil {
		return fail(err)
	}
	h.purge(c)
	return c.NoContent(http.StatusNoContent)
}

// RoomTypes handles GET /v1/backoffice/roomtypes.
func (h *BackofficeHandler) RoomTypes(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	list, err := h.Registry.RoomTypes(c.Request().Context(), s)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, list)
}

// CreateRoomType handles POST /v1/backoffice/roomtypes.
func (h *BackofficeHandler) CreateRoomType(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	var t model.RoomType
	if err := bind(c, &t); err != nil {
		return err
	}
	out, err := h.Registry.CreateRoomType(c.Request().Context(), s, t)
	if err != nil {
		return fail(err)
	}
	h.purge(c)
	return c.JSON(http.StatusCreated, out)
}

// UpdateRoomType handles PUT /v1/backoffice/roomtypes/:id.
func (h *BackofficeHandler) UpdateRoomType(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var t model.RoomType
	if err := bind(c, &t); err != nil {
		return err
	}
	t.RoomTypeID = id
	out, err := h.Registry.UpdateRoomType(c.Request().Context(), s, t)
	if err != nil {
		return fail(err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, out)
}

// DeleteRoomType handles DELETE /v1/backoffice/roomtypes/:id.
func (h *BackofficeHandler) DeleteRoomType(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Registry.DeleteRoomType(c.Request().Context(), s, id); err != nil {
		return fail(err)
	}
	h.purge(c)
	return c.NoContent(http.StatusNoContent)
}

// Employees handles GET /v1/admin/employees.
func (h *BackofficeHandler) Employees(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	list, err := h.Registry.Employees(c.Request().Context(), s)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, list)
}

// CreateEmployee handles POST /v1/admin/employees.
func (h *BackofficeHandler) CreateEmployee(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	var e model.Employee
	if err := bind(c, &e); err != nil {
		return err
	}
	out, err := h.Registry.CreateEmployee(c.Request().Context(), s, e)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, out)
}

// UpdateEmployee handles PUT /v1/admin/employees/:id.
func (h *BackofficeHandler) UpdateEmployee(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var e model.Employee
	if err := bind(c, &e); err != nil {
		return err
	}
	e.EmployeeID = id
	out, err := h.Registry.UpdateEmployee(c.Request().Context(), s, e)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteEmployee handles DELETE /v1/admin/employees/:id.
func (h *BackofficeHandler) DeleteEmployee(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Registry.DeleteEmployee(c.Request().Context(), s, id); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
