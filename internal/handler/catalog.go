package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/catalog"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// Catalog is the read side of rooms and room types.
type Catalog interface {
	List(ctx context.Context, f catalog.Filter) ([]model.RoomView, error)
	Get(ctx context.Context, id int64, lang string) (*model.RoomView, error)
	Types(ctx context.Context, lang string) ([]model.RoomType, error)
	Availability(ctx context.Context, id int64, checkIn, checkOut model.Date) (model.Availability, error)
}

// CatalogHandler serves the public room pages.
type CatalogHandler struct {
	Catalog Catalog
}

func NewCatalogHandler(cat Catalog) *CatalogHandler { return &CatalogHandler{Catalog: cat} }

func lang(c echo.Context) string {
	if l := c.QueryParam("lang"); l != "" {
		return l
	}
	if al := c.Request().Header.Get("Accept-Language"); len(al) >= 2 {
		return al[:2]
	}
	return catalog.LangEN
}

// ListRooms handles GET /v1/rooms.  Query: type, status, minPrice,
// maxPrice, guests, q, lang.
func (h *CatalogHandler) ListRooms(c echo.Context) error {
	f := catalog.Filter{
		Status: model.RoomStatus(c.QueryParam("status")),
		Query:  c.QueryParam("q"),
		Lang:   lang(c),
	}
	var err error
	if f.TypeID, err = optInt(c, "type"); err != nil {
		return err
	}
	g, err := optInt(c, "guests")
	if err != nil {
		return err
	}
	f.Guests = int(g)
	if f.MinPrice, err = optFloat(c, "minPrice"); err != nil {
		return err
	}
	if f.MaxPrice, err = optFloat(c, "maxPrice"); err != nil {
		return err
	}
	if f.Status != "" && !f.Status.Valid() {
		return badRequest("unknown room status")
	}

	rooms, err := h.Catalog.List(c.Request().Context(), f)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// GetRoom handles GET /v1/rooms/:id.
func (h *CatalogHandler) GetRoom(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	v, err := h.Catalog.Get(c.Request().Context(), id, lang(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, v)
}

// Availability handles GET /v1/rooms/:id/availability?checkIn=&checkOut=.
func (h *CatalogHandler) Availability(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	in, err1 := model.ParseDate(c.QueryParam("checkIn"))
	out, err2 := model.ParseDate(c.QueryParam("checkOut"))
	if err1 != nil || err2 != nil {
		return badRequest("checkIn and checkOut must be YYYY-MM-DD")
	}
	if !out.After(in) {
		return badRequest("checkOut must be after checkIn")
	}
	a, err := h.Catalog.Availability(c.Request().Context(), id, in, out)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, a)
}

// RoomTypes handles GET /v1/roomtypes.
func (h *CatalogHandler) RoomTypes(c echo.Context) error {
	types, err := h.Catalog.Types(c.Request().Context(), lang(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, types)
}

func optInt(c echo.Context, name string) (int64, error) {
	s := c.QueryParam(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, badRequest("invalid " + name)
	}
	return n, nil
}

func optFloat(c echo.Context, name string) (float64, error) {
	s := c.QueryParam(name)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, badRequest("invalid " + name)
	}
	return f, nil
}
