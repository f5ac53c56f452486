package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// ----- authentication -----

func (c *Client) Login(ctx context.Context, cred model.Credentials) (*model.AuthResult, error) {
	return sendInto[model.AuthResult](ctx, c, http.MethodPost, "/authentications/login", cred)
}

func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error) {
	return sendInto[model.AuthResult](ctx, c, http.MethodPost, "/authentications/register", reg)
}

// ----- rooms -----

func (c *Client) ListRooms(ctx context.Context) ([]model.Room, error) {
	rooms, err := getInto[[]model.Room](ctx, c, "/rooms", nil)
	if err != nil {
		return nil, err
	}
	return *rooms, nil
}

func (c *Client) GetRoom(ctx context.Context, id int64) (*model.Room, error) {
	return getInto[model.Room](ctx, c, idPath("/rooms", id), nil)
}

func (c *Client) CreateRoom(ctx context.Context, r *model.Room) (*model.Room, error) {
	return sendInto[model.Room](ctx, c, http.MethodPost, "/rooms", r)
}

func (c *Client) UpdateRoom(ctx context.Context, r *model.Room) (*model.Room, error) {
	return sendInto[model.Room](ctx, c, http.MethodPut, idPath("/rooms", r.RoomID), r)
}

// SetRoomStatus writes only the status of a room.
func (c *Client) SetRoomStatus(ctx context.Context, id int64, status model.RoomStatus) error {
	return c.do(ctx, http.MethodPatch, idPath("/rooms", id), nil, map[string]model.RoomStatus{"status": status}, nil)
}

func (c *Client) DeleteRoom(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/rooms", id), nil, nil, nil)
}

// CheckAvailability asks whether a room is free for [checkIn, checkOut).  A
// 404 from this endpoint means the backend does not implement it; the room
// is then treated as available so bookings are not blocked.
func (c *Client) CheckAvailability(ctx context.Context, roomID int64, checkIn, checkOut model.Date) (bool, error) {
	q := url.Values{}
	q.Set("checkInDate", checkIn.String())
	q.Set("checkOutDate", checkOut.String())
	av, err := getInto[model.Availability](ctx, c, idPath("/rooms", roomID)+"/availability", q)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return true, nil
		}
		return false, err
	}
	return av.Available, nil
}

// ----- room types -----

func (c *Client) ListRoomTypes(ctx context.Context) ([]model.RoomType, error) {
	types, err := getInto[[]model.RoomType](ctx, c, "/roomtypes", nil)
	if err != nil {
		return nil, err
	}
	return *types, nil
}

func (c *Client) GetRoomType(ctx context.Context, id int64) (*model.RoomType, error) {
	return getInto[model.RoomType](ctx, c, idPath("/roomtypes", id), nil)
}

func (c *Client) CreateRoomType(ctx context.Context, t *model.RoomType) (*model.RoomType, error) {
	return sendInto[model.RoomType](ctx, c, http.MethodPost, "/roomtypes", t)
}

func (c *Client) UpdateRoomType(ctx context.Context, t *model.RoomType) (*model.RoomType, error) {
	return sendInto[model.RoomType](ctx, c, http.MethodPut, idPath("/roomtypes", t.RoomTypeID), t)
}

func (c *Client) DeleteRoomType(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/roomtypes", id), nil, nil, nil)
}

// ----- customers -----

func (c *Client) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	return getInto[model.Customer](ctx, c, idPath("/customers", id), nil)
}

func (c *Client) UpdateCustomer(ctx context.Context, cu *model.Customer) (*model.Customer, error) {
	return sendInto[model.Customer](ctx, c, http.MethodPut, idPath("/customers", cu.CustomerID), cu)
}

// ----- bookings -----

func (c *Client) ListBookings(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	q := url.Values{}
	if f.CustomerID != 0 {
		q.Set("customerId", strconv.FormatInt(f.CustomerID, 10))
	}
	if f.Status != "" {
		q.Set("bookingStatus", string(f.Status))
	}
	list, err := getInto[[]model.Booking](ctx, c, "/bookings", q)
	if err != nil {
		return nil, err
	}
	return *list, nil
}

func (c *Client) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	return getInto[model.Booking](ctx, c, idPath("/bookings", id), nil)
}

func (c *Client) CreateBooking(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	return sendInto[model.Booking](ctx, c, http.MethodPost, "/bookings", b)
}

func (c *Client) UpdateBooking(ctx context.Context, id int64, p model.BookingPatch) (*model.Booking, error) {
	return sendInto[model.Booking](ctx, c, http.MethodPatch, idPath("/bookings", id), p)
}

// BookingDetails lists the details attached to a booking.
func (c *Client) BookingDetails(ctx context.Context, bookingID int64) ([]model.BookingDetail, error) {
	list, err := getInto[[]model.BookingDetail](ctx, c, idPath("/bookings", bookingID)+"/details", nil)
	if err != nil {
		return nil, err
	}
	return *list, nil
}

func (c *Client) CreateBookingDetail(ctx context.Context, d *model.BookingDetail) (*model.BookingDetail, error) {
	return sendInto[model.BookingDetail](ctx, c, http.MethodPost, "/bookingDetails", d)
}

func (c *Client) GetBookingDetail(ctx context.Context, id int64) (*model.BookingDetail, error) {
	return getInto[model.BookingDetail](ctx, c, idPath("/bookingDetails", id), nil)
}

// ----- payments -----

func (c *Client) CreatePayment(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	return sendInto[model.Payment](ctx, c, http.MethodPost, "/payments", p)
}

func (c *Client) GetPaymentCard(ctx context.Context, pan string) (*model.PaymentCard, error) {
	return getInto[model.PaymentCard](ctx, c, "/paymentcards/"+url.PathEscape(pan), nil)
}

func (c *Client) SavePaymentCard(ctx context.Context, card *model.PaymentCard) (*model.PaymentCard, error) {
	return sendInto[model.PaymentCard](ctx, c, http.MethodPost, "/paymentcards", card)
}

// ----- employees -----

func (c *Client) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	list, err := getInto[[]model.Employee](ctx, c, "/employees", nil)
	if err != nil {
		return nil, err
	}
	return *list, nil
}

func (c *Client) GetEmployee(ctx context.Context, id int64) (*model.Employee, error) {
	return getInto[model.Employee](ctx, c, idPath("/employees", id), nil)
}

func (c *Client) CreateEmployee(ctx context.Context, e *model.Employee) (*model.Employee, error) {
	return sendInto[model.Employee](ctx, c, http.MethodPost, "/employees", e)
}

func (c *Client) UpdateEmployee(ctx context.Context, e *model.Employee) (*model.Employee, error) {
	return sendInto[model.Employee](ctx, c, http.MethodPut, idPath("/employees", e.EmployeeID), e)
}

func (c *Client) DeleteEmployee(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/employees", id), nil, nil, nil)
}
