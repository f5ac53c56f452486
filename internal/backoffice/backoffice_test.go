package backoffice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/apiclient"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/queue"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/validation"
)

type fakeAPI struct {
	bookings map[int64]*model.Booking
	details  map[int64][]model.BookingDetail
	rooms    map[int64]*model.Room

	updateErr error
	roomErr   error

	bookingWrites int
	roomWrites    []model.RoomStatus
	lastPatch     model.BookingPatch

	employees []model.Employee
	created   []model.Employee
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		bookings: map[int64]*model.Booking{},
		details:  map[int64][]model.BookingDetail{},
		rooms:    map[int64]*model.Room{4: {RoomID: 4, RoomNumber: "204", RoomTypeID: 1, Status: model.RoomAvailable}},
	}
}

func (f *fakeAPI) seed(id int64, st model.BookingStatus, roomID int64) {
	f.bookings[id] = &model.Booking{BookingID: id, CustomerID: 7, BookingStatus: st, TotalAmount: 100, BookingTime: time.Date(2025, 1, int(id%28)+1, 0, 0, 0, 0, time.UTC)}
	if roomID != 0 {
		f.details[id] = []model.BookingDetail{{BookingID: id, RoomID: roomID}}
	} else {
		f.details[id] = []model.BookingDetail{{BookingID: id}}
	}
}

func notFound() error { return &apiclient.Error{Kind: apiclient.KindNotFound, Status: 404} }

func (f *fakeAPI) GetBooking(_ context.Context, id int64) (*model.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, notFound()
	}
	cp := *b
	return &cp, nil
}

func (f *fakeAPI) UpdateBooking(_ context.Context, id int64, p model.BookingPatch) (*model.Booking, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.bookingWrites++
	f.lastPatch = p
	b := f.bookings[id]
	if p.BookingStatus != nil {
		b.BookingStatus = *p.BookingStatus
	}
	if p.PaymentStatus != nil {
		b.PaymentStatus = *p.PaymentStatus
	}
	cp := *b
	return &cp, nil
}

func (f *fakeAPI) BookingDetails(_ context.Context, id int64) ([]model.BookingDetail, error) {
	return f.details[id], nil
}

func (f *fakeAPI) SetRoomStatus(_ context.Context, id int64, s model.RoomStatus) error {
	if f.roomErr != nil {
		return f.roomErr
	}
	f.roomWrites = append(f.roomWrites, s)
	f.rooms[id].Status = s
	return nil
}

func (f *fakeAPI) ListRooms(context.Context) ([]model.Room, error) { return nil, nil }

func (f *fakeAPI) GetRoom(_ context.Context, id int64) (*model.Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, notFound()
	}
	cp := *r
	return &cp, nil
}

func (f *fakeAPI) CreateRoom(_ context.Context, r *model.Room) (*model.Room, error) {
	r.RoomID = 99
	return r, nil
}

func (f *fakeAPI) UpdateRoom(_ context.Context, r *model.Room) (*model.Room, error) {
	cp := *r
	f.rooms[r.RoomID] = &cp
	return r, nil
}

func (f *fakeAPI) DeleteRoom(context.Context, int64) error { return nil }
func (f *fakeAPI) ListRoomTypes(context.Context) ([]model.RoomType, error) { return nil, nil }
func (f *fakeAPI) CreateRoomType(_ context.Context, t *model.RoomType) (*model.RoomType, error) {
	return t, nil
}
func (f *fakeAPI) UpdateRoomType(_ context.Context, t *model.RoomType) (*model.RoomType, error) {
	return t, nil
}
func (f *fakeAPI) DeleteRoomType(context.Context, int64) error { return nil }

func (f *fakeAPI) ListEmployees(context.Context) ([]model.Employee, error) {
	return append([]model.Employee(nil), f.employees...), nil
}

func (f *fakeAPI) GetEmployee(_ context.Context, id int64) (*model.Employee, error) {
	for _, e := range f.employees {
		if e.EmployeeID == id {
			return &e, nil
		}
	}
	return nil, notFound()
}

func (f *fakeAPI) CreateEmployee(_ context.Context, e *model.Employee) (*model.Employee, error) {
	f.created = append(f.created, *e)
	out := *e
	out.EmployeeID = 30
	return &out, nil
}

func (f *fakeAPI) UpdateEmployee(_ context.Context, e *model.Employee) (*model.Employee, error) {
	out := *e
	return &out, nil
}

func (f *fakeAPI) DeleteEmployee(context.Context, int64) error { return nil }

func (f *fakeAPI) ListBookings(_ context.Context, flt model.BookingFilter) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range f.bookings {
		if flt.Status == "" || b.BookingStatus == flt.Status {
			out = append(out, *b)
		}
	}
	return out, nil
}

type capturePub struct{ events []queue.StatusChangedEvent }

func (c *capturePub) Publish(_ context.Context, key string, payload any) error {
	if key == queue.StatusChangedKey {
		c.events = append(c.events, payload.(queue.StatusChangedEvent))
	}
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var (
	employee = &model.Session{ID: "e", PrincipalID: 20, Role: model.RoleEmployee}
	boss     = &model.Session{ID: "m", PrincipalID: 21, Role: model.RoleManager}
	guest    = &model.Session{ID: "c", PrincipalID: 7, Role: model.RoleCustomer}
)

func TestLifecycle_HappyPath(t *testing.T) {
	api, pub := newFakeAPI(), &capturePub{}
	api.seed(1, model.BookingPending, 4)
	l := NewLifecycle(api, pub, quietLogger())
	ctx := context.Background()

	tr, err := l.ConfirmPayment(ctx, employee, 1)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, tr.Booking.BookingStatus)
	assert.True(t, tr.Booking.PaymentStatus)
	assert.Equal(t, model.RoomBooked, tr.RoomStatus)
	assert.Equal(t, int64(20), *api.lastPatch.EmployeeID)

	_, err = l.CheckIn(ctx, employee, 1)
	require.NoError(t, err)
	_, err = l.CheckOut(ctx, employee, 1)
	require.NoError(t, err)

	assert.Equal(t, []model.RoomStatus{model.RoomBooked, model.RoomOccupied, model.RoomAvailable}, api.roomWrites)
	require.Len(t, pub.events, 3)
	assert.Equal(t, "CHECKED_IN", pub.events[2].From)
	assert.Equal(t, "CHECKED_OUT", pub.events[2].To)
}

func TestLifecycle_CheckInRequiresConfirmed(t *testing.T) {
	for _, st := range []model.BookingStatus{model.BookingPending, model.BookingCheckedIn, model.BookingCheckedOut, model.BookingCancelled} {
		api := newFakeAPI()
		api.seed(1, st, 4)
		l := NewLifecycle(api, &capturePub{}, quietLogger())

		_, err := l.CheckIn(context.Background(), employee, 1)
		assert.ErrorIs(t, err, ErrInvalidTransition, st)
		var refused *RefusedError
		require.ErrorAs(t, err, &refused)
		assert.Equal(t, st, refused.Current)
		assert.Zero(t, api.bookingWrites)
		assert.Empty(t, api.roomWrites)
	}
}

func TestLifecycle_MissingRoomWritesNothing(t *testing.T) {
	api := newFakeAPI()
	api.seed(1, model.BookingConfirmed, 0)
	l := NewLifecycle(api, &capturePub{}, quietLogger())

	_, err := l.CheckIn(context.Background(), employee, 1)
	assert.ErrorIs(t, err, ErrNoRoom)
	assert.Zero(t, api.bookingWrites)
	assert.Empty(t, api.roomWrites)
}

func TestLifecycle_RoomWriteFailureIsReported(t *testing.T) {
	api := newFakeAPI()
	api.seed(1, model.BookingConfirmed, 4)
	api.roomErr = &apiclient.Error{Kind: apiclient.KindServer, Status: 500}
	l := NewLifecycle(api, &capturePub{}, quietLogger())

	_, err := l.CheckIn(context.Background(), employee, 1)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.True(t, terr.BookingWritten)
	assert.Equal(t, model.BookingCheckedIn, api.bookings[1].BookingStatus, "no rollback")
	assert.ErrorIs(t, err, apiclient.ErrServer)
}

func TestLifecycle_BookingWriteFailure(t *testing.T) {
	api := newFakeAPI()
	api.seed(1, model.BookingPending, 4)
	api.updateErr = errors.New("boom")
	l := NewLifecycle(api, &capturePub{}, quietLogger())

	_, err := l.ConfirmPayment(context.Background(), employee, 1)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.False(t, terr.BookingWritten)
	assert.Empty(t, api.roomWrites)
}

func TestLifecycle_Cancel(t *testing.T) {
	api := newFakeAPI()
	api.seed(1, model.BookingPending, 4)
	api.seed(2, model.BookingCheckedIn, 4)
	api.seed(3, model.BookingCheckedOut, 4)
	api.seed(5, model.BookingConfirmed, 4)
	l := NewLifecycle(api, &capturePub{}, quietLogger())
	ctx := context.Background()

	tr, err := l.Cancel(ctx, employee, 1, "guest called")
	require.NoError(t, err)
	assert.Empty(t, tr.RoomStatus)
	assert.Equal(t, "guest called", *api.lastPatch.Note)

	for _, id := range []int64{2, 5} {
		tr, err = l.Cancel(ctx, employee, id, "")
		require.NoError(t, err)
		assert.Empty(t, tr.RoomStatus, "booking %d", id)
		assert.Equal(t, model.BookingCancelled, api.bookings[id].BookingStatus)
	}
	assert.Empty(t, api.roomWrites, "cancel never touches the room")

	_, err = l.Cancel(ctx, employee, 3, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestManager_ReleaseRoomAfterCancel(t *testing.T) {
	api := newFakeAPI()
	api.seed(1, model.BookingPending, 4)
	ctx := context.Background()
	_, err := NewLifecycle(api, &capturePub{}, quietLogger()).ConfirmPayment(ctx, employee, 1)
	require.NoError(t, err)
	_, err = NewLifecycle(api, &capturePub{}, quietLogger()).Cancel(ctx, employee, 1, "")
	require.NoError(t, err)
	assert.Equal(t, model.RoomBooked, api.rooms[4].Status)

	m := NewManager(api, quietLogger())
	_, err = m.ReleaseRoom(ctx, guest, 4)
	assert.ErrorIs(t, err, ErrNotStaff)

	r, err := m.ReleaseRoom(ctx, employee, 4)
	require.NoError(t, err)
	assert.Equal(t, model.RoomAvailable, r.Status)
	assert.Equal(t, []model.RoomStatus{model.RoomBooked, model.RoomAvailable}, api.roomWrites)

	_, err = m.ReleaseRoom(ctx, employee, 4)
	require.NoError(t, err)
	assert.Len(t, api.roomWrites, 2, "already available")
}

func TestLifecycle_StaffOnly(t *testing.T) {
	api := newFakeAPI()
	api.seed(1, model.BookingPending, 4)
	_, err := NewLifecycle(api, &capturePub{}, quietLogger()).ConfirmPayment(context.Background(), guest, 1)
	assert.ErrorIs(t, err, ErrNotStaff)
}

func TestManager_UpdateRoomStatusRules(t *testing.T) {
	api := newFakeAPI()
	m := NewManager(api, quietLogger())
	ctx := context.Background()
	room := *api.rooms[4]

	room.Status = model.RoomOccupied
	_, err := m.UpdateRoom(ctx, boss, room)
	assert.ErrorIs(t, err, ErrRoomStatusLocked)

	room.Status = model.RoomMaintaining
	_, err = m.UpdateRoom(ctx, employee, room)
	require.NoError(t, err)
	assert.Equal(t, model.RoomMaintaining, api.rooms[4].Status)

	room.Status = model.RoomAvailable
	room.RoomNumber = "205"
	_, err = m.UpdateRoom(ctx, employee, room)
	assert.ErrorIs(t, err, ErrNotManager)
	_, err = m.UpdateRoom(ctx, boss, room)
	require.NoError(t, err)
}

func TestManager_ValidatesBeforeWriting(t *testing.T) {
	api := newFakeAPI()
	m := NewManager(api, quietLogger())
	ctx := context.Background()

	_, err := m.CreateEmployee(ctx, boss, model.Employee{FullName: "E", Email: "bad", Role: model.RoleEmployee, Password: "secret1"})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Result.First().Field)
	assert.Empty(t, api.created)

	out, err := m.CreateEmployee(ctx, boss, model.Employee{FullName: "E", Email: " E@H.vn ", Role: model.RoleEmployee, Password: "secret1"})
	require.NoError(t, err)
	assert.Empty(t, out.Password)
	assert.Equal(t, "e@h.vn", api.created[0].Email)

	_, err = m.CreateEmployee(ctx, employee, model.Employee{})
	assert.ErrorIs(t, err, ErrNotManager)

	_, err = m.CreateRoomType(ctx, boss, model.RoomType{Name: "Suite", PricePerNight: 0, Capacity: 2})
	require.ErrorAs(t, err, &verr)

	assert.ErrorIs(t, m.DeleteEmployee(ctx, boss, boss.PrincipalID), ErrSelfDelete)
}

func TestManager_BookingsAndExport(t *testing.T) {
	api := newFakeAPI()
	api.seed(1, model.BookingPending, 4)
	api.seed(2, model.BookingConfirmed, 4)
	api.bookings[2].PaymentStatus = true
	api.seed(3, model.BookingConfirmed, 4)
	m := NewManager(api, quietLogger())
	ctx := context.Background()

	list, err := m.Bookings(ctx, employee, model.BookingFilter{Status: model.BookingConfirmed})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].BookingID, "newest first")

	_, err = m.Bookings(ctx, employee, model.BookingFilter{Status: "LOST"})
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)

	var buf bytes.Buffer
	require.NoError(t, m.Export(ctx, employee, model.BookingFilter{}, &buf))

	x, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer x.Close()
	rows, err := x.GetRows(exportSheet)
	require.NoError(t, err)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, "3", rows[1][0])
	assert.Equal(t, "Total", rows[5][0])
	assert.Equal(t, "300", rows[5][6])
	assert.Equal(t, "100", rows[6][6])

	assert.ErrorIs(t, m.Export(ctx, guest, model.BookingFilter{}, &buf), ErrNotStaff)
}
