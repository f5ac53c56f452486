package backoffice

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/validation"
)

var (
	ErrNotManager = errors.New("manager only")
	// ErrRoomStatusLocked means a room edit tried to change occupancy.  Only
	// the maintenance flag may be toggled by hand; the rest follows bookings.
	ErrRoomStatusLocked = errors.New("room status follows its bookings; only maintenance can be set by hand")
	ErrSelfDelete       = errors.New("you cannot delete your own account")
)

// ManagerAPI is the part of the backend the CRUD screens use.
type ManagerAPI interface {
	ListRooms(ctx context.Context) ([]model.Room, error)
	GetRoom(ctx context.Context, id int64) (*model.Room, error)
	CreateRoom(ctx context.Context, r *model.Room) (*model.Room, error)
	UpdateRoom(ctx context.Context, r *model.Room) (*model.Room, error)
	DeleteRoom(ctx context.Context, id int64) error
	SetRoomStatus(ctx context.Context, id int64, status model.RoomStatus) error

	ListRoomTypes(ctx context.Context) ([]model.RoomType, error)
	CreateRoomType(ctx context.Context, t *model.RoomType) (*model.RoomType, error)
	UpdateRoomType(ctx context.Context, t *model.RoomType) (*model.RoomType, error)
	DeleteRoomType(ctx context.Context, id int64) error

	ListEmployees(ctx context.Context) ([]model.Employee, error)
	GetEmployee(ctx context.Context, id int64) (*model.Employee, error)
	CreateEmployee(ctx context.Context, e *model.Employee) (*model.Employee, error)
	UpdateEmployee(ctx context.Context, e *model.Employee) (*model.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error

	ListBookings(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
}

// Manager backs the CRUD screens.  Every write is validated before the
// backend is called.  Room and booking screens are open to all staff;
// room types and employees to managers only.
type Manager struct {
	api ManagerAPI
	log *logrus.Logger
}

func NewManager(api ManagerAPI, log *logrus.Logger) *Manager {
	return &Manager{api: api, log: log}
}

func staff(s *model.Session) error {
	if !s.IsStaff() {
		return ErrNotStaff
	}
	return nil
}

func manager(s *model.Session) error {
	if !s.IsManager() {
		return ErrNotManager
	}
	return nil
}

// Rooms

func (m *Manager) Rooms(ctx context.Context, actor *model.Session) ([]model.Room, error) {
	if err := staff(actor); err != nil {
		return nil, err
	}
	return m.api.ListRooms(ctx)
}

func (m *Manager) CreateRoom(ctx context.Context, actor *model.Session, r model.Room) (*model.Room, error) {
	if err := manager(actor); err != nil {
		return nil, err
	}
	r.RoomNumber = strings.TrimSpace(r.RoomNumber)
	if r.Status == "" {
		r.Status = model.RoomAvailable
	}
	if err := validation.Room(r).Err(); err != nil {
		return nil, err
	}
	out, err := m.api.CreateRoom(ctx, &r)
	if err == nil {
		m.log.WithFields(logrus.Fields{"room": out.RoomID, "actor": actor.PrincipalID}).Info("room created")
	}
	return out, err
}

// UpdateRoom edits a room.  Its status may only move into or out of
// Maintaining.
func (m *Manager) UpdateRoom(ctx context.Context, actor *model.Session, r model.Room) (*model.Room, error) {
	if err := staff(actor); err != nil {
		return nil, err
	}
	r.RoomNumber = strings.TrimSpace(r.RoomNumber)
	if err := validation.Room(r).Err(); err != nil {
		return nil, err
	}
	cur, err := m.api.GetRoom(ctx, r.RoomID)
	if err != nil {
		return nil, err
	}
	if r.Status == "" {
		r.Status = cur.Status
	}
	if r.Status != cur.Status && !maintenanceToggle(cur.Status, r.Status) {
		return nil, ErrRoomStatusLocked
	}
	if !actor.IsManager() && (r.RoomNumber != cur.RoomNumber || r.RoomTypeID != cur.RoomTypeID || r.Floor != cur.Floor) {
		// Employees may only flag maintenance.
		return nil, ErrNotManager
	}
	return m.api.UpdateRoom(ctx, &r)
}

func maintenanceToggle(from, to model.RoomStatus) bool {
	return (to == model.RoomMaintaining && from.Bookable()) ||
		(from == model.RoomMaintaining && to == model.RoomAvailable)
}

// ReleaseRoom marks a room Available again.  Cancelling a booking leaves
// its room untouched, so staff free it here once nobody holds it.
func (m *Manager) ReleaseRoom(ctx context.Context, actor *model.Session, id int64) (*model.Room, error) {
	if err := staff(actor); err != nil {
		return nil, err
	}
	r, err := m.api.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == model.RoomAvailable {
		return r, nil
	}
	if err := m.api.SetRoomStatus(ctx, id, model.RoomAvailable); err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"room": id, "from": r.Status, "actor": actor.PrincipalID}).Info("room released")
	r.Status = model.RoomAvailable
	return r, nil
}

func (m *Manager) DeleteRoom(ctx context.Context, actor *model.Session, id int64) error {
	if err := manager(actor); err != nil {
		return err
	}
	return m.api.DeleteRoom(ctx, id)
}

// Room types

func (m *Manager) RoomTypes(ctx context.Context, actor *model.Session) ([]model.RoomType, error) {
	if err := staff(actor); err != nil {
		return nil, err
	}
	return m.api.ListRoomTypes(ctx)
}

func (m *Manager) CreateRoomType(ctx context.Context, actor *model.Session, t model.RoomType) (*model.RoomType, error) {
	if err := manager(actor); err != nil {
		return nil, err
	}
	t.Name = strings.TrimSpace(t.Name)
	if err := validation.RoomType(t).Err(); err != nil {
		return nil, err
	}
	return m.api.CreateRoomType(ctx, &t)
}

func (m *Manager) UpdateRoomType(ctx context.Context, actor *model.Session, t model.RoomType) (*model.RoomType, error) {
	if err := manager(actor); err != nil {
		return nil, err
	}
	t.Name = strings.TrimSpace(t.Name)
	if err := validation.RoomType(t).Err(); err != nil {
		return nil, err
	}
	return m.api.UpdateRoomType(ctx, &t)
}

func (m *Manager) DeleteRoomType(ctx context.Context, actor *model.Session, id int64) error {
	if err := manager(actor); err != nil {
		return err
	}
	return m.api.DeleteRoomType(ctx, id)
}

// Employees

func (m *Manager) Employees(ctx context.Context, actor *model.Session) ([]model.Employee, error) {
	if err := manager(actor); err != nil {
		return nil, err
	}
	list, err := m.api.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].FullName < list[j].FullName })
	for i := range list {
		list[i].Password = ""
	}
	return list, nil
}

func (m *Manager) CreateEmployee(ctx context.Context, actor *model.Session, e model.Employee) (*model.Employee, error) {
	if err := manager(actor); err != nil {
		return nil, err
	}
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	if err := validation.Employee(e, true).Err(); err != nil {
		return nil, err
	}
	out, err := m.api.CreateEmployee(ctx, &e)
	if err != nil {
		return nil, err
	}
	out.Password = ""
	m.log.WithFields(logrus.Fields{"employee": out.EmployeeID, "role": out.Role, "actor": actor.PrincipalID}).Info("employee created")
	return out, nil
}

// UpdateEmployee edits a staff record.  An empty password keeps the
// current one.
func (m *Manager) UpdateEmployee(ctx context.Context, actor *model.Session, e model.Employee) (*model.Employee, error) {
	if err := manager(actor); err != nil {
		return nil, err
	}
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	if err := validation.Employee(e, false).Err(); err != nil {
		return nil, err
	}
	if _, err := m.api.GetEmployee(ctx, e.EmployeeID); err != nil {
		return nil, err
	}
	out, err := m.api.UpdateEmployee(ctx, &e)
	if err != nil {
		return nil, err
	}
	out.Password = ""
	return out, nil
}

// DeleteEmployee removes a staff account.  Managers cannot delete
// themselves.
func (m *Manager) DeleteEmployee(ctx context.Context, actor *model.Session, id int64) error {
	if err := manager(actor); err != nil {
		return err
	}
	if id == actor.PrincipalID {
		return ErrSelfDelete
	}
	return m.api.DeleteEmployee(ctx, id)
}

// Bookings lists bookings for the back office, newest first.
func (m *Manager) Bookings(ctx context.Context, actor *model.Session, f model.BookingFilter) ([]model.Booking, error) {
	if err := staff(actor); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, validation.Result{Errors: []validation.FieldError{{Field: "status", Message: "Unknown booking status"}}}.Err()
	}
	list, err := m.api.ListBookings(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].BookingTime.After(list[j].BookingTime) })
	return list, nil
}
