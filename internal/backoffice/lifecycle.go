// Package backoffice implements the staff screens: the booking status
// lifecycle with its room coupling, CRUD over rooms, room types and
// employees, and the bookings export.
package backoffice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/queue"
)

var (
	ErrNotStaff          = errors.New("staff only")
	ErrNoRoom            = errors.New("booking has no room assigned")
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// LifecycleAPI is the part of the backend the status lifecycle touches.
type LifecycleAPI interface {
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	UpdateBooking(ctx context.Context, id int64, p model.BookingPatch) (*model.Booking, error)
	BookingDetails(ctx context.Context, bookingID int64) ([]model.BookingDetail, error)
	SetRoomStatus(ctx context.Context, id int64, status model.RoomStatus) error
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// RefusedError reports a transition that is not allowed from the booking's
// current status.  Nothing was written.
type RefusedError struct {
	BookingID int64
	Current   model.BookingStatus
	Target    model.BookingStatus
}

func (e *RefusedError) Error() string {
	return fmt.Sprintf("booking %d is %s and cannot become %s", e.BookingID, e.Current, e.Target)
}

func (e *RefusedError) Unwrap() error { return ErrInvalidTransition }

// TransitionError is a transition that failed half way.  BookingWritten
// tells whether the booking already carries the new status; the room write
// is the one that failed then.  Nothing is rolled back.
type TransitionError struct {
	BookingID      int64
	RoomID         int64
	Target         model.BookingStatus
	BookingWritten bool
	Err            error
}

func (e *TransitionError) Error() string {
	if e.BookingWritten {
		return fmt.Sprintf("booking %d is now %s but room %d was not updated: %v", e.BookingID, e.Target, e.RoomID, e.Err)
	}
	return fmt.Sprintf("booking %d could not be moved to %s: %v", e.BookingID, e.Target, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// Transition is the result of a completed lifecycle action.
type Transition struct {
	Booking    model.Booking       `json:"booking"`
	RoomID     int64               `json:"roomId"`
	From       model.BookingStatus `json:"from"`
	RoomStatus model.RoomStatus    `json:"roomStatus,omitempty"`
}

type Lifecycle struct {
	api LifecycleAPI
	pub Publisher
	log *logrus.Logger
	now func() time.Time
}

func NewLifecycle(api LifecycleAPI, pub Publisher, log *logrus.Logger) *Lifecycle {
	return &Lifecycle{api: api, pub: pub, log: log, now: time.Now}
}

// ConfirmPayment moves a PENDING booking to CONFIRMED, marks it paid and
// books its room.
func (l *Lifecycle) ConfirmPayment(ctx context.Context, actor *model.Session, bookingID int64) (*Transition, error) {
	paid := true
	return l.transition(ctx, actor, bookingID, model.BookingConfirmed, model.BookingPatch{PaymentStatus: &paid})
}

// CheckIn moves a CONFIRMED booking to CHECKED_IN and occupies its room.
func (l *Lifecycle) CheckIn(ctx context.Context, actor *model.Session, bookingID int64) (*Transition, error) {
	return l.transition(ctx, actor, bookingID, model.BookingCheckedIn, model.BookingPatch{})
}

// CheckOut moves a CHECKED_IN booking to CHECKED_OUT and frees its room.
func (l *Lifecycle) CheckOut(ctx context.Context, actor *model.Session, bookingID int64) (*Transition, error) {
	return l.transition(ctx, actor, bookingID, model.BookingCheckedOut, model.BookingPatch{})
}

// Cancel ends a booking that has not ended yet.  The room is left as it
// is; releasing it is an explicit room edit.
func (l *Lifecycle) Cancel(ctx context.Context, actor *model.Session, bookingID int64, reason string) (*Transition, error) {
	p := model.BookingPatch{}
	if reason != "" {
		p.Note = &reason
	}
	return l.transition(ctx, actor, bookingID, model.BookingCancelled, p)
}

func (l *Lifecycle) transition(ctx context.Context, actor *model.Session, bookingID int64, target model.BookingStatus, patch model.BookingPatch) (*Transition, error) {
	if !actor.IsStaff() {
		return nil, ErrNotStaff
	}
	b, err := l.api.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	from := b.BookingStatus
	if !from.CanTransitionTo(target) {
		return nil, &RefusedError{BookingID: bookingID, Current: from, Target: target}
	}
	roomID, err := l.roomOf(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	log := l.log.WithFields(logrus.Fields{"booking": bookingID, "room": roomID, "from": from, "to": target, "actor": actor.PrincipalID})
	patch.BookingStatus = &target
	actorID := actor.PrincipalID
	patch.EmployeeID = &actorID
	updated, err := l.api.UpdateBooking(ctx, bookingID, patch)
	if err != nil {
		log.WithError(err).Error("lifecycle: booking write failed")
		return nil, &TransitionError{BookingID: bookingID, RoomID: roomID, Target: target, Err: err}
	}

	t := &Transition{Booking: *updated, RoomID: roomID, From: from}
	if rs, ok := target.RoomEffect(); ok {
		if err := l.api.SetRoomStatus(ctx, roomID, rs); err != nil {
			log.WithError(err).Error("lifecycle: room write failed after booking write")
			return nil, &TransitionError{BookingID: bookingID, RoomID: roomID, Target: target, BookingWritten: true, Err: err}
		}
		t.RoomStatus = rs
	}
	log.Info("lifecycle: booking status changed")
	l.publish(ctx, actor, t, target)
	return t, nil
}

// roomOf resolves the booking's room through its detail.
func (l *Lifecycle) roomOf(ctx context.Context, bookingID int64) (int64, error) {
	details, err := l.api.BookingDetails(ctx, bookingID)
	if err != nil {
		return 0, err
	}
	for _, d := range details {
		if d.RoomID > 0 {
			return d.RoomID, nil
		}
	}
	return 0, ErrNoRoom
}

func (l *Lifecycle) publish(ctx context.Context, actor *model.Session, t *Transition, to model.BookingStatus) {
	ev := queue.StatusChangedEvent{
		BookingID:  t.Booking.BookingID,
		RoomID:     t.RoomID,
		From:       string(t.From),
		To:         string(to),
		RoomStatus: string(t.RoomStatus),
		ActorID:    actor.PrincipalID,
		ChangedAt:  l.now().UTC().Format(time.RFC3339),
	}
	if err := l.pub.Publish(ctx, queue.StatusChangedKey, ev); err != nil {
		l.log.WithError(err).WithField("booking", t.Booking.BookingID).Warn("lifecycle: status event not published")
	}
}
