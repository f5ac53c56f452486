// Package customer serves the signed-in customer's own pages: profile,
// booking history and starred rooms.
package customer

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/apiclient"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/catalog"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/validation"
)

var (
	ErrNotCustomer = errors.New("customers only")
	ErrForbidden   = errors.New("booking belongs to another customer")
)

// API is the part of the backend the self-service pages read and write.
type API interface {
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, cu *model.Customer) (*model.Customer, error)
	ListBookings(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	BookingDetails(ctx context.Context, bookingID int64) ([]model.BookingDetail, error)
}

// Rooms resolves a room id to its display view.
type Rooms interface {
	Get(ctx context.Context, id int64, lang string) (*model.RoomView, error)
}

// FavoriteStore keeps starred room ids per customer.
type FavoriteStore interface {
	Add(ctx context.Context, customerID, roomID int64) error
	Remove(ctx context.Context, customerID, roomID int64) error
	List(ctx context.Context, customerID int64) ([]int64, error)
}

// BookingView is one booking with its details, as the history page shows it.
type BookingView struct {
	model.Booking
	Details []model.BookingDetail `json:"details"`
}

type Service struct {
	api   API
	rooms Rooms
	favs  FavoriteStore
	log   *logrus.Logger
}

func NewService(api API, rooms Rooms, favs FavoriteStore, log *logrus.Logger) *Service {
	return &Service{api: api, rooms: rooms, favs: favs, log: log}
}

func customerOf(s *model.Session) (int64, error) {
	if !s.IsCustomer() {
		return 0, ErrNotCustomer
	}
	return s.PrincipalID, nil
}

// Profile returns the customer's record with the card on file masked.
func (s *Service) Profile(ctx context.Context, sess *model.Session) (*model.Customer, error) {
	id, err := customerOf(sess)
	if err != nil {
		return nil, err
	}
	cu, err := s.api.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	cu.CardNumber = model.MaskPAN(cu.CardNumber)
	return cu, nil
}

// UpdateProfile saves the editable profile fields.  The id always comes
// from the session and the card on file is left as stored.
func (s *Service) UpdateProfile(ctx context.Context, sess *model.Session, in model.Customer) (*model.Customer, error) {
	id, err := customerOf(sess)
	if err != nil {
		return nil, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validation.Customer(in).Err(); err != nil {
		return nil, err
	}
	cur, err := s.api.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	in.CustomerID = id
	in.CardNumber = cur.CardNumber
	out, err := s.api.UpdateCustomer(ctx, &in)
	if err != nil {
		return nil, err
	}
	s.log.WithField("customer", id).Info("profile updated")
	out.CardNumber = model.MaskPAN(out.CardNumber)
	return out, nil
}

// Bookings lists the customer's bookings, newest first.  An optional status
// narrows the list.
func (s *Service) Bookings(ctx context.Context, sess *model.Session, status model.BookingStatus) ([]model.Booking, error) {
	id, err := customerOf(sess)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, validation.Result{Errors: []validation.FieldError{{Field: "status", Message: "Unknown booking status"}}}.Err()
	}
	list, err := s.api.ListBookings(ctx, model.BookingFilter{CustomerID: id, Status: status})
	if err != nil {
		return nil, err
	}
	// The backend filter is trusted only as far as it goes.
	out := list[:0]
	for _, b := range list {
		if b.CustomerID == id {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BookingTime.After(out[j].BookingTime) })
	return out, nil
}

// Booking returns one of the customer's bookings with its details.
func (s *Service) Booking(ctx context.Context, sess *model.Session, bookingID int64) (*BookingView, error) {
	id, err := customerOf(sess)
	if err != nil {
		return nil, err
	}
	b, err := s.api.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != id {
		s.log.WithFields(logrus.Fields{"customer": id, "booking": bookingID}).Warn("booking lookup for another customer")
		return nil, ErrForbidden
	}
	details, err := s.api.BookingDetails(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &BookingView{Booking: *b, Details: details}, nil
}

// Star adds a room to the customer's favorites.  The room must exist;
// starring twice is a no-op.
func (s *Service) Star(ctx context.Context, sess *model.Session, roomID int64) error {
	id, err := customerOf(sess)
	if err != nil {
		return err
	}
	if _, err := s.rooms.Get(ctx, roomID, ""); err != nil {
		return err
	}
	return s.favs.Add(ctx, id, roomID)
}

func (s *Service) Unstar(ctx context.Context, sess *model.Session, roomID int64) error {
	id, err := customerOf(sess)
	if err != nil {
		return err
	}
	return s.favs.Remove(ctx, id, roomID)
}

// Favorites returns the starred rooms decorated for display, most recently
// starred first.  Rooms the backend no longer knows are skipped.
func (s *Service) Favorites(ctx context.Context, sess *model.Session, lang string) ([]model.RoomView, error) {
	id, err := customerOf(sess)
	if err != nil {
		return nil, err
	}
	ids, err := s.favs.List(ctx, id)
	if err != nil {
		return nil, err
	}

	views := make([]*model.RoomView, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, roomID := range ids {
		i, roomID := i, roomID
		g.Go(func() error {
			v, err := s.rooms.Get(gctx, roomID, lang)
			if err != nil {
				if gone(err) {
					s.log.WithFields(logrus.Fields{"customer": id, "room": roomID}).Debug("favorite room no longer listed")
					return nil
				}
				return err
			}
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.RoomView, 0, len(views))
	for _, v := range views {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}

func gone(err error) bool {
	return errors.Is(err, apiclient.ErrNotFound) || errors.Is(err, catalog.ErrRoomTypeMissing)
}
