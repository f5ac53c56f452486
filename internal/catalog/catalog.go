// Package catalog reads rooms and room types from the backend and joins
// them into display-ready RoomViews.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// ErrRoomTypeMissing means a room points at a type the backend no longer
// returns.
var ErrRoomTypeMissing = errors.New("room type missing")

// Source is the part of the backend API the catalog reads.
type Source interface {
	ListRooms(ctx context.Context) ([]model.Room, error)
	GetRoom(ctx context.Context, id int64) (*model.Room, error)
	ListRoomTypes(ctx context.Context) ([]model.RoomType, error)
	GetRoomType(ctx context.Context, id int64) (*model.RoomType, error)
	CheckAvailability(ctx context.Context, roomID int64, checkIn, checkOut model.Date) (bool, error)
}

// Filter narrows List.  Zero values mean "any".
type Filter struct {
	TypeID   int64
	Status   model.RoomStatus
	MinPrice float64
	MaxPrice float64
	Guests   int
	Query    string
	Lang     string
}

type Reader struct {
	src Source
}

func NewReader(src Source) *Reader { return &Reader{src: src} }

// List fetches rooms and types in parallel, joins and filters them.
func (r *Reader) List(ctx context.Context, f Filter) ([]model.RoomView, error) {
	var (
		rooms []model.Room
		types []model.RoomType
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rooms, err = r.src.ListRooms(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		types, err = r.src.ListRoomTypes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[int64]model.RoomType, len(types))
	for _, t := range types {
		byID[t.RoomTypeID] = t
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]model.RoomView, 0, len(rooms))
	for _, room := range rooms {
		t, ok := byID[room.RoomTypeID]
		if !ok {
			// A room without a type cannot be priced; skip it.
			continue
		}
		v := decorate(room, t, f.Lang)
		if !f.match(v, q) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return lessRoomNumber(out[i].RoomNumber, out[j].RoomNumber) })
	return out, nil
}

func (f Filter) match(v model.RoomView, q string) bool {
	switch {
	case f.TypeID != 0 && v.RoomTypeID != f.TypeID:
		return false
	case f.Status != "" && v.Status != f.Status:
		return false
	case f.MinPrice > 0 && v.Type.PricePerNight < f.MinPrice:
		return false
	case f.MaxPrice > 0 && v.Type.PricePerNight > f.MaxPrice:
		return false
	case f.Guests > 0 && v.Type.Capacity < f.Guests:
		return false
	}
	if q == "" {
		return true
	}
	for _, s := range []string{v.RoomNumber, v.DisplayName, v.Type.Name, v.Type.Description} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// lessRoomNumber orders numeric room numbers numerically ("9" < "10") and
// falls back to string order otherwise.
func lessRoomNumber(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

// Get returns one decorated room.
func (r *Reader) Get(ctx context.Context, id int64, lang string) (*model.RoomView, error) {
	room, err := r.src.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := r.src.GetRoomType(ctx, room.RoomTypeID)
	if err != nil {
		return nil, fmt.Errorf("%w: room %d type %d: %w", ErrRoomTypeMissing, id, room.RoomTypeID, err)
	}
	v := decorate(*room, *t, lang)
	return &v, nil
}

// Types returns every room type with its display name translated.
func (r *Reader) Types(ctx context.Context, lang string) ([]model.RoomType, error) {
	types, err := r.src.ListRoomTypes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range types {
		types[i].Name = translate(types[i].Name, lang)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].PricePerNight < types[j].PricePerNight })
	return types, nil
}

// Availability asks the backend whether the room is free for the stay.
func (r *Reader) Availability(ctx context.Context, id int64, checkIn, checkOut model.Date) (model.Availability, error) {
	ok, err := r.src.CheckAvailability(ctx, id, checkIn, checkOut)
	if err != nil {
		return model.Availability{}, err
	}
	return model.Availability{RoomID: id, Available: ok}, nil
}
