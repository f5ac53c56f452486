package model

// RoomStatus is the occupancy state of a physical room.  During normal
// operation it only changes as a side effect of a booking status
// transition.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "Available"
	RoomBooked      RoomStatus = "Booked"
	RoomOccupied    RoomStatus = "Occupied"
	RoomMaintaining RoomStatus = "Maintaining"
	RoomFree        RoomStatus = "Free"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomBooked, RoomOccupied, RoomMaintaining, RoomFree:
		return true
	}
	return false
}

// Bookable reports whether a room in this state can be offered to guests.
func (s RoomStatus) Bookable() bool { return s == RoomAvailable || s == RoomFree }

// Room mirrors the backend's /rooms resource.
type Room struct {
	RoomID     int64      `json:"roomId"`
	RoomNumber string     `json:"roomNumber"`
	RoomTypeID int64      `json:"roomTypeId"`
	Floor      int        `json:"floor"`
	Status     RoomStatus `json:"status"`
}

// RoomType mirrors the backend's /roomtypes resource.
type RoomType struct {
	RoomTypeID    int64    `json:"roomTypeId"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	PricePerNight float64  `json:"pricePerNight"`
	Capacity      int      `json:"capacity"`
	Amenities     []string `json:"amenities,omitempty"`
}

// RoomView is a room joined with its type and decorated for display.
type RoomView struct {
	Room
	Type        RoomType `json:"type"`
	DisplayName string   `json:"displayName"`
	Images      []string `json:"images"`
}

// Availability is the body of GET /rooms/{id}/availability.
type Availability struct {
	RoomID    int64 `json:"roomId"`
	Available bool  `json:"available"`
}
