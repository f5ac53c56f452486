package model

import (
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking on the backend.
type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCheckedIn  BookingStatus = "CHECKED_IN"
	BookingCheckedOut BookingStatus = "CHECKED_OUT"
	BookingCancelled  BookingStatus = "CANCELLED"
)

// bookingTransitions is the back-office state machine.  Cancel is reachable
// from every state that has not already ended.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingCancelled},
	BookingConfirmed:  {BookingCheckedIn, BookingCancelled},
	BookingCheckedIn:  {BookingCheckedOut, BookingCancelled},
	BookingCheckedOut: {},
	BookingCancelled:  {},
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether the back office may move a booking from s
// to target.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal is true when no further transition is possible.
func (s BookingStatus) IsTerminal() bool { return len(bookingTransitions[s]) == 0 }

// RoomEffect is the room status written alongside a transition into s.  The
// second result is false when the transition leaves the room alone.
func (s BookingStatus) RoomEffect() (RoomStatus, bool) {
	switch s {
	case BookingConfirmed:
		return RoomBooked, true
	case BookingCheckedIn:
		return RoomOccupied, true
	case BookingCheckedOut:
		return RoomAvailable, true
	}
	return "", false
}

// Booking mirrors the backend's /bookings resource.  PaymentID is set only
// when PaymentStatus is true and a payment record exists.
type Booking struct {
	BookingID     int64         `json:"bookingId"`
	CustomerID    int64         `json:"customerId"`
	EmployeeID    *int64        `json:"employeeId"`
	BookingTime   time.Time     `json:"bookingTime"`
	TotalAmount   float64       `json:"totalAmount"`
	BookingStatus BookingStatus `json:"bookingStatus"`
	PaymentStatus bool          `json:"paymentStatus"`
	PaymentID     *int64        `json:"paymentId"`
	Note          string        `json:"note,omitempty"`
}

// BookingPatch is a partial update of a booking; nil fields are left
// untouched by the backend.
type BookingPatch struct {
	BookingStatus *BookingStatus `json:"bookingStatus,omitempty"`
	PaymentStatus *bool          `json:"paymentStatus,omitempty"`
	PaymentID     *int64         `json:"paymentId,omitempty"`
	EmployeeID    *int64         `json:"employeeId,omitempty"`
	Note          *string        `json:"note,omitempty"`
}

// BookingFilter narrows GET /bookings.
type BookingFilter struct {
	CustomerID int64
	Status     BookingStatus
}

// GuestRecord is one person staying under a booking detail.
type GuestRecord struct {
	FullName    string `json:"fullName"`
	IDCard      string `json:"idCard"`
	DateOfBirth Date   `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	IsPrimary   bool   `json:"isPrimary"`
}

// ExtraService is an add-on chosen on the room page (breakfast, airport
// pickup, ...).  Price is per unit.
type ExtraService struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

func (e ExtraService) Total() float64 { return e.Price * float64(e.Quantity) }

// BookingDetail mirrors the backend's /bookingDetails resource.  The
// checkout flow creates exactly one per booking.
type BookingDetail struct {
	DetailID        int64          `json:"detailId"`
	BookingID       int64          `json:"bookingId"`
	RoomID          int64          `json:"roomId"`
	CheckinDate     Date           `json:"checkinDate"`
	CheckoutDate    Date           `json:"checkoutDate"`
	PricePerDay     float64        `json:"pricePerDay"`
	TotalPrice      float64        `json:"totalPrice"`
	SpecialRequests string         `json:"specialRequests,omitempty"`
	Guests          []GuestRecord  `json:"guests"`
	ExtraServices   []ExtraService `json:"extraServices,omitempty"`
}

// PaymentMethod names the variant of a payment selection.
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentPayPal       PaymentMethod = "PAYPAL"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCash         PaymentMethod = "CASH"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentPayPal, PaymentBankTransfer, PaymentCash:
		return true
	}
	return false
}

// Payment mirrors the backend's /payments resource.
type Payment struct {
	PaymentID   int64         `json:"paymentId"`
	Method      PaymentMethod `json:"method"`
	TotalAmount float64       `json:"totalAmount"`
	BookingID   int64         `json:"bookingId"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// PaymentCard mirrors the backend's /paymentcards resource.
type PaymentCard struct {
	CardNumber string `json:"cardNumber"`
	CardName   string `json:"cardName"`
	Expiry     string `json:"expiry"`
	CustomerID int64  `json:"customerId"`
}

// MaskPAN keeps only the last four digits of a card number.
func MaskPAN(pan string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, pan)
	if len(digits) <= 4 {
		return digits
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
