// Package queue defines the domain events exchanged over the message broker
// together with the publisher and the background consumer.
package queue

// Routing keys double as queue names on the default exchange.
const (
	CheckoutCompletedKey = "booking.checkout_completed"
	DetailFailedKey      = "booking.detail_failed"
	StatusChangedKey     = "booking.status_changed"
)

// CheckoutCompletedEvent is published when a checkout submission finishes.
// It carries enough for downstream consumers to log or notify without
// calling the backend.
type CheckoutCompletedEvent struct {
	SubmissionID  string   `json:"submission_id"`
	BookingID     int64    `json:"booking_id"`
	CustomerID    int64    `json:"customer_id"`
	RoomID        int64    `json:"room_id"`
	RoomNumber    string   `json:"room_number"`
	CheckIn       string   `json:"check_in"`
	CheckOut      string   `json:"check_out"`
	Guests        int      `json:"guests"`
	TotalAmount   float64  `json:"total_amount"`
	PaymentMethod string   `json:"payment_method"`
	Paid          bool     `json:"paid"`
	Warnings      []string `json:"warnings,omitempty"`
	CompletedAt   string   `json:"completed_at"`
}

// BookingDetailFailedEvent asks the reconciler to re-create the detail of
// a booking whose checkout stopped after the booking was written.
type BookingDetailFailedEvent struct {
	SubmissionID string `json:"submission_id"`
	BookingID    int64  `json:"booking_id"`
	Reason       string `json:"reason"`
	FailedAt     string `json:"failed_at"`
}

// StatusChangedEvent is published by the back office after a booking moves
// through its lifecycle.
type StatusChangedEvent struct {
	BookingID  int64  `json:"booking_id"`
	RoomID     int64  `json:"room_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	RoomStatus string `json:"room_status,omitempty"`
	ActorID    int64  `json:"actor_id"`
	ChangedAt  string `json:"changed_at"`
}
