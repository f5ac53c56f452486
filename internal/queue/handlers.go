package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// BookingLog appends one human-readable line per booking event to
// Dir/booking.log.
type BookingLog struct {
	Dir string

	mu sync.Mutex
}

func NewBookingLog(dir string) *BookingLog { return &BookingLog{Dir: dir} }

func (b *BookingLog) write(line string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(b.Dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// CheckoutCompleted is the Handler for CheckoutCompletedKey.
func (b *BookingLog) CheckoutCompleted(_ context.Context, body []byte) error {
	var ev CheckoutCompletedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	warnings := "[]"
	if len(ev.Warnings) > 0 {
		warnings = fmt.Sprintf("[%s]", strings.Join(ev.Warnings, "; "))
	}
	return b.write(fmt.Sprintf("[%s] Booking placed | booking_id=%d | submission=%s | customer_id=%d | room=%q | stay=%s..%s | guests=%d | total=%.2f | method=%s | paid=%t | warnings=%s\n",
		ev.CompletedAt, ev.BookingID, ev.SubmissionID, ev.CustomerID, ev.RoomNumber, ev.CheckIn, ev.CheckOut, ev.Guests, ev.TotalAmount, ev.PaymentMethod, ev.Paid, warnings))
}

// StatusChanged is the Handler for StatusChangedKey.
func (b *BookingLog) StatusChanged(_ context.Context, body []byte) error {
	var ev StatusChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	room := ""
	if ev.RoomStatus != "" {
		room = fmt.Sprintf(" | room_id=%d -> %s", ev.RoomID, ev.RoomStatus)
	}
	return b.write(fmt.Sprintf("[%s] Booking status %s -> %s | booking_id=%d | actor=%d%s\n",
		ev.ChangedAt, ev.From, ev.To, ev.BookingID, ev.ActorID, room))
}

// Reconciler re-creates the missing detail of a half-finished checkout.
type Reconciler interface {
	Reconcile(ctx context.Context, submissionID string) error
}

// ReconcileOnDetailFailure returns the Handler for DetailFailedKey.
func ReconcileOnDetailFailure(r Reconciler) Handler {
	return func(ctx context.Context, body []byte) error {
		var ev BookingDetailFailedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		if ev.SubmissionID == "" {
			return fmt.Errorf("detail failure for booking %d carries no submission id", ev.BookingID)
		}
		return r.Reconcile(ctx, ev.SubmissionID)
	}
}
