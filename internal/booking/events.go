package booking

import (
	"time"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/queue"
)

const (
	checkoutCompletedKey = queue.CheckoutCompletedKey
	detailFailedKey      = queue.DetailFailedKey
)

func checkoutCompleted(submissionID string, d *Draft, v *CheckoutView, warnings []string, at time.Time) queue.CheckoutCompletedEvent {
	return queue.CheckoutCompletedEvent{
		SubmissionID:  submissionID,
		BookingID:     v.Booking.BookingID,
		CustomerID:    d.CustomerID,
		RoomID:        d.RoomID,
		RoomNumber:    d.RoomNumber,
		CheckIn:       d.CheckIn.String(),
		CheckOut:      d.CheckOut.String(),
		Guests:        d.GuestCount,
		TotalAmount:   d.Total,
		PaymentMethod: string(v.Method),
		Paid:          v.Booking.PaymentStatus,
		Warnings:      warnings,
		CompletedAt:   at.Format(time.RFC3339),
	}
}

func detailFailed(sub *model.Submission, at time.Time) queue.BookingDetailFailedEvent {
	return queue.BookingDetailFailedEvent{
		SubmissionID: sub.ID,
		BookingID:    sub.BookingID,
		Reason:       sub.LastError,
		FailedAt:     at.Format(time.RFC3339),
	}
}
