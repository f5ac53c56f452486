package model

import "time"

// SubmissionState tracks how far a checkout submission got.  The row is the
// in-progress marker that lets the reconciler find bookings whose detail
// was never written.
type SubmissionState string

const (
	SubmissionStarted        SubmissionState = "STARTED"
	SubmissionBookingCreated SubmissionState = "BOOKING_CREATED"
	SubmissionCompleted      SubmissionState = "COMPLETED"
	SubmissionDetailFailed   SubmissionState = "DETAIL_FAILED"
	SubmissionReconciling    SubmissionState = "RECONCILING"
	SubmissionReconciled     SubmissionState = "RECONCILED"
	SubmissionAbandoned      SubmissionState = "ABANDONED"
	SubmissionFailed         SubmissionState = "FAILED"
)

// Submission is one row of the `booking_submissions` journal.
//
// Fields:
//  ID         – submission id (uuid), also carried by emitted events.
//  DraftID    – draft the submission was made from.
//  CustomerID – customer who submitted.
//  BookingID  – backend booking id once step 3 succeeded, else zero.
//  State      – progress marker.
//  Detail     – the booking detail to (re)create; kept until it exists.
//  Attempts   – reconciliation attempts so far.
//  LastError  – last failure message, for operators.
type Submission struct {
	ID         string
	DraftID    string
	CustomerID int64
	BookingID  int64
	State      SubmissionState
	Detail     *BookingDetail
	Attempts   int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
