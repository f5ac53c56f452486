package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/validation"
)

var (
	// ErrAvailabilityConflict means the room was taken for the chosen dates
	// by the time the guest submitted.  Nothing was written.
	ErrAvailabilityConflict = errors.New("the room is no longer available for the selected dates")
	ErrNotCustomer          = errors.New("only customers can book rooms")
	ErrStepNotReached       = errors.New("complete the previous steps first")
	ErrNoCompanions         = errors.New("this booking has no companions to enter")
	ErrJournal              = errors.New("could not start the submission")
)

// ValidationError blocks a step transition.  Step names where the guest
// has to go to fix the first violated field.
type ValidationError struct {
	Step   Step
	Result validation.Result
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Result.First().Message)
}

func invalid(step Step, r validation.Result) error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Step: step, Result: r}
}

// Severity classifies a failed submission sub-step.
type Severity int

const (
	Critical Severity = iota + 1
	Advisory
)

// Outcome is a failed sub-step.  Critical outcomes abort the submission;
// advisory ones are logged and surfaced as warnings.
type Outcome struct {
	Step     string
	Severity Severity
	Err      error
}

// Warning is the user-facing side of an advisory outcome.
type Warning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// Submission sub-steps, as logged and reported in warnings.
const (
	StepAvailability = "availability"
	StepProfileSync  = "profile-sync"
	StepCreate       = "booking"
	StepVerify       = "payment-verification"
	StepPaymentWrite = "payment"
	StepCardSave     = "card-save"
	StepCardAttach   = "card-attach"
	StepPatchBack    = "payment-link"
	StepDetail       = "booking-detail"
)

var warningText = map[string]string{
	StepProfileSync:  "Your profile could not be updated with the guest details.",
	StepVerify:       "Your payment could not be verified. The booking is reserved and can be paid at the hotel.",
	StepPaymentWrite: "Your payment could not be recorded. The booking is reserved and payment is pending.",
	StepCardSave:     "Your card could not be saved for next time.",
	StepCardAttach:   "Your saved card could not be linked to your profile.",
	StepPatchBack:    "Your payment was received but is not yet shown on the booking.",
	StepDetail:       "Your booking is confirmed. Room and guest details are still being finalised.",
}

func (o Outcome) Warning() Warning {
	msg, ok := warningText[o.Step]
	if !ok {
		msg = "Part of your booking could not be completed."
	}
	return Warning{Step: o.Step, Message: msg}
}

// TimelineEvent is one entry of the confirmation screen timeline.
type TimelineEvent struct {
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
}

const (
	EventCreated          = "created"
	EventPaymentConfirmed = "payment-confirmed"
	EventPaymentPending   = "payment-pending"
)

// RoomSummary names the booked room on the confirmation screen.
type RoomSummary struct {
	RoomID     int64  `json:"roomId"`
	RoomNumber string `json:"roomNumber"`
	TypeName   string `json:"typeName"`
}

// CheckoutView is the denormalised confirmation handed to the presentation
// layer after a submission.  Reconciling is set when the booking exists but
// its detail is still being re-created in the background.
type CheckoutView struct {
	SubmissionID string               `json:"submissionId"`
	Booking      model.Booking        `json:"booking"`
	Detail       *model.BookingDetail `json:"detail,omitempty"`
	Guest        model.GuestInfo      `json:"guest"`
	Companions   []model.Companion    `json:"companions"`
	Room         RoomSummary          `json:"room"`
	CheckIn      model.Date           `json:"checkIn"`
	CheckOut     model.Date           `json:"checkOut"`
	Nights       int                  `json:"nights"`
	Total        float64              `json:"total"`
	Method       model.PaymentMethod  `json:"method"`
	Timeline     []TimelineEvent      `json:"timeline"`
	Warnings     []Warning            `json:"warnings"`
	Reconciling  bool                 `json:"reconciling"`
}
