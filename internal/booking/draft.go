package booking

import (
	"time"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// Step is a checkout form step.  StepSelection is the room page that
// precedes the form; it never appears as CurrentStep.
type Step int

const (
	StepSelection  Step = 0
	StepGuest      Step = 1
	StepCompanions Step = 2
	StepPayment    Step = 3
)

func (s Step) Valid() bool { return s >= StepGuest && s <= StepPayment }

func (s Step) String() string {
	switch s {
	case StepSelection:
		return "selection"
	case StepGuest:
		return "guest"
	case StepCompanions:
		return "companions"
	case StepPayment:
		return "payment"
	}
	return "unknown"
}

// Selection is what the room page hands to the checkout: one room, a stay
// and a head count, plus optional extra services.
type Selection struct {
	RoomID        int64                `json:"roomId"`
	CheckIn       model.Date           `json:"checkIn"`
	CheckOut      model.Date           `json:"checkOut"`
	GuestCount    int                  `json:"guestCount"`
	ExtraServices []model.ExtraService `json:"extraServices,omitempty"`
}

// Draft is the single in-progress checkout of a session.  Pricing is
// derived once when the draft starts; the room's price cannot drift while
// the guest fills in the form.
type Draft struct {
	ID         string `json:"id"`
	SessionID  string `json:"sessionId"`
	CustomerID int64  `json:"customerId"`

	Selection
	RoomNumber    string  `json:"roomNumber"`
	RoomTypeName  string  `json:"roomTypeName"`
	PricePerNight float64 `json:"pricePerNight"`
	Nights        int     `json:"nights"`
	Total         float64 `json:"total"`

	PrimaryGuest    model.GuestInfo         `json:"primaryGuest"`
	Companions      []model.Companion       `json:"companions"`
	Payment         *model.PaymentSelection `json:"payment,omitempty"`
	SavedCardOnFile bool                    `json:"savedCardOnFile"`

	CurrentStep Step      `json:"currentStep"`
	Reached     Step      `json:"reached"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NeedsCompanions is false for single-guest stays; S2 is skipped then.
func (d *Draft) NeedsCompanions() bool { return d.GuestCount > 1 }

// ExtrasTotal sums the extra-service line items.
func (d *Draft) ExtrasTotal() float64 {
	var sum float64
	for _, e := range d.ExtraServices {
		sum += e.Total()
	}
	return sum
}

func (d *Draft) price() {
	d.Nights = model.Nights(d.CheckIn, d.CheckOut)
	d.Total = float64(d.Nights)*d.PricePerNight + d.ExtrasTotal()
}

// moveTo makes s the current step and extends Reached.
func (d *Draft) moveTo(s Step) {
	d.CurrentStep = s
	if s > d.Reached {
		d.Reached = s
	}
}

// after returns the step that follows s for this draft.
func (d *Draft) after(s Step) Step {
	if s == StepGuest && !d.NeedsCompanions() {
		return StepPayment
	}
	if s >= StepPayment {
		return StepPayment
	}
	return s + 1
}

// Detail builds the one booking detail the submission creates.
func (d *Draft) Detail(bookingID int64) *model.BookingDetail {
	guests := make([]model.GuestRecord, 0, 1+len(d.Companions))
	guests = append(guests, d.PrimaryGuest.Record())
	for _, c := range d.Companions {
		guests = append(guests, c.Record())
	}
	return &model.BookingDetail{
		BookingID:       bookingID,
		RoomID:          d.RoomID,
		CheckinDate:     d.CheckIn,
		CheckoutDate:    d.CheckOut,
		PricePerDay:     d.PricePerNight,
		TotalPrice:      d.Total,
		SpecialRequests: d.specialRequests(),
		Guests:          guests,
		ExtraServices:   d.ExtraServices,
	}
}

// specialRequests folds the arrival and departure hours into the free text.
func (d *Draft) specialRequests() string {
	s := d.PrimaryGuest.SpecialRequests
	add := func(label, v string) {
		if v == "" {
			return
		}
		if s != "" {
			s += "; "
		}
		s += label + ": " + v
	}
	add("Arrival", d.PrimaryGuest.ArrivalTime)
	add("Departure", d.PrimaryGuest.DepartureTime)
	return s
}

// Redacted is a copy of d safe to send to the browser: the card number is
// masked and the CVV dropped.
func (d *Draft) Redacted() *Draft {
	cp := *d
	if d.Payment != nil && d.Payment.Card != nil {
		p := *d.Payment
		c := *d.Payment.Card
		c.CardNumber = model.MaskPAN(c.CardNumber)
		c.CVV = ""
		p.Card = &c
		cp.Payment = &p
	}
	return &cp
}
