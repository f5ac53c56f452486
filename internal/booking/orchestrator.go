// Package booking drives the checkout: it owns the one draft of each
// session, walks it through the guest, companions and payment steps, and
// submits it to the backend as a booking, a payment and a booking detail.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/apiclient"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/validation"
)

// API is the part of the backend the checkout writes to.
type API interface {
	CheckAvailability(ctx context.Context, roomID int64, checkIn, checkOut model.Date) (bool, error)
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, cu *model.Customer) (*model.Customer, error)
	CreateBooking(ctx context.Context, b *model.Booking) (*model.Booking, error)
	UpdateBooking(ctx context.Context, id int64, p model.BookingPatch) (*model.Booking, error)
	CreatePayment(ctx context.Context, p *model.Payment) (*model.Payment, error)
	SavePaymentCard(ctx context.Context, card *model.PaymentCard) (*model.PaymentCard, error)
	CreateBookingDetail(ctx context.Context, d *model.BookingDetail) (*model.BookingDetail, error)
}

// Rooms resolves a room with its type; catalog.Reader implements it.
type Rooms interface {
	Get(ctx context.Context, id int64, lang string) (*model.RoomView, error)
}

// Journal records submission progress.  repository.SubmissionRepo is the
// MySQL implementation.
type Journal interface {
	Start(ctx context.Context, s *model.Submission) error
	Update(ctx context.Context, s *model.Submission) error
	Get(ctx context.Context, id string) (*model.Submission, error)
	ListByState(ctx context.Context, state model.SubmissionState, limit int) ([]model.Submission, error)
	// Claim moves a row from one state to another only while it is still
	// in from, and reports whether this caller made the move.
	Claim(ctx context.Context, id string, from, to model.SubmissionState) (bool, error)
}

// Publisher emits domain events.  Failures are advisory.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Config tunes the orchestrator.
type Config struct {
	MaxNights int
}

// Orchestrator is the checkout state machine.  All methods take the
// caller's session; the draft is keyed by its id.
type Orchestrator struct {
	api      API
	rooms    Rooms
	store    DraftStore
	journal  Journal
	pub      Publisher
	verifier Verifier
	cfg      Config
	log      *logrus.Logger
	now      func() time.Time
}

func NewOrchestrator(api API, rooms Rooms, store DraftStore, journal Journal, pub Publisher, verifier Verifier, cfg Config, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		api:      api,
		rooms:    rooms,
		store:    store,
		journal:  journal,
		pub:      pub,
		verifier: verifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Start validates a room selection, prices it and opens a new draft,
// replacing any draft the session already had.  The primary guest is
// pre-filled from the customer's profile when it can be read.
func (o *Orchestrator) Start(ctx context.Context, s *model.Session, sel Selection) (*Draft, error) {
	if !s.IsCustomer() {
		return nil, ErrNotCustomer
	}
	if err := invalid(StepSelection, validation.Selection(sel.RoomID, sel.CheckIn, sel.CheckOut, sel.GuestCount, 0, o.cfg.MaxNights)); err != nil {
		return nil, err
	}
	room, err := o.rooms.Get(ctx, sel.RoomID, "")
	if err != nil {
		return nil, err
	}
	if err := invalid(StepSelection, validation.Selection(sel.RoomID, sel.CheckIn, sel.CheckOut, sel.GuestCount, room.Type.Capacity, o.cfg.MaxNights)); err != nil {
		return nil, err
	}

	extras := make([]model.ExtraService, 0, len(sel.ExtraServices))
	for _, e := range sel.ExtraServices {
		if e.Quantity > 0 && e.Price >= 0 {
			extras = append(extras, e)
		}
	}
	sel.ExtraServices = extras

	now := o.now().UTC()
	d := &Draft{
		ID:            uuid.NewString(),
		SessionID:     s.ID,
		CustomerID:    s.PrincipalID,
		Selection:     sel,
		RoomNumber:    room.RoomNumber,
		RoomTypeName:  room.Type.Name,
		PricePerNight: room.Type.PricePerNight,
		PrimaryGuest:  model.GuestInfo{FullName: s.DisplayName},
		CurrentStep:   StepGuest,
		Reached:       StepGuest,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	d.price()

	cu, err := o.api.GetCustomer(ctx, s.PrincipalID)
	switch {
	case err == nil:
		d.PrimaryGuest = model.GuestInfo{
			FullName:    cu.FullName,
			Email:       cu.Email,
			Phone:       cu.Phone,
			IDCard:      cu.IDCard,
			DateOfBirth: cu.DateOfBirth,
			Gender:      cu.Gender,
			Address:     cu.Address,
		}
		d.SavedCardOnFile = cu.CardNumber != ""
	case errors.Is(err, apiclient.ErrSessionExpired):
		return nil, err
	default:
		o.log.WithError(err).WithField("customer", s.PrincipalID).Warn("checkout: profile prefill failed")
	}

	if err := o.store.Save(ctx, d); err != nil {
		return nil, err
	}
	o.log.WithFields(logrus.Fields{"draft": d.ID, "room": d.RoomID, "nights": d.Nights, "total": d.Total}).Info("checkout started")
	return d, nil
}

// Current returns the session's draft.
func (o *Orchestrator) Current(ctx context.Context, s *model.Session) (*Draft, error) {
	if !s.IsCustomer() {
		return nil, ErrNotCustomer
	}
	return o.store.Load(ctx, s.ID)
}

// Discard drops the session's draft, e.g. when the guest navigates away.
func (o *Orchestrator) Discard(ctx context.Context, s *model.Session) error {
	if !s.IsCustomer() {
		return ErrNotCustomer
	}
	return o.store.Delete(ctx, s.ID)
}

// SaveGuest completes S1.  On a validation failure the draft is left
// exactly as it was.
func (o *Orchestrator) SaveGuest(ctx context.Context, s *model.Session, g model.GuestInfo) (*Draft, error) {
	d, err := o.Current(ctx, s)
	if err != nil {
		return nil, err
	}
	if err := invalid(StepGuest, validation.Guest(g)); err != nil {
		return nil, err
	}
	d.PrimaryGuest = g
	if !d.NeedsCompanions() {
		d.Companions = nil
	}
	d.moveTo(d.after(StepGuest))
	return d, o.save(ctx, d)
}

// SaveCompanions completes S2.
func (o *Orchestrator) SaveCompanions(ctx context.Context, s *model.Session, list []model.Companion) (*Draft, error) {
	d, err := o.Current(ctx, s)
	if err != nil {
		return nil, err
	}
	if !d.NeedsCompanions() {
		return nil, ErrNoCompanions
	}
	if d.Reached < StepCompanions {
		return nil, ErrStepNotReached
	}
	if err := invalid(StepCompanions, validation.Companions(d.GuestCount, list)); err != nil {
		return nil, err
	}
	d.Companions = list
	d.moveTo(d.after(StepCompanions))
	return d, o.save(ctx, d)
}

// SavePayment completes S3.  The draft is then ready to submit.
func (o *Orchestrator) SavePayment(ctx context.Context, s *model.Session, p model.PaymentSelection) (*Draft, error) {
	d, err := o.Current(ctx, s)
	if err != nil {
		return nil, err
	}
	if d.Reached < StepPayment {
		return nil, ErrStepNotReached
	}
	if err := invalid(StepPayment, validation.Payment(&p, d.SavedCardOnFile)); err != nil {
		return nil, err
	}
	d.Payment = &p
	d.moveTo(StepPayment)
	return d, o.save(ctx, d)
}

// GoTo navigates back (or forward again) to a step already reached.
func (o *Orchestrator) GoTo(ctx context.Context, s *model.Session, step Step) (*Draft, error) {
	d, err := o.Current(ctx, s)
	if err != nil {
		return nil, err
	}
	if !step.Valid() || step > d.Reached {
		return nil, ErrStepNotReached
	}
	if step == StepCompanions && !d.NeedsCompanions() {
		return nil, ErrNoCompanions
	}
	d.CurrentStep = step
	return d, o.save(ctx, d)
}

func (o *Orchestrator) save(ctx context.Context, d *Draft) error {
	d.UpdatedAt = o.now().UTC()
	return o.store.Save(ctx, d)
}

// validateAll re-runs every step's checks, in step order.
func (d *Draft) validateAll() error {
	if err := invalid(StepGuest, validation.Guest(d.PrimaryGuest)); err != nil {
		return err
	}
	if d.NeedsCompanions() {
		if err := invalid(StepCompanions, validation.Companions(d.GuestCount, d.Companions)); err != nil {
			return err
		}
	} else if len(d.Companions) > 0 {
		return invalid(StepCompanions, validation.Companions(d.GuestCount, d.Companions))
	}
	return invalid(StepPayment, validation.Payment(d.Payment, d.SavedCardOnFile))
}

// Submit turns the draft into backend records.  The steps run strictly in
// order because each one needs identifiers produced by the one before:
//
//  1. re-validate every step and re-check availability (no writes on failure)
//  2. sync the customer profile from the primary guest (advisory)
//  3. create the booking, unpaid (critical)
//  4. verify and record the payment, optionally saving the card (advisory)
//  5. link the payment to the booking (advisory)
//  6. create the booking detail; on failure the journal hands the booking
//     to the reconciler
//  7. drop the draft and return the confirmation
//
// A SessionExpired error aborts the submission from any step.  Once the
// booking exists the remaining steps run detached from ctx cancellation.
func (o *Orchestrator) Submit(ctx context.Context, s *model.Session) (*CheckoutView, error) {
	if !s.IsCustomer() {
		return nil, ErrNotCustomer
	}
	// One submit per session at a time.
	release, err := o.store.Claim(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	d, err := o.store.Load(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	if err := d.validateAll(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Step <= d.Reached {
			d.CurrentStep = verr.Step
			if serr := o.save(ctx, d); serr != nil {
				o.log.WithError(serr).Warn("checkout: could not move draft to failing step")
			}
		}
		return nil, err
	}

	// Step 1.
	ok, err := o.api.CheckAvailability(ctx, d.RoomID, d.CheckIn, d.CheckOut)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAvailabilityConflict
	}

	sub := &model.Submission{
		ID:         uuid.NewString(),
		DraftID:    d.ID,
		CustomerID: d.CustomerID,
		State:      model.SubmissionStarted,
	}
	if err := o.journal.Start(ctx, sub); err != nil {
		o.log.WithError(err).WithField("draft", d.ID).Error("checkout: journal start failed")
		return nil, ErrJournal
	}
	run := &submission{o: o, d: d, sub: sub, log: o.log.WithFields(logrus.Fields{"submission": sub.ID, "draft": d.ID})}
	return run.execute(ctx)
}

// submission carries the state of one Submit call.
type submission struct {
	o        *Orchestrator
	d        *Draft
	sub      *model.Submission
	log      *logrus.Entry
	booking  *model.Booking
	payment  *model.Payment
	outcomes []Outcome
}

func (r *submission) execute(ctx context.Context) (*CheckoutView, error) {
	o, d := r.o, r.d

	// Step 2.
	if err := r.advisory(StepProfileSync, r.syncProfile(ctx)); err != nil {
		return nil, r.fail(ctx, err)
	}

	// Step 3.
	b, err := o.api.CreateBooking(ctx, &model.Booking{
		CustomerID:    d.CustomerID,
		BookingTime:   o.now().UTC(),
		TotalAmount:   d.Total,
		BookingStatus: model.BookingPending,
		PaymentStatus: false,
		PaymentID:     nil,
	})
	if err != nil {
		r.log.WithError(err).Error("checkout: booking creation failed")
		return nil, r.fail(ctx, err)
	}
	r.booking = b
	r.log = r.log.WithField("booking", b.BookingID)

	// No cancellation from here on: the booking exists.
	wctx := context.WithoutCancel(ctx)
	r.sub.BookingID = b.BookingID
	r.sub.State = model.SubmissionBookingCreated
	r.sub.Detail = d.Detail(b.BookingID)
	r.journal(wctx)

	// Step 4.
	if err := r.pay(wctx); err != nil {
		return nil, r.orphan(wctx, err)
	}

	// Step 5.
	if r.payment != nil {
		pid := r.payment.PaymentID
		paid := true
		patched, err := o.api.UpdateBooking(wctx, b.BookingID, model.BookingPatch{PaymentID: &pid, PaymentStatus: &paid})
		if err := r.advisory(StepPatchBack, err); err != nil {
			return nil, r.orphan(wctx, err)
		}
		if err == nil && patched != nil {
			r.booking = patched
		}
	}

	// Step 6.
	view := r.view()
	detail, err := o.api.CreateBookingDetail(wctx, r.sub.Detail)
	switch {
	case err == nil:
		view.Detail = detail
		r.sub.State = model.SubmissionCompleted
		r.sub.Detail = nil
		r.journal(wctx)
	case errors.Is(err, apiclient.ErrSessionExpired):
		return nil, r.orphan(wctx, err)
	default:
		r.outcomes = append(r.outcomes, Outcome{Step: StepDetail, Severity: Advisory, Err: err})
		r.log.WithError(err).Error("checkout: booking detail creation failed; handing to reconciler")
		r.handOff(wctx, err)
		view.Reconciling = true
	}

	// Step 7.
	if err := o.store.Delete(wctx, d.SessionID); err != nil {
		r.log.WithError(err).Warn("checkout: draft not cleared")
	}
	view.Warnings = r.warnings()
	r.publishCompleted(wctx, view)
	r.log.WithFields(logrus.Fields{"paid": view.Booking.PaymentStatus, "warnings": len(view.Warnings)}).Info("checkout completed")
	return view, nil
}

// advisory records a soft failure.  It returns err back only when the
// failure must still abort the submission (an expired session).
func (r *submission) advisory(step string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apiclient.ErrSessionExpired) {
		return err
	}
	r.outcomes = append(r.outcomes, Outcome{Step: step, Severity: Advisory, Err: err})
	r.log.WithError(err).WithField("step", step).Warn("checkout: advisory step failed")
	return nil
}

func (r *submission) syncProfile(ctx context.Context) error {
	g := r.d.PrimaryGuest
	cu, err := r.o.api.GetCustomer(ctx, r.d.CustomerID)
	if err != nil {
		return err
	}
	cu.FullName = g.FullName
	cu.Email = g.Email
	cu.Phone = g.Phone
	cu.IDCard = g.IDCard
	if !g.DateOfBirth.IsZero() {
		cu.DateOfBirth = g.DateOfBirth
	}
	if g.Gender != "" {
		cu.Gender = g.Gender
	}
	if g.Address != "" {
		cu.Address = g.Address
	}
	_, err = r.o.api.UpdateCustomer(ctx, cu)
	return err
}

// pay runs step 4.  Only an expired session is returned; every other
// failure becomes an advisory outcome and leaves the booking unpaid.
func (r *submission) pay(ctx context.Context) error {
	o, p := r.o, r.d.Payment
	switch {
	case p.NeedsVerification():
		if err := r.advisory(StepVerify, o.verifier.Verify(ctx, *p, r.d.Total)); err != nil {
			return err
		}
		if r.hasOutcome(StepVerify) {
			return nil
		}
	case p.Method == model.PaymentBankTransfer:
	default:
		// Cash is settled at the hotel.
		return nil
	}

	pay, err := o.api.CreatePayment(ctx, &model.Payment{
		Method:      p.Method,
		TotalAmount: r.d.Total,
		BookingID:   r.booking.BookingID,
	})
	if err := r.advisory(StepPaymentWrite, err); err != nil {
		return err
	}
	if err != nil {
		return nil
	}
	r.payment = pay

	if p.Method == model.PaymentCreditCard && !p.Card.UseSavedCard && p.Card.SaveCard {
		return r.saveCard(ctx, *p.Card)
	}
	return nil
}

// saveCard stores a new card and attaches its PAN to the profile.  Both
// writes are advisory and independent.
func (r *submission) saveCard(ctx context.Context, c model.CardDetails) error {
	o := r.o
	_, err := o.api.SavePaymentCard(ctx, &model.PaymentCard{
		CardNumber: c.CardNumber,
		CardName:   c.CardName,
		Expiry:     c.Expiry,
		CustomerID: r.d.CustomerID,
	})
	if err := r.advisory(StepCardSave, err); err != nil {
		return err
	}
	attach := func() error {
		cu, err := o.api.GetCustomer(ctx, r.d.CustomerID)
		if err != nil {
			return err
		}
		cu.CardNumber = c.CardNumber
		_, err = o.api.UpdateCustomer(ctx, cu)
		return err
	}
	return r.advisory(StepCardAttach, attach())
}

func (r *submission) hasOutcome(step string) bool {
	for _, oc := range r.outcomes {
		if oc.Step == step {
			return true
		}
	}
	return false
}

// fail closes the journal row of a submission that never created a
// booking.
func (r *submission) fail(ctx context.Context, err error) error {
	oc := Outcome{Step: StepCreate, Severity: Critical, Err: err}
	r.log.WithError(err).WithField("step", oc.Step).Warn("checkout: submission aborted")
	r.sub.State = model.SubmissionFailed
	r.sub.LastError = err.Error()
	r.journal(context.WithoutCancel(ctx))
	return err
}

// orphan handles an abort after the booking exists: the detail is left to
// the reconciler and err is returned to the caller.
func (r *submission) orphan(ctx context.Context, err error) error {
	r.log.WithError(err).Warn("checkout: aborted after booking creation; handing to reconciler")
	r.handOff(ctx, err)
	return err
}

// handOff marks the submission DETAIL_FAILED and announces it.  The
// periodic sweep finds the row even if the event is lost.
func (r *submission) handOff(ctx context.Context, cause error) {
	r.sub.State = model.SubmissionDetailFailed
	r.sub.LastError = cause.Error()
	r.journal(ctx)
	r.o.publishDetailFailed(ctx, r.sub)
}

func (r *submission) journal(ctx context.Context) {
	if err := r.o.journal.Update(ctx, r.sub); err != nil {
		r.log.WithError(err).WithField("state", r.sub.State).Error("checkout: journal update failed")
	}
}

func (r *submission) warnings() []Warning {
	out := make([]Warning, 0, len(r.outcomes))
	for _, oc := range r.outcomes {
		if oc.Severity == Advisory {
			out = append(out, oc.Warning())
		}
	}
	return out
}

func (r *submission) view() *CheckoutView {
	d, b := r.d, r.booking
	created := b.BookingTime
	if created.IsZero() {
		created = r.o.now().UTC()
	}
	timeline := []TimelineEvent{{Kind: EventCreated, At: created}}
	if r.payment != nil {
		at := r.o.now().UTC()
		if !r.payment.CreatedAt.IsZero() {
			at = r.payment.CreatedAt
		}
		timeline = append(timeline, TimelineEvent{Kind: EventPaymentConfirmed, At: at})
	} else {
		timeline = append(timeline, TimelineEvent{Kind: EventPaymentPending, At: created})
	}
	return &CheckoutView{
		SubmissionID: r.sub.ID,
		Booking:      *b,
		Guest:        d.PrimaryGuest,
		Companions:   d.Companions,
		Room:         RoomSummary{RoomID: d.RoomID, RoomNumber: d.RoomNumber, TypeName: d.RoomTypeName},
		CheckIn:      d.CheckIn,
		CheckOut:     d.CheckOut,
		Nights:       d.Nights,
		Total:        d.Total,
		Method:       d.Payment.Method,
		Timeline:     timeline,
	}
}

func (r *submission) publishCompleted(ctx context.Context, v *CheckoutView) {
	msgs := make([]string, len(v.Warnings))
	for i, w := range v.Warnings {
		msgs[i] = w.Step
	}
	ev := checkoutCompleted(r.sub.ID, r.d, v, msgs, r.o.now().UTC())
	if err := r.o.pub.Publish(ctx, checkoutCompletedKey, ev); err != nil {
		r.log.WithError(err).Warn("checkout: completion event not published")
	}
}

func (o *Orchestrator) publishDetailFailed(ctx context.Context, sub *model.Submission) {
	ev := detailFailed(sub, o.now().UTC())
	if err := o.pub.Publish(ctx, detailFailedKey, ev); err != nil {
		o.log.WithError(err).WithField("submission", sub.ID).Warn("checkout: detail-failed event not published")
	}
}
