package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/apiclient"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// ReconcileAPI is the part of the backend the reconciler needs.
type ReconcileAPI interface {
	BookingDetails(ctx context.Context, bookingID int64) ([]model.BookingDetail, error)
	CreateBookingDetail(ctx context.Context, d *model.BookingDetail) (*model.BookingDetail, error)
	UpdateBooking(ctx context.Context, id int64, p model.BookingPatch) (*model.Booking, error)
}

const abandonedNote = "Cancelled automatically: checkout could not be completed"

// Reconciler finishes submissions that stopped after their booking was
// created.  It re-creates the missing booking detail with the service
// token; after MaxAttempts failures it cancels the booking instead.
type Reconciler struct {
	api         ReconcileAPI
	journal     Journal
	token       string
	MaxAttempts int
	// StaleAfter is how long a BOOKING_CREATED row may sit untouched before
	// the sweep assumes its submission died mid-flight.
	StaleAfter time.Duration
	BatchSize  int
	log        *logrus.Logger
	now        func() time.Time
}

func NewReconciler(api ReconcileAPI, journal Journal, serviceToken string, maxAttempts int, log *logrus.Logger) *Reconciler {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Reconciler{
		api:         api,
		journal:     journal,
		token:       serviceToken,
		MaxAttempts: maxAttempts,
		StaleAfter:  10 * time.Minute,
		BatchSize:   50,
		log:         log,
		now:         time.Now,
	}
}

// Reconcile handles one submission.  It claims the row (DETAIL_FAILED to
// RECONCILING) before any backend write and leaves rows it cannot claim
// alone.  A failed attempt puts the row back to DETAIL_FAILED.
func (r *Reconciler) Reconcile(ctx context.Context, submissionID string) error {
	sub, err := r.journal.Get(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("load submission %s: %w", submissionID, err)
	}
	if sub.State != model.SubmissionDetailFailed {
		return nil
	}
	claimed, err := r.journal.Claim(ctx, sub.ID, model.SubmissionDetailFailed, model.SubmissionReconciling)
	if err != nil {
		return fmt.Errorf("claim submission %s: %w", sub.ID, err)
	}
	if !claimed {
		return nil
	}
	if r.token != "" {
		ctx = apiclient.WithToken(ctx, r.token)
	}
	log := r.log.WithFields(logrus.Fields{"submission": sub.ID, "booking": sub.BookingID, "attempt": sub.Attempts + 1})

	existing, err := r.api.BookingDetails(ctx, sub.BookingID)
	switch {
	case err == nil && len(existing) > 0:
		// The detail was written after all; only the response got lost.
		return r.settle(ctx, sub, model.SubmissionReconciled, log)
	case err != nil && !errors.Is(err, apiclient.ErrNotFound):
		return r.retryLater(ctx, sub, err, log)
	}

	if sub.Detail == nil {
		return r.abandon(ctx, sub, errors.New("no detail payload recorded"), log)
	}
	if _, err := r.api.CreateBookingDetail(ctx, sub.Detail); err != nil {
		return r.retryLater(ctx, sub, err, log)
	}
	log.Info("reconcile: booking detail re-created")
	return r.settle(ctx, sub, model.SubmissionReconciled, log)
}

func (r *Reconciler) retryLater(ctx context.Context, sub *model.Submission, cause error, log *logrus.Entry) error {
	sub.Attempts++
	sub.LastError = cause.Error()
	if sub.Attempts >= r.MaxAttempts {
		return r.abandon(ctx, sub, cause, log)
	}
	log.WithError(cause).Warn("reconcile: attempt failed")
	if err := r.journal.Update(ctx, sub); err != nil {
		return fmt.Errorf("journal update: %w", err)
	}
	return cause
}

// abandon cancels the orphaned booking.  If the cancel itself fails the row
// stays DETAIL_FAILED and the next sweep tries again.
func (r *Reconciler) abandon(ctx context.Context, sub *model.Submission, cause error, log *logrus.Entry) error {
	status := model.BookingCancelled
	note := abandonedNote
	if _, err := r.api.UpdateBooking(ctx, sub.BookingID, model.BookingPatch{BookingStatus: &status, Note: &note}); err != nil {
		log.WithError(err).Error("reconcile: cancelling orphaned booking failed")
		sub.LastError = err.Error()
		if uerr := r.journal.Update(ctx, sub); uerr != nil {
			log.WithError(uerr).Error("reconcile: journal update failed")
		}
		return err
	}
	log.WithError(cause).Warn("reconcile: giving up; booking cancelled")
	sub.LastError = cause.Error()
	return r.settle(ctx, sub, model.SubmissionAbandoned, log)
}

func (r *Reconciler) settle(ctx context.Context, sub *model.Submission, state model.SubmissionState, log *logrus.Entry) error {
	sub.State = state
	sub.Detail = nil
	if err := r.journal.Update(ctx, sub); err != nil {
		return fmt.Errorf("journal update: %w", err)
	}
	log.WithField("state", state).Info("reconcile: submission settled")
	return nil
}

// Sweep reconciles every DETAIL_FAILED row after promoting stale
// BOOKING_CREATED and RECONCILING rows.  It returns how many rows it looked at.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	stale, err := r.journal.ListByState(ctx, model.SubmissionBookingCreated, r.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale submissions: %w", err)
	}
	// RECONCILING rows this old belong to a reconciler that died mid-attempt.
	stuck, err := r.journal.ListByState(ctx, model.SubmissionReconciling, r.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list stuck submissions: %w", err)
	}
	cutoff := r.now().Add(-r.StaleAfter)
	for _, s := range append(stale, stuck...) {
		if s.UpdatedAt.After(cutoff) {
			continue
		}
		if _, err := r.journal.Claim(ctx, s.ID, s.State, model.SubmissionDetailFailed); err != nil {
			r.log.WithError(err).WithField("submission", s.ID).Error("sweep: promoting stale row failed")
		}
	}

	failed, err := r.journal.ListByState(ctx, model.SubmissionDetailFailed, r.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list failed submissions: %w", err)
	}
	for _, s := range failed {
		if err := r.Reconcile(ctx, s.ID); err != nil {
			r.log.WithError(err).WithField("submission", s.ID).Debug("sweep: submission still pending")
		}
	}
	return len(failed), nil
}

// Run sweeps every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := r.Sweep(ctx); err != nil {
				r.log.WithError(err).Error("sweep failed")
			} else if n > 0 {
				r.log.WithField("rows", n).Info("sweep done")
			}
		}
	}
}
