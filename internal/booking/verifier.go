package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/validation"
)

// ErrPaymentDeclined is returned by a Verifier that refuses a payment.
var ErrPaymentDeclined = errors.New("payment declined")

// Verifier checks a card or PayPal payment before a payment record is
// written.
type Verifier interface {
	Verify(ctx context.Context, p model.PaymentSelection, amount float64) error
}

// SimulatedVerifier stands in for a payment provider.  It waits Delay and
// then declines malformed or expired cards.
type SimulatedVerifier struct {
	Delay time.Duration
	Now   func() time.Time
}

func (v SimulatedVerifier) Verify(ctx context.Context, p model.PaymentSelection, amount float64) error {
	if v.Delay > 0 {
		t := time.NewTimer(v.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if amount <= 0 {
		return fmt.Errorf("%w: nothing to charge", ErrPaymentDeclined)
	}
	switch p.Method {
	case model.PaymentPayPal:
		return nil
	case model.PaymentCreditCard:
		if p.Card == nil {
			return fmt.Errorf("%w: missing card", ErrPaymentDeclined)
		}
		if p.Card.UseSavedCard {
			return nil
		}
		return v.checkCard(*p.Card)
	}
	return fmt.Errorf("%w: %s is not verified online", ErrPaymentDeclined, p.Method)
}

func (v SimulatedVerifier) checkCard(c model.CardDetails) error {
	switch {
	case !validation.CardNumber(c.CardNumber):
		return fmt.Errorf("%w: invalid card number", ErrPaymentDeclined)
	case !validation.CVV(c.CVV):
		return fmt.Errorf("%w: invalid security code", ErrPaymentDeclined)
	case !validation.Expiry(c.Expiry):
		return fmt.Errorf("%w: invalid expiry", ErrPaymentDeclined)
	}
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	if expired(c.Expiry, now()) {
		return fmt.Errorf("%w: card expired", ErrPaymentDeclined)
	}
	return nil
}

// expired treats MM/YY as valid through the last day of that month.
func expired(mmyy string, now time.Time) bool {
	parts := strings.SplitN(strings.TrimSpace(mmyy), "/", 2)
	if len(parts) != 2 {
		return true
	}
	m, err1 := strconv.Atoi(parts[0])
	y, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return true
	}
	firstAfter := time.Date(2000+y, time.Month(m)+1, 1, 0, 0, 0, 0, time.UTC)
	return !now.UTC().Before(firstAfter)
}
