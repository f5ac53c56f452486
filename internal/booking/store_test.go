package booking

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

func sampleDraft() *Draft {
	return &Draft{
		ID:        "d-1",
		SessionID: "s-1",
		Selection: Selection{RoomID: 4, CheckIn: model.NewDate(2025, 3, 30), CheckOut: model.NewDate(2025, 4, 1), GuestCount: 1},
		Payment:   &model.PaymentSelection{Method: model.PaymentCash},
	}
}

func exerciseStore(t *testing.T, s DraftStore) {
	ctx := context.Background()
	_, err := s.Load(ctx, "s-1")
	assert.ErrorIs(t, err, ErrNoDraft)

	require.NoError(t, s.Save(ctx, sampleDraft()))
	got, err := s.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, model.NewDate(2025, 3, 30), got.CheckIn)
	assert.Equal(t, model.PaymentCash, got.Payment.Method)

	require.NoError(t, s.Delete(ctx, "s-1"))
	_, err = s.Load(ctx, "s-1")
	assert.ErrorIs(t, err, ErrNoDraft)

	release, err := s.Claim(ctx, "s-1")
	require.NoError(t, err)
	_, err = s.Claim(ctx, "s-1")
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	other, err := s.Claim(ctx, "s-2")
	require.NoError(t, err, "locks are per session")
	other()
	release()
	release, err = s.Claim(ctx, "s-1")
	require.NoError(t, err, "released lock can be taken again")
	release()
}

func TestMemoryDraftStore(t *testing.T) {
	exerciseStore(t, NewMemoryDraftStore(time.Hour))
}

func TestMemoryDraftStore_Expires(t *testing.T) {
	s := NewMemoryDraftStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	require.NoError(t, s.Save(context.Background(), sampleDraft()))

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := s.Load(context.Background(), "s-1")
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestMemoryDraftStore_ClaimExpires(t *testing.T) {
	s := NewMemoryDraftStore(time.Hour)
	now := time.Now()
	s.now = func() time.Time { return now }
	stale, err := s.Claim(context.Background(), "s-1")
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(claimTTL + time.Second) }
	release, err := s.Claim(context.Background(), "s-1")
	require.NoError(t, err)

	stale()
	_, err = s.Claim(context.Background(), "s-1")
	assert.ErrorIs(t, err, ErrSubmitInProgress, "a stale release must not drop the new holder's lock")
	release()
}

// TestRedisDraftStore runs against a real server when REDIS_TEST_ADDR is
// set.
func TestRedisDraftStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	require.NoError(t, rdb.Ping(context.Background()).Err())
	exerciseStore(t, NewRedisDraftStore(rdb, time.Minute))
}

func TestDraftRedacted(t *testing.T) {
	p := model.CreditCard(model.CardDetails{CardNumber: "4111 1111 1111 1111", CardName: "A", Expiry: "12/30", CVV: "123"})
	d := &Draft{ID: "d1", Payment: &p}

	r := d.Redacted()
	assert.Equal(t, "************1111", r.Payment.Card.CardNumber)
	assert.Empty(t, r.Payment.Card.CVV)
	assert.Equal(t, "123", d.Payment.Card.CVV, "original untouched")

	cash := model.Cash()
	d.Payment = &cash
	assert.Equal(t, model.PaymentCash, d.Redacted().Payment.Method)
}
