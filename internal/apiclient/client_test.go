package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(model.Room{RoomID: 7, Status: model.RoomAvailable})
	})

	room, err := c.GetRoom(WithToken(context.Background(), "tok-123"), 7)

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, int64(7), room.RoomID)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.ListRooms(context.Background())

	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_UnwrapsDataEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"roomTypeId":1,"name":"Deluxe","pricePerNight":120,"capacity":2}]}`))
	})

	types, err := c.ListRoomTypes(context.Background())

	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Deluxe", types[0].Name)
}

func TestClient_UnauthorizedRunsHookAndReturnsSessionExpired(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	called := 0
	c.OnUnauthorized = func(ctx context.Context) { called++ }

	_, err := c.GetCustomer(context.Background(), 1)

	assert.True(t, errors.Is(err, ErrSessionExpired))
	assert.Equal(t, KindSessionExpired, KindOf(err))
	assert.Equal(t, 1, called)
}

func TestClient_StatusTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrValidation},
		{http.StatusConflict, ErrValidation},
		{http.StatusUnprocessableEntity, ErrValidation},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusBadGateway, ErrServer},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := c.GetBooking(context.Background(), 1)
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).GetRoom(context.Background(), 1)

	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, "Cannot reach the server. Check your connection and try again.", Message(err))
}

func TestCheckAvailability_NotFoundMeansAvailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	ok, err := c.CheckAvailability(context.Background(), 3, model.NewDate(2025, 5, 1), model.NewDate(2025, 5, 3))

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckAvailability_SendsDates(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/rooms/3/availability", r.URL.Path)
		_, _ = w.Write([]byte(`{"roomId":3,"available":false}`))
	})

	ok, err := c.CheckAvailability(context.Background(), 3, model.NewDate(2025, 5, 1), model.NewDate(2025, 5, 3))

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, gotQuery, "checkInDate=2025-05-01")
	assert.Contains(t, gotQuery, "checkOutDate=2025-05-03")
}

func TestCheckAvailability_OtherErrorsPropagate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.CheckAvailability(context.Background(), 3, model.NewDate(2025, 5, 1), model.NewDate(2025, 5, 3))

	assert.ErrorIs(t, err, ErrServer)
}

func TestMessage_ValidationUsesBackendDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"email already registered"}`))
	})

	_, err := c.Register(context.Background(), model.Registration{Email: "a@b.co"})

	assert.Equal(t, "email already registered", Message(err))
}

func TestMessage_NonBackendError(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Something went wrong. Please try again.", Message(errors.New("boom")))
}

func TestUpdateBooking_SendsPatch(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"bookingId":9,"paymentStatus":true,"paymentId":4}`))
	})
	pid := int64(4)
	paid := true

	b, err := c.UpdateBooking(context.Background(), 9, model.BookingPatch{PaymentID: &pid, PaymentStatus: &paid})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"paymentId": float64(4), "paymentStatus": true}, got)
	require.NotNil(t, b.PaymentID)
	assert.Equal(t, int64(4), *b.PaymentID)
}
