package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// fakeRow feeds column values to Scan in submissionColumns order.
type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(r))
	}
	for i, v := range r {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int64:
			*d = v.(int64)
		case *int:
			*d = v.(int)
		case *[]byte:
			if v != nil {
				*d = v.([]byte)
			}
		case *time.Time:
			*d = v.(time.Time)
		case sql.Scanner:
			if err := d.Scan(v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

func TestScanSubmission_DetailPayload(t *testing.T) {
	detail := model.BookingDetail{
		BookingID: 100, RoomID: 4,
		CheckinDate: model.NewDate(2025, 8, 1), CheckoutDate: model.NewDate(2025, 8, 3),
		SpecialRequests: "High floor",
	}
	payload, err := json.Marshal(detail)
	require.NoError(t, err)
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

	s, err := scanSubmission(fakeRow{"sub-1", "d-1", int64(7), int64(100), "DETAIL_FAILED", payload, 2, "boom", now, now})
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionDetailFailed, s.State)
	assert.Equal(t, int64(100), s.BookingID)
	assert.Equal(t, 2, s.Attempts)
	assert.Equal(t, "boom", s.LastError)
	require.NotNil(t, s.Detail)
	assert.Equal(t, detail.CheckinDate, s.Detail.CheckinDate)
	assert.Equal(t, "High floor", s.Detail.SpecialRequests)
}

func TestScanSubmission_NullColumns(t *testing.T) {
	now := time.Now().UTC()
	s, err := scanSubmission(fakeRow{"sub-2", "d-2", int64(7), nil, "STARTED", nil, 0, nil, now, now})
	require.NoError(t, err)
	assert.Zero(t, s.BookingID)
	assert.Empty(t, s.LastError)
	assert.Nil(t, s.Detail)
}

func TestScanSubmission_BadPayload(t *testing.T) {
	now := time.Now().UTC()
	_, err := scanSubmission(fakeRow{"sub-3", "d-3", int64(7), int64(1), "DETAIL_FAILED", []byte("{"), 0, nil, now, now})
	assert.ErrorContains(t, err, "sub-3")
}

func TestNullHelpers(t *testing.T) {
	assert.False(t, nullInt(0).Valid)
	assert.Equal(t, sql.NullInt64{Int64: 5, Valid: true}, nullInt(5))
	assert.False(t, nullString("").Valid)
	assert.Nil(t, nullBytes(nil))
	assert.Equal(t, []byte("{}"), nullBytes([]byte("{}")))
}
