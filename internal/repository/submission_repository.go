package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// SubmissionRepo is the MySQL journal of checkout submissions.
type SubmissionRepo struct{ DB *sql.DB }

func NewSubmissionRepo(db *sql.DB) *SubmissionRepo { return &SubmissionRepo{DB: db} }

const submissionColumns = "id, draft_id, customer_id, booking_id, state, detail_payload, attempts, last_error, created_at, updated_at"

// Start records a new submission in the STARTED state.
func (r *SubmissionRepo) Start(ctx context.Context, s *model.Submission) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO booking_submissions (id, draft_id, customer_id, state) VALUES (?,?,?,?)",
		s.ID, s.DraftID, s.CustomerID, string(model.SubmissionStarted))
	return err
}

// Update writes the mutable columns of a submission.
func (r *SubmissionRepo) Update(ctx context.Context, s *model.Submission) error {
	var payload []byte
	if s.Detail != nil {
		b, err := json.Marshal(s.Detail)
		if err != nil {
			return fmt.Errorf("encode detail: %w", err)
		}
		payload = b
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE booking_submissions SET booking_id=?, state=?, detail_payload=?, attempts=?, last_error=? WHERE id=?",
		nullInt(s.BookingID), string(s.State), nullBytes(payload), s.Attempts, nullString(s.LastError), s.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 when nothing changed; distinguish a missing row.
		if _, err := r.Get(ctx, s.ID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
	}
	return nil
}

// Claim moves a submission from one state to another only while it is
// still in from.  It reports whether this call made the move, so
// concurrent reconcilers agree on a single owner.
func (r *SubmissionRepo) Claim(ctx context.Context, id string, from, to model.SubmissionState) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE booking_submissions SET state=? WHERE id=? AND state=?",
		string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Get loads one submission.
func (r *SubmissionRepo) Get(ctx context.Context, id string) (*model.Submission, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+submissionColumns+" FROM booking_submissions WHERE id=? LIMIT 1", id)
	s, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// ListByState returns up to limit submissions in state, oldest update first.
func (r *SubmissionRepo) ListByState(ctx context.Context, state model.SubmissionState, limit int) ([]model.Submission, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+submissionColumns+" FROM booking_submissions WHERE state=? ORDER BY updated_at ASC LIMIT ?",
		string(state), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(sc rowScanner) (*model.Submission, error) {
	var (
		s         model.Submission
		state     string
		bookingID sql.NullInt64
		payload   []byte
		lastError sql.NullString
	)
	if err := sc.Scan(&s.ID, &s.DraftID, &s.CustomerID, &bookingID, &state, &payload, &s.Attempts, &lastError, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.State = model.SubmissionState(state)
	s.BookingID = bookingID.Int64
	s.LastError = lastError.String
	if len(payload) > 0 {
		var d model.BookingDetail
		if err := json.Unmarshal(payload, &d); err != nil {
			return nil, fmt.Errorf("decode detail of submission %s: %w", s.ID, err)
		}
		s.Detail = &d
	}
	return &s, nil
}

func nullInt(v int64) sql.NullInt64 { return sql.NullInt64{Int64: v, Valid: v != 0} }

func nullString(v string) sql.NullString { return sql.NullString{String: v, Valid: v != ""} }

func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}
