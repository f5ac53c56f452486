package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// SessionRepo persists browser sessions.  Only the SHA-256 hash of the
// token handed to the browser is stored.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id, token_hash, principal_id, display_name, role, backend_token, expires_at) VALUES (?,?,?,?,?,?,?)",
		s.ID, tokenHash, s.PrincipalID, s.DisplayName, string(s.Role), s.AuthToken, s.ExpiresAt.UTC())
	return err
}

// Get returns a live session and the hash of its browser token.  Revoked
// and expired sessions are reported as ErrNotFound.
func (r *SessionRepo) Get(ctx context.Context, id string) (*model.Session, string, error) {
	var (
		s         model.Session
		role      string
		tokenHash string
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, token_hash, principal_id, display_name, role, backend_token, expires_at, revoked_at FROM sessions WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &tokenHash, &s.PrincipalID, &s.DisplayName, &role, &s.AuthToken, &s.ExpiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	if revokedAt.Valid || time.Now().UTC().After(s.ExpiresAt) {
		return nil, "", ErrNotFound
	}
	s.Role = model.Role(role)
	return &s, tokenHash, nil
}

// Revoke marks one session as revoked.  Revoking twice is not an error.
func (r *SessionRepo) Revoke(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE id=? AND revoked_at IS NULL", id)
	return err
}

// RevokeAllForPrincipal logs a principal out everywhere.
func (r *SessionRepo) RevokeAllForPrincipal(ctx context.Context, principalID int64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE principal_id=? AND revoked_at IS NULL", principalID)
	return err
}

// PurgeExpired deletes sessions that ended before cutoff.
func (r *SessionRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)",
		cutoff.UTC(), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
