// Package session owns the authenticated principal of each browser: it
// logs users in against the backend, persists the resulting session,
// issues the browser's session JWT, and tears sessions down on logout or
// when the backend rejects the session's token.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/apiclient"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/repository"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/utils"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSession          = errors.New("not logged in")
	ErrUnknownRole        = errors.New("backend returned an unknown role")
)

// Store persists sessions.  repository.SessionRepo is the MySQL
// implementation.
type Store interface {
	Create(ctx context.Context, s *model.Session, tokenHash string) error
	Get(ctx context.Context, id string) (*model.Session, string, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForPrincipal(ctx context.Context, principalID int64) error
}

// Authenticator is the part of the backend API that issues tokens.
type Authenticator interface {
	Login(ctx context.Context, cred model.Credentials) (*model.AuthResult, error)
	Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error)
}

// Issued is a freshly created session with the token for the browser.
type Issued struct {
	Session *model.Session
	Token   utils.SessionToken
}

// Manager creates, resolves and destroys sessions.
type Manager struct {
	auth   Authenticator
	store  Store
	secret string
	ttl    time.Duration
	log    *logrus.Logger
}

func NewManager(auth Authenticator, store Store, secret string, ttl time.Duration, log *logrus.Logger) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{auth: auth, store: store, secret: secret, ttl: ttl, log: log}
}

// Login validates the form, authenticates with the backend and opens a
// session.
func (m *Manager) Login(ctx context.Context, cred model.Credentials) (*Issued, error) {
	cred.Email = strings.ToLower(strings.TrimSpace(cred.Email))
	if err := validation.Login(cred).Err(); err != nil {
		return nil, err
	}
	res, err := m.auth.Login(ctx, cred)
	if err != nil {
		// The backend answers bad credentials with 401 or 400.
		if errors.Is(err, apiclient.ErrSessionExpired) || errors.Is(err, apiclient.ErrValidation) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return m.open(ctx, res)
}

// Register validates the sign-up form, creates the account on the backend
// and opens a session for it.
func (m *Manager) Register(ctx context.Context, reg model.Registration) (*Issued, error) {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.FullName = strings.TrimSpace(reg.FullName)
	if err := validation.Registration(reg).Err(); err != nil {
		return nil, err
	}
	res, err := m.auth.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	if res.User.Role == "" {
		res.User.Role = model.RoleCustomer
	}
	return m.open(ctx, res)
}

func (m *Manager) open(ctx context.Context, res *model.AuthResult) (*Issued, error) {
	role := model.Role(strings.ToLower(string(res.User.Role)))
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, res.User.Role)
	}
	s := &model.Session{
		ID:          uuid.NewString(),
		PrincipalID: res.User.ID,
		DisplayName: res.User.FullName,
		Role:        role,
		AuthToken:   res.Token,
		ExpiresAt:   time.Now().UTC().Add(m.ttl),
	}
	tok, err := utils.NewSessionToken(m.secret, s.ID, s.PrincipalID, string(s.Role), m.ttl)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	s.ExpiresAt = tok.Exp
	if err := m.store.Create(ctx, s, utils.HashToken(tok.Token)); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	m.log.WithFields(logrus.Fields{"session": s.ID, "principal": s.PrincipalID, "role": s.Role}).Info("session opened")
	return &Issued{Session: s, Token: tok}, nil
}

// Resolve turns a browser token back into its live session.
func (m *Manager) Resolve(ctx context.Context, rawToken string) (*model.Session, error) {
	claims, err := utils.ParseSessionToken(m.secret, rawToken)
	if err != nil {
		return nil, ErrNoSession
	}
	s, hash, err := m.store.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if hash != utils.HashToken(rawToken) {
		return nil, ErrNoSession
	}
	return s, nil
}

// Logout revokes one session.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	if err := m.store.Revoke(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	m.log.WithField("session", sessionID).Info("session closed")
	return nil
}

// LogoutEverywhere revokes every session of the principal.
func (m *Manager) LogoutEverywhere(ctx context.Context, principalID int64) error {
	return m.store.RevokeAllForPrincipal(ctx, principalID)
}

// ForceLogout revokes the session bound to ctx.  The API client calls it
// when the backend answers 401; a context without a session is ignored.
func (m *Manager) ForceLogout(ctx context.Context) {
	s := FromContext(ctx)
	if s == nil {
		return
	}
	// Use a detached context: the request context may already be cancelled.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := m.store.Revoke(rctx, s.ID); err != nil {
		m.log.WithError(err).WithField("session", s.ID).Warn("forced logout: revoke failed")
		return
	}
	m.log.WithFields(logrus.Fields{"session": s.ID, "principal": s.PrincipalID}).Warn("backend rejected token; session revoked")
}

type ctxKey struct{}

// WithSession binds s to ctx together with its backend bearer token.
func WithSession(ctx context.Context, s *model.Session) context.Context {
	ctx = context.WithValue(ctx, ctxKey{}, s)
	return apiclient.WithToken(ctx, s.AuthToken)
}

// FromContext returns the session bound to ctx, or nil.
func FromContext(ctx context.Context) *model.Session {
	s, _ := ctx.Value(ctxKey{}).(*model.Session)
	return s
}
