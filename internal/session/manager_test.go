package session

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/apiclient"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/repository"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/validation"
)

type memStore struct {
	mu   sync.Mutex
	rows map[string]memRow
}

type memRow struct {
	s    model.Session
	hash string
}

func newMemStore() *memStore { return &memStore{rows: map[string]memRow{}} }

func (m *memStore) Create(_ context.Context, s *model.Session, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = memRow{s: *s, hash: hash}
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*model.Session, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	s := r.s
	return &s, r.hash, nil
}

func (m *memStore) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memStore) RevokeAllForPrincipal(_ context.Context, pid int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rows {
		if r.s.PrincipalID == pid {
			delete(m.rows, id)
		}
	}
	return nil
}

type mockAuth struct {
	LoginFn    func(ctx context.Context, c model.Credentials) (*model.AuthResult, error)
	RegisterFn func(ctx context.Context, r model.Registration) (*model.AuthResult, error)
}

func (m *mockAuth) Login(ctx context.Context, c model.Credentials) (*model.AuthResult, error) {
	return m.LoginFn(ctx, c)
}

func (m *mockAuth) Register(ctx context.Context, r model.Registration) (*model.AuthResult, error) {
	return m.RegisterFn(ctx, r)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestManager(auth Authenticator, store Store) *Manager {
	return NewManager(auth, store, "test-secret", time.Hour, quietLogger())
}

func TestLogin_OpensResolvableSession(t *testing.T) {
	store := newMemStore()
	auth := &mockAuth{LoginFn: func(_ context.Context, c model.Credentials) (*model.AuthResult, error) {
		assert.Equal(t, "guest@hotel.vn", c.Email)
		return &model.AuthResult{Token: "backend-tok", User: model.Principal{ID: 7, FullName: "Guest", Role: "CUSTOMER"}}, nil
	}}
	m := newTestManager(auth, store)

	iss, err := m.Login(context.Background(), model.Credentials{Email: " Guest@Hotel.vn ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, iss.Session.Role)
	assert.Equal(t, "backend-tok", iss.Session.AuthToken)

	s, err := m.Resolve(context.Background(), iss.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.PrincipalID)
	assert.Equal(t, iss.Session.ID, s.ID)
}

func TestLogin_BadCredentials(t *testing.T) {
	auth := &mockAuth{LoginFn: func(context.Context, model.Credentials) (*model.AuthResult, error) {
		return nil, &apiclient.Error{Kind: apiclient.KindSessionExpired, Status: 401}
	}}
	m := newTestManager(auth, newMemStore())

	_, err := m.Login(context.Background(), model.Credentials{Email: "a@b.co", Password: "secret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_ValidatesBeforeCallingBackend(t *testing.T) {
	called := false
	auth := &mockAuth{LoginFn: func(context.Context, model.Credentials) (*model.AuthResult, error) {
		called = true
		return nil, nil
	}}
	m := newTestManager(auth, newMemStore())

	_, err := m.Login(context.Background(), model.Credentials{Email: "nope", Password: "secret"})
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)
	assert.False(t, called)
}

func TestLogin_UnknownRoleRejected(t *testing.T) {
	auth := &mockAuth{LoginFn: func(context.Context, model.Credentials) (*model.AuthResult, error) {
		return &model.AuthResult{Token: "x", User: model.Principal{ID: 1, Role: "root"}}, nil
	}}
	m := newTestManager(auth, newMemStore())

	_, err := m.Login(context.Background(), model.Credentials{Email: "a@b.co", Password: "secret"})
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRegister_DefaultsToCustomer(t *testing.T) {
	auth := &mockAuth{RegisterFn: func(_ context.Context, r model.Registration) (*model.AuthResult, error) {
		return &model.AuthResult{Token: "t", User: model.Principal{ID: 3, FullName: r.FullName}}, nil
	}}
	m := newTestManager(auth, newMemStore())

	iss, err := m.Register(context.Background(), model.Registration{
		FullName: " New Guest ", Email: "new@hotel.vn", Phone: "090-1234-56789", Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, iss.Session.Role)
	assert.Equal(t, "New Guest", iss.Session.DisplayName)
}

func TestResolve_RejectsRevokedAndForged(t *testing.T) {
	store := newMemStore()
	auth := &mockAuth{LoginFn: func(context.Context, model.Credentials) (*model.AuthResult, error) {
		return &model.AuthResult{Token: "t", User: model.Principal{ID: 9, Role: model.RoleManager}}, nil
	}}
	m := newTestManager(auth, store)
	iss, err := m.Login(context.Background(), model.Credentials{Email: "m@h.vn", Password: "secret"})
	require.NoError(t, err)

	_, err = m.Resolve(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrNoSession)

	other := NewManager(auth, store, "other-secret", time.Hour, quietLogger())
	_, err = other.Resolve(context.Background(), iss.Token.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, m.Logout(context.Background(), iss.Session.ID))
	_, err = m.Resolve(context.Background(), iss.Token.Token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestForceLogout(t *testing.T) {
	store := newMemStore()
	auth := &mockAuth{LoginFn: func(context.Context, model.Credentials) (*model.AuthResult, error) {
		return &model.AuthResult{Token: "t", User: model.Principal{ID: 5, Role: model.RoleCustomer}}, nil
	}}
	m := newTestManager(auth, store)
	iss, err := m.Login(context.Background(), model.Credentials{Email: "c@h.vn", Password: "secret"})
	require.NoError(t, err)

	// No session bound: nothing happens.
	m.ForceLogout(context.Background())
	_, err = m.Resolve(context.Background(), iss.Token.Token)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(WithSession(context.Background(), iss.Session))
	cancel()
	m.ForceLogout(ctx)
	m.ForceLogout(ctx)
	_, err = m.Resolve(context.Background(), iss.Token.Token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestWithSession_CarriesBackendToken(t *testing.T) {
	s := &model.Session{ID: "s", PrincipalID: 1, Role: model.RoleCustomer, AuthToken: "bearer"}
	ctx := WithSession(context.Background(), s)
	assert.Same(t, s, FromContext(ctx))
	assert.Equal(t, "bearer", apiclient.TokenFrom(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestLogoutEverywhere(t *testing.T) {
	store := newMemStore()
	auth := &mockAuth{LoginFn: func(context.Context, model.Credentials) (*model.AuthResult, error) {
		return &model.AuthResult{Token: "t", User: model.Principal{ID: 11, Role: model.RoleEmployee}}, nil
	}}
	m := newTestManager(auth, store)
	a, err := m.Login(context.Background(), model.Credentials{Email: "e@h.vn", Password: "secret"})
	require.NoError(t, err)
	b, err := m.Login(context.Background(), model.Credentials{Email: "e@h.vn", Password: "secret"})
	require.NoError(t, err)

	require.NoError(t, m.LogoutEverywhere(context.Background(), 11))
	_, err = m.Resolve(context.Background(), a.Token.Token)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = m.Resolve(context.Background(), b.Token.Token)
	assert.ErrorIs(t, err, ErrNoSession)
}
