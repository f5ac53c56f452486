package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNoDraft means the session has no checkout in progress.
	ErrNoDraft = errors.New("no booking in progress")
	// ErrSubmitInProgress means the draft is already being submitted.
	ErrSubmitInProgress = errors.New("this booking is already being submitted")
)

// DraftStore is the single persistence boundary of drafts.  A session owns
// at most one draft; Save replaces it.
type DraftStore interface {
	Load(ctx context.Context, sessionID string) (*Draft, error)
	Save(ctx context.Context, d *Draft) error
	Delete(ctx context.Context, sessionID string) error
	// Claim takes the session's submit lock.  Only one caller holds it at a
	// time; others get ErrSubmitInProgress until release is called or the
	// lock expires.
	Claim(ctx context.Context, sessionID string) (release func(), err error)
}

const (
	draftKeyPrefix = "hotel:draft:"
	lockKeyPrefix  = "hotel:draft:lock:"
	// claimTTL bounds how long a crashed submit can block its session.
	claimTTL = 5 * time.Minute
)

// unlock deletes the lock only while it still holds our token.
var unlock = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisDraftStore keeps drafts as JSON under one key per session.  Every
// save refreshes the TTL so only untouched drafts expire.
type RedisDraftStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDraftStore(rdb *redis.Client, ttl time.Duration) *RedisDraftStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisDraftStore{rdb: rdb, ttl: ttl}
}

func (s *RedisDraftStore) Load(ctx context.Context, sessionID string) (*Draft, error) {
	b, err := s.rdb.Get(ctx, draftKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

func (s *RedisDraftStore) Save(ctx context.Context, d *Draft) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.rdb.Set(ctx, draftKeyPrefix+d.SessionID, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, draftKeyPrefix+sessionID).Err()
}

func (s *RedisDraftStore) Claim(ctx context.Context, sessionID string) (func(), error) {
	key, token := lockKeyPrefix+sessionID, uuid.NewString()
	ok, err := s.rdb.SetNX(ctx, key, token, claimTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("claim draft: %w", err)
	}
	if !ok {
		return nil, ErrSubmitInProgress
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = unlock.Run(ctx, s.rdb, []string{key}, token).Err()
	}, nil
}

// MemoryDraftStore is used when Redis is unavailable and in tests.  It goes
// through the same JSON encoding as the Redis store so both behave alike.
type MemoryDraftStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memDraft
	locks map[string]time.Time
	now   func() time.Time
}

type memDraft struct {
	raw []byte
	exp time.Time
}

func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	return &MemoryDraftStore{ttl: ttl, items: map[string]memDraft{}, locks: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryDraftStore) Load(_ context.Context, sessionID string) (*Draft, error) {
	s.mu.Lock()
	it, ok := s.items[sessionID]
	if ok && s.ttl > 0 && s.now().After(it.exp) {
		delete(s.items, sessionID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoDraft
	}
	var d Draft
	if err := json.Unmarshal(it.raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

func (s *MemoryDraftStore) Save(_ context.Context, d *Draft) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	s.mu.Lock()
	s.items[d.SessionID] = memDraft{raw: b, exp: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.items, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryDraftStore) Claim(_ context.Context, sessionID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, held := s.locks[sessionID]; held && now.Before(exp) {
		return nil, ErrSubmitInProgress
	}
	exp := now.Add(claimTTL)
	s.locks[sessionID] = exp
	return func() {
		s.mu.Lock()
		if s.locks[sessionID].Equal(exp) {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}, nil
}
