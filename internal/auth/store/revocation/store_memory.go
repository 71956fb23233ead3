package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps revocation flags in process memory. Suitable for tests
// and single-node dev runs; flags do not survive a restart, which is safe
// only because restarts also rotate nothing else here.
type InMemoryStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // sessionID -> flag expiry
	clock   Clock
}

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithClock sets the time source for flag expiry checks.
func WithClock(clock Clock) InMemoryOption {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemoryStore(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		revoked: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	if sessionID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[sessionID] = s.clock().Add(ttl)
	return nil
}

func (s *InMemoryStore) RevokeAll(_ context.Context, sessionIDs []string, ttl time.Duration) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry := s.clock().Add(ttl)
	for _, sid := range sessionIDs {
		if sid != "" {
			s.revoked[sid] = expiry
		}
	}
	return nil
}

func (s *InMemoryStore) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	s.mu.RLock()
	expiry, ok := s.revoked[sessionID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if s.clock().After(expiry) {
		s.mu.Lock()
		delete(s.revoked, sessionID)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}
