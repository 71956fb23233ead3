package attempt

import (
	"context"
	"sync"
	"time"

	"splitledger/internal/audit/models"
	id "splitledger/pkg/domain"
)

// InMemoryStore keeps attempts per user in append order. Used in tests and
// for single-node dev runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	byUser map[id.UserID][]models.LoginAttempt
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byUser: make(map[id.UserID][]models.LoginAttempt)}
}

func (s *InMemoryStore) Append(_ context.Context, attempt *models.LoginAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[attempt.UserID] = append(s.byUser[attempt.UserID], *attempt)
	return nil
}

// ListByUser walks the append-ordered slice backwards so newest records come
// first without sorting.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, filter models.Filter, limit, offset int) ([]models.LoginAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byUser[userID]
	out := make([]models.LoginAttempt, 0, limit)
	skipped := 0
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if !filter.Matches(all[i].Success) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, all[i])
	}
	return out, nil
}

func (s *InMemoryStore) SessionIDsSince(_ context.Context, userID id.UserID, since time.Time) ([]id.SessionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[id.SessionID]struct{})
	var out []id.SessionID
	for _, a := range s.byUser[userID] {
		if !a.Success || a.SessionID.IsNil() || a.Timestamp.Before(since) {
			continue
		}
		if _, ok := seen[a.SessionID]; ok {
			continue
		}
		seen[a.SessionID] = struct{}{}
		out = append(out, a.SessionID)
	}
	return out, nil
}

func (s *InMemoryStore) CountByUser(_ context.Context, userID id.UserID) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats models.Stats
	for _, a := range s.byUser[userID] {
		stats.TotalLogins++
		if a.Success {
			stats.SuccessfulLogins++
		} else {
			stats.FailedLogins++
		}
	}
	return stats, nil
}
