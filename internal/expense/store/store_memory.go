package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"splitledger/internal/expense/models"
	id "splitledger/pkg/domain"
	"splitledger/pkg/platform/sentinel"
)

// InMemoryStore keeps the ledger in process memory, newest entries last.
type InMemoryStore struct {
	mu          sync.RWMutex
	expenses    []models.Expense
	settlements []models.Settlement
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) AddExpense(_ context.Context, e *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, *e)
	return nil
}

func (s *InMemoryStore) UpdateExpense(_ context.Context, e *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].ID == e.ID {
			s.expenses[i] = *e
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) DeleteExpense(_ context.Context, expenseID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].ID == expenseID {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) ListExpenses(_ context.Context, limit, offset int) ([]models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pageNewestFirst(s.expenses, limit, offset), nil
}

func (s *InMemoryStore) AddSettlement(_ context.Context, st *models.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settlements = append(s.settlements, *st)
	return nil
}

func (s *InMemoryStore) ListSettlements(_ context.Context, limit, offset int) ([]models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pageNewestFirst(s.settlements, limit, offset), nil
}

func (s *InMemoryStore) PaidTotals(_ context.Context) (map[id.UserID]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paid := make(map[id.UserID]int64)
	for _, e := range s.expenses {
		paid[e.PaidBy] += e.AmountCents
	}
	return paid, nil
}

func (s *InMemoryStore) SettledTotals(_ context.Context) (map[id.UserID]int64, map[id.UserID]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sent := make(map[id.UserID]int64)
	received := make(map[id.UserID]int64)
	for _, st := range s.settlements {
		sent[st.FromUser] += st.AmountCents
		received[st.ToUser] += st.AmountCents
	}
	return sent, received, nil
}

func pageNewestFirst[T any](all []T, limit, offset int) []T {
	out := make([]T, 0, limit)
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out
}
