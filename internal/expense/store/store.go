// Package store persists expenses and settlements. Settlements are
// append-only; expenses can be corrected or removed after the fact.
package store

import (
	"context"

	"github.com/google/uuid"

	"splitledger/internal/expense/models"
	id "splitledger/pkg/domain"
)

// Store is the ledger-store contract. Lookups by unknown expense ID return
// sentinel.ErrNotFound.
type Store interface {
	AddExpense(ctx context.Context, e *models.Expense) error
	UpdateExpense(ctx context.Context, e *models.Expense) error
	DeleteExpense(ctx context.Context, expenseID uuid.UUID) error
	ListExpenses(ctx context.Context, limit, offset int) ([]models.Expense, error)

	AddSettlement(ctx context.Context, s *models.Settlement) error
	ListSettlements(ctx context.Context, limit, offset int) ([]models.Settlement, error)

	// PaidTotals returns total cents paid per user across all expenses.
	PaidTotals(ctx context.Context) (map[id.UserID]int64, error)

	// SettledTotals returns cents sent and received per user across all
	// settlements.
	SettledTotals(ctx context.Context) (sent, received map[id.UserID]int64, err error)
}
