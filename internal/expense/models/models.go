package models

import (
	"time"

	"github.com/google/uuid"

	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
)

// Expense is a shared cost paid by one user and split evenly across the
// household. Amounts are integer cents; floats never touch money.
type Expense struct {
	ID          uuid.UUID `json:"id"`
	PaidBy      id.UserID `json:"paidBy"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amountCents"`
	Category    string    `json:"category,omitempty"`
	SpentAt     time.Time `json:"spentAt"`
}

// Validate checks the invariants a stored expense must hold.
func (e *Expense) Validate() error {
	if e.PaidBy.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "paidBy is required")
	}
	if e.Description == "" {
		return dErrors.New(dErrors.CodeValidation, "description is required")
	}
	if e.AmountCents <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amountCents must be positive")
	}
	return nil
}

// Settlement is a direct transfer that pays down one user's share.
type Settlement struct {
	ID          uuid.UUID `json:"id"`
	FromUser    id.UserID `json:"fromUser"`
	ToUser      id.UserID `json:"toUser"`
	AmountCents int64     `json:"amountCents"`
	SettledAt   time.Time `json:"settledAt"`
}

// Validate checks the invariants a stored settlement must hold.
func (s *Settlement) Validate() error {
	if s.FromUser.IsNil() || s.ToUser.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "fromUser and toUser are required")
	}
	if s.FromUser == s.ToUser {
		return dErrors.New(dErrors.CodeValidation, "cannot settle with yourself")
	}
	if s.AmountCents <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amountCents must be positive")
	}
	return nil
}

// UserBalance is one user's position: positive NetCents means the household
// owes them, negative means they owe.
type UserBalance struct {
	UserID        id.UserID `json:"userId"`
	PaidCents     int64     `json:"paidCents"`
	ShareCents    int64     `json:"shareCents"`
	SettledCents  int64     `json:"settledCents"`
	ReceivedCents int64     `json:"receivedCents"`
	NetCents      int64     `json:"netCents"`
}
