// Package service owns ledger policy: validation, even splitting, and the
// balance computation that nets expenses against settlements.
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"splitledger/internal/expense/models"
	"splitledger/internal/expense/store"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
	"splitledger/pkg/platform/sentinel"
)

const (
	// DefaultPageSize applies when the caller omits pageSize.
	DefaultPageSize = 20
	maxPageSize     = 100
)

// Service implements the expense ledger on top of a Store.
type Service struct {
	store store.Store
	clock func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddExpense records a shared cost paid by the given user.
func (s *Service) AddExpense(ctx context.Context, e models.Expense) (*models.Expense, error) {
	if err := (&e).Validate(); err != nil {
		return nil, err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.SpentAt.IsZero() {
		e.SpentAt = s.clock().UTC()
	}
	if err := s.store.AddExpense(ctx, &e); err != nil {
		return nil, ledgerErr(err)
	}
	return &e, nil
}

// UpdateExpense replaces a recorded expense. The ID must reference an
// existing row.
func (s *Service) UpdateExpense(ctx context.Context, e models.Expense) (*models.Expense, error) {
	if e.ID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "expense id is required")
	}
	if err := (&e).Validate(); err != nil {
		return nil, err
	}
	if e.SpentAt.IsZero() {
		e.SpentAt = s.clock().UTC()
	}
	if err := s.store.UpdateExpense(ctx, &e); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "expense not found")
		}
		return nil, ledgerErr(err)
	}
	return &e, nil
}

// DeleteExpense removes an expense from the ledger.
func (s *Service) DeleteExpense(ctx context.Context, expenseID uuid.UUID) error {
	if expenseID == uuid.Nil {
		return dErrors.New(dErrors.CodeValidation, "expense id is required")
	}
	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "expense not found")
		}
		return ledgerErr(err)
	}
	return nil
}

// ListExpenses returns a newest-first page.
func (s *Service) ListExpenses(ctx context.Context, page, pageSize int) ([]models.Expense, error) {
	limit, offset, err := pageBounds(page, pageSize)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListExpenses(ctx, limit, offset)
	if err != nil {
		return nil, ledgerErr(err)
	}
	if out == nil {
		out = []models.Expense{}
	}
	return out, nil
}

// AddSettlement records a direct transfer between two users.
func (s *Service) AddSettlement(ctx context.Context, st models.Settlement) (*models.Settlement, error) {
	if err := (&st).Validate(); err != nil {
		return nil, err
	}
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	if st.SettledAt.IsZero() {
		st.SettledAt = s.clock().UTC()
	}
	if err := s.store.AddSettlement(ctx, &st); err != nil {
		return nil, ledgerErr(err)
	}
	return &st, nil
}

// ListSettlements returns a newest-first page.
func (s *Service) ListSettlements(ctx context.Context, page, pageSize int) ([]models.Settlement, error) {
	limit, offset, err := pageBounds(page, pageSize)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListSettlements(ctx, limit, offset)
	if err != nil {
		return nil, ledgerErr(err)
	}
	if out == nil {
		out = []models.Settlement{}
	}
	return out, nil
}

// Balance nets the full ledger. Every expense is split evenly across the
// users who appear anywhere in it; a positive NetCents means the household
// owes that user. The remainder of an uneven division stays with the payer.
func (s *Service) Balance(ctx context.Context) ([]models.UserBalance, error) {
	paid, err := s.store.PaidTotals(ctx)
	if err != nil {
		return nil, ledgerErr(err)
	}
	sent, received, err := s.store.SettledTotals(ctx)
	if err != nil {
		return nil, ledgerErr(err)
	}

	users := make(map[id.UserID]struct{})
	var total int64
	for u, cents := range paid {
		users[u] = struct{}{}
		total += cents
	}
	for u := range sent {
		users[u] = struct{}{}
	}
	for u := range received {
		users[u] = struct{}{}
	}
	if len(users) == 0 {
		return []models.UserBalance{}, nil
	}

	share := total / int64(len(users))
	remainder := total - share*int64(len(users))

	out := make([]models.UserBalance, 0, len(users))
	for u := range users {
		b := models.UserBalance{
			UserID:        u,
			PaidCents:     paid[u],
			ShareCents:    share,
			SettledCents:  sent[u],
			ReceivedCents: received[u],
		}
		b.NetCents = b.PaidCents - b.ShareCents + b.SettledCents - b.ReceivedCents
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID.String() < out[j].UserID.String()
	})

	// Pin the rounding remainder on the largest payer so the books sum to
	// zero.
	if remainder != 0 {
		maxIdx := 0
		for i := range out {
			if out[i].PaidCents > out[maxIdx].PaidCents {
				maxIdx = i
			}
		}
		out[maxIdx].NetCents -= remainder
	}
	return out, nil
}

func pageBounds(page, pageSize int) (limit, offset int, err error) {
	if page < 1 {
		return 0, 0, dErrors.New(dErrors.CodeValidation, "page must be at least 1")
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return 0, 0, dErrors.Newf(dErrors.CodeValidation, "pageSize must be between 1 and %d", maxPageSize)
	}
	return pageSize, (page - 1) * pageSize, nil
}

func ledgerErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "ledger store timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger store unavailable")
}
