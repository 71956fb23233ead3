package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"splitledger/internal/expense/models"
	"splitledger/internal/expense/store"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
)

func newService() (*Service, id.UserID, id.UserID) {
	svc := New(store.NewInMemoryStore(), WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}))
	return svc, id.NewUserID(), id.NewUserID()
}

func addExpense(t *testing.T, svc *Service, payer id.UserID, cents int64) {
	t.Helper()
	_, err := svc.AddExpense(context.Background(), models.Expense{
		PaidBy:      payer,
		Description: "groceries",
		AmountCents: cents,
	})
	require.NoError(t, err)
}

func TestAddExpenseValidation(t *testing.T) {
	svc, alice, _ := newService()
	ctx := context.Background()

	_, err := svc.AddExpense(ctx, models.Expense{PaidBy: alice, Description: "x", AmountCents: 0})
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.AddExpense(ctx, models.Expense{PaidBy: alice, AmountCents: 100})
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.AddExpense(ctx, models.Expense{Description: "x", AmountCents: 100})
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestAddExpenseFillsDefaults(t *testing.T) {
	svc, alice, _ := newService()

	e, err := svc.AddExpense(context.Background(), models.Expense{
		PaidBy: alice, Description: "rent", AmountCents: 120000,
	})
	require.NoError(t, err)
	require.NotZero(t, e.ID)
	require.False(t, e.SpentAt.IsZero())
}

func TestUpdateExpense(t *testing.T) {
	svc, alice, _ := newService()
	ctx := context.Background()

	e, err := svc.AddExpense(ctx, models.Expense{
		PaidBy: alice, Description: "groceries", AmountCents: 4000,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateExpense(ctx, models.Expense{
		ID: e.ID, PaidBy: alice, Description: "groceries + wine", AmountCents: 5500,
	})
	require.NoError(t, err)
	require.Equal(t, int64(5500), updated.AmountCents)

	list, err := svc.ListExpenses(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "groceries + wine", list[0].Description)
}

func TestUpdateExpenseUnknownID(t *testing.T) {
	svc, alice, _ := newService()

	_, err := svc.UpdateExpense(context.Background(), models.Expense{
		ID: uuid.New(), PaidBy: alice, Description: "ghost", AmountCents: 100,
	})
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = svc.UpdateExpense(context.Background(), models.Expense{
		PaidBy: alice, Description: "no id", AmountCents: 100,
	})
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestDeleteExpense(t *testing.T) {
	svc, alice, _ := newService()
	ctx := context.Background()

	e, err := svc.AddExpense(ctx, models.Expense{
		PaidBy: alice, Description: "refunded", AmountCents: 900,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteExpense(ctx, e.ID))

	list, err := svc.ListExpenses(ctx, 1, 10)
	require.NoError(t, err)
	require.Empty(t, list)

	err = svc.DeleteExpense(ctx, e.ID)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSettlementValidation(t *testing.T) {
	svc, alice, _ := newService()

	_, err := svc.AddSettlement(context.Background(), models.Settlement{
		FromUser: alice, ToUser: alice, AmountCents: 100,
	})
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestBalanceEvenSplit(t *testing.T) {
	svc, alice, bob := newService()
	ctx := context.Background()

	addExpense(t, svc, alice, 10000)
	addExpense(t, svc, bob, 4000)

	balances, err := svc.Balance(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 2)

	byUser := map[id.UserID]models.UserBalance{}
	for _, b := range balances {
		byUser[b.UserID] = b
	}
	// Total 14000, share 7000 each: alice is owed 3000, bob owes 3000.
	require.Equal(t, int64(3000), byUser[alice].NetCents)
	require.Equal(t, int64(-3000), byUser[bob].NetCents)
}

func TestBalanceSettlementsNetOut(t *testing.T) {
	svc, alice, bob := newService()
	ctx := context.Background()

	addExpense(t, svc, alice, 10000)
	_, err := svc.AddSettlement(ctx, models.Settlement{
		FromUser: bob, ToUser: alice, AmountCents: 5000,
	})
	require.NoError(t, err)

	balances, err := svc.Balance(ctx)
	require.NoError(t, err)
	for _, b := range balances {
		require.Zero(t, b.NetCents)
	}
}

func TestBalanceSumsToZero(t *testing.T) {
	svc, alice, bob := newService()

	// Odd total forces a rounding remainder.
	addExpense(t, svc, alice, 101)
	addExpense(t, svc, bob, 50)

	balances, err := svc.Balance(context.Background())
	require.NoError(t, err)

	var sum int64
	for _, b := range balances {
		sum += b.NetCents
	}
	require.Zero(t, sum)
}

func TestBalanceEmptyLedger(t *testing.T) {
	svc, _, _ := newService()

	balances, err := svc.Balance(context.Background())
	require.NoError(t, err)
	require.Empty(t, balances)
}

func TestListExpensesPagination(t *testing.T) {
	svc, alice, _ := newService()
	for i := 0; i < 5; i++ {
		addExpense(t, svc, alice, int64(100*(i+1)))
	}

	page1, err := svc.ListExpenses(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page3, err := svc.ListExpenses(context.Background(), 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)

	_, err = svc.ListExpenses(context.Background(), 0, 2)
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
