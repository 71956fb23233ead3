package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"splitledger/internal/expense/models"
	"splitledger/internal/expense/service"
	"splitledger/internal/expense/store"
	"splitledger/internal/platform/middleware"
	id "splitledger/pkg/domain"
	"splitledger/pkg/testutil"
)

const goodToken = "good-token"

type staticVerifier struct {
	claims middleware.TokenClaims
}

func (v *staticVerifier) Verify(tokenString string) (*middleware.TokenClaims, error) {
	if tokenString != goodToken {
		return nil, errors.New("invalid token")
	}
	c := v.claims
	return &c, nil
}

func newLedgerRouter(t *testing.T) (chi.Router, id.UserID) {
	t.Helper()

	userID := id.NewUserID()
	verifier := &staticVerifier{claims: middleware.TokenClaims{
		UserID:    userID.String(),
		SessionID: uuid.NewString(),
		Role:      "user",
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(service.New(store.NewInMemoryStore()), verifier, nil, logger)

	router := chi.NewRouter()
	h.Register(router)
	return router, userID
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+goodToken)
	return req
}

func TestLedgerRoutesRequireAuth(t *testing.T) {
	router, _ := newLedgerRouter(t)

	rec := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/expenses", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddAndListExpenses(t *testing.T) {
	router, userID := newLedgerRouter(t)

	rec := testutil.DoRequest(router, authed(testutil.NewJSONRequest(t, http.MethodPost, "/expenses", map[string]any{
		"description": "groceries",
		"amountCents": 4200,
		"category":    "food",
	})))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Expense
	testutil.DecodeData(t, rec.Body, &created)
	require.Equal(t, userID, created.PaidBy)
	require.Equal(t, int64(4200), created.AmountCents)
	require.NotZero(t, created.ID)

	listRec := testutil.DoRequest(router, authed(testutil.NewJSONRequest(t, http.MethodGet, "/expenses", nil)))
	require.Equal(t, http.StatusOK, listRec.Code)

	var expenses []models.Expense
	testutil.DecodeData(t, listRec.Body, &expenses)
	require.Len(t, expenses, 1)
	require.Equal(t, "groceries", expenses[0].Description)
}

func TestUpdateAndDeleteExpense(t *testing.T) {
	router, _ := newLedgerRouter(t)

	rec := testutil.DoRequest(router, authed(testutil.NewJSONRequest(t, http.MethodPost, "/expenses", map[string]any{
		"description": "utilities",
		"amountCents": 9000,
	})))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Expense
	testutil.DecodeData(t, rec.Body, &created)

	rec = testutil.DoRequest(router, authed(testutil.NewJSONRequest(t, http.MethodPut, "/expenses/"+created.ID.String(), map[string]any{
		"description": "utilities (corrected)",
		"amountCents": 9450,
	})))
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Expense
	testutil.DecodeData(t, rec.Body, &updated)
	require.Equal(t, int64(9450), updated.AmountCents)

	rec = testutil.DoRequest(router, authed(testutil.NewJSONRequest(t, http.MethodDelete, "/expenses/"+created.ID.String(), nil)))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = testutil.DoRequest(router, authed(testutil.NewJSONRequest(t, http.MethodDelete, "/expenses/"+created.ID.String(), nil)))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", testutil.DecodeError(t, rec.Body))

	rec = testutil.DoRequest(router, authed(testutil.NewJSONRequest(t, http.MethodPut, "/expenses/not-a-uuid", map[string]any{
		"description": "x",
		"amountCents": 1,
	})))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddExpenseValidation(t *testing.T) {
	router, _ := newLedgerRouter(t)

	rec := testutil.DoRequest(router, authed(testutil.NewJSONRequest(t, http.MethodPost, "/expenses", map[string]any{
		"description": "groceries",
	})))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation", testutil.DecodeError(t, rec.Body))
}

func TestSettlementAndBalance(t *testing.T) {
	router, userID := newLedgerRouter(t)
	other := id.NewUserID()

	rec := testutil.DoRequest(router, authed(testutil.NewJSONRequest(t, http.MethodPost, "/expenses", map[string]any{
		"description": "rent",
		"amountCents": 10000,
	})))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = testutil.DoRequest(router, authed(testutil.NewJSONRequest(t, http.MethodPost, "/settlements", map[string]any{
		"toUser":      other.String(),
		"amountCents": 2000,
	})))
	require.Equal(t, http.StatusCreated, rec.Code)

	balanceRec := testutil.DoRequest(router, authed(testutil.NewJSONRequest(t, http.MethodGet, "/balance", nil)))
	require.Equal(t, http.StatusOK, balanceRec.Code)

	var balances []models.UserBalance
	testutil.DecodeData(t, balanceRec.Body, &balances)
	require.Len(t, balances, 2)

	var sum int64
	for _, b := range balances {
		sum += b.NetCents
		if b.UserID == userID {
			require.Equal(t, int64(10000), b.PaidCents)
			require.Equal(t, int64(2000), b.SettledCents)
		}
	}
	require.Zero(t, sum)
}

func TestSettleWithSelfRejected(t *testing.T) {
	router, userID := newLedgerRouter(t)

	rec := testutil.DoRequest(router, authed(testutil.NewJSONRequest(t, http.MethodPost, "/settlements", map[string]any{
		"toUser":      userID.String(),
		"amountCents": 2000,
	})))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
