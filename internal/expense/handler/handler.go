// Package handler exposes the expense ledger endpoints. All routes require
// an authenticated session.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"splitledger/internal/expense/models"
	"splitledger/internal/expense/service"
	"splitledger/internal/platform/middleware"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
	"splitledger/pkg/platform/httputil"
)

// LedgerService defines the interface for ledger operations.
type LedgerService interface {
	AddExpense(ctx context.Context, e models.Expense) (*models.Expense, error)
	UpdateExpense(ctx context.Context, e models.Expense) (*models.Expense, error)
	DeleteExpense(ctx context.Context, expenseID uuid.UUID) error
	ListExpenses(ctx context.Context, page, pageSize int) ([]models.Expense, error)
	AddSettlement(ctx context.Context, s models.Settlement) (*models.Settlement, error)
	ListSettlements(ctx context.Context, page, pageSize int) ([]models.Settlement, error)
	Balance(ctx context.Context) ([]models.UserBalance, error)
}

// Handler handles the ledger endpoints.
type Handler struct {
	logger      *slog.Logger
	ledger      LedgerService
	verifier    middleware.TokenVerifier
	revocations middleware.RevocationChecker
}

// New creates a new ledger Handler.
func New(ledger LedgerService, verifier middleware.TokenVerifier, revocations middleware.RevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		logger:      logger,
		ledger:      ledger,
		verifier:    verifier,
		revocations: revocations,
	}
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	ledgerRouter := chi.NewRouter()
	ledgerRouter.Use(middleware.Recovery(h.logger))
	ledgerRouter.Use(middleware.RequestID)
	ledgerRouter.Use(middleware.Logger(h.logger))
	ledgerRouter.Use(middleware.Timeout(15 * time.Second))
	ledgerRouter.Use(middleware.ContentTypeJSON)
	ledgerRouter.Use(middleware.RequireAuth(h.verifier, h.revocations, h.logger))

	ledgerRouter.Post("/expenses", h.handleAddExpense)
	ledgerRouter.Get("/expenses", h.handleListExpenses)
	ledgerRouter.Put("/expenses/{expenseID}", h.handleUpdateExpense)
	ledgerRouter.Delete("/expenses/{expenseID}", h.handleDeleteExpense)
	ledgerRouter.Post("/settlements", h.handleAddSettlement)
	ledgerRouter.Get("/settlements", h.handleListSettlements)
	ledgerRouter.Get("/balance", h.handleBalance)

	r.Mount("/", ledgerRouter)
}

type addExpenseRequest struct {
	Description string    `json:"description" valid:"required"`
	AmountCents int64     `json:"amountCents" valid:"required"`
	Category    string    `json:"category" valid:"-"`
	SpentAt     time.Time `json:"spentAt"`
}

func (h *Handler) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req addExpenseRequest
	if err := decodeValid(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	expense, err := h.ledger.AddExpense(ctx, models.Expense{
		PaidBy:      userID,
		Description: req.Description,
		AmountCents: req.AmountCents,
		Category:    req.Category,
		SpentAt:     req.SpentAt,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, expense)
}

func (h *Handler) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	expenseID, err := uuid.Parse(chi.URLParam(r, "expenseID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "expense id must be a uuid"))
		return
	}

	var req addExpenseRequest
	if err := decodeValid(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	expense, err := h.ledger.UpdateExpense(ctx, models.Expense{
		ID:          expenseID,
		PaidBy:      userID,
		Description: req.Description,
		AmountCents: req.AmountCents,
		Category:    req.Category,
		SpentAt:     req.SpentAt,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, expense)
}

func (h *Handler) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuid.Parse(chi.URLParam(r, "expenseID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "expense id must be a uuid"))
		return
	}

	if err := h.ledger.DeleteExpense(r.Context(), expenseID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pageParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	expenses, err := h.ledger.ListExpenses(r.Context(), page, pageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, expenses)
}

type addSettlementRequest struct {
	ToUser      string `json:"toUser" valid:"required,uuid"`
	AmountCents int64  `json:"amountCents" valid:"required"`
}

func (h *Handler) handleAddSettlement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req addSettlementRequest
	if err := decodeValid(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	toUser, err := id.ParseUserID(req.ToUser)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	settlement, err := h.ledger.AddSettlement(ctx, models.Settlement{
		FromUser:    userID,
		ToUser:      toUser,
		AmountCents: req.AmountCents,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, settlement)
}

func (h *Handler) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pageParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	settlements, err := h.ledger.ListSettlements(r.Context(), page, pageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, settlements)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	balances, err := h.ledger.Balance(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, balances)
}

func pageParams(r *http.Request) (page, pageSize int, err error) {
	page, err = queryInt(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	pageSize, err = queryInt(r, "pageSize", service.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeValidation, "%s must be an integer", name)
	}
	return v, nil
}

func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	if ok, err := govalidator.ValidateStruct(dst); !ok {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	return nil
}
