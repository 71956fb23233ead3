// Package handler exposes the login-history endpoint. Access requires an
// authenticated session; users only ever see their own history.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	auditModel "splitledger/internal/audit/models"
	"splitledger/internal/audit/service"
	"splitledger/internal/platform/middleware"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
	"splitledger/pkg/platform/httputil"
)

// HistoryService defines the interface for login-history queries.
type HistoryService interface {
	History(ctx context.Context, userID id.UserID, page, pageSize int, filter auditModel.Filter) (*auditModel.History, error)
}

// Handler handles the security audit endpoints.
type Handler struct {
	logger      *slog.Logger
	query       HistoryService
	verifier    middleware.TokenVerifier
	revocations middleware.RevocationChecker
}

// New creates a new audit Handler.
func New(query HistoryService, verifier middleware.TokenVerifier, revocations middleware.RevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		logger:      logger,
		query:       query,
		verifier:    verifier,
		revocations: revocations,
	}
}

// Register registers the audit routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	auditRouter := chi.NewRouter()
	auditRouter.Use(middleware.Recovery(h.logger))
	auditRouter.Use(middleware.RequestID)
	auditRouter.Use(middleware.Logger(h.logger))
	auditRouter.Use(middleware.Timeout(15 * time.Second))
	auditRouter.Use(middleware.RequireAuth(h.verifier, h.revocations, h.logger))
	auditRouter.Get("/login-history", h.handleLoginHistory)

	r.Mount("/security", auditRouter)
}

func (h *Handler) handleLoginHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	userID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", service.DefaultPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter, err := auditModel.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	history, err := h.query.History(ctx, userID, page, pageSize, filter)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "failed to query login history",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, history)
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
