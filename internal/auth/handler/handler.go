// Package handler exposes the authentication endpoints: login, logout,
// registration, and the MFA enrollment flow.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"splitledger/internal/auth/device"
	"splitledger/internal/auth/mfa"
	"splitledger/internal/auth/models"
	"splitledger/internal/platform/middleware"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
	"splitledger/pkg/platform/httputil"
)

// AuthService defines the interface for login and logout.
type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
	Logout(ctx context.Context, sessionID id.SessionID) error
	LogoutAll(ctx context.Context, userID id.UserID, current id.SessionID) (int, error)
	Register(ctx context.Context, email, password string, role models.Role) (*models.Identity, error)
}

// MFAService defines the interface for enrollment operations.
type MFAService interface {
	BeginSetup(ctx context.Context, userID id.UserID) (*mfa.Setup, error)
	ConfirmSetup(ctx context.Context, userID id.UserID, code string) error
	Status(ctx context.Context, userID id.UserID) (*mfa.Status, error)
	Disable(ctx context.Context, userID id.UserID) error
}

// Handler handles the auth endpoints.
type Handler struct {
	logger      *slog.Logger
	auth        AuthService
	mfa         MFAService
	verifier    middleware.TokenVerifier
	revocations middleware.RevocationChecker
}

// New creates a new auth Handler.
func New(
	auth AuthService,
	mfaSvc MFAService,
	verifier middleware.TokenVerifier,
	revocations middleware.RevocationChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		logger:      logger,
		auth:        auth,
		mfa:         mfaSvc,
		verifier:    verifier,
		revocations: revocations,
	}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	authRouter := chi.NewRouter()
	authRouter.Use(middleware.Recovery(h.logger))
	authRouter.Use(middleware.RequestID)
	authRouter.Use(middleware.Logger(h.logger))
	authRouter.Use(middleware.Timeout(15 * time.Second))
	authRouter.Use(middleware.ContentTypeJSON)

	authRouter.Post("/register", h.handleRegister)
	authRouter.Post("/login", h.handleLogin)

	authRouter.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(h.verifier, h.revocations, h.logger))
		protected.Post("/logout", h.handleLogout)
		protected.Post("/logout-all", h.handleLogoutAll)
		protected.Post("/mfa/setup", h.handleMFASetup)
		protected.Post("/mfa/verify", h.handleMFAVerify)
		protected.Post("/mfa/disable", h.handleMFADisable)
		protected.Get("/mfa/status", h.handleMFAStatus)
	})

	r.Mount("/auth", authRouter)
}

type loginRequest struct {
	Email      string `json:"email" valid:"required,email"`
	Password   string `json:"password" valid:"required"`
	OTP        string `json:"otp" valid:"-"`
	BackupCode string `json:"backupCode" valid:"-"`
	RememberMe bool   `json:"rememberMe"`
}

type identityResponse struct {
	ID          id.UserID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
}

type loginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      identityResponse `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeValid(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.auth.Login(ctx, models.LoginRequest{
		Email:      req.Email,
		Password:   req.Password,
		OTP:        req.OTP,
		BackupCode: req.BackupCode,
		RememberMe: req.RememberMe,
		UserAgent:  r.UserAgent(),
		IP:         device.ExtractIP(r.Header),
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeUnavailable) || dErrors.Is(err, dErrors.CodeTimeout) || dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User: identityResponse{
			ID:          result.User.ID,
			Email:       result.User.Email,
			DisplayName: result.User.DisplayName,
			Role:        string(result.User.Role),
		},
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := id.ParseSessionID(middleware.GetSessionID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	if err := h.auth.Logout(ctx, sessionID); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	// Expire the browser cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

type logoutAllResponse struct {
	RevokedSessions int `json:"revokedSessions"`
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := h.contextUserID(w, r)
	if !ok {
		return
	}
	sessionID, err := id.ParseSessionID(middleware.GetSessionID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	revoked, err := h.auth.LogoutAll(ctx, userID, sessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "logout-all failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	httputil.WriteJSON(w, http.StatusOK, logoutAllResponse{RevokedSessions: revoked})
}

type registerRequest struct {
	Email    string `json:"email" valid:"required,email"`
	Password string `json:"password" valid:"required,minstringlength(10)"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeValid(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ident, err := h.auth.Register(r.Context(), req.Email, req.Password, models.RoleUser)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, identityResponse{
		ID:          ident.ID,
		Email:       ident.Email,
		DisplayName: ident.DisplayName,
		Role:        string(ident.Role),
	})
}

type mfaSetupResponse struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioningUri"`
	BackupCodes     []string `json:"backupCodes"`
}

func (h *Handler) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := h.contextUserID(w, r)
	if !ok {
		return
	}

	setup, err := h.mfa.BeginSetup(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, mfaSetupResponse{
		Secret:          setup.Secret,
		ProvisioningURI: setup.ProvisioningURI,
		BackupCodes:     setup.BackupCodes,
	})
}

type mfaVerifyRequest struct {
	Code string `json:"code" valid:"required,stringlength(6|6),numeric"`
}

func (h *Handler) handleMFAVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := h.contextUserID(w, r)
	if !ok {
		return
	}

	var req mfaVerifyRequest
	if err := decodeValid(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.mfa.ConfirmSetup(ctx, userID, req.Code); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"enabled": true})
}

func (h *Handler) handleMFADisable(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextUserID(w, r)
	if !ok {
		return
	}

	if err := h.mfa.Disable(r.Context(), userID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type mfaStatusResponse struct {
	Enabled              bool `json:"enabled"`
	HasSecret            bool `json:"hasSecret"`
	RemainingBackupCodes int  `json:"remainingBackupCodes"`
}

func (h *Handler) handleMFAStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextUserID(w, r)
	if !ok {
		return
	}

	status, err := h.mfa.Status(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, mfaStatusResponse{
		Enabled:              status.Enabled,
		HasSecret:            status.HasSecret,
		RemainingBackupCodes: status.RemainingBackupCodes,
	})
}

func (h *Handler) contextUserID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID, err := id.ParseUserID(middleware.GetUserID(r.Context()))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "userID missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.UserID{}, false
	}
	return userID, true
}

// decodeValid decodes a JSON body and runs struct-tag validation.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	if ok, err := govalidator.ValidateStruct(dst); !ok {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	return nil
}
