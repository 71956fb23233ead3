// Package service orchestrates the login flow: credential check, second
// factor, token issuance, and best-effort audit recording. The service never
// reveals which step of the credential check failed.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CredentialStore,RevocationStore,AttemptRecorder,SessionAuditor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	auditModel "splitledger/internal/audit/models"
	"splitledger/internal/auth/device"
	"splitledger/internal/auth/mfa"
	"splitledger/internal/auth/models"
	"splitledger/internal/auth/store/revocation"
	"splitledger/internal/auth/token"
	"splitledger/internal/crypto"
	"splitledger/internal/platform/metrics"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
	pkgemail "splitledger/pkg/email"
	"splitledger/pkg/platform/sentinel"
)

const tracerName = "splitledger/auth"

// CredentialStore is the slice of the credential store the login flow needs.
type CredentialStore interface {
	CreateUser(ctx context.Context, cred *models.Credential) error
	FindByEmail(ctx context.Context, email string) (*models.Credential, error)
}

// RevocationStore flags sessions dead ahead of their token expiry.
type RevocationStore = revocation.Store

// AttemptRecorder appends one login-attempt record, best-effort.
type AttemptRecorder interface {
	Record(rec auditModel.LoginAttempt)
}

// SessionAuditor lists the session IDs of a user's recent successful logins,
// read back from the login history.
type SessionAuditor interface {
	SessionIDsSince(ctx context.Context, userID id.UserID, since time.Time) ([]id.SessionID, error)
}

// Service implements login, logout, and registration on top of the stores.
type Service struct {
	creds       CredentialStore
	tokens      *token.Service
	mfa         *mfa.Service
	revocations RevocationStore
	devices     *device.Service
	recorder    AttemptRecorder
	sessions    SessionAuditor
	metrics     *metrics.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
	clock       func() time.Time
	logLogins   bool
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics wires login outcome counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDeviceService enables location annotation on audit records.
func WithDeviceService(d *device.Service) Option {
	return func(s *Service) { s.devices = d }
}

// WithRecorder wires the login audit recorder.
func WithRecorder(r AttemptRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithSessionAuditor enables LogoutAll to enumerate a user's live sessions
// from the login history. Without it only the current session is revoked.
func WithSessionAuditor(a SessionAuditor) Option {
	return func(s *Service) { s.sessions = a }
}

// WithLoginLogging controls whether each login outcome is written to the
// application log. Audit records are unaffected.
func WithLoginLogging(enabled bool) Option {
	return func(s *Service) { s.logLogins = enabled }
}

// WithClock overrides the time source for the LogoutAll lookback window.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(
	creds CredentialStore,
	tokens *token.Service,
	mfaSvc *mfa.Service,
	revocations RevocationStore,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		creds:       creds,
		tokens:      tokens,
		mfa:         mfaSvc,
		revocations: revocations,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
		clock:       time.Now,
		logLogins:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errBadCredentials is the single answer for unknown email and wrong
// password. Which one failed is not disclosed.
func errBadCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

// Login runs the full authentication flow. The audit record is written
// regardless of outcome and never influences the result.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.login",
		trace.WithAttributes(attribute.Bool("remember_me", req.RememberMe)))
	defer span.End()

	if req.Email == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	cred, err := s.creds.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordAttempt(ctx, id.UserID{}, id.SessionID{}, req, false, "unknown email")
			s.observeLogin("failure")
			return nil, errBadCredentials()
		}
		return nil, lookupErr(err)
	}
	userID := cred.Identity.ID

	if !crypto.VerifyPassword([]byte(req.Password), cred.PasswordSalt, cred.PasswordHash) {
		s.recordAttempt(ctx, userID, id.SessionID{}, req, false, "wrong password")
		s.observeLogin("failure")
		return nil, errBadCredentials()
	}

	if cred.Enrollment.Enabled() {
		if err := s.checkSecondFactor(ctx, cred, req); err != nil {
			s.observeLogin("failure")
			return nil, err
		}
	}

	sessionID := id.NewSessionID()
	signed, expiresAt, err := s.tokens.Issue(cred.Identity, sessionID, req.RememberMe)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("session_id", sessionID.String()))
	if s.metrics != nil {
		s.metrics.TokensIssued.Inc()
	}
	s.observeLogin("success")
	s.recordAttempt(ctx, userID, sessionID, req, true, "")

	if s.logLogins {
		s.logger.InfoContext(ctx, "login succeeded",
			"user_id", userID.String(),
			"session_id", sessionID.String(),
			"remember_me", req.RememberMe,
		)
	}

	return &models.LoginResult{
		Token:     signed,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
		User:      cred.Identity,
	}, nil
}

func (s *Service) checkSecondFactor(ctx context.Context, cred *models.Credential, req models.LoginRequest) error {
	switch {
	case req.OTP != "":
		if err := s.mfa.VerifyLoginCode(cred, req.OTP); err != nil {
			s.recordAttempt(ctx, cred.Identity.ID, id.SessionID{}, req, false, "invalid mfa code")
			return err
		}
	case req.BackupCode != "":
		if err := s.mfa.ConsumeBackupCode(ctx, cred.Identity.ID, req.BackupCode); err != nil {
			s.recordAttempt(ctx, cred.Identity.ID, id.SessionID{}, req, false, "invalid backup code")
			return err
		}
	default:
		s.recordAttempt(ctx, cred.Identity.ID, id.SessionID{}, req, false, "mfa code required")
		return dErrors.New(dErrors.CodeUnauthorized, "mfa code required")
	}
	return nil
}

// Logout flags the session revoked. The TTL covers the longest possible
// remaining token life, after which the flag may lapse with the token.
func (s *Service) Logout(ctx context.Context, sessionID id.SessionID) error {
	ctx, span := s.tracer.Start(ctx, "auth.logout",
		trace.WithAttributes(attribute.String("session_id", sessionID.String())))
	defer span.End()

	if sessionID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "missing session id")
	}
	if err := s.revocations.Revoke(ctx, sessionID.String(), s.tokens.TTL(true)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "revoke session")
	}
	s.logger.InfoContext(ctx, "session revoked", "session_id", sessionID.String())
	return nil
}

// LogoutAll revokes the current session plus every session the user logged
// in with during the longest possible token lifetime, as recorded in the
// login history. Returns how many sessions were flagged.
func (s *Service) LogoutAll(ctx context.Context, userID id.UserID, current id.SessionID) (int, error) {
	ctx, span := s.tracer.Start(ctx, "auth.logout_all",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	if userID.IsNil() || current.IsNil() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "missing session context")
	}

	ttl := s.tokens.TTL(true)
	sessionIDs := []string{current.String()}
	if s.sessions != nil {
		listed, err := s.sessions.SessionIDsSince(ctx, userID, s.clock().Add(-ttl))
		if err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "list sessions")
		}
		for _, sid := range listed {
			if sid != current {
				sessionIDs = append(sessionIDs, sid.String())
			}
		}
	}

	if err := s.revocations.RevokeAll(ctx, sessionIDs, ttl); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "revoke sessions")
	}
	s.logger.InfoContext(ctx, "all sessions revoked",
		"user_id", userID.String(),
		"sessions", len(sessionIDs),
	)
	return len(sessionIDs), nil
}

// Register creates an identity with argon2id password material. Kept minimal;
// the two-user deployment usually seeds accounts at first run.
func (s *Service) Register(ctx context.Context, email, password string, role models.Role) (*models.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "auth.register")
	defer span.End()

	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	if !role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role)
	}

	salt, err := crypto.RandBytes(16)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate salt")
	}

	cred := &models.Credential{
		Identity: models.Identity{
			ID:          id.NewUserID(),
			Email:       email,
			DisplayName: pkgemail.DisplayNameFromEmail(email),
			Role:        role,
		},
		PasswordHash: crypto.HashPassword([]byte(password), salt),
		PasswordSalt: salt,
	}
	if err := s.creds.CreateUser(ctx, cred); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, lookupErr(err)
	}
	identity := cred.Identity
	return &identity, nil
}

func (s *Service) recordAttempt(ctx context.Context, userID id.UserID, sessionID id.SessionID, req models.LoginRequest, success bool, reason string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(auditModel.LoginAttempt{
		UserID:        userID,
		SessionID:     sessionID,
		Email:         req.Email,
		Success:       success,
		FailureReason: reason,
		IPAddress:     req.IP,
		Device:        device.Parse(req.UserAgent),
		Location:      s.devices.ResolveLocation(ctx, req.IP),
	})
}

func (s *Service) observeLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveLogin(outcome)
	}
}

func lookupErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "credential store timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
}
