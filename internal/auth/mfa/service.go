// Package mfa implements the enrollment state machine for the second factor:
// begin-setup provisions a fresh TOTP secret and backup codes, confirm-setup
// proves possession of the authenticator before the factor is demanded at
// login, and backup codes give a one-time recovery path when the device is
// lost. Enrollment moves absent -> pending -> confirmed; a confirmed
// enrollment is never replaced without an explicit disable first.
package mfa

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"splitledger/internal/auth/models"
	"splitledger/internal/auth/store/credential"
	"splitledger/internal/platform/metrics"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
	"splitledger/pkg/platform/sentinel"
)

const (
	// backupCodeCount is the fixed size of the recovery-code set minted at
	// every begin-setup. Codes are returned in plaintext exactly once.
	backupCodeCount = 10

	// totpPeriod and totpSkew accept the current 30-second window plus one
	// adjacent window on each side, absorbing authenticator clock drift.
	totpPeriod = 30
	totpSkew   = 1
)

// Setup is the one-time payload returned by BeginSetup. The secret and the
// plaintext backup codes are never retrievable again; only hashes persist.
type Setup struct {
	Secret          string
	ProvisioningURI string
	BackupCodes     []string
}

// Status is the read-only enrollment view.
type Status struct {
	Enabled              bool
	HasSecret            bool
	RemainingBackupCodes int
}

// Service owns MFA enrollment policy on top of the credential store.
type Service struct {
	store      credential.Store
	issuer     string
	metrics    *metrics.Metrics
	clock      func() time.Time
	bcryptCost int
	tracer     trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for TOTP validation.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithBcryptCost lowers the backup-code hashing cost in tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithMetrics wires verification counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New builds an MFA service. The issuer names this application inside the
// provisioning URI shown by authenticator apps.
func New(store credential.Store, issuer string, opts ...Option) *Service {
	s := &Service{
		store:      store,
		issuer:     issuer,
		clock:      time.Now,
		bcryptCost: bcrypt.DefaultCost,
		tracer:     otel.Tracer("splitledger/mfa"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BeginSetup provisions a fresh secret and backup-code set and moves the
// enrollment to pending. A confirmed enrollment is refused with a conflict:
// an attacker holding a hijacked session must not be able to silently swap
// out the victim's second factor.
func (s *Service) BeginSetup(ctx context.Context, userID id.UserID) (*Setup, error) {
	ctx, span := s.tracer.Start(ctx, "mfa.begin_setup")
	defer span.End()

	cred, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cred.Enrollment.Enabled() {
		return nil, dErrors.New(dErrors.CodeConflict, "mfa is already enabled; disable it before re-enrolling")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: cred.Identity.Email,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate totp secret")
	}

	codes, hashes, err := s.mintBackupCodes()
	if err != nil {
		return nil, err
	}

	if err := s.store.SavePendingEnrollment(ctx, userID, key.Secret(), hashes); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeConflict, "mfa is already enabled; disable it before re-enrolling")
		}
		return nil, storeErr(err, "save pending enrollment")
	}

	return &Setup{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		BackupCodes:     codes,
	}, nil
}

// ConfirmSetup validates a code against the pending secret and, on success,
// moves the enrollment to confirmed. A wrong code leaves the enrollment
// pending; there is no lockout here.
func (s *Service) ConfirmSetup(ctx context.Context, userID id.UserID, code string) error {
	ctx, span := s.tracer.Start(ctx, "mfa.confirm_setup")
	defer span.End()

	cred, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	switch cred.Enrollment.State {
	case models.EnrollmentPending:
	case models.EnrollmentConfirmed:
		return dErrors.New(dErrors.CodeConflict, "mfa is already enabled")
	default:
		return dErrors.New(dErrors.CodeBadRequest, "no enrollment in progress; call setup first")
	}

	if !s.validCode(code, cred.Enrollment.Secret) {
		s.observe("failure")
		return dErrors.New(dErrors.CodeInvalidCode, "invalid verification code")
	}

	if err := s.store.ConfirmEnrollment(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeConflict, "enrollment is no longer pending")
		}
		return storeErr(err, "confirm enrollment")
	}
	s.observe("success")
	return nil
}

// Status reports the enrollment state without side effects.
func (s *Service) Status(ctx context.Context, userID id.UserID) (*Status, error) {
	cred, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Status{
		Enabled:              cred.Enrollment.Enabled(),
		HasSecret:            cred.Enrollment.Secret != "",
		RemainingBackupCodes: cred.Enrollment.RemainingBackupCodes(),
	}, nil
}

// Disable clears the enrollment back to absent, discarding the secret and any
// remaining backup codes.
func (s *Service) Disable(ctx context.Context, userID id.UserID) error {
	ctx, span := s.tracer.Start(ctx, "mfa.disable")
	defer span.End()

	if _, err := s.load(ctx, userID); err != nil {
		return err
	}
	if err := s.store.DisableMFA(ctx, userID); err != nil {
		return storeErr(err, "disable mfa")
	}
	return nil
}

// VerifyLoginCode checks a TOTP code against an already-loaded confirmed
// credential. Used on the login path, where the caller holds the record.
func (s *Service) VerifyLoginCode(cred *models.Credential, code string) error {
	if !cred.Enrollment.Enabled() {
		return dErrors.New(dErrors.CodeBadRequest, "mfa is not enabled")
	}
	if !s.validCode(code, cred.Enrollment.Secret) {
		s.observe("failure")
		return dErrors.New(dErrors.CodeInvalidCode, "invalid verification code")
	}
	s.observe("success")
	return nil
}

// ConsumeBackupCode burns one recovery code. The used-mark is a conditional
// update in the store, so concurrent attempts on the same code yield exactly
// one success; the losers see the same error as a wrong code.
func (s *Service) ConsumeBackupCode(ctx context.Context, userID id.UserID, code string) error {
	cred, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if !cred.Enrollment.Enabled() {
		return dErrors.New(dErrors.CodeBadRequest, "mfa is not enabled")
	}

	for _, bc := range cred.Enrollment.BackupCodes {
		if bc.UsedAt != nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(bc.Hash), []byte(code)) != nil {
			continue
		}
		err := s.store.MarkBackupCodeUsed(ctx, userID, bc.Hash)
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			break
		}
		if err != nil {
			return storeErr(err, "mark backup code used")
		}
		s.observe("backup_success")
		return nil
	}

	s.observe("backup_failure")
	return dErrors.New(dErrors.CodeInvalidCode, "invalid or already used backup code")
}

func (s *Service) load(ctx context.Context, userID id.UserID) (*models.Credential, error) {
	cred, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, storeErr(err, "load credential")
	}
	return cred, nil
}

func (s *Service) validCode(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, s.clock().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// mintBackupCodes returns plaintext codes alongside their bcrypt hashes.
// Codes are eight hex characters grouped for readability, e.g. "3fa9-c04d".
func (s *Service) mintBackupCodes() ([]string, []string, error) {
	codes := make([]string, 0, backupCodeCount)
	hashes := make([]string, 0, backupCodeCount)
	for i := 0; i < backupCodeCount; i++ {
		raw := make([]byte, 4)
		if _, err := rand.Read(raw); err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate backup code")
		}
		h := hex.EncodeToString(raw)
		code := fmt.Sprintf("%s-%s", h[:4], h[4:])

		hash, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost)
		if err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash backup code")
		}
		codes = append(codes, code)
		hashes = append(hashes, string(hash))
	}
	return codes, hashes, nil
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveMFA(outcome)
	}
}

func storeErr(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, op+": credential store timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, op+": credential store unavailable")
}
