package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	auditModel "splitledger/internal/audit/models"
	auditService "splitledger/internal/audit/service"
	"splitledger/internal/audit/store/attempt"
	"splitledger/internal/auth/mfa"
	"splitledger/internal/auth/models"
	"splitledger/internal/auth/service/mocks"
	"splitledger/internal/auth/store/credential"
	"splitledger/internal/auth/store/revocation"
	"splitledger/internal/auth/token"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
	"splitledger/pkg/platform/sentinel"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "correct horse battery staple"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	creds    *credential.InMemoryStore
	attempts *attempt.InMemoryStore
	recorder *auditService.Recorder
	revoked  *revocation.InMemoryStore
	tokens   *token.Service
	mfaSvc   *mfa.Service
	svc      *Service
	userID   id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	s.creds = credential.NewInMemoryStore()
	s.attempts = attempt.NewInMemoryStore()
	s.recorder = auditService.NewRecorder(s.attempts, discardLogger(), auditService.WithClock(clock))
	s.revoked = revocation.NewInMemoryStore(revocation.WithClock(clock))

	tokens, err := token.New("test-signing-key", "splitledger-test", token.WithClock(clock))
	s.Require().NoError(err)
	s.tokens = tokens

	s.mfaSvc = mfa.New(s.creds, "splitledger-test",
		mfa.WithClock(clock),
		mfa.WithBcryptCost(bcrypt.MinCost),
	)

	s.svc = New(s.creds, s.tokens, s.mfaSvc, s.revoked, discardLogger(),
		WithRecorder(s.recorder),
		WithSessionAuditor(s.attempts),
		WithClock(clock),
	)

	ident, err := s.svc.Register(s.ctx, testEmail, testPassword, models.RoleUser)
	s.Require().NoError(err)
	s.userID = ident.ID
}

// enrollMFA walks the user through setup and confirmation, returning the
// secret and the plaintext backup codes.
func (s *ServiceSuite) enrollMFA() *mfa.Setup {
	setup, err := s.mfaSvc.BeginSetup(s.ctx, s.userID)
	s.Require().NoError(err)
	code := s.totpCode(setup.Secret)
	s.Require().NoError(s.mfaSvc.ConfirmSetup(s.ctx, s.userID, code))
	return setup
}

func (s *ServiceSuite) totpCode(secret string) string {
	code, err := totp.GenerateCodeCustom(secret, s.now, totp.ValidateOpts{
		Period: 30, Skew: 1, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
	})
	s.Require().NoError(err)
	return code
}

func (s *ServiceSuite) loginReq() models.LoginRequest {
	return models.LoginRequest{
		Email:     testEmail,
		Password:  testPassword,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/119.0",
		IP:        "203.0.113.7",
	}
}

func (s *ServiceSuite) TestLoginSuccess() {
	result, err := s.svc.Login(s.ctx, s.loginReq())
	s.Require().NoError(err)

	s.NotEmpty(result.Token)
	s.False(result.SessionID.IsNil())
	s.Equal(s.userID, result.User.ID)
	s.Equal(24*time.Hour, result.ExpiresAt.Sub(s.now))

	claims, err := s.tokens.Verify(result.Token)
	s.Require().NoError(err)
	s.Equal(s.userID.String(), claims.UserID)
	s.Equal(result.SessionID.String(), claims.SessionID)

	s.recorder.Wait()
	records, err := s.attempts.ListByUser(s.ctx, s.userID, auditModel.FilterAll, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.True(records[0].Success)
	s.Equal("Chrome", records[0].Device.Browser)
	s.Equal("Windows 10/11", records[0].Device.OS)
	s.Equal("203.0.113.7", records[0].IPAddress)
}

func (s *ServiceSuite) TestLoginRememberMe() {
	req := s.loginReq()
	req.RememberMe = true

	result, err := s.svc.Login(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(7*24*time.Hour, result.ExpiresAt.Sub(s.now))
}

func (s *ServiceSuite) TestLoginValidation() {
	for _, req := range []models.LoginRequest{
		{Email: "", Password: testPassword},
		{Email: testEmail, Password: ""},
	} {
		_, err := s.svc.Login(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	}
}

func (s *ServiceSuite) TestLoginFailuresAreIndistinguishable() {
	unknown := s.loginReq()
	unknown.Email = "nobody@example.com"
	_, errUnknown := s.svc.Login(s.ctx, unknown)
	s.Require().Error(errUnknown)

	wrongPass := s.loginReq()
	wrongPass.Password = "wrong"
	_, errWrongPass := s.svc.Login(s.ctx, wrongPass)
	s.Require().Error(errWrongPass)

	// Unknown email and wrong password read identically to the caller.
	s.True(dErrors.HasCode(errUnknown, dErrors.CodeUnauthorized))
	s.True(dErrors.HasCode(errWrongPass, dErrors.CodeUnauthorized))
	s.Equal(errUnknown.Error(), errWrongPass.Error())
}

func (s *ServiceSuite) TestLoginFailureIsRecorded() {
	wrongPass := s.loginReq()
	wrongPass.Password = "wrong"
	_, err := s.svc.Login(s.ctx, wrongPass)
	s.Require().Error(err)

	s.recorder.Wait()
	records, lerr := s.attempts.ListByUser(s.ctx, s.userID, auditModel.FilterFailed, 10, 0)
	s.Require().NoError(lerr)
	s.Require().Len(records, 1)
	s.Equal("wrong password", records[0].FailureReason)
}

func (s *ServiceSuite) TestLoginWithMFA() {
	setup := s.enrollMFA()

	s.Run("password alone is refused once enrolled", func() {
		_, err := s.svc.Login(s.ctx, s.loginReq())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("wrong otp is a distinct error", func() {
		req := s.loginReq()
		req.OTP = "000000"
		_, err := s.svc.Login(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))
	})

	s.Run("valid otp logs in", func() {
		req := s.loginReq()
		req.OTP = s.totpCode(setup.Secret)
		_, err := s.svc.Login(s.ctx, req)
		s.NoError(err)
	})

	s.Run("backup code logs in exactly once", func() {
		req := s.loginReq()
		req.BackupCode = setup.BackupCodes[0]
		_, err := s.svc.Login(s.ctx, req)
		s.Require().NoError(err)

		_, err = s.svc.Login(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))
	})
}

func (s *ServiceSuite) TestLogoutRevokesSession() {
	result, err := s.svc.Login(s.ctx, s.loginReq())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Logout(s.ctx, result.SessionID))

	revoked, err := s.revoked.IsRevoked(s.ctx, result.SessionID.String())
	s.Require().NoError(err)
	s.True(revoked)

	// The token itself still verifies; revocation lives outside it.
	_, err = s.tokens.Verify(result.Token)
	s.NoError(err)
}

func (s *ServiceSuite) TestLogoutMissingSession() {
	err := s.svc.Logout(s.ctx, id.SessionID{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestLogoutAllRevokesEverySession() {
	first, err := s.svc.Login(s.ctx, s.loginReq())
	s.Require().NoError(err)
	second, err := s.svc.Login(s.ctx, s.loginReq())
	s.Require().NoError(err)
	s.recorder.Wait()

	revoked, err := s.svc.LogoutAll(s.ctx, s.userID, second.SessionID)
	s.Require().NoError(err)
	s.Equal(2, revoked)

	for _, sid := range []id.SessionID{first.SessionID, second.SessionID} {
		flagged, err := s.revoked.IsRevoked(s.ctx, sid.String())
		s.Require().NoError(err)
		s.True(flagged, sid.String())
	}
}

func (s *ServiceSuite) TestLogoutAllWithoutHistoryRevokesCurrent() {
	svc := New(s.creds, s.tokens, s.mfaSvc, s.revoked, discardLogger())

	current := id.NewSessionID()
	revoked, err := svc.LogoutAll(s.ctx, s.userID, current)
	s.Require().NoError(err)
	s.Equal(1, revoked)

	flagged, err := s.revoked.IsRevoked(s.ctx, current.String())
	s.Require().NoError(err)
	s.True(flagged)
}

func (s *ServiceSuite) TestLogoutAllMissingSession() {
	_, err := s.svc.LogoutAll(s.ctx, s.userID, id.SessionID{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestRegisterDerivesDisplayName() {
	ident, err := s.svc.Register(s.ctx, "jane.doe@example.com", testPassword, models.RoleUser)
	s.Require().NoError(err)
	s.Equal("Jane Doe", ident.DisplayName)
}

func (s *ServiceSuite) TestRegisterDuplicateEmail() {
	_, err := s.svc.Register(s.ctx, testEmail, "another password", models.RoleUser)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestRegisterValidation() {
	_, err := s.svc.Register(s.ctx, "", testPassword, models.RoleUser)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.Register(s.ctx, testEmail, testPassword, models.Role("owner"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestLoginStoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCreds := mocks.NewMockCredentialStore(ctrl)
	mockCreds.EXPECT().FindByEmail(gomock.Any(), testEmail).Return(nil, errors.New("connection refused"))

	tokens, err := token.New("test-signing-key", "splitledger-test")
	if err != nil {
		t.Fatal(err)
	}
	svc := New(mockCreds, tokens, nil, mocks.NewMockRevocationStore(ctrl), discardLogger())

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: testEmail, Password: testPassword})
	if !dErrors.HasCode(err, dErrors.CodeUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestLoginUnknownEmailIsRecorded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCreds := mocks.NewMockCredentialStore(ctrl)
	mockCreds.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)

	mockRecorder := mocks.NewMockAttemptRecorder(ctrl)
	mockRecorder.EXPECT().Record(gomock.Any()).Do(func(rec auditModel.LoginAttempt) {
		if rec.Success {
			t.Error("expected a failure record")
		}
		if rec.FailureReason != "unknown email" {
			t.Errorf("unexpected reason %q", rec.FailureReason)
		}
	})

	tokens, err := token.New("test-signing-key", "splitledger-test")
	if err != nil {
		t.Fatal(err)
	}
	svc := New(mockCreds, tokens, nil, mocks.NewMockRevocationStore(ctrl), discardLogger(),
		WithRecorder(mockRecorder))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "pw"})
	if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevocationStoreDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRevoked := mocks.NewMockRevocationStore(ctrl)
	mockRevoked.EXPECT().Revoke(gomock.Any(), gomock.Any(), token.TTL(true)).Return(errors.New("redis down"))

	tokens, err := token.New("test-signing-key", "splitledger-test")
	if err != nil {
		t.Fatal(err)
	}
	svc := New(mocks.NewMockCredentialStore(ctrl), tokens, nil, mockRevoked, discardLogger())

	err = svc.Logout(context.Background(), id.NewSessionID())
	if !dErrors.HasCode(err, dErrors.CodeUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestLogoutAllAuditorDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuditor := mocks.NewMockSessionAuditor(ctrl)
	mockAuditor.EXPECT().SessionIDsSince(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused"))

	tokens, err := token.New("test-signing-key", "splitledger-test")
	if err != nil {
		t.Fatal(err)
	}
	svc := New(mocks.NewMockCredentialStore(ctrl), tokens, nil, mocks.NewMockRevocationStore(ctrl), discardLogger(),
		WithSessionAuditor(mockAuditor))

	_, err = svc.LogoutAll(context.Background(), id.NewUserID(), id.NewSessionID())
	if !dErrors.HasCode(err, dErrors.CodeUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
