package mfa

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"splitledger/internal/auth/models"
	"splitledger/internal/auth/store/credential"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
)

type MFASuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	store  *credential.InMemoryStore
	svc    *Service
	userID id.UserID
}

func TestMFASuite(t *testing.T) {
	suite.Run(t, new(MFASuite))
}

func (s *MFASuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.store = credential.NewInMemoryStore()
	s.svc = New(s.store, "splitledger-test",
		WithClock(func() time.Time { return s.now }),
		WithBcryptCost(bcrypt.MinCost),
	)

	s.userID = id.UserID(uuid.New())
	err := s.store.CreateUser(s.ctx, &models.Credential{
		Identity: models.Identity{ID: s.userID, Email: "alice@example.com", Role: models.RoleUser},
	})
	s.Require().NoError(err)
}

// codeFor computes the TOTP code an authenticator would show at s.now.
func (s *MFASuite) codeFor(secret string) string {
	code, err := totp.GenerateCodeCustom(secret, s.now, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	s.Require().NoError(err)
	return code
}

func (s *MFASuite) enroll() *Setup {
	setup, err := s.svc.BeginSetup(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.ConfirmSetup(s.ctx, s.userID, s.codeFor(setup.Secret)))
	return setup
}

func (s *MFASuite) TestBeginSetup() {
	setup, err := s.svc.BeginSetup(s.ctx, s.userID)
	s.Require().NoError(err)

	s.NotEmpty(setup.Secret)
	s.Contains(setup.ProvisioningURI, "otpauth://totp/")
	s.Contains(setup.ProvisioningURI, "splitledger-test")
	s.Len(setup.BackupCodes, backupCodeCount)

	cred, err := s.store.FindByID(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(models.EnrollmentPending, cred.Enrollment.State)
	s.Len(cred.Enrollment.BackupCodes, backupCodeCount)
	for i, bc := range cred.Enrollment.BackupCodes {
		s.NotEqual(setup.BackupCodes[i], bc.Hash, "plaintext must never be stored")
	}
}

func (s *MFASuite) TestBeginSetupOverwritesPending() {
	first, err := s.svc.BeginSetup(s.ctx, s.userID)
	s.Require().NoError(err)
	second, err := s.svc.BeginSetup(s.ctx, s.userID)
	s.Require().NoError(err)
	s.NotEqual(first.Secret, second.Secret)
}

func (s *MFASuite) TestBeginSetupConflictsWhenConfirmed() {
	s.enroll()

	_, err := s.svc.BeginSetup(s.ctx, s.userID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *MFASuite) TestBeginSetupUnknownUser() {
	_, err := s.svc.BeginSetup(s.ctx, id.UserID(uuid.New()))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *MFASuite) TestConfirmSetup() {
	setup, err := s.svc.BeginSetup(s.ctx, s.userID)
	s.Require().NoError(err)

	s.Run("wrong code leaves enrollment pending", func() {
		err := s.svc.ConfirmSetup(s.ctx, s.userID, "000000")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))

		st, err := s.svc.Status(s.ctx, s.userID)
		s.Require().NoError(err)
		s.False(st.Enabled)
		s.True(st.HasSecret)
	})

	s.Run("valid code confirms", func() {
		s.Require().NoError(s.svc.ConfirmSetup(s.ctx, s.userID, s.codeFor(setup.Secret)))

		st, err := s.svc.Status(s.ctx, s.userID)
		s.Require().NoError(err)
		s.True(st.Enabled)
	})
}

func (s *MFASuite) TestConfirmSetupAdjacentWindow() {
	setup, err := s.svc.BeginSetup(s.ctx, s.userID)
	s.Require().NoError(err)

	// Code from the previous 30-second window is still accepted.
	drifted, err := totp.GenerateCodeCustom(setup.Secret, s.now.Add(-totpPeriod*time.Second), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      0,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	s.Require().NoError(err)
	s.NoError(s.svc.ConfirmSetup(s.ctx, s.userID, drifted))
}

func (s *MFASuite) TestConfirmSetupWithoutEnrollment() {
	err := s.svc.ConfirmSetup(s.ctx, s.userID, "123456")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *MFASuite) TestConfirmSetupWhenAlreadyConfirmed() {
	setup := s.enroll()

	err := s.svc.ConfirmSetup(s.ctx, s.userID, s.codeFor(setup.Secret))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *MFASuite) TestStatusReflectsConsumedCodes() {
	setup := s.enroll()

	s.Require().NoError(s.svc.ConsumeBackupCode(s.ctx, s.userID, setup.BackupCodes[0]))

	st, err := s.svc.Status(s.ctx, s.userID)
	s.Require().NoError(err)
	s.True(st.Enabled)
	s.Equal(backupCodeCount-1, st.RemainingBackupCodes)
}

func (s *MFASuite) TestDisable() {
	s.enroll()
	s.Require().NoError(s.svc.Disable(s.ctx, s.userID))

	st, err := s.svc.Status(s.ctx, s.userID)
	s.Require().NoError(err)
	s.False(st.Enabled)
	s.False(st.HasSecret)
	s.Zero(st.RemainingBackupCodes)

	// Re-enrollment is allowed after an explicit disable.
	_, err = s.svc.BeginSetup(s.ctx, s.userID)
	s.NoError(err)
}

func (s *MFASuite) TestVerifyLoginCode() {
	setup := s.enroll()

	cred, err := s.store.FindByID(s.ctx, s.userID)
	s.Require().NoError(err)

	s.NoError(s.svc.VerifyLoginCode(cred, s.codeFor(setup.Secret)))

	err = s.svc.VerifyLoginCode(cred, "000000")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))
}

func (s *MFASuite) TestConsumeBackupCode() {
	setup := s.enroll()
	code := setup.BackupCodes[3]

	s.Require().NoError(s.svc.ConsumeBackupCode(s.ctx, s.userID, code))

	s.Run("a consumed code cannot be reused", func() {
		err := s.svc.ConsumeBackupCode(s.ctx, s.userID, code)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))
	})

	s.Run("an unknown code reports the same error", func() {
		err := s.svc.ConsumeBackupCode(s.ctx, s.userID, "zzzz-zzzz")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))
	})
}

func (s *MFASuite) TestConsumeBackupCodeRace() {
	setup := s.enroll()
	code := setup.BackupCodes[0]

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.svc.ConsumeBackupCode(s.ctx, s.userID, code) == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes, "exactly one concurrent consumer may win")
}
