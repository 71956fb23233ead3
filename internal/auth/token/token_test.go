package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"splitledger/internal/auth/models"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
)

type TokenSuite struct {
	suite.Suite
	now time.Time
	svc *Service
}

func TestTokenSuite(t *testing.T) {
	suite.Run(t, new(TokenSuite))
}

func (s *TokenSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, err := New("test-signing-key", "splitledger-test", WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
	s.svc = svc
}

func (s *TokenSuite) identity() models.Identity {
	return models.Identity{
		ID:    id.UserID(uuid.New()),
		Email: "alice@example.com",
		Role:  models.RoleUser,
	}
}

func (s *TokenSuite) TestMissingSigningKeyIsFatal() {
	_, err := New("", "splitledger-test")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *TokenSuite) TestFixedExpiry() {
	s.Run("default session is exactly one day", func() {
		_, expiresAt, err := s.svc.Issue(s.identity(), id.NewSessionID(), false)
		s.Require().NoError(err)
		s.Equal(24*time.Hour, expiresAt.Sub(s.now))
	})

	s.Run("remember-me is exactly seven days", func() {
		_, expiresAt, err := s.svc.Issue(s.identity(), id.NewSessionID(), true)
		s.Require().NoError(err)
		s.Equal(7*24*time.Hour, expiresAt.Sub(s.now))
	})
}

func (s *TokenSuite) TestVerifyRoundTrip() {
	ident := s.identity()
	sessionID := id.NewSessionID()

	signed, _, err := s.svc.Issue(ident, sessionID, false)
	s.Require().NoError(err)

	claims, err := s.svc.Verify(signed)
	s.Require().NoError(err)
	s.Equal(ident.ID.String(), claims.UserID)
	s.Equal(ident.Email, claims.Email)
	s.Equal(string(models.RoleUser), claims.Role)
	s.Equal(sessionID.String(), claims.SessionID)
}

func (s *TokenSuite) TestVerifyFailuresAreIndistinguishable() {
	signed, _, err := s.svc.Issue(s.identity(), id.NewSessionID(), false)
	s.Require().NoError(err)

	s.Run("garbage token", func() {
		_, err := s.svc.Verify("not.a.token")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("tampered signature", func() {
		_, err := s.svc.Verify(signed + "x")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("token signed with another key", func() {
		other, err := New("different-key", "splitledger-test", WithClock(func() time.Time { return s.now }))
		s.Require().NoError(err)
		foreign, _, err := other.Issue(s.identity(), id.NewSessionID(), false)
		s.Require().NoError(err)

		_, verr := s.svc.Verify(foreign)
		s.Require().Error(verr)
		s.True(dErrors.HasCode(verr, dErrors.CodeUnauthorized))
	})

	s.Run("expired token reports the same error as a bad signature", func() {
		s.now = s.now.Add(24*time.Hour + ClockSkewTolerance + time.Minute)
		_, err := s.svc.Verify(signed)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *TokenSuite) TestExpiryBoundary() {
	signed, expiresAt, err := s.svc.Issue(s.identity(), id.NewSessionID(), false)
	s.Require().NoError(err)

	s.Run("just inside the tolerance window is accepted", func() {
		s.now = expiresAt.Add(ClockSkewTolerance - time.Second)
		_, err := s.svc.Verify(signed)
		s.NoError(err)
	})

	s.Run("just past the tolerance window is rejected", func() {
		s.now = expiresAt.Add(ClockSkewTolerance + time.Second)
		_, err := s.svc.Verify(signed)
		s.Error(err)
	})
}

func TestTTL(t *testing.T) {
	if TTL(false) != 24*time.Hour {
		t.Fatalf("session TTL = %v, want 24h", TTL(false))
	}
	if TTL(true) != 7*24*time.Hour {
		t.Fatalf("remember TTL = %v, want 168h", TTL(true))
	}
}

func TestWithTTLs(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, err := New("key", "issuer",
		WithTTLs(time.Hour, 48*time.Hour),
		WithClock(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatal(err)
	}

	if got := svc.TTL(false); got != time.Hour {
		t.Fatalf("session TTL = %v, want 1h", got)
	}
	if got := svc.TTL(true); got != 48*time.Hour {
		t.Fatalf("remember TTL = %v, want 48h", got)
	}

	ident := models.Identity{ID: id.NewUserID(), Email: "a@example.com", Role: models.RoleUser}
	_, expiresAt, err := svc.Issue(ident, id.NewSessionID(), false)
	if err != nil {
		t.Fatal(err)
	}
	if want := now.Add(time.Hour); !expiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", expiresAt, want)
	}
}
