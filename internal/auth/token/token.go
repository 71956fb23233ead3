// Package token issues and verifies the signed bearer tokens that represent
// login sessions. A token's expiry is fixed at issuance and never extended;
// there is deliberately no renew operation, so a stolen token is bounded by
// its original window.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"splitledger/internal/auth/models"
	"splitledger/internal/platform/middleware"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
)

const (
	// ClockSkewTolerance absorbs drift between issuing and verifying hosts.
	ClockSkewTolerance = 60 * time.Second

	sessionTTL  = 24 * time.Hour
	rememberTTL = 7 * 24 * time.Hour
)

// Claims is the self-contained claim set carried by a session token.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Service signs and verifies session tokens. It holds no mutable state; all
// methods are safe for unbounded concurrent use.
type Service struct {
	signingKey  []byte
	issuer      string
	clock       func() time.Time
	sessionTTL  time.Duration
	rememberTTL time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source for issuance and verification. Tests use
// this to walk tokens across the expiry boundary.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithTTLs overrides the default session lifetimes. Both must be positive.
func WithTTLs(session, remember time.Duration) Option {
	return func(s *Service) {
		if session > 0 {
			s.sessionTTL = session
		}
		if remember > 0 {
			s.rememberTTL = remember
		}
	}
}

// New constructs the token service. An empty signing key is a configuration
// fault: the process cannot serve authentication and must not start.
func New(signingKey, issuer string, opts ...Option) (*Service, error) {
	if signingKey == "" {
		return nil, dErrors.New(dErrors.CodeInternal, "token signing key is not configured")
	}
	s := &Service{
		signingKey:  []byte(signingKey),
		issuer:      issuer,
		clock:       time.Now,
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the default fixed lifetime applied at issuance.
func TTL(rememberMe bool) time.Duration {
	if rememberMe {
		return rememberTTL
	}
	return sessionTTL
}

// TTL returns this service's fixed lifetime for the given mode.
func (s *Service) TTL(rememberMe bool) time.Duration {
	if rememberMe {
		return s.rememberTTL
	}
	return s.sessionTTL
}

// Issue signs a token for the identity and session. ExpiresAt is issuedAt
// plus the fixed TTL; nothing in the system may move it afterward.
func (s *Service) Issue(identity models.Identity, sessionID id.SessionID, rememberMe bool) (string, time.Time, error) {
	issuedAt := s.clock()
	expiresAt := issuedAt.Add(s.TTL(rememberMe))

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    identity.ID.String(),
		Email:     identity.Email,
		Role:      string(identity.Role),
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := t.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "sign token")
	}
	return signed, expiresAt, nil
}

// errInvalidToken is the single failure surface of Verify. Malformed, badly
// signed, and expired tokens are indistinguishable to the caller so the
// verification path cannot be used as an oracle.
var errInvalidToken = dErrors.New(dErrors.CodeUnauthorized, "invalid token")

// Verify checks signature and expiry (with skew tolerance) and returns the
// claims. Validity here is necessary but not sufficient: callers must still
// consult the session revocation flag.
func (s *Service) Verify(tokenString string) (*middleware.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return s.signingKey, nil
		},
		jwt.WithLeeway(ClockSkewTolerance),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock),
	)
	if err != nil || !parsed.Valid {
		return nil, errInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, errInvalidToken
	}

	return &middleware.TokenClaims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.SessionID,
	}, nil
}
