package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenVerifier validates a bearer token. Signature and expiry failures are
// indistinguishable to callers: a single error covers both.
type TokenVerifier interface {
	Verify(tokenString string) (*TokenClaims, error)
}

// RevocationChecker reports whether a session has been force-logged-out.
// Token verification alone is necessary but not sufficient; the revocation
// flag is the one piece of server-held session state.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// TokenClaims is the claim set the middleware places into the request context.
type TokenClaims struct {
	UserID    string
	Email     string
	Role      string
	SessionID string
}

// SessionCookieName holds the bearer token for browser clients. The
// Authorization header takes precedence when both are present.
const SessionCookieName = "session"

type contextKeyUserID struct{}
type contextKeySessionID struct{}
type contextKeyRole struct{}

var (
	ContextKeyUserID    = contextKeyUserID{}
	ContextKeySessionID = contextKeySessionID{}
	ContextKeyRole      = contextKeyRole{}
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyUserID).(string); ok {
		return v
	}
	return ""
}

// GetSessionID retrieves the session ID from the context.
func GetSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeySessionID).(string); ok {
		return v
	}
	return ""
}

// GetRole retrieves the authenticated role from the context.
func GetRole(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRole).(string); ok {
		return v
	}
	return ""
}

// WithClaims injects claims into a context. For service tests that bypass the
// HTTP middleware chain.
func WithClaims(ctx context.Context, claims *TokenClaims) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, claims.UserID)
	ctx = context.WithValue(ctx, ContextKeySessionID, claims.SessionID)
	ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
	return ctx
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"success":false,"error":{"code":"` + code + `","message":"` + message + `"}}`))
}

// bearerToken extracts the token from the Authorization header or, failing
// that, the session cookie.
func bearerToken(r *http.Request) string {
	const bearerPrefix = "Bearer "
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok {
		return after
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuth gates a route on a valid, non-revoked bearer token. Claims are
// placed in the request context for downstream handlers.
func RequireAuth(verifier TokenVerifier, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := bearerToken(r)
			if token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(ctx, claims.SessionID)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check session revocation",
						"error", err,
						"request_id", GetRequestID(ctx),
					)
					writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "could not validate session")
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - session revoked",
						"session_id", claims.SessionID,
						"request_id", GetRequestID(ctx),
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}
