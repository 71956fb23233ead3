package testutil

import (
	"net/http"

	"splitledger/internal/platform/middleware"
)

// WithAuth injects authenticated claims into the request context, simulating
// what RequireAuth does after verifying a bearer token.
func WithAuth(req *http.Request, userID, sessionID string) *http.Request {
	claims := &middleware.TokenClaims{
		UserID:    userID,
		SessionID: sessionID,
		Role:      "user",
	}
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}
