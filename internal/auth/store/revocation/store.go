// Package revocation holds the session revocation flag: the only mutable,
// server-held piece of session state. A signed token that verifies is still
// dead if its session is flagged here.
package revocation

import (
	"context"
	"time"
)

// Clock abstracts time.Now for testability.
type Clock func() time.Time

// Store is the revocation-flag contract. TTLs are bounded by the revoked
// token's remaining lifetime; once the token would have expired anyway the
// flag may lapse.
type Store interface {
	// Revoke flags a session for the given TTL.
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error

	// RevokeAll flags every given session for the same TTL. Used by the
	// "log out everywhere" path; blank IDs are skipped.
	RevokeAll(ctx context.Context, sessionIDs []string, ttl time.Duration) error

	// IsRevoked reports whether the session is currently flagged. An absent
	// or lapsed flag reads as not revoked.
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}
