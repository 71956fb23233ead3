// Package attempt persists login-attempt records. The store is append-only
// from the recorder's point of view; the query side reads filtered, paginated
// slices ordered most-recent-first.
package attempt

import (
	"context"
	"time"

	"splitledger/internal/audit/models"
	id "splitledger/pkg/domain"
)

// Store is the attempt-store contract. Implementations return
// pkg/platform/sentinel facts; services translate them into domain errors.
type Store interface {
	// Append persists one record. Callers treat failure as best-effort loss,
	// never as a login failure.
	Append(ctx context.Context, attempt *models.LoginAttempt) error

	// ListByUser returns records for the user ordered newest first, narrowed
	// by the filter, skipping offset records and returning at most limit.
	ListByUser(ctx context.Context, userID id.UserID, filter models.Filter, limit, offset int) ([]models.LoginAttempt, error)

	// CountByUser aggregates over the user's full history, ignoring any
	// filter a caller may apply page-level.
	CountByUser(ctx context.Context, userID id.UserID) (models.Stats, error)

	// SessionIDsSince returns the distinct session IDs of the user's
	// successful logins at or after since. Order is unspecified.
	SessionIDsSince(ctx context.Context, userID id.UserID, since time.Time) ([]id.SessionID, error)
}
