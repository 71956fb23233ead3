package revocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresStore persists revocation flags in PostgreSQL. Used when the
// deployment has no Redis; correctness is identical, latency is worse.
type PostgresStore struct {
	db    *sql.DB
	clock Clock
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock Clock) PostgresOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgres constructs a PostgreSQL-backed revocation store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{
		db:    db,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Revoke flags a session until its token would have expired anyway.
func (s *PostgresStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	if sessionID == "" {
		return nil
	}
	expiresAt := s.clock().Add(ttl)
	query := `
		INSERT INTO session_revocations (session_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (session_id) DO UPDATE SET
			expires_at = EXCLUDED.expires_at
	`
	if _, err := s.db.ExecContext(ctx, query, sessionID, expiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// IsRevoked checks the flag, treating a lapsed row the same as a missing one.
func (s *PostgresStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM session_revocations WHERE session_id = $1`, sessionID).Scan(&expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	if s.clock().After(expiresAt) {
		return false, nil
	}
	return true, nil
}

// RevokeAll flags every given session in one round trip, for the
// "log me out everywhere" path.
func (s *PostgresStore) RevokeAll(ctx context.Context, sessionIDs []string, ttl time.Duration) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}

	valid := make([]string, 0, len(sessionIDs))
	for _, sid := range sessionIDs {
		if sid != "" {
			valid = append(valid, sid)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	expiresAt := s.clock().Add(ttl)
	query := `
		INSERT INTO session_revocations (session_id, expires_at)
		SELECT unnest($1::text[]), $2
		ON CONFLICT (session_id) DO UPDATE SET
			expires_at = EXCLUDED.expires_at
	`
	if _, err := s.db.ExecContext(ctx, query, pq.Array(valid), expiresAt); err != nil {
		return fmt.Errorf("revoke sessions batch: %w", err)
	}
	return nil
}
