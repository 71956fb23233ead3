package attempt

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"splitledger/internal/audit/models"
	"splitledger/internal/auth/device"
	id "splitledger/pkg/domain"
)

// PostgresStore persists attempts in the login_attempts table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, attempt *models.LoginAttempt) error {
	var city, country string
	if attempt.Location != nil {
		city, country = attempt.Location.City, attempt.Location.Country
	}
	var sessionID string
	if !attempt.SessionID.IsNil() {
		sessionID = attempt.SessionID.String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO login_attempts
			(id, user_id, session_id, email, success, failure_reason, ip_address,
			 browser, os, device, location_city, location_country, created_at)
		VALUES ($1, $2, $3, lower($4), $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		attempt.ID.String(), attempt.UserID.String(), sessionID, attempt.Email,
		attempt.Success, attempt.FailureReason, attempt.IPAddress,
		attempt.Device.Browser, attempt.Device.OS, attempt.Device.Device,
		city, country, attempt.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append login attempt: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, filter models.Filter, limit, offset int) ([]models.LoginAttempt, error) {
	query := `
		SELECT id, user_id, session_id, email, success, failure_reason, ip_address,
		       browser, os, device, location_city, location_country, created_at
		FROM login_attempts
		WHERE user_id = $1`
	args := []any{userID.String()}

	switch filter {
	case models.FilterSuccess:
		query += ` AND success`
	case models.FilterFailed:
		query += ` AND NOT success`
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list login attempts: %w", err)
	}
	defer rows.Close()

	var out []models.LoginAttempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *attempt)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SessionIDsSince(ctx context.Context, userID id.UserID, since time.Time) ([]id.SessionID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT session_id FROM login_attempts
		WHERE user_id = $1 AND success AND session_id <> '' AND created_at >= $2`,
		userID.String(), since,
	)
	if err != nil {
		return nil, fmt.Errorf("list session ids: %w", err)
	}
	defer rows.Close()

	var out []id.SessionID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		sid, err := id.ParseSessionID(raw)
		if err != nil {
			return nil, fmt.Errorf("stored session id invalid: %w", err)
		}
		out = append(out, sid)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountByUser(ctx context.Context, userID id.UserID) (models.Stats, error) {
	var stats models.Stats
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE success),
		       count(*) FILTER (WHERE NOT success)
		FROM login_attempts WHERE user_id = $1`, userID.String(),
	).Scan(&stats.TotalLogins, &stats.SuccessfulLogins, &stats.FailedLogins)
	if err != nil {
		return models.Stats{}, fmt.Errorf("count login attempts: %w", err)
	}
	return stats, nil
}

func scanAttempt(row pgx.Row) (*models.LoginAttempt, error) {
	var (
		attempt               models.LoginAttempt
		rawID, rawUID, rawSID string
		city, country         string
	)
	err := row.Scan(&rawID, &rawUID, &rawSID, &attempt.Email, &attempt.Success,
		&attempt.FailureReason, &attempt.IPAddress,
		&attempt.Device.Browser, &attempt.Device.OS, &attempt.Device.Device,
		&city, &country, &attempt.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("scan login attempt: %w", err)
	}

	if attempt.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("stored attempt id invalid: %w", err)
	}
	if attempt.UserID, err = id.ParseUserID(rawUID); err != nil {
		return nil, fmt.Errorf("stored user id invalid: %w", err)
	}
	if rawSID != "" {
		if attempt.SessionID, err = id.ParseSessionID(rawSID); err != nil {
			return nil, fmt.Errorf("stored session id invalid: %w", err)
		}
	}
	if city != "" || country != "" {
		attempt.Location = &device.Location{City: city, Country: country}
	}
	return &attempt, nil
}
