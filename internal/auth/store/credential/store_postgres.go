package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"splitledger/internal/auth/models"
	id "splitledger/pkg/domain"
	"splitledger/pkg/platform/sentinel"
)

// PostgresStore persists credentials in the users and mfa_backup_codes
// tables. Backup-code consumption relies on a conditional UPDATE so the
// one-time invariant holds across instances without advisory locks.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateUser(ctx context.Context, cred *models.Credential) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, display_name, role, password_hash, password_salt, mfa_state, mfa_secret)
		VALUES ($1, lower($2), $3, $4, $5, $6, 'absent', '')`,
		cred.Identity.ID.String(), cred.Identity.Email, cred.Identity.DisplayName,
		string(cred.Identity.Role), cred.PasswordHash, cred.PasswordSalt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	return s.findWhere(ctx, `email = lower($1)`, email)
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.Credential, error) {
	return s.findWhere(ctx, `id = $1`, userID.String())
}

func (s *PostgresStore) findWhere(ctx context.Context, where string, arg any) (*models.Credential, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, display_name, role, password_hash, password_salt, mfa_state, mfa_secret
		FROM users WHERE `+where, arg)

	var (
		rawID, email, displayName, role, mfaState, mfaSecret string
		hash, salt                                           []byte
	)
	if err := row.Scan(&rawID, &email, &displayName, &role, &hash, &salt, &mfaState, &mfaSecret); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	userID, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored user id invalid: %w", err)
	}

	cred := &models.Credential{
		Identity: models.Identity{
			ID:          userID,
			Email:       email,
			DisplayName: displayName,
			Role:        models.Role(role),
		},
		PasswordHash: hash,
		PasswordSalt: salt,
		Enrollment: models.Enrollment{
			State:  models.EnrollmentState(mfaState),
			Secret: mfaSecret,
		},
	}

	rows, err := s.pool.Query(ctx, `
		SELECT code_hash, used_at FROM mfa_backup_codes
		WHERE user_id = $1 ORDER BY created_at`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("load backup codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code models.BackupCode
		if err := rows.Scan(&code.Hash, &code.UsedAt); err != nil {
			return nil, fmt.Errorf("scan backup code: %w", err)
		}
		cred.Enrollment.BackupCodes = append(cred.Enrollment.BackupCodes, code)
	}
	return cred, rows.Err()
}

func (s *PostgresStore) SavePendingEnrollment(ctx context.Context, userID id.UserID, secret string, codeHashes []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// The state guard lives in the WHERE clause: a confirmed enrollment is
	// never overwritten, even if two setup calls race.
	tag, err := tx.Exec(ctx, `
		UPDATE users SET mfa_state = 'pending', mfa_secret = $2
		WHERE id = $1 AND mfa_state <> 'confirmed'`,
		userID.String(), secret)
	if err != nil {
		return fmt.Errorf("save pending enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT true FROM users WHERE id = $1`, userID.String()).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("check user: %w", err)
		}
		return sentinel.ErrInvalidState
	}

	if _, err := tx.Exec(ctx, `DELETE FROM mfa_backup_codes WHERE user_id = $1`, userID.String()); err != nil {
		return fmt.Errorf("clear backup codes: %w", err)
	}
	for _, h := range codeHashes {
		if _, err := tx.Exec(ctx, `
			INSERT INTO mfa_backup_codes (user_id, code_hash, created_at)
			VALUES ($1, $2, now())`, userID.String(), h); err != nil {
			return fmt.Errorf("insert backup code: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) ConfirmEnrollment(ctx context.Context, userID id.UserID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET mfa_state = 'confirmed'
		WHERE id = $1 AND mfa_state = 'pending'`, userID.String())
	if err != nil {
		return fmt.Errorf("confirm enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) DisableMFA(ctx context.Context, userID id.UserID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE users SET mfa_state = 'absent', mfa_secret = ''
		WHERE id = $1`, userID.String())
	if err != nil {
		return fmt.Errorf("disable mfa: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM mfa_backup_codes WHERE user_id = $1`, userID.String()); err != nil {
		return fmt.Errorf("clear backup codes: %w", err)
	}
	return tx.Commit(ctx)
}

// MarkBackupCodeUsed consumes a code with a single conditional UPDATE.
// RowsAffected distinguishes the winner from everyone else in a race.
func (s *PostgresStore) MarkBackupCodeUsed(ctx context.Context, userID id.UserID, codeHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE mfa_backup_codes SET used_at = now()
		WHERE user_id = $1 AND code_hash = $2 AND used_at IS NULL`,
		userID.String(), codeHash)
	if err != nil {
		return fmt.Errorf("mark backup code used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}
