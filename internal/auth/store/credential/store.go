// Package credential is the keyed store of authentication material: password
// hashes, MFA enrollment, backup-code hashes. The service layer owns all
// policy; this package only guards state-transition facts (a confirmed
// enrollment is never silently overwritten, a backup code is consumed at most
// once).
package credential

import (
	"context"

	"splitledger/internal/auth/models"
	id "splitledger/pkg/domain"
)

// Store is the credential-store contract. Implementations return
// pkg/platform/sentinel facts; services translate them into domain errors.
type Store interface {
	// CreateUser registers a new identity with its password material.
	CreateUser(ctx context.Context, cred *models.Credential) error

	// FindByEmail returns sentinel.ErrNotFound for unknown addresses.
	FindByEmail(ctx context.Context, email string) (*models.Credential, error)

	// FindByID returns sentinel.ErrNotFound for unknown identities.
	FindByID(ctx context.Context, userID id.UserID) (*models.Credential, error)

	// SavePendingEnrollment stores a fresh secret and backup-code hashes and
	// moves enrollment to pending. Overwriting another pending enrollment is
	// allowed; a confirmed one returns sentinel.ErrInvalidState.
	SavePendingEnrollment(ctx context.Context, userID id.UserID, secret string, codeHashes []string) error

	// ConfirmEnrollment moves pending to confirmed. Any other starting state
	// returns sentinel.ErrInvalidState.
	ConfirmEnrollment(ctx context.Context, userID id.UserID) error

	// DisableMFA clears the enrollment back to absent.
	DisableMFA(ctx context.Context, userID id.UserID) error

	// MarkBackupCodeUsed consumes one backup code by hash. The update is
	// conditional on the code being unused: under concurrent attempts exactly
	// one caller succeeds and the rest get sentinel.ErrAlreadyUsed.
	MarkBackupCodeUsed(ctx context.Context, userID id.UserID, codeHash string) error
}
