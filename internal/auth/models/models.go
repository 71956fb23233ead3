package models

import (
	"time"

	id "splitledger/pkg/domain"
)

// Role is the authorization role carried in session tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is a principal known to the credential store.
type Identity struct {
	ID          id.UserID
	Email       string
	DisplayName string
	Role        Role
}

// EnrollmentState is the MFA enrollment lifecycle. The zero value is Absent.
// Pending may be overwritten by a new setup call; Confirmed must be explicitly
// disabled before re-setup.
type EnrollmentState string

const (
	EnrollmentAbsent    EnrollmentState = "absent"
	EnrollmentPending   EnrollmentState = "pending"
	EnrollmentConfirmed EnrollmentState = "confirmed"
)

// Enrollment is the per-identity MFA record. Secret is only meaningful in the
// Pending and Confirmed states; backup codes are stored hashed only.
type Enrollment struct {
	State       EnrollmentState
	Secret      string
	BackupCodes []BackupCode
}

// Enabled reports whether a second factor is demanded at login.
func (e Enrollment) Enabled() bool {
	return e.State == EnrollmentConfirmed
}

// RemainingBackupCodes counts codes not yet consumed.
func (e Enrollment) RemainingBackupCodes() int {
	n := 0
	for _, c := range e.BackupCodes {
		if c.UsedAt == nil {
			n++
		}
	}
	return n
}

// BackupCode is a one-time recovery credential, stored as a bcrypt hash.
// UsedAt is nil until consumed; consumption is a conditional update.
type BackupCode struct {
	Hash   string
	UsedAt *time.Time
}

// Credential is the stored authentication material for an identity. The
// password hash is argon2id; plaintext passwords never reach storage.
type Credential struct {
	Identity     Identity
	PasswordHash []byte
	PasswordSalt []byte
	Enrollment   Enrollment
}

// LoginRequest is the input to the login flow.
type LoginRequest struct {
	Email      string
	Password   string
	OTP        string // TOTP code, required once enrollment is confirmed
	BackupCode string // recovery alternative to OTP
	RememberMe bool

	// Request origin, populated by the HTTP layer.
	UserAgent string
	IP        string
}

// LoginResult carries the issued token back to the transport layer.
type LoginResult struct {
	Token     string
	SessionID id.SessionID
	ExpiresAt time.Time
	User      Identity
}
