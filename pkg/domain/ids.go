// Package domain holds shared identifier types. Typed IDs keep user and
// session identifiers from being swapped at call sites; the compiler enforces
// the distinction.
package domain

import (
	"github.com/google/uuid"

	dErrors "splitledger/pkg/domain-errors"
)

// UserID identifies a principal.
type UserID uuid.UUID

// SessionID identifies a login session. One live token exists per session.
type SessionID uuid.UUID

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewUserID mints a fresh random user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewSessionID mints a fresh random session identifier.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// Named array types do not inherit uuid.UUID's text marshalling, so both IDs
// implement it explicitly to render as canonical UUID strings in JSON.

func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id SessionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *SessionID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = SessionID(u)
	return nil
}

// ParseUserID parses and validates a user ID at a trust boundary.
// Empty strings, malformed UUIDs, and the nil UUID are all rejected.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseSessionID parses and validates a session ID at a trust boundary.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session id")
	return SessionID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s is required", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s is not a valid uuid", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s must not be nil", what)
	}
	return u, nil
}
