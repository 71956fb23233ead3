package models

import (
	"time"

	"github.com/google/uuid"

	"splitledger/internal/auth/device"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
)

// LoginAttempt is one row of the login history. Append-only; records are
// never updated or deleted.
type LoginAttempt struct {
	ID            uuid.UUID         `json:"id"`
	UserID        id.UserID         `json:"userId"`
	// SessionID is set on successful attempts only; it is what lets the
	// "log out everywhere" path enumerate a user's live sessions.
	SessionID     id.SessionID      `json:"sessionId,omitzero"`
	Email         string            `json:"email"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	IPAddress     string            `json:"ipAddress"`
	Device        device.DeviceInfo `json:"device"`
	Location      *device.Location  `json:"location,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Filter narrows a history page by outcome. It never affects the aggregate
// stats, which always cover the full history for the user.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterSuccess Filter = "success"
	FilterFailed  Filter = "failed"
)

// ParseFilter maps the query-string value to a Filter. Empty means all.
func ParseFilter(raw string) (Filter, error) {
	switch Filter(raw) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterSuccess:
		return FilterSuccess, nil
	case FilterFailed:
		return FilterFailed, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown filter %q", raw)
	}
}

// Matches reports whether a record outcome passes the filter.
func (f Filter) Matches(success bool) bool {
	switch f {
	case FilterSuccess:
		return success
	case FilterFailed:
		return !success
	default:
		return true
	}
}

// Stats are aggregate counts over the user's entire history, regardless of
// any page-level filter.
type Stats struct {
	TotalLogins      int `json:"totalLogins"`
	SuccessfulLogins int `json:"successfulLogins"`
	FailedLogins     int `json:"failedLogins"`
}

// History is one page of filtered records plus the unfiltered stats.
type History struct {
	Records  []LoginAttempt `json:"records"`
	Stats    Stats          `json:"stats"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}
