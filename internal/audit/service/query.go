package service

import (
	"context"
	"errors"

	"splitledger/internal/audit/models"
	"splitledger/internal/audit/store/attempt"
	id "splitledger/pkg/domain"
	dErrors "splitledger/pkg/domain-errors"
)

const (
	// DefaultPageSize applies when the caller omits pageSize.
	DefaultPageSize = 20
	maxPageSize     = 100
)

// Query serves the login-history read side.
type Query struct {
	store attempt.Store
}

func NewQuery(store attempt.Store) *Query {
	return &Query{store: store}
}

// History returns a page of the user's login records, newest first. The
// filter narrows the records only; the stats in the same response always
// cover the full unfiltered history.
func (q *Query) History(ctx context.Context, userID id.UserID, page, pageSize int, filter models.Filter) (*models.History, error) {
	if page < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "page must be at least 1")
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return nil, dErrors.Newf(dErrors.CodeValidation, "pageSize must be between 1 and %d", maxPageSize)
	}

	offset := (page - 1) * pageSize
	records, err := q.store.ListByUser(ctx, userID, filter, pageSize, offset)
	if err != nil {
		return nil, queryErr(err)
	}
	stats, err := q.store.CountByUser(ctx, userID)
	if err != nil {
		return nil, queryErr(err)
	}

	if records == nil {
		records = []models.LoginAttempt{}
	}
	return &models.History{
		Records:  records,
		Stats:    stats,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func queryErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "attempt store timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "attempt store unavailable")
}
