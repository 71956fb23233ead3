package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"splitledger/internal/expense/models"
	id "splitledger/pkg/domain"
	"splitledger/pkg/platform/sentinel"
)

// PostgresStore persists the ledger in the expenses and settlements tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) AddExpense(ctx context.Context, e *models.Expense) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO expenses (id, paid_by, description, amount_cents, category, spent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID.String(), e.PaidBy.String(), e.Description, e.AmountCents, e.Category, e.SpentAt)
	if err != nil {
		return fmt.Errorf("add expense: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateExpense(ctx context.Context, e *models.Expense) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE expenses
		SET paid_by = $2, description = $3, amount_cents = $4, category = $5, spent_at = $6
		WHERE id = $1`,
		e.ID.String(), e.PaidBy.String(), e.Description, e.AmountCents, e.Category, e.SpentAt)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteExpense(ctx context.Context, expenseID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, expenseID.String())
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListExpenses(ctx context.Context, limit, offset int) ([]models.Expense, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, paid_by, description, amount_cents, category, spent_at
		FROM expenses ORDER BY spent_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []models.Expense
	for rows.Next() {
		var (
			e             models.Expense
			rawID, rawUID string
		)
		if err := rows.Scan(&rawID, &rawUID, &e.Description, &e.AmountCents, &e.Category, &e.SpentAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("stored expense id invalid: %w", err)
		}
		if e.PaidBy, err = id.ParseUserID(rawUID); err != nil {
			return nil, fmt.Errorf("stored payer id invalid: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) PaidTotals(ctx context.Context) (map[id.UserID]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT paid_by, sum(amount_cents) FROM expenses GROUP BY paid_by`)
	if err != nil {
		return nil, fmt.Errorf("paid totals: %w", err)
	}
	defer rows.Close()

	paid := make(map[id.UserID]int64)
	for rows.Next() {
		var (
			rawUID string
			total  int64
		)
		if err := rows.Scan(&rawUID, &total); err != nil {
			return nil, fmt.Errorf("scan paid total: %w", err)
		}
		userID, err := id.ParseUserID(rawUID)
		if err != nil {
			return nil, fmt.Errorf("stored payer id invalid: %w", err)
		}
		paid[userID] = total
	}
	return paid, rows.Err()
}

func (s *PostgresStore) SettledTotals(ctx context.Context) (map[id.UserID]int64, map[id.UserID]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT from_user, to_user, amount_cents FROM settlements`)
	if err != nil {
		return nil, nil, fmt.Errorf("settled totals: %w", err)
	}
	defer rows.Close()

	sent := make(map[id.UserID]int64)
	received := make(map[id.UserID]int64)
	for rows.Next() {
		var (
			rawFrom, rawTo string
			amount         int64
		)
		if err := rows.Scan(&rawFrom, &rawTo, &amount); err != nil {
			return nil, nil, fmt.Errorf("scan settlement total: %w", err)
		}
		from, err := id.ParseUserID(rawFrom)
		if err != nil {
			return nil, nil, fmt.Errorf("stored payer id invalid: %w", err)
		}
		to, err := id.ParseUserID(rawTo)
		if err != nil {
			return nil, nil, fmt.Errorf("stored payee id invalid: %w", err)
		}
		sent[from] += amount
		received[to] += amount
	}
	return sent, received, rows.Err()
}

func (s *PostgresStore) AddSettlement(ctx context.Context, st *models.Settlement) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settlements (id, from_user, to_user, amount_cents, settled_at)
		VALUES ($1, $2, $3, $4, $5)`,
		st.ID.String(), st.FromUser.String(), st.ToUser.String(), st.AmountCents, st.SettledAt)
	if err != nil {
		return fmt.Errorf("add settlement: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSettlements(ctx context.Context, limit, offset int) ([]models.Settlement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, from_user, to_user, amount_cents, settled_at
		FROM settlements ORDER BY settled_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()

	var out []models.Settlement
	for rows.Next() {
		var (
			st                    models.Settlement
			rawID, rawFrom, rawTo string
		)
		if err := rows.Scan(&rawID, &rawFrom, &rawTo, &st.AmountCents, &st.SettledAt); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		if st.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("stored settlement id invalid: %w", err)
		}
		if st.FromUser, err = id.ParseUserID(rawFrom); err != nil {
			return nil, fmt.Errorf("stored payer id invalid: %w", err)
		}
		if st.ToUser, err = id.ParseUserID(rawTo); err != nil {
			return nil, fmt.Errorf("stored payee id invalid: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
