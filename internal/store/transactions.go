package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GleristonCastro/dio-gesinfopro/internal/domain"
)

// CreateTransaction appends one ledger entry. ID and CreatedAt are assigned
// when empty.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, amount, kind, description, category_id, goal_id, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Amount.String(), string(tx.Kind), tx.Description,
		tx.CategoryID, tx.GoalID, tx.Date, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: create transaction: %w", err)
	}
	return nil
}

// SumByKind returns the sum of transaction amounts of the given kind for one
// owner. A non-nil since restricts the sum to transactions dated on or after
// it. Amounts are stored as decimal strings, so the sum is computed here
// rather than in SQL.
func (s *Store) SumByKind(ctx context.Context, userID string, kind domain.TransactionKind, since *time.Time) (decimal.Decimal, error) {
	query := `SELECT amount FROM transactions WHERE user_id = ? AND kind = ?`
	args := []interface{}{userID, string(kind)}
	if since != nil {
		query += ` AND date >= ?`
		args = append(args, *since)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("store: sum %s: %w", kind, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("store: sum %s: scan: %w", kind, err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("store: sum %s: bad amount %q: %w", kind, raw, err)
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

// Balance derives the available funds: all income minus all expenses,
// goal-linked expenses included. Never cached.
func (s *Store) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	income, err := s.SumByKind(ctx, userID, domain.Income, nil)
	if err != nil {
		return decimal.Zero, err
	}
	expense, err := s.SumByKind(ctx, userID, domain.Expense, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return income.Sub(expense), nil
}

// TopExpenseCategory returns the category name with the highest expense total
// for one owner, optionally restricted to transactions dated on or after
// since. ErrNotFound when the owner has no categorized expenses in the window.
func (s *Store) TopExpenseCategory(ctx context.Context, userID string, since *time.Time) (string, decimal.Decimal, error) {
	query := `
		SELECT c.name, t.amount FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.kind = ?`
	args := []interface{}{userID, string(domain.Expense)}
	if since != nil {
		query += ` AND t.date >= ?`
		args = append(args, *since)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("store: top expense category: %w", err)
	}
	defer rows.Close()

	totals := map[string]decimal.Decimal{}
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return "", decimal.Zero, fmt.Errorf("store: top expense category: scan: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return "", decimal.Zero, fmt.Errorf("store: top expense category: bad amount %q: %w", raw, err)
		}
		totals[name] = totals[name].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return "", decimal.Zero, err
	}

	var (
		topName  string
		topTotal decimal.Decimal
	)
	for name, total := range totals {
		if topName == "" || total.GreaterThan(topTotal) ||
			(total.Equal(topTotal) && name < topName) {
			topName = name
			topTotal = total
		}
	}
	if topName == "" {
		return "", decimal.Zero, ErrNotFound
	}
	return topName, topTotal, nil
}

// ListGoalTransactions returns the transactions linked to a goal, most
// recent first.
func (s *Store) ListGoalTransactions(ctx context.Context, goalID string) ([]*domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, kind, description, category_id, goal_id, date, created_at
		FROM transactions WHERE goal_id = ? ORDER BY date DESC, created_at DESC`, goalID)
	if err != nil {
		return nil, fmt.Errorf("store: list goal transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(rows *sql.Rows) (*domain.Transaction, error) {
	var (
		tx   domain.Transaction
		raw  string
		kind string
	)
	if err := rows.Scan(&tx.ID, &tx.UserID, &raw, &kind, &tx.Description,
		&tx.CategoryID, &tx.GoalID, &tx.Date, &tx.CreatedAt); err != nil {
		return nil, fmt.Errorf("store: scan transaction: %w", err)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("store: scan transaction: bad amount %q: %w", raw, err)
	}
	tx.Amount = amount
	tx.Kind = domain.TransactionKind(kind)
	return &tx, nil
}
