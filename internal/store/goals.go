package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GleristonCastro/dio-gesinfopro/internal/domain"
)

// CreateGoal inserts a new goal. ID, CreatedAt and Status are assigned when
// empty; CurrentAmount starts at zero.
func (s *Store) CreateGoal(ctx context.Context, g *domain.Goal) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	if g.Status == "" {
		g.Status = domain.GoalActive
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target_amount, current_amount, deadline, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(),
		g.Deadline, string(g.Status), g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: create goal: %w", err)
	}
	return nil
}

// GetGoal loads one goal by id.
func (s *Store) GetGoal(ctx context.Context, id string) (*domain.Goal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, target_amount, current_amount, deadline, status, created_at
		FROM goals WHERE id = ?`, id)
	return scanGoalRow(row)
}

// ListActiveGoals returns the owner's ACTIVE goals, oldest first.
func (s *Store) ListActiveGoals(ctx context.Context, userID string) ([]*domain.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, target_amount, current_amount, deadline, status, created_at
		FROM goals WHERE user_id = ? AND status = ? ORDER BY created_at`,
		userID, string(domain.GoalActive))
	if err != nil {
		return nil, fmt.Errorf("store: list active goals: %w", err)
	}
	defer rows.Close()

	var goals []*domain.Goal
	for rows.Next() {
		g, err := scanGoalRows(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// CountActiveGoals returns how many ACTIVE goals the owner has.
func (s *Store) CountActiveGoals(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM goals WHERE user_id = ? AND status = ?`,
		userID, string(domain.GoalActive)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count active goals: %w", err)
	}
	return n, nil
}

// FindActiveGoalByName returns the first ACTIVE goal whose name contains the
// keyword, case-insensitively. The fold happens in Go because sqlite's
// lower() only handles ASCII and goal names are Portuguese.
func (s *Store) FindActiveGoalByName(ctx context.Context, userID, keyword string) (*domain.Goal, error) {
	goals, err := s.ListActiveGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil, ErrNotFound
	}
	for _, g := range goals {
		if strings.Contains(strings.ToLower(g.Name), needle) {
			return g, nil
		}
	}
	return nil, ErrNotFound
}

// AddToGoalAmount applies a signed delta to the goal's accumulated amount
// inside a write transaction. The post-condition current_amount >= 0 is
// checked before commit; a violating delta returns ErrGoalFundsExceeded and
// mutates nothing. Status is not touched here.
func (s *Store) AddToGoalAmount(ctx context.Context, goalID string, delta decimal.Decimal) (*domain.Goal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: add to goal: begin: %w", err)
	}
	defer tx.Rollback()

	g, err := scanGoalRow(tx.QueryRowContext(ctx, `
		SELECT id, user_id, name, target_amount, current_amount, deadline, status, created_at
		FROM goals WHERE id = ?`, goalID))
	if err != nil {
		return nil, err
	}

	updated := g.CurrentAmount.Add(delta)
	if updated.IsNegative() {
		return nil, ErrGoalFundsExceeded
	}

	if _, err := tx.ExecContext(ctx, `UPDATE goals SET current_amount = ? WHERE id = ?`,
		updated.String(), goalID); err != nil {
		return nil, fmt.Errorf("store: add to goal: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: add to goal: commit: %w", err)
	}

	g.CurrentAmount = updated
	return g, nil
}

// MarkGoalCompletedIfTargetMet transitions an ACTIVE goal to COMPLETED once
// its accumulated amount reaches the target. Calling it on an already
// COMPLETED goal is a no-op; COMPLETED never reverts.
func (s *Store) MarkGoalCompletedIfTargetMet(ctx context.Context, goalID string) (*domain.Goal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: complete goal: begin: %w", err)
	}
	defer tx.Rollback()

	g, err := scanGoalRow(tx.QueryRowContext(ctx, `
		SELECT id, user_id, name, target_amount, current_amount, deadline, status, created_at
		FROM goals WHERE id = ?`, goalID))
	if err != nil {
		return nil, err
	}

	if g.Status != domain.GoalActive || !g.TargetMet() {
		return g, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE goals SET status = ? WHERE id = ?`,
		string(domain.GoalCompleted), goalID); err != nil {
		return nil, fmt.Errorf("store: complete goal: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: complete goal: commit: %w", err)
	}

	g.Status = domain.GoalCompleted
	return g, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGoal(sc rowScanner) (*domain.Goal, error) {
	var (
		g        domain.Goal
		target   string
		cur      string
		status   string
		deadline sql.NullTime
	)
	if err := sc.Scan(&g.ID, &g.UserID, &g.Name, &target, &cur, &deadline, &status, &g.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan goal: %w", err)
	}

	var err error
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return nil, fmt.Errorf("store: scan goal: bad target %q: %w", target, err)
	}
	if g.CurrentAmount, err = decimal.NewFromString(cur); err != nil {
		return nil, fmt.Errorf("store: scan goal: bad current %q: %w", cur, err)
	}
	if deadline.Valid {
		d := deadline.Time
		g.Deadline = &d
	}
	g.Status = domain.GoalStatus(status)
	return &g, nil
}

func scanGoalRow(row *sql.Row) (*domain.Goal, error) { return scanGoal(row) }
func scanGoalRows(rows *sql.Rows) (*domain.Goal, error) { return scanGoal(rows) }
