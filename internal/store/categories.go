package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/GleristonCastro/dio-gesinfopro/internal/domain"
)

// FindCategoryByName looks up a category by name, case-insensitively, among
// global categories and the owner's own.
func (s *Store) FindCategoryByName(ctx context.Context, userID, name string) (*domain.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, user_id, custom FROM categories
		WHERE name = ? COLLATE NOCASE AND (user_id IS NULL OR user_id = ?)`,
		name, userID)

	var c domain.Category
	var owner sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &owner, &c.Custom); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: find category: %w", err)
	}
	if owner.Valid {
		u := owner.String
		c.UserID = &u
	}
	return &c, nil
}

// CreateCategory inserts a new category. A nil userID makes it global.
func (s *Store) CreateCategory(ctx context.Context, name string, userID *string, custom bool) (*domain.Category, error) {
	c := &domain.Category{
		ID:     uuid.NewString(),
		Name:   name,
		UserID: userID,
		Custom: custom,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, user_id, custom) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.UserID, c.Custom)
	if err != nil {
		return nil, fmt.Errorf("store: create category: %w", err)
	}
	return c, nil
}

// FindOrCreateCategory resolves a category name, creating a global entry when
// the parser produced a name nobody has used yet.
func (s *Store) FindOrCreateCategory(ctx context.Context, userID, name string) (*domain.Category, error) {
	c, err := s.FindCategoryByName(ctx, userID, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.CreateCategory(ctx, name, nil, false)
}
