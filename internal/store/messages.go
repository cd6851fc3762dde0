package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GleristonCastro/dio-gesinfopro/internal/domain"
)

// AppendMessage persists one chat turn. The pending intent, when present, is
// stored as JSON next to the message so the next turn can resume it without
// re-parsing reply wording.
func (s *Store) AppendMessage(ctx context.Context, m *domain.ChatMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	var pending sql.NullString
	if m.Pending != nil {
		raw, err := json.Marshal(m.Pending)
		if err != nil {
			return fmt.Errorf("store: append message: marshal pending: %w", err)
		}
		pending = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, user_id, role, content, pending, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, string(m.Role), m.Content, pending, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	return nil
}

// RecentMessages returns the owner's last messages, most recent first.
func (s *Store) RecentMessages(ctx context.Context, userID string, limit int) ([]*domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, content, pending, created_at
		FROM chat_messages WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent messages: %w", err)
	}
	defer rows.Close()

	var msgs []*domain.ChatMessage
	for rows.Next() {
		var (
			m       domain.ChatMessage
			role    string
			pending sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Content, &pending, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: recent messages: scan: %w", err)
		}
		m.Role = domain.Role(role)
		if pending.Valid && pending.String != "" {
			var p domain.PendingIntent
			if err := json.Unmarshal([]byte(pending.String), &p); err != nil {
				return nil, fmt.Errorf("store: recent messages: unmarshal pending: %w", err)
			}
			m.Pending = &p
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}
