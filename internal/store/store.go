// Package store persists the ledger (transactions, goals, categories) and the
// chat history in sqlite. Goal balance mutations run inside write transactions
// so their invariants hold under concurrent requests.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("store: not found")
	// ErrGoalFundsExceeded is returned when a decrement would push a goal's
	// accumulated amount below zero.
	ErrGoalFundsExceeded = errors.New("store: goal funds exceeded")
)

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path. Use ":memory:"
// for tests.
func Open(path string) (*Store, error) {
	dsn := path + "?_journal=WAL&_busy_timeout=5000&_txlock=immediate&_fk=1"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	if strings.Contains(path, ":memory:") {
		// Each pooled connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			user_id TEXT,
			custom INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS goals (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			target_amount TEXT NOT NULL,
			current_amount TEXT NOT NULL,
			deadline DATETIME,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			kind TEXT NOT NULL,
			description TEXT NOT NULL,
			category_id TEXT REFERENCES categories(id),
			goal_id TEXT REFERENCES goals(id),
			date DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			pending TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, kind);`,
		`CREATE INDEX IF NOT EXISTS idx_goals_user_status ON goals(user_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_user_created ON chat_messages(user_id, created_at);`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}
