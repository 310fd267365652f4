// Package knowledge keeps small categorized notes per user so the bot
// can be told facts with /remember and asked for them back with /recall.
package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrUnavailable is reported when no knowledge base is configured.
var ErrUnavailable = errors.New("knowledge base is not configured")

// Entry is one remembered fact.
type Entry struct {
	ID        int64
	UserID    string
	Category  string
	Content   string
	CreatedAt time.Time
}

// Store persists and retrieves per-user entries.
type Store interface {
	Remember(ctx context.Context, userID, category, content string) error
	Recall(ctx context.Context, userID, query string, limit int) ([]Entry, error)
	Recent(ctx context.Context, userID string, limit int) ([]Entry, error)
}

// Disabled stands in for a Store when no database path is configured.
// Every operation reports ErrUnavailable.
type Disabled struct{}

func (Disabled) Remember(context.Context, string, string, string) error { return ErrUnavailable }

func (Disabled) Recall(context.Context, string, string, int) ([]Entry, error) {
	return nil, ErrUnavailable
}

func (Disabled) Recent(context.Context, string, int) ([]Entry, error) {
	return nil, ErrUnavailable
}

const defaultLimit = 5

// SQLiteStore keeps entries in a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and prepares the
// entries table.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge db: %w", err)
	}

	// SQLite is single-writer; one shared connection lets database/sql
	// serialize concurrent callers instead of them fighting for locks.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			category TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create entries table: %w", err)
	}
	if _, err := db.Exec(
		`CREATE INDEX IF NOT EXISTS idx_entries_user ON entries(user_id, created_at)`,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create entries index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Remember stores one fact for the user.
func (s *SQLiteStore) Remember(ctx context.Context, userID, category, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (user_id, category, content, created_at) VALUES (?, ?, ?, ?)`,
		userID, category, content, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// Recall returns the user's entries whose category or content contains
// query (case-insensitive), newest first.
func (s *SQLiteStore) Recall(ctx context.Context, userID, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category, content, created_at
		FROM entries
		WHERE user_id = ? AND (LOWER(category) LIKE ? OR LOWER(content) LIKE ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		userID, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Recent returns the user's newest entries.
func (s *SQLiteStore) Recent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category, content, created_at
		FROM entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		e.CreatedAt = t
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}
