package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// NewSQLiteStoreWithDB wraps an existing database connection. Used by
// tests that inject a mock.
func NewSQLiteStoreWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// NewID creates a new UUID string for entry and session ids.
func NewID() string {
	return uuid.New().String()
}

// Append persists one evaluation. A zero ID or CreatedAt is filled in.
func (s *SQLiteStore) Append(entry *Entry) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO entries (id, session_id, seq, input, output, is_error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.SessionID, entry.Seq, entry.Input, entry.Output,
		boolToInt(entry.IsError), entry.DurationMS, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// Recent returns the n most recent entries, newest first.
func (s *SQLiteStore) Recent(n int) ([]*Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, seq, input, output, is_error, duration_ms, created_at
		 FROM entries ORDER BY created_at DESC, seq DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// BySession returns the entries of one session in evaluation order.
func (s *SQLiteStore) BySession(sessionID string) ([]*Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, seq, input, output, is_error, duration_ms, created_at
		 FROM entries WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var isErr int
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Seq, &e.Input, &e.Output,
			&isErr, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.IsError = isErr != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return entries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
