// Package state persists the calculator's evaluation history in
// SQLite. History is a convenience: open or write failures degrade to
// a logged warning and the calculator keeps working.
package state

import "time"

// Entry is one persisted evaluation.
type Entry struct {
	ID         string
	SessionID  string
	Seq        int
	Input      string
	Output     string
	IsError    bool
	DurationMS int64
	CreatedAt  time.Time
}

// Store is the persistence interface for evaluation history.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	Append(entry *Entry) error
	Recent(n int) ([]*Entry, error)
	BySession(sessionID string) ([]*Entry, error)
}
