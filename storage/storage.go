// Package storage persists boards, memberships, tasks, comments,
// notifications and task history in SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Per-listing page sizes. These are server-side constants, never client
// input; clients only choose the page number.
const (
	CommentsPageSize      = 5
	BoardsPageSize        = 10
	TasksPageSize         = 10
	NotificationsPageSize = 10
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the requesting user does not own the row.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicate is returned when a uniqueness constraint would be violated.
	ErrDuplicate = errors.New("already exists")
)

// Storage is the SQLite-backed persistence layer.
type Storage struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and ensures the schema.
func New(path string) (*Storage, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer; a second pooled connection would also
	// split :memory: databases in tests.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Storage) Ping() error {
	return s.db.Ping()
}

// PageInfo locates a page inside the full result set of a listing.
type PageInfo struct {
	CurrentPage  int  `json:"currentPage"`
	HasMorePages bool `json:"hasMorePages"`
	LastPage     int  `json:"lastPage"`
}

// pageInfo computes listing metadata. Pages beyond the last one are valid
// requests that yield an empty slice, never an error.
func pageInfo(total, page, size int) PageInfo {
	last := (total + size - 1) / size
	if last < 1 {
		last = 1
	}
	return PageInfo{
		CurrentPage:  page,
		HasMorePages: page < last,
		LastPage:     last,
	}
}

// normalizePage clamps a client-supplied page number to 1-based.
func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
