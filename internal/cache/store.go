// Package cache persists fetched content to disk and wraps remote fetches
// with time-based expiry and a serve-stale-on-error policy.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the on-disk cache, a SQLite table keyed by cache identifier.
type Store struct {
	db *sql.DB
}

// Entry is one stored cache value with its freshness timestamp.
type Entry struct {
	Key       string
	Data      []byte
	FetchedAt time.Time
}

// Open opens or creates the cache database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	// WAL mode for better concurrency between independent keys.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// Close closes the cache database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		fetched_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fetched ON entries(fetched_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get retrieves the entry stored under key, or nil when absent.
func (s *Store) Get(key string) (*Entry, error) {
	entry := &Entry{Key: key}

	err := s.db.QueryRow(
		"SELECT data, fetched_at FROM entries WHERE key = ?", key,
	).Scan(&entry.Data, &entry.FetchedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Put stores data under key, replacing any previous value. Concurrent
// writers for the same key are not coordinated; last writer wins.
func (s *Store) Put(key string, data []byte, fetchedAt time.Time) error {
	query := `
	INSERT INTO entries (key, data, fetched_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		data = excluded.data,
		fetched_at = excluded.fetched_at
	`

	_, err := s.db.Exec(query, key, data, fetchedAt)
	return err
}

// Delete removes the entry stored under key.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM entries WHERE key = ?", key)
	return err
}

// Clear removes every entry.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM entries")
	return err
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}

// Keys lists all stored cache identifiers with their freshness timestamps,
// oldest first.
func (s *Store) Keys() ([]Entry, error) {
	rows, err := s.db.Query("SELECT key, fetched_at FROM entries ORDER BY fetched_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.FetchedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
