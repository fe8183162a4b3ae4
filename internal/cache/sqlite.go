package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	stored_at INTEGER NOT NULL,
	max_age INTEGER NOT NULL,
	stale_while_revalidate INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS cache_entries_expires_at ON cache_entries (expires_at);`

// SQLiteStore keeps entries in a SQLite database so they survive restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dsn. Use
// "file::memory:?cache=shared" for an in-memory database.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("cache: sqlite dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: sqlite set WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: sqlite create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	var (
		e                         Entry
		storedAt, maxAge, swrNano int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, stored_at, max_age, stale_while_revalidate FROM cache_entries WHERE key = ?`, key,
	).Scan(&e.Value, &storedAt, &maxAge, &swrNano)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("cache: sqlite get %s: %w", key, err)
	}
	e.StoredAt = time.Unix(0, storedAt)
	e.MaxAge = time.Duration(maxAge)
	e.StaleWhileRevalidate = time.Duration(swrNano)
	return e, true, nil
}

// Set implements Store.
func (s *SQLiteStore) Set(ctx context.Context, key string, entry Entry) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO cache_entries (key, value, stored_at, max_age, stale_while_revalidate, expires_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	value = excluded.value,
	stored_at = excluded.stored_at,
	max_age = excluded.max_age,
	stale_while_revalidate = excluded.stale_while_revalidate,
	expires_at = excluded.expires_at`,
		key, entry.Value, entry.StoredAt.UnixNano(), int64(entry.MaxAge),
		int64(entry.StaleWhileRevalidate), entry.ExpiresAt().UnixNano())
	if err != nil {
		return fmt.Errorf("cache: sqlite set %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("cache: sqlite delete %s: %w", key, err)
	}
	return nil
}

// Sweep removes entries that can no longer be served.
func (s *SQLiteStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("cache: sqlite sweep: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache: sqlite sweep: %w", err)
	}
	return int(n), nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
