package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage persists caches in a local SQLite file so cached responses
// survive process restarts.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (or creates) the cache database at the given path.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return storage, nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS caches (
		name TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS entries (
		cache_name TEXT NOT NULL,
		key TEXT NOT NULL,
		status INTEGER NOT NULL,
		header TEXT NOT NULL DEFAULT '{}',
		body BLOB,
		stored_at DATETIME NOT NULL,
		PRIMARY KEY (cache_name, key),
		FOREIGN KEY (cache_name) REFERENCES caches(name) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Open returns the named cache, creating it if needed.
func (s *SQLiteStorage) Open(ctx context.Context, name string) (Cache, error) {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO caches (name) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}
	return &sqliteCache{db: s.db, name: name}, nil
}

// Delete removes an entire named cache and its entries.
func (s *SQLiteStorage) Delete(ctx context.Context, name string) (bool, error) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE cache_name = ?`, name); err != nil {
		return false, err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM caches WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// Names lists all existing cache names.
func (s *SQLiteStorage) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM caches`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the cache database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type sqliteCache struct {
	db   *sql.DB
	name string
}

func (c *sqliteCache) Match(ctx context.Context, key string) (*Entry, error) {
	entry := &Entry{URL: key}
	var header string

	err := c.db.QueryRowContext(ctx, `
		SELECT status, header, body, stored_at FROM entries
		WHERE cache_name = ? AND key = ?
	`, c.name, key).Scan(&entry.Status, &header, &entry.Body, &entry.StoredAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entry.Header = http.Header{}
	_ = json.Unmarshal([]byte(header), &entry.Header)
	return entry, nil
}

func (c *sqliteCache) Put(ctx context.Context, key string, entry *Entry) error {
	header, err := json.Marshal(entry.Header)
	if err != nil {
		header = []byte("{}")
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO entries (cache_name, key, status, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (cache_name, key) DO UPDATE SET
			status = excluded.status,
			header = excluded.header,
			body = excluded.body,
			stored_at = excluded.stored_at
	`, c.name, key, entry.Status, string(header), entry.Body, entry.StoredAt)
	return err
}

func (c *sqliteCache) Keys(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT key FROM entries WHERE cache_name = ?`, c.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (c *sqliteCache) Delete(ctx context.Context, key string) (bool, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM entries WHERE cache_name = ? AND key = ?`, c.name, key)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
