package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS session_tokens (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_session_tokens_expires_at ON session_tokens(expires_at);
`

// SQLiteKV implements KV backed by a SQLite database.
type SQLiteKV struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteKV opens (or creates) a SQLite database at dbPath and ensures the schema exists.
func NewSQLiteKV(dbPath string) (*SQLiteKV, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets a second idchat process read while another writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteKV{db: db, now: time.Now}, nil
}

func (s *SQLiteKV) Get(key string) (string, time.Time, bool, error) {
	var value string
	var expiresAt int64
	err := s.db.QueryRow(`SELECT value, expires_at FROM session_tokens WHERE key = ?`, key).
		Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("get %s: %w", key, err)
	}

	var exp time.Time
	if expiresAt > 0 {
		exp = time.Unix(0, expiresAt)
	}
	if expired(s.now(), exp) {
		if _, err := s.db.Exec(`DELETE FROM session_tokens WHERE key = ?`, key); err != nil {
			return "", time.Time{}, false, fmt.Errorf("purge %s: %w", key, err)
		}
		return "", time.Time{}, false, nil
	}
	return value, exp, true, nil
}

func (s *SQLiteKV) Set(key, value string, ttl time.Duration) error {
	now := s.now()
	var expiresAt int64
	if exp := expiry(now, ttl); !exp.IsZero() {
		expiresAt = exp.UnixNano()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO session_tokens (key, value, updated_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		key, value, now.Format(time.RFC3339Nano), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Delete(keys ...string) error {
	for _, k := range keys {
		if _, err := s.db.Exec(`DELETE FROM session_tokens WHERE key = ?`, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
