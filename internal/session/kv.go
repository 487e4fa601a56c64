package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// KV is a string key-value store with per-key expiry. Expired entries read
// as absent; implementations purge them lazily on access.
type KV interface {
	Get(key string) (value string, expiresAt time.Time, ok bool, err error)
	Set(key, value string, ttl time.Duration) error
	Delete(keys ...string) error
	Close() error
}

// Store kinds accepted by Open.
const (
	KindSQLite = "sqlite"
	KindBolt   = "bolt"
	KindMemory = "memory"
)

// DefaultPath returns the default token store location for kind
// (~/.local/share/idchat/session.db or session.bolt).
func DefaultPath(kind string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	name := "session.db"
	if kind == KindBolt {
		name = "session.bolt"
	}
	return filepath.Join(home, ".local", "share", "idchat", name), nil
}

// Open returns the KV backend named by kind. An empty path selects the
// default location for that kind.
func Open(kind, path string) (KV, error) {
	if kind == "" {
		kind = KindSQLite
	}
	if kind == KindMemory {
		return NewMemoryKV(), nil
	}
	if path == "" {
		p, err := DefaultPath(kind)
		if err != nil {
			return nil, fmt.Errorf("resolve store path: %w", err)
		}
		path = p
	}
	switch kind {
	case KindSQLite:
		return NewSQLiteKV(path)
	case KindBolt:
		return NewBoltKV(path)
	default:
		return nil, fmt.Errorf("unknown session store %q (want sqlite, bolt or memory)", kind)
	}
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(now, expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
