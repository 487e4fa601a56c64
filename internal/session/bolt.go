package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var tokensBucket = []byte("session_tokens")

type boltEntry struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at,omitempty"` // unix nanos, 0 = never
}

// BoltKV implements KV on a single bbolt file.
type BoltKV struct {
	db  *bolt.DB
	now func() time.Time
}

// NewBoltKV opens (or creates) the bbolt file at path.
func NewBoltKV(path string) (*BoltKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(tokensBucket)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltKV{db: db, now: time.Now}, nil
}

func (b *BoltKV) Get(key string) (string, time.Time, bool, error) {
	var (
		entry boltEntry
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(tokensBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		if e := json.Unmarshal(v, &entry); e != nil {
			// Malformed entries read as absent.
			return nil
		}
		found = true
		return nil
	})
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("get %s: %w", key, err)
	}
	if !found {
		return "", time.Time{}, false, nil
	}

	var exp time.Time
	if entry.ExpiresAt > 0 {
		exp = time.Unix(0, entry.ExpiresAt)
	}
	if expired(b.now(), exp) {
		if err := b.Delete(key); err != nil {
			return "", time.Time{}, false, err
		}
		return "", time.Time{}, false, nil
	}
	return entry.Value, exp, true, nil
}

func (b *BoltKV) Set(key, value string, ttl time.Duration) error {
	entry := boltEntry{Value: value}
	if exp := expiry(b.now(), ttl); !exp.IsZero() {
		entry.ExpiresAt = exp.UnixNano()
	}
	enc, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tokensBucket).Put([]byte(key), enc)
	})
}

func (b *BoltKV) Delete(keys ...string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(tokensBucket)
		for _, k := range keys {
			if err := bk.Delete([]byte(k)); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil
	})
}

func (b *BoltKV) Close() error {
	return b.db.Close()
}
