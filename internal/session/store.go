package session

import (
	"fmt"
	"time"

	"github.com/aictl/idchat/internal/config"
)

var fieldKeys = []string{config.FieldThreadID, config.FieldAssistantID, config.FieldVectorStoreID}

// Store is the single source of truth for "is there a live session".
// Each identifier is a separate KV entry with its own expiry; a session
// with any entry missing or expired reads as absent.
type Store struct {
	kv       KV
	fieldTTL map[string]time.Duration
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFieldTTL overrides the TTL passed to Set for one identifier field
// (config.FieldThreadID, config.FieldAssistantID or config.FieldVectorStoreID).
func WithFieldTTL(field string, ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.fieldTTL[field] = ttl
		}
	}
}

// NewStore wraps kv.
func NewStore(kv KV, opts ...StoreOption) *Store {
	s := &Store{kv: kv, fieldTTL: make(map[string]time.Duration)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns the persisted session, or nil when any identifier is absent.
func (s *Store) Get() (*Session, error) {
	var (
		sess   Session
		values = make([]string, len(fieldKeys))
	)
	for i, k := range fieldKeys {
		v, exp, ok, err := s.kv.Get(k)
		if err != nil {
			return nil, fmt.Errorf("read session: %w", err)
		}
		if !ok || v == "" {
			return nil, nil
		}
		values[i] = v
		if !exp.IsZero() && (sess.ExpiresAt.IsZero() || exp.Before(sess.ExpiresAt)) {
			sess.ExpiresAt = exp
		}
	}
	sess.ConversationID, sess.AssistantID, sess.VectorStoreID = values[0], values[1], values[2]
	return &sess, nil
}

// Set persists all three identifiers. ttl applies to every field without
// an override. On a failed write the fields already written are removed so
// no partial triple is left behind.
func (s *Store) Set(sess *Session, ttl time.Duration) error {
	if !sess.Complete() {
		return ErrIncompleteSession
	}
	values := []string{sess.ConversationID, sess.AssistantID, sess.VectorStoreID}
	for i, k := range fieldKeys {
		fttl := ttl
		if o, ok := s.fieldTTL[k]; ok {
			fttl = o
		}
		if err := s.kv.Set(k, values[i], fttl); err != nil {
			_ = s.kv.Delete(fieldKeys[:i]...)
			return fmt.Errorf("write session: %w", err)
		}
	}
	return nil
}

// Clear removes all three identifiers.
func (s *Store) Clear() error {
	if err := s.kv.Delete(fieldKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// AssistantID returns the stored assistant id alone, "" when absent.
func (s *Store) AssistantID() (string, error) {
	v, _, ok, err := s.kv.Get(config.FieldAssistantID)
	if err != nil {
		return "", fmt.Errorf("read assistant id: %w", err)
	}
	if !ok {
		return "", nil
	}
	return v, nil
}
