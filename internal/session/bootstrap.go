package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aictl/idchat/internal/backend"
	"github.com/aictl/idchat/internal/observability"
)

// Starter is the part of the backend the bootstrapper needs.
type Starter interface {
	Start(ctx context.Context) (*backend.StartResponse, error)
}

// Bootstrapper creates a new backend session and persists it.
type Bootstrapper struct {
	store   *Store
	backend Starter
	ttl     time.Duration
	logger  *slog.Logger
}

// NewBootstrapper creates a Bootstrapper. ttl is the default lifetime of
// each stored identifier.
func NewBootstrapper(store *Store, backend Starter, ttl time.Duration, logger *slog.Logger) *Bootstrapper {
	if logger == nil {
		logger = observability.Discard()
	}
	return &Bootstrapper{store: store, backend: backend, ttl: ttl, logger: logger}
}

// Create calls /start and stores the returned triple. On any failure the
// store is left untouched. There is no retry; the next user action that
// needs a session calls Create again.
func (b *Bootstrapper) Create(ctx context.Context) (*Session, error) {
	log := observability.FromContext(ctx, b.logger).With("op", "bootstrap")

	res, err := b.backend.Start(ctx)
	if err != nil {
		log.Warn("start session failed", "err", err)
		return nil, fmt.Errorf("start session: %w", err)
	}
	sess := &Session{
		ConversationID: res.ThreadID,
		AssistantID:    res.AssistantID,
		VectorStoreID:  res.VectorStoreID,
	}
	if !sess.Complete() {
		log.Warn("incomplete session from backend", "thread_id", res.ThreadID,
			"assistant_id", res.AssistantID, "vector_store_id", res.VectorStoreID)
		return nil, ErrIncompleteSession
	}
	if err := b.store.Set(sess, b.ttl); err != nil {
		log.Warn("persist session failed", "err", err)
		return nil, err
	}
	// Re-read so ExpiresAt reflects per-field TTL overrides.
	if stored, err := b.store.Get(); err == nil && stored != nil {
		sess = stored
	}
	log.Info("session created", "thread_id", sess.ConversationID)
	return sess, nil
}
