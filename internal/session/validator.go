package session

import (
	"context"
	"log/slog"
	"slices"

	"github.com/aictl/idchat/internal/observability"
)

// AssistantLister is the part of the backend the validator needs.
type AssistantLister interface {
	ListAssistants(ctx context.Context) ([]string, error)
}

// Validator decides whether a persisted session is still recognized by
// the backend.
type Validator struct {
	store   *Store
	backend AssistantLister
	logger  *slog.Logger
}

// NewValidator creates a Validator. A nil logger discards output.
func NewValidator(store *Store, backend AssistantLister, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = observability.Discard()
	}
	return &Validator{store: store, backend: backend, logger: logger}
}

// Validate reports whether the stored assistant id is known to the backend.
// Any negative outcome clears the whole session before returning false.
func (v *Validator) Validate(ctx context.Context) bool {
	log := observability.FromContext(ctx, v.logger).With("op", "validate")

	id, err := v.store.AssistantID()
	if err != nil {
		log.Warn("read stored assistant id", "err", err)
		return v.invalidate(log)
	}
	if id == "" {
		log.Debug("no stored assistant id")
		return v.invalidate(log)
	}

	ids, err := v.backend.ListAssistants(ctx)
	if err != nil {
		log.Warn("list assistants failed", "err", err)
		return v.invalidate(log)
	}
	if !slices.Contains(ids, id) {
		log.Info("stored assistant id unknown to backend", "assistant_id", id)
		return v.invalidate(log)
	}
	return true
}

func (v *Validator) invalidate(log *slog.Logger) bool {
	if err := v.store.Clear(); err != nil {
		log.Warn("clear session", "err", err)
	}
	return false
}
