package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aictl/idchat/internal/backend"
	"github.com/aictl/idchat/internal/observability"
)

// History sources.
const (
	SourceThread = "thread"
	SourceSimple = "simple"
)

// HistorySource is the part of the backend the synchronizer needs.
type HistorySource interface {
	ThreadHistory(ctx context.Context, threadID string) ([]backend.Record, error)
	History(ctx context.Context, conversationID string) ([]backend.Record, error)
	ReadTextFile(ctx context.Context, threadID string) (string, error)
}

// HistorySync restores a previous conversation into the transcript and
// keeps the latest document preview text.
type HistorySync struct {
	transcript *Transcript
	backend    HistorySource
	source     string
	logger     *slog.Logger

	mu      sync.RWMutex
	preview string
}

// NewHistorySync creates a HistorySync reading from source ("thread" or
// "simple"; anything else means "thread").
func NewHistorySync(t *Transcript, be HistorySource, source string, logger *slog.Logger) *HistorySync {
	if logger == nil {
		logger = observability.Discard()
	}
	if source != SourceSimple {
		source = SourceThread
	}
	return &HistorySync{transcript: t, backend: be, source: source, logger: logger}
}

// Restore replaces the transcript with the backend's history and refreshes
// the preview text. The two fetches are independent; a failed fetch leaves
// its piece of state as it was and is reported in the returned error.
func (h *HistorySync) Restore(ctx context.Context, conversationID string) error {
	histErr := h.restoreTranscript(ctx, conversationID)
	prevErr := h.FetchPreview(ctx, conversationID)
	return errors.Join(histErr, prevErr)
}

func (h *HistorySync) restoreTranscript(ctx context.Context, id string) error {
	ctx = observability.WithRequestID(ctx, observability.NewRequestID())
	log := observability.FromContext(ctx, h.logger).With("op", "restore", "source", h.source)

	var (
		records []backend.Record
		err     error
	)
	if h.source == SourceSimple {
		records, err = h.backend.History(ctx, id)
	} else {
		records, err = h.backend.ThreadHistory(ctx, id)
	}
	if err != nil {
		log.Warn("fetch history failed", "err", err)
		return fmt.Errorf("restore history: %w", err)
	}

	msgs := make([]Message, len(records))
	for i, r := range records {
		msgs[i] = Message{Role: r.Role, Content: r.Text}
	}
	h.transcript.Replace(msgs)
	log.Debug("history restored", "messages", len(msgs))
	return nil
}

// FetchPreview reloads the document preview text.
func (h *HistorySync) FetchPreview(ctx context.Context, id string) error {
	ctx = observability.WithRequestID(ctx, observability.NewRequestID())
	log := observability.FromContext(ctx, h.logger).With("op", "preview")

	text, err := h.backend.ReadTextFile(ctx, id)
	if err != nil {
		log.Warn("fetch preview failed", "err", err)
		return fmt.Errorf("fetch preview: %w", err)
	}
	h.mu.Lock()
	h.preview = text
	h.mu.Unlock()
	return nil
}

// Preview returns the last fetched document text.
func (h *HistorySync) Preview() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.preview
}

// ResetPreview forgets the preview text.
func (h *HistorySync) ResetPreview() {
	h.mu.Lock()
	h.preview = ""
	h.mu.Unlock()
}
