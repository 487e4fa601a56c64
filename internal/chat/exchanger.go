package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aictl/idchat/internal/backend"
	"github.com/aictl/idchat/internal/observability"
	"github.com/aictl/idchat/internal/session"
)

// ErrBootstrap marks a send or load that could not obtain a session.
var ErrBootstrap = errors.New("could not create a session")

// Chatter is the part of the backend the exchanger needs.
type Chatter interface {
	Chat(ctx context.Context, req backend.ChatRequest) (string, error)
}

// SessionCreator creates and persists a new session.
type SessionCreator interface {
	Create(ctx context.Context) (*session.Session, error)
}

// Exchanger sends user turns and records both sides in the transcript.
// Callers must not overlap Send calls.
type Exchanger struct {
	transcript *Transcript
	stager     *Stager
	store      *session.Store
	boot       SessionCreator
	backend    Chatter
	logger     *slog.Logger
}

// NewExchanger wires an Exchanger. A nil logger discards output.
func NewExchanger(t *Transcript, s *Stager, store *session.Store, boot SessionCreator, be Chatter, logger *slog.Logger) *Exchanger {
	if logger == nil {
		logger = observability.Discard()
	}
	return &Exchanger{transcript: t, stager: s, store: store, boot: boot, backend: be, logger: logger}
}

// Send posts text and the staged attachments as one turn.
//
// Blank text is a no-op. Otherwise the user message is echoed into the
// transcript before any network call, and the stager is emptied when Send
// returns whatever the outcome. An assistant message is appended only when
// the backend answers successfully.
func (e *Exchanger) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	defer e.stager.Clear()

	staged := e.stager.List()
	e.transcript.Append(Message{Role: RoleUser, Content: text, Attachments: refs(staged)})

	ctx = observability.WithRequestID(ctx, observability.NewRequestID())
	log := observability.FromContext(ctx, e.logger).With("op", "send")

	sess, err := resolveSession(ctx, e.store, e.boot)
	if err != nil {
		log.Warn("no session for send", "err", err)
		return err
	}

	reply, err := e.backend.Chat(ctx, backend.ChatRequest{
		Message:       text,
		ThreadID:      sess.ConversationID,
		AssistantID:   sess.AssistantID,
		VectorStoreID: sess.VectorStoreID,
		Files:         files(staged),
	})
	if err != nil {
		log.Warn("chat failed", "err", err, "attachments", len(staged))
		return fmt.Errorf("send message: %w", err)
	}

	e.transcript.Append(Message{Role: RoleAssistant, Content: reply})
	log.Debug("turn complete", "attachments", len(staged), "reply_len", len(reply))
	return nil
}

// resolveSession returns the stored session, bootstrapping one when any
// identifier is missing.
func resolveSession(ctx context.Context, store *session.Store, boot SessionCreator) (*session.Session, error) {
	sess, err := store.Get()
	if err == nil && sess != nil {
		return sess, nil
	}
	sess, err = boot.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	return sess, nil
}
