// Package repl runs the interactive chat loop over a tui.IO.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/aictl/idchat/internal/chat"
	"github.com/aictl/idchat/internal/observability"
	"github.com/aictl/idchat/internal/tui"
)

// REPL reads user input, dispatches slash commands and sends everything
// else as a chat turn. It owns no state beyond what chat.Client holds.
type REPL struct {
	client      *chat.Client
	io          tui.IO
	downloadDir string
	logger      *slog.Logger

	// copyFn writes to the system clipboard.
	copyFn func(string) error
}

// New creates a REPL. downloadDir is where /pdf saves documents when no
// path is given ("" means the working directory).
func New(client *chat.Client, ui tui.IO, downloadDir string, logger *slog.Logger) *REPL {
	if logger == nil {
		logger = observability.Discard()
	}
	return &REPL{
		client:      client,
		io:          ui,
		downloadDir: downloadDir,
		logger:      logger,
		copyFn:      clipboard.WriteAll,
	}
}

// Run loads the session and starts the interactive loop. It returns nil
// when the user quits or input ends.
func (r *REPL) Run(ctx context.Context) error {
	r.load(ctx)

	for {
		input, err := r.io.ReadInput()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := r.handleSlashCommand(ctx, input); quit {
				return nil
			}
			r.updateStatus()
			continue
		}

		r.send(ctx, input)
		if ctx.Err() != nil {
			r.io.SystemMessage("Interrupted.")
			return ctx.Err()
		}
	}
}

// RunOnce loads the session, sends one message and returns the reply's
// error, if any. A blank message does nothing.
func (r *REPL) RunOnce(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return nil
	}
	if _, err := r.client.Load(ctx); err != nil && errors.Is(err, chat.ErrBootstrap) {
		return err
	}
	return r.send(ctx, message)
}

func (r *REPL) load(ctx context.Context) {
	r.io.ThinkingStart()
	restored, err := r.client.Load(ctx)
	r.io.ThinkingDone()

	switch {
	case errors.Is(err, chat.ErrBootstrap):
		r.io.Error(err.Error() + " (send a message to retry)")
	case restored:
		r.replayTranscript()
		if err != nil {
			r.io.Error("Some history could not be loaded: " + err.Error())
		}
		r.io.SystemMessage(fmt.Sprintf("Resumed session %s (%d messages).",
			r.sessionID(), r.client.Transcript().Len()))
	default:
		r.io.SystemMessage("Started new session " + r.sessionID() + ".")
	}
	r.updateStatus()
}

func (r *REPL) send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	r.io.UserMessage(text, stagedNames(r.client.Stager().List()))
	r.io.ThinkingStart()
	err := r.client.Send(ctx, text)
	r.io.ThinkingDone()

	if err != nil {
		r.io.Error(err.Error())
	} else if m, ok := r.client.Transcript().LastAssistant(); ok {
		r.io.AssistantMessage(m.Content)
	}
	if r.client.ArtifactExists() {
		r.io.SystemMessage("A generated document is available. Use /doc or /pdf.")
	}
	r.updateStatus()
	return err
}

// replayTranscript prints the whole transcript, e.g. after a restore.
func (r *REPL) replayTranscript() {
	for _, m := range r.client.Transcript().Messages() {
		if m.Role == chat.RoleUser {
			r.io.UserMessage(m.Content, refNames(m.Attachments))
		} else {
			r.io.AssistantMessage(m.Content)
		}
	}
}

func (r *REPL) updateStatus() {
	st := tui.Status{
		Staged:        stagedNames(r.client.Stager().List()),
		ArtifactReady: r.client.ArtifactExists(),
	}
	if sess := r.client.Session(); sess != nil {
		st.SessionID = sess.ConversationID
		st.ExpiresAt = sess.ExpiresAt
	}
	r.io.SetStatus(st)
}

func (r *REPL) sessionID() string {
	if sess := r.client.Session(); sess != nil {
		return sess.ConversationID
	}
	return "(none)"
}

func stagedNames(atts []chat.Attachment) []string {
	out := make([]string, len(atts))
	for i, a := range atts {
		out[i] = a.Name
	}
	return out
}

func refNames(refs []chat.AttachmentRef) []string {
	out := make([]string, len(refs))
	for i, a := range refs {
		out[i] = a.Name
	}
	return out
}
