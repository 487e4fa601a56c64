// Package tui defines the IO interface between the chat loop and the
// user interface, plus PlainIO (terminal fallback), BufferIO (capture for
// tests and one-shot commands) and TuiIO (bubbletea).
package tui

import "time"

// Status is the snapshot shown in the status bar.
type Status struct {
	SessionID     string
	ExpiresAt     time.Time
	Staged        []string // names of staged attachments, in order
	ArtifactReady bool
}

// IO is the contract between the chat loop and the UI layer. The loop
// only ever reads the transcript and reports events through these methods.
type IO interface {
	// ReadInput blocks until the user submits a line of input.
	// Returns ("", io.EOF) when the user quits.
	ReadInput() (string, error)

	// UserMessage displays a submitted user turn with its attachment names.
	UserMessage(text string, attachments []string)

	// ThinkingStart signals that a backend call is in flight.
	ThinkingStart()

	// ThinkingDone clears the in-flight indicator.
	ThinkingDone()

	// AssistantMessage displays a complete assistant reply. TUI
	// implementations render it as markdown.
	AssistantMessage(text string)

	// SystemMessage displays a notice (command feedback, session status).
	SystemMessage(text string)

	// Error displays an error message with prominent styling.
	Error(msg string)

	// SetStatus updates the status bar.
	SetStatus(s Status)
}
