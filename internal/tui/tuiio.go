package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// TuiIO implements the IO interface by sending messages to a bubbletea Program.
// All methods are safe to call from any goroutine.
type TuiIO struct {
	program *tea.Program
	inputCh chan inputResult
}

var _ IO = (*TuiIO)(nil)

// send is a nil-safe helper so fire-and-forget methods never panic before
// the program is attached.
func (t *TuiIO) send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TuiIO) ReadInput() (string, error) {
	if t.program == nil {
		return "", io.EOF
	}
	// Tell the TUI to activate the text input
	t.program.Send(readInputMsg{})

	// Block until the user submits or the TUI exits
	res := <-t.inputCh
	if res.err != nil {
		return "", io.EOF
	}
	return res.text, nil
}

func (t *TuiIO) UserMessage(text string, attachments []string) {
	t.send(userMsg{text: text, attachments: attachments})
}

func (t *TuiIO) ThinkingStart()               { t.send(thinkingStartMsg{}) }
func (t *TuiIO) ThinkingDone()                { t.send(thinkingDoneMsg{}) }
func (t *TuiIO) AssistantMessage(text string) { t.send(assistantMsg{text: text}) }
func (t *TuiIO) SystemMessage(text string)    { t.send(systemMsg{text: text}) }
func (t *TuiIO) Error(msg string)             { t.send(errorMsg{text: msg}) }
func (t *TuiIO) SetStatus(s Status)           { t.send(statusMsg{status: s}) }
