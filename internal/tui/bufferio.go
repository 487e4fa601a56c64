package tui

import (
	"io"
	"strings"
	"sync"
)

// BufferIO is a silent IO that records everything it is told. Inputs are
// replayed from a fixed script; ReadInput returns io.EOF once it runs out.
type BufferIO struct {
	mu       sync.Mutex
	inputs   []string
	out      strings.Builder
	errors   []string
	status   Status
	thinking int
}

var _ IO = (*BufferIO)(nil)

// NewBufferIO creates a BufferIO that will feed inputs to ReadInput.
func NewBufferIO(inputs ...string) *BufferIO {
	return &BufferIO{inputs: inputs}
}

// Output returns all captured user, assistant and system text.
func (b *BufferIO) Output() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.String()
}

// Errors returns the captured error messages.
func (b *BufferIO) Errors() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.errors...)
}

// Status returns the last status set.
func (b *BufferIO) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Thinking returns how many ThinkingStart calls are not yet matched by
// ThinkingDone.
func (b *BufferIO) Thinking() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.thinking
}

func (b *BufferIO) ReadInput() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.inputs) == 0 {
		return "", io.EOF
	}
	in := b.inputs[0]
	b.inputs = b.inputs[1:]
	return in, nil
}

func (b *BufferIO) UserMessage(text string, attachments []string) {
	b.write("you: " + text)
	if len(attachments) > 0 {
		b.write("attached: " + strings.Join(attachments, ", "))
	}
}

func (b *BufferIO) ThinkingStart() {
	b.mu.Lock()
	b.thinking++
	b.mu.Unlock()
}

func (b *BufferIO) ThinkingDone() {
	b.mu.Lock()
	b.thinking--
	b.mu.Unlock()
}

func (b *BufferIO) AssistantMessage(text string) { b.write("assistant: " + text) }
func (b *BufferIO) SystemMessage(text string)    { b.write(text) }

func (b *BufferIO) Error(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errors = append(b.errors, msg)
}

func (b *BufferIO) SetStatus(s Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = s
}

func (b *BufferIO) write(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.WriteString(line)
	b.out.WriteString("\n")
}
