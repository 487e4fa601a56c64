// Package chat owns the transcript and the operations that advance it:
// staging attachments, sending turns, restoring history and polling for
// the generated document.
package chat

import "sync"

// Roles used by the client. History records keep whatever role the
// backend reports.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AttachmentRef names a file that was sent with a message.
type AttachmentRef struct {
	Name string
}

// Message is one transcript entry. It is never modified after Append.
type Message struct {
	Role        string
	Content     string
	Attachments []AttachmentRef
}

// Transcript is the ordered message list for one session. It is safe for
// a renderer to read while the exchanger writes.
type Transcript struct {
	mu   sync.RWMutex
	msgs []Message
}

// Append adds m to the end.
func (t *Transcript) Append(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, m)
}

// Replace swaps the whole transcript for msgs.
func (t *Transcript) Replace(msgs []Message) {
	cp := make([]Message, len(msgs))
	copy(cp, msgs)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = cp
}

// Reset empties the transcript.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = nil
}

// Messages returns a copy of the current entries.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cp := make([]Message, len(t.msgs))
	copy(cp, t.msgs)
	return cp
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.msgs)
}

// LastAssistant returns the most recent assistant message.
func (t *Transcript) LastAssistant() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.msgs) - 1; i >= 0; i-- {
		if t.msgs[i].Role == RoleAssistant {
			return t.msgs[i], true
		}
	}
	return Message{}, false
}
