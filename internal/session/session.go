// Package session persists the backend session triple and decides whether
// it can be reused.
package session

import (
	"errors"
	"time"
)

// ErrIncompleteSession is returned when /start omits any identifier.
var ErrIncompleteSession = errors.New("backend returned an incomplete session")

// Session is the identifier triple for one conversation with the backend.
// The three ids are created together and only meaningful together.
type Session struct {
	ConversationID string
	AssistantID    string
	VectorStoreID  string
	ExpiresAt      time.Time // earliest expiry of the three stored fields
}

// Complete reports whether all three identifiers are present.
func (s *Session) Complete() bool {
	return s != nil && s.ConversationID != "" && s.AssistantID != "" && s.VectorStoreID != ""
}
