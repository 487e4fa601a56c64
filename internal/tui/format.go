package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// Truncate shortens s to at most width display cells, marking the cut
// with "…". Wide runes count as two cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// FormatSize renders a byte count for humans ("1.2 MB").
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FormatExpiry renders when a session expires relative to now.
func FormatExpiry(t time.Time) string {
	if t.IsZero() {
		return "no expiry"
	}
	if !t.After(time.Now()) {
		return "expired"
	}
	return "expires " + humanize.Time(t)
}

// statusLine builds the plain-text status summary, fitted to width cells.
func statusLine(s Status, width int) string {
	id := s.SessionID
	if id == "" {
		id = "none"
	}
	parts := []string{"session: " + Truncate(id, 24)}
	if s.SessionID != "" {
		parts = append(parts, FormatExpiry(s.ExpiresAt))
	}
	if n := len(s.Staged); n > 0 {
		parts = append(parts, fmt.Sprintf("%d staged: %s", n, strings.Join(s.Staged, ", ")))
	}
	if s.ArtifactReady {
		parts = append(parts, "document ready")
	}
	line := " " + strings.Join(parts, " │ ")
	if width > 0 {
		line = Truncate(line, width)
	}
	return line
}
