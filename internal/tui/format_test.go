package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate short = %q", got)
	}
	got := Truncate("abcdefghijklmnopqrstuvwxyz", 10)
	if runewidth.StringWidth(got) > 10 || !strings.HasSuffix(got, "…") {
		t.Errorf("Truncate ascii = %q", got)
	}
	got = Truncate("発明の説明書ファイル.pdf", 8)
	if runewidth.StringWidth(got) > 8 {
		t.Errorf("Truncate wide = %q (width %d)", got, runewidth.StringWidth(got))
	}
	if Truncate("x", 0) != "" {
		t.Error("zero width should yield empty string")
	}
}

func TestFormatSize(t *testing.T) {
	if got := FormatSize(1500); got != "1.5 kB" {
		t.Errorf("FormatSize(1500) = %q", got)
	}
	if got := FormatSize(-1); got != "0 B" {
		t.Errorf("FormatSize(-1) = %q", got)
	}
}

func TestFormatExpiry(t *testing.T) {
	if got := FormatExpiry(time.Time{}); got != "no expiry" {
		t.Errorf("zero = %q", got)
	}
	if got := FormatExpiry(time.Now().Add(-time.Minute)); got != "expired" {
		t.Errorf("past = %q", got)
	}
	if got := FormatExpiry(time.Now().Add(2 * time.Hour)); !strings.HasPrefix(got, "expires ") {
		t.Errorf("future = %q", got)
	}
}

func TestStatusLine(t *testing.T) {
	s := Status{
		SessionID:     "thread_abc",
		ExpiresAt:     time.Now().Add(time.Hour),
		Staged:        []string{"claims.pdf", "drawing.png"},
		ArtifactReady: true,
	}
	line := statusLine(s, 200)
	for _, want := range []string{"thread_abc", "2 staged: claims.pdf, drawing.png", "document ready"} {
		if !strings.Contains(line, want) {
			t.Errorf("status line %q missing %q", line, want)
		}
	}
	if w := runewidth.StringWidth(statusLine(s, 20)); w > 20 {
		t.Errorf("status line width %d exceeds 20", w)
	}
	if !strings.Contains(statusLine(Status{}, 80), "session: none") {
		t.Error("empty status should say no session")
	}
}
