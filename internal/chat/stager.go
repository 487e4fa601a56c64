package chat

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/aictl/idchat/internal/backend"
)

// Attachment is a file the user picked but has not sent yet. Names need
// not be unique; entries are identified by position.
type Attachment struct {
	Name string
	Path string
	Size int64
	// Data holds in-memory content. When nil the file at Path is read at
	// send time.
	Data []byte
}

func (a Attachment) file() backend.File {
	return backend.File{
		Name: a.Name,
		Open: func() (io.ReadCloser, error) {
			if a.Data != nil {
				return io.NopCloser(bytes.NewReader(a.Data)), nil
			}
			return os.Open(a.Path)
		},
	}
}

// Stager accumulates attachments between turns.
type Stager struct {
	mu    sync.Mutex
	items []Attachment
}

// Add appends attachments after the ones already staged.
func (s *Stager) Add(atts ...Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, atts...)
}

// AddPaths stats each path and stages it under its base name. Nothing is
// staged if any path is missing or is a directory.
func (s *Stager) AddPaths(paths ...string) error {
	atts := make([]Attachment, 0, len(paths))
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("attach %s: %w", p, err)
		}
		if fi.IsDir() {
			return fmt.Errorf("attach %s: is a directory", p)
		}
		atts = append(atts, Attachment{Name: filepath.Base(p), Path: p, Size: fi.Size()})
	}
	s.Add(atts...)
	return nil
}

// List returns a copy of the staged attachments in order.
func (s *Stager) List() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]Attachment, len(s.items))
	copy(cp, s.items)
	return cp
}

// RemoveAt drops the entry at index i; later entries shift down.
func (s *Stager) RemoveAt(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.items) {
		return fmt.Errorf("no staged file at index %d (have %d)", i, len(s.items))
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// Clear drops every staged attachment.
func (s *Stager) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Len returns the number of staged attachments.
func (s *Stager) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func refs(atts []Attachment) []AttachmentRef {
	if len(atts) == 0 {
		return nil
	}
	out := make([]AttachmentRef, len(atts))
	for i, a := range atts {
		out[i] = AttachmentRef{Name: a.Name}
	}
	return out
}

func files(atts []Attachment) []backend.File {
	out := make([]backend.File, len(atts))
	for i, a := range atts {
		out[i] = a.file()
	}
	return out
}
