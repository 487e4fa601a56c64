package chat

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/aictl/idchat/internal/observability"
)

// ArtifactSource is the part of the backend the poller needs.
type ArtifactSource interface {
	ArtifactExists(ctx context.Context, id string) (bool, error)
	DownloadArtifact(ctx context.Context, id string, w io.Writer) (int64, error)
}

// ArtifactPoller tracks whether the generated document exists. Only the
// latest answer is kept.
type ArtifactPoller struct {
	backend ArtifactSource
	logger  *slog.Logger
	exists  atomic.Bool
}

// NewArtifactPoller creates an ArtifactPoller. A nil logger discards output.
func NewArtifactPoller(be ArtifactSource, logger *slog.Logger) *ArtifactPoller {
	if logger == nil {
		logger = observability.Discard()
	}
	return &ArtifactPoller{backend: be, logger: logger}
}

// Check asks the backend whether the document for id exists and records
// the answer. Any failure counts as "does not exist".
func (p *ArtifactPoller) Check(ctx context.Context, id string) bool {
	ok, err := p.backend.ArtifactExists(ctx, id)
	if err != nil {
		observability.FromContext(ctx, p.logger).Debug("artifact check failed", "op", "artifact", "err", err)
		ok = false
	}
	p.exists.Store(ok)
	return ok
}

// Exists returns the latest recorded answer.
func (p *ArtifactPoller) Exists() bool { return p.exists.Load() }

// Reset forgets the recorded answer.
func (p *ArtifactPoller) Reset() { p.exists.Store(false) }

// Download streams the document for id into w.
func (p *ArtifactPoller) Download(ctx context.Context, id string, w io.Writer) (int64, error) {
	return p.backend.DownloadArtifact(ctx, id, w)
}
