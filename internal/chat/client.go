package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aictl/idchat/internal/backend"
	"github.com/aictl/idchat/internal/observability"
	"github.com/aictl/idchat/internal/session"
)

var (
	// ErrNoSession is returned by operations that need an existing session.
	ErrNoSession = errors.New("no active session")
	// ErrNothingStaged is returned by Upload when no file is staged.
	ErrNothingStaged = errors.New("no files staged")
)

// Backend is everything the client consumes from the HTTP API.
// *backend.Client satisfies it.
type Backend interface {
	session.AssistantLister
	session.Starter
	Chatter
	HistorySource
	ArtifactSource
	Upload(ctx context.Context, conversationID string, files []backend.File) (string, error)
	ModifyDocument(ctx context.Context, conversationID, section, content string) error
}

// Options configures a Client.
type Options struct {
	// TTL is the default lifetime of each stored identifier.
	TTL time.Duration
	// FieldTTL overrides TTL per identifier field.
	FieldTTL map[string]time.Duration
	// HistorySource is "thread" (default) or "simple".
	HistorySource string
	Logger        *slog.Logger
}

// Client ties the session and exchange components together for one
// active conversation. The presentation layer reads from it and never
// mutates the transcript directly.
type Client struct {
	backend    Backend
	store      *session.Store
	validator  *session.Validator
	boot       *session.Bootstrapper
	transcript *Transcript
	stager     *Stager
	exchanger  *Exchanger
	history    *HistorySync
	artifact   *ArtifactPoller
	logger     *slog.Logger
}

// NewClient builds a Client over be, persisting tokens in kv.
func NewClient(be Backend, kv session.KV, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = observability.Discard()
	}
	var storeOpts []session.StoreOption
	for field, ttl := range opts.FieldTTL {
		storeOpts = append(storeOpts, session.WithFieldTTL(field, ttl))
	}

	c := &Client{
		backend:    be,
		store:      session.NewStore(kv, storeOpts...),
		transcript: &Transcript{},
		stager:     &Stager{},
		logger:     logger,
	}
	c.validator = session.NewValidator(c.store, be, logger)
	c.boot = session.NewBootstrapper(c.store, be, opts.TTL, logger)
	c.exchanger = NewExchanger(c.transcript, c.stager, c.store, c.boot, be, logger)
	c.history = NewHistorySync(c.transcript, be, opts.HistorySource, logger)
	c.artifact = NewArtifactPoller(be, logger)
	return c
}

// Load runs the startup flow: validate the stored session and restore its
// history, otherwise bootstrap a fresh one with an empty transcript.
// restored reports which branch ran. Restore failures are logged and
// returned but leave the session in place.
func (c *Client) Load(ctx context.Context) (restored bool, err error) {
	if c.validator.Validate(ctx) {
		sess, err := c.store.Get()
		if err != nil || sess == nil {
			// Expired between validate and read.
			return c.fresh(ctx)
		}
		restoreErr := c.history.Restore(ctx, sess.ConversationID)
		c.artifact.Check(ctx, sess.ConversationID)
		return true, restoreErr
	}
	return c.fresh(ctx)
}

func (c *Client) fresh(ctx context.Context) (bool, error) {
	c.transcript.Reset()
	c.history.ResetPreview()
	c.artifact.Reset()
	if _, err := c.boot.Create(ctx); err != nil {
		return false, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	return false, nil
}

// Send sends one turn with the staged attachments, then re-checks the
// artifact since the turn may have produced one.
func (c *Client) Send(ctx context.Context, text string) error {
	before := c.transcript.Len()
	err := c.exchanger.Send(ctx, text)
	if c.transcript.Len() != before {
		c.recheckArtifact(ctx)
	}
	return err
}

// Upload ingests the staged files into the conversation without a chat
// turn. The stager is emptied after the attempt.
func (c *Client) Upload(ctx context.Context) (string, error) {
	staged := c.stager.List()
	if len(staged) == 0 {
		return "", ErrNothingStaged
	}
	defer c.stager.Clear()

	ctx = observability.WithRequestID(ctx, observability.NewRequestID())
	sess, err := resolveSession(ctx, c.store, c.boot)
	if err != nil {
		return "", err
	}
	msg, err := c.backend.Upload(ctx, sess.ConversationID, files(staged))
	if err != nil {
		observability.FromContext(ctx, c.logger).Warn("upload failed", "op", "upload", "err", err)
		return "", fmt.Errorf("upload: %w", err)
	}
	return msg, nil
}

// NewSession drops the current session and starts a fresh one.
func (c *Client) NewSession(ctx context.Context) error {
	if err := c.store.Clear(); err != nil {
		return err
	}
	_, err := c.fresh(ctx)
	return err
}

// Refresh re-reads history, preview and artifact state for the current
// session.
func (c *Client) Refresh(ctx context.Context) error {
	sess := c.Session()
	if sess == nil {
		return ErrNoSession
	}
	err := c.history.Restore(ctx, sess.ConversationID)
	c.artifact.Check(ctx, sess.ConversationID)
	return err
}

// ModifySection replaces one named section of the generated document and
// reloads the preview.
func (c *Client) ModifySection(ctx context.Context, section, content string) error {
	sess := c.Session()
	if sess == nil {
		return ErrNoSession
	}
	ctx = observability.WithRequestID(ctx, observability.NewRequestID())
	if err := c.backend.ModifyDocument(ctx, sess.ConversationID, section, content); err != nil {
		return fmt.Errorf("modify section: %w", err)
	}
	if err := c.history.FetchPreview(ctx, sess.ConversationID); err != nil {
		return err
	}
	c.artifact.Check(ctx, sess.ConversationID)
	return nil
}

// DownloadArtifact writes the generated document into w.
func (c *Client) DownloadArtifact(ctx context.Context, w io.Writer) (int64, error) {
	sess := c.Session()
	if sess == nil {
		return 0, ErrNoSession
	}
	return c.artifact.Download(ctx, sess.ConversationID, w)
}

// CheckArtifact re-polls the artifact for the current session.
func (c *Client) CheckArtifact(ctx context.Context) bool {
	return c.recheckArtifact(ctx)
}

func (c *Client) recheckArtifact(ctx context.Context) bool {
	sess := c.Session()
	if sess == nil {
		c.artifact.Reset()
		return false
	}
	return c.artifact.Check(ctx, sess.ConversationID)
}

// Transcript returns the live transcript. Callers must only read it.
func (c *Client) Transcript() *Transcript { return c.transcript }

// Stager returns the attachment stager.
func (c *Client) Stager() *Stager { return c.stager }

// Session returns the stored session, nil when absent.
func (c *Client) Session() *session.Session {
	sess, err := c.store.Get()
	if err != nil {
		c.logger.Warn("read session", "err", err)
		return nil
	}
	return sess
}

// ClearSession removes the stored identifiers without creating new ones.
func (c *Client) ClearSession() error { return c.store.Clear() }

// Preview returns the last fetched document preview text.
func (c *Client) Preview() string { return c.history.Preview() }

// ArtifactExists returns the latest artifact presence flag.
func (c *Client) ArtifactExists() bool { return c.artifact.Exists() }
