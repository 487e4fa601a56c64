package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aictl/idchat/internal/backend"
	"github.com/aictl/idchat/internal/chat"
	"github.com/aictl/idchat/internal/config"
	"github.com/aictl/idchat/internal/observability"
	"github.com/aictl/idchat/internal/session"
)

// app bundles everything a command needs. Close releases the token store
// and log file.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *chat.Client

	kv        session.KV
	logCloser io.Closer
}

// openApp loads config and wires logger, backend client, token store and
// chat client.
func openApp() (*app, error) {
	cfg, err := initConfig()
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := observability.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	kv, err := session.Open(cfg.Session.Store, cfg.Session.Path)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	be := backend.New(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout()),
		backend.WithUserAgent(cfg.Backend.UserAgent),
		backend.WithLogger(logger),
	)

	fieldTTL := make(map[string]time.Duration)
	for _, f := range []string{config.FieldThreadID, config.FieldAssistantID, config.FieldVectorStoreID} {
		if _, ok := cfg.Session.FieldTTLMinutes[f]; ok {
			fieldTTL[f] = cfg.Session.TTL(f)
		}
	}
	client := chat.NewClient(be, kv, chat.Options{
		TTL:           cfg.Session.TTL(""),
		FieldTTL:      fieldTTL,
		HistorySource: cfg.History.Source,
		Logger:        logger,
	})

	logger.Debug("idchat started", "version", appVersion, "backend", cfg.Backend.BaseURL,
		"store", cfg.Session.Store, "ttl_days", cfg.Session.ExpiryDays())

	return &app{cfg: cfg, logger: logger, client: client, kv: kv, logCloser: logCloser}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("close session store", "err", err)
	}
	a.logCloser.Close()
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
