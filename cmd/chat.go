package cmd

import (
	"github.com/aictl/idchat/internal/repl"
	"github.com/aictl/idchat/internal/tui"
)

// runChat starts the interactive chat (REPL) mode.
func runChat() error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if useTUI {
		tuiCfg := tui.TUIConfig{
			Version:     appVersion,
			BaseURL:     a.cfg.Backend.BaseURL,
			ShowWelcome: true,
		}
		return tui.RunTUI(tuiCfg, func(ui tui.IO) error {
			return repl.New(a.client, ui, a.cfg.Artifact.DownloadDir, a.logger).Run(ctx)
		})
	}

	// Plain IO mode
	ui := tui.NewPlainIO()
	return repl.New(a.client, ui, a.cfg.Artifact.DownloadDir, a.logger).Run(ctx)
}
