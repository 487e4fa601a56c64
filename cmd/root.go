package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aictl/idchat/internal/config"
)

var (
	cfgFile   string
	apiURL    string
	storeFlag string
	useTUI    bool

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date

	rootCmd := &cobra.Command{
		Use:   "idchat",
		Short: "Terminal client for the invention disclosure chat backend",
		Long: "idchat keeps a conversation session with the disclosure backend, sends messages\n" +
			"with file attachments and retrieves the generated disclosure document.",
		// Running idchat with no subcommand starts chat mode.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Default TUI on when stdout is a terminal and --tui was not explicitly set.
			if !cmd.Root().PersistentFlags().Changed("tui") && term.IsTerminal(int(os.Stdout.Fd())) {
				useTUI = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/idchat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "override backend base URL")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "session store: sqlite, bolt or memory")
	rootCmd.PersistentFlags().BoolVar(&useTUI, "tui", false, "use bubbletea TUI mode (default: auto-detect terminal)")

	// Subcommands
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newArtifactCmd())
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// CLI flags override config values
	if apiURL != "" {
		cfg.Backend.BaseURL = apiURL
	}
	if storeFlag != "" {
		cfg.Session.Store = storeFlag
	}
	return cfg, nil
}
