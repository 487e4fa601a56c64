package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aictl/idchat/internal/repl"
	"github.com/aictl/idchat/internal/tui"
)

func newSendCmd() *cobra.Command {
	var (
		message string
		files   []string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a single message non-interactively",
		Example: `  idchat send -m "Describe my invention" -f claims.pdf -f drawing.png
  idchat send --message "Summarize the claims"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("--message / -m is required")
			}
			return sendOnce(message, files)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "the message to send")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "attach a file (repeatable)")
	cmd.MarkFlagRequired("message")

	return cmd
}

// sendOnce sends one message and prints the reply.
func sendOnce(message string, files []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.client.Stager().AddPaths(files...); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ui := tui.NewBufferIO()
	if err := repl.New(a.client, ui, a.cfg.Artifact.DownloadDir, a.logger).RunOnce(ctx, message); err != nil {
		return err
	}
	m, _ := a.client.Transcript().LastAssistant()
	fmt.Fprintln(os.Stdout, m.Content)
	return nil
}
