package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aictl/idchat/internal/chat"
	"github.com/aictl/idchat/internal/tui"
)

func newHistoryCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the transcript of the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			if sess := a.client.Session(); sess == nil {
				return fmt.Errorf("no stored session; start one with: idchat")
			}
			if err := a.client.Refresh(ctx); err != nil {
				return err
			}

			width := 80
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
				width = w
			}
			out := cmd.OutOrStdout()
			for _, m := range a.client.Transcript().Messages() {
				if raw {
					fmt.Fprintf(out, "%s: %s\n\n", m.Role, m.Content)
					continue
				}
				if m.Role == chat.RoleUser {
					fmt.Fprintf(out, "> %s\n\n", strings.ReplaceAll(m.Content, "\n", "\n> "))
				} else {
					fmt.Fprintln(out, tui.RenderMarkdown(m.Content, width))
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print plain text without markdown rendering")
	return cmd
}
