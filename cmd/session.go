package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aictl/idchat/internal/tui"
)

func newSessionCmd() *cobra.Command {
	var (
		clearFlag bool
		validate  bool
	)

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show, validate or clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()

			if clearFlag {
				if err := a.client.ClearSession(); err != nil {
					return err
				}
				fmt.Fprintln(out, "Session cleared.")
				return nil
			}

			if validate {
				ctx, cancel := signalContext()
				defer cancel()
				restored, err := a.client.Load(ctx)
				if err != nil {
					return err
				}
				if restored {
					fmt.Fprintln(out, "Stored session is valid.")
				} else {
					fmt.Fprintln(out, "Stored session was missing or stale; a new one was created.")
				}
			}

			sess := a.client.Session()
			if sess == nil {
				fmt.Fprintln(out, "No stored session.")
				return nil
			}
			fmt.Fprintf(out, "Thread:       %s\nAssistant:    %s\nVector store: %s\nExpiry:       %s\n",
				sess.ConversationID, sess.AssistantID, sess.VectorStoreID, tui.FormatExpiry(sess.ExpiresAt))
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearFlag, "clear", false, "remove the stored session identifiers")
	cmd.Flags().BoolVar(&validate, "validate", false, "check the stored session against the backend first")
	return cmd
}
