package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload files into the current conversation without sending a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.client.Stager().AddPaths(args...); err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			msg, err := a.client.Upload(ctx)
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "Upload complete."
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}
