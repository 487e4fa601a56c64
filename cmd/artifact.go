package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aictl/idchat/internal/chat"
	"github.com/aictl/idchat/internal/tui"
)

func newArtifactCmd() *cobra.Command {
	var (
		outPath string
		text    bool
	)

	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Check for and download the generated disclosure document",
		Example: `  idchat artifact
  idchat artifact --out disclosure.pdf
  idchat artifact --text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			sess := a.client.Session()
			if sess == nil {
				return chat.ErrNoSession
			}

			if text {
				if err := a.client.Refresh(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), a.client.Preview())
				return nil
			}

			if !a.client.CheckArtifact(ctx) {
				fmt.Fprintln(cmd.OutOrStdout(), "No document has been generated for this session yet.")
				return nil
			}
			if outPath == "" {
				outPath = filepath.Join(a.cfg.Artifact.DownloadDir, sess.ConversationID+".pdf")
			}
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			n, err := a.client.DownloadArtifact(ctx, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(outPath)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", outPath, tui.FormatSize(n))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default <download_dir>/<thread_id>.pdf)")
	cmd.Flags().BoolVar(&text, "text", false, "print the document preview text instead of downloading the PDF")
	return cmd
}
