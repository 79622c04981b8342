package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbgui/tbgui/internal/constants"
	"github.com/tbgui/tbgui/internal/pathutil"
	"github.com/tbgui/tbgui/internal/progress"
)

// newTemplateCmd creates the 'template' command group.
func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Fetch the default report template or upload your own",
	}
	cmd.AddCommand(newTemplateDownloadCmd())
	cmd.AddCommand(newTemplateUploadCmd())
	return cmd
}

// newTemplateDownloadCmd creates the 'template download' command.
func newTemplateDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download [path]",
		Short: "Download default_template_remote",
		Long: `Download the shared default report template.

Without a path the template is saved as ~/default_template.docx.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var localPath string
			if len(args) == 1 {
				resolved, err := pathutil.ResolveAbsolutePath(args[0])
				if err != nil {
					return err
				}
				localPath = resolved
			}

			engine, release, err := newEngine()
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := withTimeout(constants.TransferTimeout)
			defer cancel()

			ui := progress.NewDownloadUI()
			err = engine.DownloadDefaultTemplate(ctx, localPath, ui)
			ui.Wait()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Default template downloaded")
			return nil
		},
	}
}

// newTemplateUploadCmd creates the 'template upload' command.
func newTemplateUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Replace user_template_remote with a local .docx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			localPath, err := pathutil.ResolveAbsolutePath(args[0])
			if err != nil {
				return err
			}

			engine, release, err := newEngine()
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := withTimeout(constants.TransferTimeout)
			defer cancel()

			ui := progress.NewUploadUI()
			err = engine.UploadUserTemplate(ctx, localPath, ui)
			ui.Wait()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Uploaded %s to %s\n", localPath, engine.Config().UserTemplateRemote)
			return nil
		},
	}
}
