package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbgui/tbgui/internal/constants"
	"github.com/tbgui/tbgui/internal/diskspace"
	"github.com/tbgui/tbgui/internal/pathutil"
	"github.com/tbgui/tbgui/internal/progress"
)

// newResultsCmd creates the 'results' command group.
func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Download or delete TB-Profiler reports",
		Long: `Manage the reports TB-Profiler writes to remote_out_dir/results.

Commands:
  download - Copy every .docx report to the local results directory
  delete   - Remove remote_out_dir and the local result files`,
	}
	cmd.AddCommand(newResultsDownloadCmd())
	cmd.AddCommand(newResultsDeleteCmd())
	return cmd
}

// newResultsDownloadCmd creates the 'results download' command.
func newResultsDownloadCmd() *cobra.Command {
	var (
		outDir     string
		checkSpace bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download every .docx report",
		Long: `Download every .docx report from remote_out_dir/results.

Reports are saved to ~/tbgui-results unless --outdir is given. Existing
files with the same name are overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResultsDownload(cmd, outDir, checkSpace)
		},
	}

	cmd.Flags().StringVarP(&outDir, "outdir", "o", "", "Local directory for the reports (default ~/tbgui-results)")
	cmd.Flags().BoolVar(&checkSpace, "check-space", true, "Refuse to start when the local disk is too full")

	return cmd
}

func runResultsDownload(cmd *cobra.Command, outDir string, checkSpace bool) error {
	if outDir != "" {
		resolved, err := pathutil.ResolveAbsolutePath(outDir)
		if err != nil {
			return fmt.Errorf("invalid --outdir %q: %w", outDir, err)
		}
		outDir = resolved
	}

	engine, release, err := newEngine()
	if err != nil {
		return err
	}
	defer release()

	log := GetLogger()
	ui := progress.NewDownloadUI()
	prev := log.Output()
	log.SetOutput(ui.Writer())
	defer log.SetOutput(prev)

	ctx, cancel := withTimeout(constants.TransferTimeout)
	defer cancel()

	summary, err := engine.DownloadResults(ctx, outDir, checkSpace, ui)
	ui.Wait()
	if err != nil {
		return downloadError(err)
	}

	out := cmd.OutOrStdout()
	if len(summary.Files) == 0 {
		fmt.Fprintf(out, "No reports found in %s\n", summary.RemoteDir)
		return nil
	}
	fmt.Fprintf(out, "✓ Downloaded %d reports (%.1f MiB) to %s\n", len(summary.Files), float64(summary.Bytes)/(1024*1024), summary.LocalDir)
	return nil
}

// downloadError adds a hint to a failed free-space check.
func downloadError(err error) error {
	if diskspace.IsInsufficientSpaceError(err) {
		return fmt.Errorf("%w (free some space or pass --check-space=false)", err)
	}
	return err
}

// newResultsDeleteCmd creates the 'results delete' command.
func newResultsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete remote_out_dir and the local result files",
		Long: `Delete the whole remote_out_dir on the cluster, then every file
directly inside ~/tbgui-results (error.log included).

This cannot be undone. You are asked to confirm unless --yes is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := newEngine()
			if err != nil {
				return err
			}
			defer release()

			out := cmd.OutOrStdout()
			if !yes {
				if !canPrompt(cmd) {
					return fmt.Errorf("refusing to delete without confirmation; pass --yes")
				}
				question := fmt.Sprintf("Delete %s on the cluster and all files in %s?", engine.Config().RemoteOutDir, engine.ResultsDir())
				ok, err := promptConfirm(bufio.NewReader(cmd.InOrStdin()), out, question)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Aborted")
					return nil
				}
			}

			ctx, cancel := withTimeout(constants.CommandTimeout)
			defer cancel()

			summary, err := engine.DeleteResults(ctx)
			if err != nil {
				return err
			}

			if summary.RemoteWarning != "" {
				fmt.Fprintf(out, "⚠ Remote directory may already be empty: %s\n", summary.RemoteWarning)
			} else {
				fmt.Fprintf(out, "✓ Deleted %s\n", summary.RemoteDir)
			}
			fmt.Fprintf(out, "✓ Removed %d local files\n", len(summary.LocalRemoved))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}
