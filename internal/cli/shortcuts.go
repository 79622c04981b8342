package cli

import (
	"github.com/spf13/cobra"
)

// AddShortcuts adds shortcut commands to the root command.
func AddShortcuts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newDownloadShortcut())
	rootCmd.AddCommand(newLsShortcut())
}

// newDownloadShortcut creates the 'download' shortcut command.
// Shortcut for: results download
func newDownloadShortcut() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download reports (shortcut for 'results download')",
		Long: `Shortcut for downloading every .docx report.

Equivalent to: tbgui results download`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResultsDownload(cmd, outDir, true)
		},
	}

	cmd.Flags().StringVarP(&outDir, "outdir", "o", "", "Local directory for the reports (default ~/tbgui-results)")

	return cmd
}

// newLsShortcut creates the 'ls' shortcut command.
// Shortcut for: samples list
func newLsShortcut() *cobra.Command {
	cmd := newSamplesListCmd()
	cmd.Use = "ls"
	cmd.Short = "List samples (shortcut for 'samples list')"
	return cmd
}
