package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbgui/tbgui/internal/config"
)

// newLogCmd creates the 'log' command group for the local error log.
func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Manage the local error log",
		Long: `Failed remote checks and listings are appended to
~/tbgui-results/error.log. The file is never truncated; use 'log clear'
to remove it.`,
	}
	var debug bool
	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show the error log path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				fmt.Fprintln(cmd.OutOrStdout(), config.DebugLogPath())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.ErrorLogPath())
			return nil
		},
	}
	pathCmd.Flags().BoolVar(&debug, "debug", false, "Show the --debug-log file instead")
	cmd.AddCommand(pathCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the error log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := newEngine()
			if err != nil {
				return err
			}
			defer release()

			if err := engine.ClearErrorLog(); err != nil {
				return err
			}
			GetLogger().Debug().Str("path", engine.ErrorLog().Path()).Msg("Error log cleared")
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Error log cleared")
			return nil
		},
	})
	return cmd
}
