package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbgui/tbgui/internal/constants"
	"github.com/tbgui/tbgui/internal/samples"
)

// newConnectCmd creates the 'connect' command.
func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Check that the cluster accepts your SSH key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := newEngine()
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := withTimeout(constants.CommandTimeout)
			defer cancel()

			if err := engine.Connect(ctx); err != nil {
				return err
			}
			cfg := engine.Config()
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Connected to %s as %s\n", cfg.Connection.Address(), cfg.Username)
			return nil
		},
	}
}

// newSamplesCmd creates the 'samples' command group.
func newSamplesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Inspect raw read samples on the cluster",
	}
	cmd.AddCommand(newSamplesListCmd())
	return cmd
}

// newSamplesListCmd creates the 'samples list' command.
func newSamplesListCmd() *cobra.Command {
	var (
		filter string
		check  []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List samples found in the remote raw directory",
		Long: `List the samples found in remote_raw_dir.

A sample is the part of a file name before the first underscore, so
S1_R1.fastq.gz and S1_R2.fastq.gz are both sample S1.

Use --check to mark samples and --filter to show only checked or
unchecked ones, the same way the sample list works before 'submit'.

Examples:
  tbgui samples list
  tbgui samples list --check S1,S3 --filter unchecked`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := samples.ParseFilter(filter)
			if err != nil {
				return err
			}

			engine, release, err := newEngine()
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := withTimeout(constants.CommandTimeout)
			defer cancel()

			if _, err := engine.ListSamples(ctx); err != nil {
				return err
			}

			list := engine.Samples()
			if missing := list.CheckByName(check...); len(missing) > 0 {
				return fmt.Errorf("unknown samples: %s", strings.Join(missing, ", "))
			}

			out := cmd.OutOrStdout()
			shown := list.Filtered(f)
			for _, s := range shown {
				mark := " "
				if s.Checked {
					mark = "x"
				}
				fmt.Fprintf(out, "[%s] %s\n", mark, s.Name)
			}
			fmt.Fprintf(out, "\n%d of %d samples shown (%s), %d checked\n", len(shown), list.Len(), f, list.CheckedCount())
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "all", "Show all, checked or unchecked samples")
	cmd.Flags().StringSliceVar(&check, "check", nil, "Samples to mark as checked")

	return cmd
}
