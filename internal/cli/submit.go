package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbgui/tbgui/internal/constants"
)

// newSubmitCmd creates the 'submit' command.
func newSubmitCmd() *cobra.Command {
	var (
		all          bool
		checkRunning bool
		force        bool
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "submit [sample...]",
		Short: "Submit a TB-Profiler array job for the given samples",
		Long: `Submit one SLURM array job that runs TB-Profiler over the given samples.

The samples must exist in remote_raw_dir. The job reads raw reads from
remote_raw_dir, writes reports to remote_out_dir and uses
user_template_remote as the report template.

Examples:
  tbgui submit S1 S3
  tbgui submit --all
  tbgui submit --all --check-running
  tbgui submit --dry-run S1 S3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return fmt.Errorf("--all cannot be combined with sample names")
			}

			engine, release, err := newEngine()
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := withTimeout(constants.CommandTimeout)
			defer cancel()
			out := cmd.OutOrStdout()

			if checkRunning {
				running, err := engine.CheckIfRunning(ctx)
				if err != nil {
					return err
				}
				if running && !force {
					return fmt.Errorf("jobs for %s are still in the queue; wait for them or pass --force", engine.Config().Username)
				}
				if running {
					fmt.Fprintln(out, "Jobs are still in the queue, submitting anyway (--force)")
				}
			}

			// Listing first catches typos before anything reaches the scheduler.
			if len(args) > 0 || all {
				if _, err := engine.ListSamples(ctx); err != nil {
					return err
				}
				list := engine.Samples()
				if all {
					list.CheckAll(true)
				} else if missing := list.CheckByName(args...); len(missing) > 0 {
					return fmt.Errorf("samples not found in %s: %s", engine.Config().RemoteRawDir, strings.Join(missing, ", "))
				}
			}

			if dryRun {
				command, err := engine.SubmitCommand()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, command)
				return nil
			}

			output, err := engine.Submit(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "✓ Submitted %d samples: %s\n", engine.Samples().CheckedCount(), strings.Join(engine.Samples().CheckedNames(), " "))
			if output = strings.TrimSpace(output); output != "" {
				fmt.Fprintln(out, output)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Submit every sample in the raw directory")
	cmd.Flags().BoolVar(&checkRunning, "check-running", false, "Refuse to submit while jobs are queued for the user")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Submit even if --check-running finds queued jobs")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the sbatch command instead of running it")

	return cmd
}

// newStatusCmd creates the 'status' command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether your jobs are still in the SLURM queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := newEngine()
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := withTimeout(constants.CommandTimeout)
			defer cancel()

			running, err := engine.CheckIfRunning(ctx)
			if err != nil {
				return err
			}

			user := engine.Config().Username
			if running {
				fmt.Fprintf(cmd.OutOrStdout(), "Jobs for %s are running or queued\n", user)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "No jobs queued for %s\n", user)
			}
			return nil
		},
	}
}
