// Package cli provides the command-line interface for tbgui.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tbgui/tbgui/internal/config"
	"github.com/tbgui/tbgui/internal/constants"
	"github.com/tbgui/tbgui/internal/core"
	"github.com/tbgui/tbgui/internal/events"
	"github.com/tbgui/tbgui/internal/logging"
	"github.com/tbgui/tbgui/internal/notify"
	"github.com/tbgui/tbgui/internal/version"
)

var (
	// Global flags
	cfgFile  string
	logFile  string
	debugLog bool
	verbose  bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc

	// engineOptions are appended to every Engine built by newEngine.
	engineOptions []core.Option
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tbgui",
		Short: "Run TB-Profiler on the lab cluster and collect its reports",
		Long: `tbgui ` + version.Version + ` - Built: ` + version.BuildTime + `
Lists raw reads on the cluster, submits TB-Profiler array jobs through
SLURM, and downloads or deletes the resulting reports.

Typical session:
  tbgui config init
  tbgui samples list
  tbgui submit S1 S3
  tbgui status
  tbgui results download`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			file := logFile
			if file == "" && debugLog {
				if err := config.EnsureLogDirectory(); err != nil {
					return fmt.Errorf("failed to create log directory: %w", err)
				}
				file = config.DebugLogPath()
			}
			logger = logging.NewLogger(logging.Options{File: file})
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file (rotated)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug-log", false, "Also write JSON logs to the default log directory (see 'tbgui log path')")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for tbgui.

  bash:       source <(tbgui completion bash)
  zsh:        tbgui completion zsh > "${fpath[1]}/_tbgui"
  fish:       tbgui completion fish | source
  powershell: tbgui completion powershell | Out-String | Invoke-Expression`,
	}
	rootCmd.AddCommand(completionCmd)

	completionCmd.AddCommand(&cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "zsh",
		Short: "Generate zsh completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "powershell",
		Short: "Generate PowerShell completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenPowerShellCompletion(cmd.OutOrStdout())
		},
	})

	// Disable default completion command (we're adding our own above)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Keep draining so repeated Ctrl+C presses don't block the sender.
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\n\nReceived signal %v, cancelling operations...\n", sig)
				fmt.Fprintf(os.Stderr, "A partially downloaded file may be left behind.\n\n")
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newConnectCmd())
	rootCmd.AddCommand(newSamplesCmd())
	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newResultsCmd())
	rootCmd.AddCommand(newTemplateCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLogCmd())

	AddShortcuts(rootCmd)
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// withTimeout bounds one command's remote work. Ctrl+C still cancels sooner.
func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(GetContext(), d)
}

// loadConfig loads the --config file (or the default one) with environment
// overrides applied.
func loadConfig() (*config.RemoteConfig, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newEngine builds an Engine for one command invocation, with its events
// forwarded to the debug log. The caller must call release when done; it
// closes the session and flushes pending events.
func newEngine() (engine *core.Engine, release func(), err error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := GetLogger()

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	eventLog := newEventLogger(bus, log)
	eventLog.Start()

	opts := []core.Option{core.WithNotifier(notify.NewNotifier(cfg.Notifications, log))}
	opts = append(opts, engineOptions...)
	engine = core.NewEngine(cfg, log, nil, bus, opts...)

	release = func() {
		_ = engine.Close()
		eventLog.Stop()
		bus.Close()
	}
	return engine, release, nil
}
