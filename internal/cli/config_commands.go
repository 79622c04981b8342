package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tbgui/tbgui/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tbgui configuration",
		Long: `Configuration management commands for tbgui.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// configPath returns --config or the default path.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for tbgui.

The configuration will be saved to ~/.config/tbgui/config.ini
Press Enter to keep the value shown in brackets.

Use --force to overwrite existing configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			path, err := configPath()
			if err != nil {
				return err
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			// Start from whatever is there so --force edits instead of wiping.
			cfg, err := config.LoadRemoteConfig(path)
			if err != nil {
				cfg = config.NewRemoteConfig()
			}

			fmt.Fprintln(out, "tbgui Configuration Setup")
			fmt.Fprintln(out, "=========================")
			fmt.Fprintln(out)

			reader := bufio.NewReader(cmd.InOrStdin())

			for _, f := range config.Fields() {
				v, err := promptString(reader, out, string(f), cfg.Value(f))
				if err != nil {
					return err
				}
				if err := cfg.Set(f, v); err != nil {
					return err
				}
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Connection Settings")
			fmt.Fprintln(out, "-------------------")

			if cfg.Connection.Host, err = promptString(reader, out, "host", cfg.Connection.Host); err != nil {
				return err
			}
			portInput, err := promptString(reader, out, "port", strconv.Itoa(cfg.Connection.Port))
			if err != nil {
				return err
			}
			if v, err := strconv.Atoi(portInput); err == nil && v > 0 && v < 65536 {
				cfg.Connection.Port = v
			} else {
				fmt.Fprintf(out, "  Invalid port %q, keeping %d\n", portInput, cfg.Connection.Port)
			}
			if cfg.Connection.KeyPath, err = promptString(reader, out, "key_path (empty for ~/.ssh/id_rsa)", cfg.Connection.KeyPath); err != nil {
				return err
			}

			if err := config.SaveRemoteConfig(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			GetLogger().Info().Str("path", path).Msg("Configuration saved")

			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Configuration saved to: %s\n", path)
			fmt.Fprintln(out, "Test your configuration with: tbgui connect")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

Values come from the configuration file, overridden by environment
variables (TBGUI_USERNAME, REMOTE_RAW_DIR, TB_PROFILER_SCRIPT,
REMOTE_OUT_DIR, DEFAULT_TEMPLATE_REMOTE, USER_TEMPLATE_REMOTE).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			path, err := configPath()
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Fprintln(out, "Current Configuration")
			fmt.Fprintln(out, "=====================")
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Remote Settings:")
			for _, f := range config.Fields() {
				v := cfg.Value(f)
				if v == "" {
					v = "<not set>"
				}
				fmt.Fprintf(out, "  %-24s %s\n", string(f)+":", v)
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Connection Settings:")
			fmt.Fprintf(out, "  %-24s %s\n", "address:", cfg.Connection.Address())
			keyPath := cfg.Connection.KeyPath
			if keyPath == "" {
				keyPath = "~/.ssh/id_rsa (default)"
			}
			fmt.Fprintf(out, "  %-24s %s\n", "key_path:", keyPath)
			fmt.Fprintf(out, "  %-24s %t\n", "strict_host_key_checking:", cfg.Connection.StrictHostKeyChecking)
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Notifications:")
			fmt.Fprintf(out, "  %-24s %t\n", "enabled:", cfg.Notifications.Enabled)
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Configuration file: %s\n", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "  (file does not exist - using defaults)")
			}
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
