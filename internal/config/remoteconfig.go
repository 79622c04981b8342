// Package config provides configuration management for tbgui.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/tbgui/tbgui/internal/constants"
	"github.com/tbgui/tbgui/internal/pathutil"
	"github.com/tbgui/tbgui/internal/tberr"
)

// Field names one of the configurable remote settings.
// The string value is the INI key and the name reported in configuration errors.
type Field string

const (
	FieldUsername              Field = "username"
	FieldRemoteRawDir          Field = "remote_raw_dir"
	FieldTBProfilerScript      Field = "tb_profiler_script"
	FieldRemoteOutDir          Field = "remote_out_dir"
	FieldDefaultTemplateRemote Field = "default_template_remote"
	FieldUserTemplateRemote    Field = "user_template_remote"
)

// Fields lists the configurable remote settings in display order.
func Fields() []Field {
	return []Field{
		FieldUsername,
		FieldRemoteRawDir,
		FieldTBProfilerScript,
		FieldRemoteOutDir,
		FieldDefaultTemplateRemote,
		FieldUserTemplateRemote,
	}
}

// EnvVar returns the environment variable that overrides the field.
func (f Field) EnvVar() string {
	if f == FieldUsername {
		return "TBGUI_USERNAME"
	}
	return strings.ToUpper(string(f))
}

// RemoteConfig is the set of remote paths and identity used by every remote
// operation. It is built once at startup and passed by pointer; an empty
// string means the setting is unset.
//
// Config file location: ~/.config/tbgui/config.ini
//
// INI format:
//
//	[remote]
//	username = jdoe
//	remote_raw_dir = /shares/lab/project/raw
//	tb_profiler_script = /shares/lab/project/scripts/tbprofiler.sh
//	remote_out_dir = /shares/lab/project/out
//	default_template_remote = /shares/lab/project/templates/default_template.docx
//	user_template_remote = /shares/lab/project/template/user_template.docx
//
//	[connection]
//	host = 130.60.24.133
//	port = 22
//	key_path = ~/.ssh/id_rsa
//	strict_host_key_checking = false
//
//	[notifications]
//	enabled = false
type RemoteConfig struct {
	Username              string
	RemoteRawDir          string
	TBProfilerScript      string
	RemoteOutDir          string
	DefaultTemplateRemote string
	UserTemplateRemote    string

	Connection    ConnectionConfig
	Notifications NotificationConfig
}

// ConnectionConfig holds the SSH endpoint settings.
type ConnectionConfig struct {
	Host string `ini:"host"`
	Port int    `ini:"port"`

	// KeyPath is the private key used for public key authentication.
	// Empty means ~/.ssh/id_rsa.
	KeyPath string `ini:"key_path"`

	// KnownHostsPath is consulted only when StrictHostKeyChecking is set.
	// Empty means ~/.ssh/known_hosts.
	KnownHostsPath        string `ini:"known_hosts_path"`
	StrictHostKeyChecking bool   `ini:"strict_host_key_checking"`
}

// NotificationConfig contains settings for desktop notifications.
type NotificationConfig struct {
	Enabled              bool `ini:"enabled"`
	ShowDownloadComplete bool `ini:"show_download_complete"`
	ShowDownloadFailed   bool `ini:"show_download_failed"`
	ShowJobSubmitted     bool `ini:"show_job_submitted"`
}

var ErrUnknownField = errors.New("unknown configuration field")

// NewRemoteConfig creates a RemoteConfig with default connection settings
// and no remote paths.
func NewRemoteConfig() *RemoteConfig {
	return &RemoteConfig{
		Connection: ConnectionConfig{
			Host: constants.DefaultRemoteHost,
			Port: constants.DefaultRemotePort,
		},
		Notifications: NotificationConfig{
			Enabled:              false,
			ShowDownloadComplete: true,
			ShowDownloadFailed:   true,
			ShowJobSubmitted:     true,
		},
	}
}

func (c *RemoteConfig) field(f Field) (*string, error) {
	switch f {
	case FieldUsername:
		return &c.Username, nil
	case FieldRemoteRawDir:
		return &c.RemoteRawDir, nil
	case FieldTBProfilerScript:
		return &c.TBProfilerScript, nil
	case FieldRemoteOutDir:
		return &c.RemoteOutDir, nil
	case FieldDefaultTemplateRemote:
		return &c.DefaultTemplateRemote, nil
	case FieldUserTemplateRemote:
		return &c.UserTemplateRemote, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownField, f)
}

// Value returns the trimmed value of f, or "" when unset or unknown.
func (c *RemoteConfig) Value(f Field) string {
	p, err := c.field(f)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// Set assigns v to f.
func (c *RemoteConfig) Set(f Field, v string) error {
	p, err := c.field(f)
	if err != nil {
		return err
	}
	*p = strings.TrimSpace(v)
	return nil
}

// Require returns the value of f, or a *tberr.ConfigurationError naming f
// when it is unset. Unset values are never replaced with defaults.
func (c *RemoteConfig) Require(f Field) (string, error) {
	if c == nil {
		return "", &tberr.ConfigurationError{Field: string(f)}
	}
	v := c.Value(f)
	if v == "" {
		return "", &tberr.ConfigurationError{Field: string(f)}
	}
	return v, nil
}

// RequireAll returns the values of fs in order, failing on the first unset one.
func (c *RemoteConfig) RequireAll(fs ...Field) ([]string, error) {
	values := make([]string, 0, len(fs))
	for _, f := range fs {
		v, err := c.Require(f)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// ApplyEnv overrides fields from environment variables (see Field.EnvVar).
// lookup is normally os.LookupEnv.
func (c *RemoteConfig) ApplyEnv(lookup func(string) (string, bool)) {
	for _, f := range Fields() {
		if v, ok := lookup(f.EnvVar()); ok && strings.TrimSpace(v) != "" {
			_ = c.Set(f, v)
		}
	}
	if v, ok := lookup("TBGUI_HOST"); ok && strings.TrimSpace(v) != "" {
		c.Connection.Host = strings.TrimSpace(v)
	}
	if v, ok := lookup("TBGUI_PORT"); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Connection.Port = port
		}
	}
	if v, ok := lookup("TBGUI_KEY_PATH"); ok && strings.TrimSpace(v) != "" {
		c.Connection.KeyPath = strings.TrimSpace(v)
	}
}

// Address returns host:port for dialing.
func (c ConnectionConfig) Address() string {
	port := c.Port
	if port <= 0 {
		port = constants.DefaultRemotePort
	}
	host := c.Host
	if host == "" {
		host = constants.DefaultRemoteHost
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// ResolveKeyPath returns the private key path with ~ expanded.
func (c ConnectionConfig) ResolveKeyPath() (string, error) {
	if c.KeyPath != "" {
		return pathutil.ExpandHome(c.KeyPath)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ssh", constants.DefaultKeyFile), nil
}

// ResolveKnownHostsPath returns the known_hosts path with ~ expanded.
func (c ConnectionConfig) ResolveKnownHostsPath() (string, error) {
	if c.KnownHostsPath != "" {
		return pathutil.ExpandHome(c.KnownHostsPath)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ssh", "known_hosts"), nil
}

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("failed to get home directory: %w", herr)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "tbgui", "config.ini"), nil
}

// LoadRemoteConfig loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func LoadRemoteConfig(path string) (*RemoteConfig, error) {
	cfg := NewRemoteConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	remoteSection := iniFile.Section("remote")
	for _, f := range Fields() {
		if err := cfg.Set(f, remoteSection.Key(string(f)).String()); err != nil {
			return nil, err
		}
	}

	connSection := iniFile.Section("connection")
	cfg.Connection.Host = connSection.Key("host").MustString(cfg.Connection.Host)
	cfg.Connection.Port = connSection.Key("port").MustInt(cfg.Connection.Port)
	cfg.Connection.KeyPath = connSection.Key("key_path").String()
	cfg.Connection.KnownHostsPath = connSection.Key("known_hosts_path").String()
	cfg.Connection.StrictHostKeyChecking = connSection.Key("strict_host_key_checking").MustBool(false)

	notifySection := iniFile.Section("notifications")
	cfg.Notifications.Enabled = notifySection.Key("enabled").MustBool(cfg.Notifications.Enabled)
	cfg.Notifications.ShowDownloadComplete = notifySection.Key("show_download_complete").MustBool(true)
	cfg.Notifications.ShowDownloadFailed = notifySection.Key("show_download_failed").MustBool(true)
	cfg.Notifications.ShowJobSubmitted = notifySection.Key("show_job_submitted").MustBool(true)

	return cfg, nil
}

// SaveRemoteConfig saves configuration to an INI file.
// Creates parent directories if they don't exist.
func SaveRemoteConfig(cfg *RemoteConfig, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	remoteSection, err := iniFile.NewSection("remote")
	if err != nil {
		return fmt.Errorf("failed to create remote section: %w", err)
	}
	for _, f := range Fields() {
		remoteSection.Key(string(f)).SetValue(cfg.Value(f))
	}

	connSection, err := iniFile.NewSection("connection")
	if err != nil {
		return fmt.Errorf("failed to create connection section: %w", err)
	}
	if err := connSection.ReflectFrom(&cfg.Connection); err != nil {
		return fmt.Errorf("failed to write connection section: %w", err)
	}

	notifySection, err := iniFile.NewSection("notifications")
	if err != nil {
		return fmt.Errorf("failed to create notifications section: %w", err)
	}
	if err := notifySection.ReflectFrom(&cfg.Notifications); err != nil {
		return fmt.Errorf("failed to write notifications section: %w", err)
	}

	// Temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Load reads the config file at path and applies environment overrides.
func Load(path string) (*RemoteConfig, error) {
	cfg, err := LoadRemoteConfig(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}
