package config

import (
	"os"
	"path/filepath"

	"github.com/tbgui/tbgui/internal/constants"
)

// ResultsDirectory returns the fixed local results directory (~/tbgui-results).
// It holds the error log and is the default target for results downloads.
func ResultsDirectory() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), constants.ResultsDirName)
	}
	return filepath.Join(homeDir, constants.ResultsDirName)
}

// ErrorLogPath returns the path of the append-only error log.
func ErrorLogPath() string {
	return ErrorLogPathIn(ResultsDirectory())
}

// ErrorLogPathIn returns the error log path inside resultsDir.
func ErrorLogPathIn(resultsDir string) string {
	return filepath.Join(resultsDir, constants.ErrorLogName)
}

// LogDirectory returns the directory for the rotating debug log.
//
// Locations:
//   - Windows: %AppData%\tbgui\logs
//   - Unix: ~/.config/tbgui/logs
func LogDirectory() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "tbgui-logs")
		}
		return filepath.Join(homeDir, ".config", "tbgui", "logs")
	}
	return filepath.Join(configDir, "tbgui", "logs")
}

// DebugLogPath returns the default rotating log file inside LogDirectory.
func DebugLogPath() string {
	return filepath.Join(LogDirectory(), constants.DebugLogName)
}

// EnsureLogDirectory creates the log directory if it doesn't exist.
// Uses 0700 permissions to restrict log access to owner only.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}
