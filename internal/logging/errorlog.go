package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrorLog appends one line per recorded error to a local file. The file is
// opened in append mode for every record and is never truncated; Clear
// removes it.
type ErrorLog struct {
	path string
	mu   sync.Mutex
}

// NewErrorLog creates an ErrorLog writing to path.
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path}
}

// Path returns the log file path.
func (e *ErrorLog) Path() string {
	return e.path
}

// Record appends a line for message (and err, when non-nil).
func (e *ErrorLog) Record(message string, err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(e.path), 0755); err != nil {
		return fmt.Errorf("failed to create error log directory: %w", err)
	}

	f, ferr := os.OpenFile(e.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if ferr != nil {
		return fmt.Errorf("failed to open error log: %w", ferr)
	}
	defer f.Close()

	zl := zerolog.New(zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    true,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	ev := zl.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(message)
	return nil
}

// Clear deletes the log file. A missing file is not an error.
func (e *ErrorLog) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete error log %s: %w", e.path, err)
	}
	return nil
}
