// Package tberr defines the error kinds returned by the remote-operations core.
//
// Every error carries a message that can be shown to the user as-is. Callers
// classify errors with errors.As / errors.Is, or with Kind for display.
package tberr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoItemsChecked is returned when a job submission is attempted with no
// samples selected. It is a local validation failure; no remote call is made.
var ErrNoItemsChecked = errors.New("cannot run tbprofiler with zero items checked")

// ConfigurationError reports a required configuration field that is unset.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s is not set in the configuration", e.Field)
}

// AuthenticationError reports that no usable credential material was found.
type AuthenticationError struct {
	KeyPath string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication error: no usable private key at %s: %v", e.KeyPath, e.Err)
	}
	return fmt.Sprintf("authentication error: no usable private key at %s", e.KeyPath)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// NetworkError reports a connection, transport or remote-command-invocation failure.
type NetworkError struct {
	Op  string // short description of what was attempted
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteDirectoryNotFoundError reports a negative remote existence check.
type RemoteDirectoryNotFoundError struct {
	Path string
}

func (e *RemoteDirectoryNotFoundError) Error() string {
	return fmt.Sprintf("remote directory does not exist: %q", e.Path)
}

// JobSubmissionError reports a rejected scheduler submission.
// Reason is set when the submission was refused before reaching the scheduler.
type JobSubmissionError struct {
	ExitStatus uint32
	Stdout     string
	Stderr     string
	Reason     string
}

func (e *JobSubmissionError) Error() string {
	if e.Reason != "" {
		return "failed to run tbprofiler: " + e.Reason
	}
	msg := fmt.Sprintf("failed to run tbprofiler: sbatch exited with status %d", e.ExitStatus)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	} else if s := strings.TrimSpace(e.Stdout); s != "" {
		msg += ": " + s
	}
	return msg
}

// IOError reports a local filesystem failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Network wraps err as a NetworkError unless it already is a typed core error.
func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	if isTyped(err) {
		return err
	}
	return &NetworkError{Op: op, Err: err}
}

// IO wraps err as an IOError unless it already is a typed core error.
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if isTyped(err) {
		return err
	}
	return &IOError{Op: op, Path: path, Err: err}
}

func isTyped(err error) bool {
	var (
		cfgErr  *ConfigurationError
		authErr *AuthenticationError
		netErr  *NetworkError
		dirErr  *RemoteDirectoryNotFoundError
		jobErr  *JobSubmissionError
		ioErr   *IOError
	)
	return errors.As(err, &cfgErr) || errors.As(err, &authErr) || errors.As(err, &netErr) ||
		errors.As(err, &dirErr) || errors.As(err, &jobErr) || errors.As(err, &ioErr) ||
		errors.Is(err, ErrNoItemsChecked)
}

// Kind names the error kind of err for display and logging.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var (
		cfgErr  *ConfigurationError
		authErr *AuthenticationError
		netErr  *NetworkError
		dirErr  *RemoteDirectoryNotFoundError
		jobErr  *JobSubmissionError
		ioErr   *IOError
	)
	switch {
	case errors.Is(err, ErrNoItemsChecked):
		return "NoItemsChecked"
	case errors.As(err, &cfgErr):
		return "Configuration"
	case errors.As(err, &authErr):
		return "Authentication"
	case errors.As(err, &dirErr):
		return "RemoteDirectoryNotFound"
	case errors.As(err, &jobErr):
		return "JobSubmission"
	case errors.As(err, &netErr):
		return "Network"
	case errors.As(err, &ioErr):
		return "IO"
	default:
		return "Unknown"
	}
}
