// Package sshclient owns the authenticated SSH connection to the cluster login
// node. It runs remote commands and opens SFTP transfer channels over the same
// connection. It never retries; retry policy belongs to the caller.
package sshclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/tbgui/tbgui/internal/config"
	"github.com/tbgui/tbgui/internal/constants"
	"github.com/tbgui/tbgui/internal/tberr"
)

// CommandResult is the outcome of one remote command.
type CommandResult struct {
	ExitStatus uint32
	Stdout     string
	Stderr     string
}

// Success reports whether the command exited with status 0.
func (r *CommandResult) Success() bool {
	return r.ExitStatus == 0
}

// Session is one authenticated connection. Each Execute runs in a fresh
// remote session channel; no shell state carries over between calls.
type Session struct {
	client *ssh.Client
	addr   string
	user   string

	closeOnce sync.Once
	closeErr  error
}

// Dialer abstracts the TCP dial so tests can substitute a pipe.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Options tunes Connect.
type Options struct {
	Dialer Dialer // default: net.Dialer with constants.SSHDialTimeout
}

// Connect authenticates with the configured private key and returns a live session.
//
// Failures:
//   - username unset: *tberr.ConfigurationError (no network or key access)
//   - key file missing or unusable: *tberr.AuthenticationError
//   - DNS, TCP, handshake or protocol failure: *tberr.NetworkError
func Connect(ctx context.Context, cfg *config.RemoteConfig, opts Options) (*Session, error) {
	user, err := cfg.Require(config.FieldUsername)
	if err != nil {
		return nil, err
	}

	signer, err := loadSigner(cfg.Connection)
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := hostKeyCallback(cfg.Connection)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         constants.SSHDialTimeout,
	}

	addr := cfg.Connection.Address()
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: constants.SSHDialTimeout}
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &tberr.NetworkError{Op: "connect to " + addr, Err: err}
	}

	// The handshake itself is not context-aware; closing the conn aborts it.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	stop()
	if err != nil {
		conn.Close()
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &tberr.NetworkError{Op: "ssh handshake with " + addr, Err: err}
	}

	return &Session{
		client: ssh.NewClient(c, chans, reqs),
		addr:   addr,
		user:   user,
	}, nil
}

func loadSigner(conn config.ConnectionConfig) (ssh.Signer, error) {
	keyPath, err := conn.ResolveKeyPath()
	if err != nil {
		return nil, &tberr.AuthenticationError{KeyPath: "~/.ssh/" + constants.DefaultKeyFile, Err: err}
	}

	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, &tberr.AuthenticationError{KeyPath: keyPath, Err: err}
	}

	signer, err := ssh.ParsePrivateKey(pemBytes)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, &tberr.AuthenticationError{KeyPath: keyPath, Err: errors.New("key is passphrase protected")}
		}
		return nil, &tberr.AuthenticationError{KeyPath: keyPath, Err: err}
	}
	return signer, nil
}

func hostKeyCallback(conn config.ConnectionConfig) (ssh.HostKeyCallback, error) {
	if !conn.StrictHostKeyChecking {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	path, err := conn.ResolveKnownHostsPath()
	if err != nil {
		return nil, &tberr.NetworkError{Op: "resolve known_hosts", Err: err}
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, &tberr.NetworkError{Op: "load known_hosts " + path, Err: err}
	}
	return cb, nil
}

// Addr returns the host:port the session is connected to.
func (s *Session) Addr() string { return s.addr }

// User returns the authenticated username.
func (s *Session) User() string { return s.user }

// Execute runs command in a fresh remote session and captures its output.
// A non-zero exit status is reported in the result, not as an error.
func (s *Session) Execute(ctx context.Context, command string) (*CommandResult, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return nil, &tberr.NetworkError{Op: "open session channel", Err: err}
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(command) }()

	select {
	case <-ctx.Done():
		sess.Close()
		return nil, &tberr.NetworkError{Op: fmt.Sprintf("run %q", command), Err: ctx.Err()}
	case err = <-done:
	}

	result := &CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return result, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		result.ExitStatus = uint32(exitErr.ExitStatus())
		return result, nil
	}
	return nil, &tberr.NetworkError{Op: fmt.Sprintf("run %q", command), Err: err}
}

// Close tears down the connection. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}
