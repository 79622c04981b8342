package sshclient

import (
	"io"
	"os"

	"github.com/pkg/sftp"

	"github.com/tbgui/tbgui/internal/tberr"
)

// TransferSession is an SFTP subsystem channel on the session's connection.
// It is meant for one logical operation at a time; do not interleave an
// upload and a listing on the same TransferSession.
type TransferSession struct {
	client *sftp.Client
}

// OpenTransfer requests the sftp subsystem on a new channel.
func (s *Session) OpenTransfer() (*TransferSession, error) {
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return nil, &tberr.NetworkError{Op: "open sftp subsystem", Err: err}
	}
	return &TransferSession{client: client}, nil
}

// Open opens a remote file for reading.
func (t *TransferSession) Open(path string) (io.ReadCloser, error) {
	f, err := t.client.Open(path)
	if err != nil {
		return nil, &tberr.NetworkError{Op: "open remote " + path, Err: err}
	}
	return f, nil
}

// Create creates or truncates a remote file for writing.
func (t *TransferSession) Create(path string) (io.WriteCloser, error) {
	f, err := t.client.Create(path)
	if err != nil {
		return nil, &tberr.NetworkError{Op: "create remote " + path, Err: err}
	}
	return f, nil
}

// ReadDir lists a remote directory.
func (t *TransferSession) ReadDir(path string) ([]os.FileInfo, error) {
	entries, err := t.client.ReadDir(path)
	if err != nil {
		return nil, &tberr.NetworkError{Op: "read remote directory " + path, Err: err}
	}
	return entries, nil
}

// Close closes the subsystem channel; the parent Session stays open.
func (t *TransferSession) Close() error {
	return t.client.Close()
}
