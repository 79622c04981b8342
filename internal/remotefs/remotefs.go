// Package remotefs implements directory checks, listings and streamed file
// copies against the remote cluster. Commands go through an Executor; bulk
// data goes through a Transfer channel.
package remotefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"al.essio.dev/pkg/shellescape"

	"github.com/tbgui/tbgui/internal/constants"
	"github.com/tbgui/tbgui/internal/sshclient"
	"github.com/tbgui/tbgui/internal/tberr"
	"github.com/tbgui/tbgui/internal/util/buffers"
)

// Executor runs one remote command per call.
type Executor interface {
	Execute(ctx context.Context, command string) (*sshclient.CommandResult, error)
}

// Transfer is an open file-transfer channel.
type Transfer interface {
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	ReadDir(path string) ([]os.FileInfo, error)
}

// TransferCloser is a Transfer the caller must close when done.
type TransferCloser interface {
	Transfer
	Close() error
}

// ErrorRecorder persists diagnostic lines for failed checks and listings.
type ErrorRecorder interface {
	Record(message string, err error) error
}

// ProgressFunc receives the size of each chunk as it is copied. May be nil.
type ProgressFunc func(n int64)

// Entry is a remote regular file returned by ListEntriesOfType.
type Entry struct {
	Name string
	Size int64
}

// Quote returns path quoted for a POSIX shell. Paths made only of safe
// characters are returned unchanged.
func Quote(path string) string {
	return shellescape.Quote(path)
}

// ExistsCommand is the remote existence check for a directory.
func ExistsCommand(path string) string {
	return fmt.Sprintf("test -d %s && echo '%s'", Quote(path), constants.ExistsSentinel)
}

// ListCommand is the remote listing command for a directory.
func ListCommand(path string) string {
	return "ls " + Quote(path)
}

// DirectoryExists reports whether path is a directory on the remote side.
// Only the exact trimmed sentinel counts as present; any other output,
// including empty output, means absent.
func DirectoryExists(ctx context.Context, exec Executor, path string) (bool, error) {
	result, err := exec.Execute(ctx, ExistsCommand(path))
	if err != nil {
		return false, tberr.Network("check remote directory "+path, err)
	}
	return strings.TrimSpace(result.Stdout) == constants.ExistsSentinel, nil
}

// RequireDirectory is DirectoryExists escalated: an absent directory is a
// *tberr.RemoteDirectoryNotFoundError. Failures are recorded on rec when non-nil.
func RequireDirectory(ctx context.Context, exec Executor, path string, rec ErrorRecorder) error {
	ok, err := DirectoryExists(ctx, exec, path)
	if err != nil {
		record(rec, "Failed to check if remote directory exists: "+path, err)
		return err
	}
	if !ok {
		notFound := &tberr.RemoteDirectoryNotFoundError{Path: path}
		record(rec, notFound.Error(), nil)
		return notFound
	}
	return nil
}

// ListDirectory returns the names printed by `ls <path>`, one per line, in
// the order printed. No filtering is applied.
func ListDirectory(ctx context.Context, exec Executor, path string, rec ErrorRecorder) ([]string, error) {
	result, err := exec.Execute(ctx, ListCommand(path))
	if err != nil {
		err = tberr.Network("list remote directory "+path, err)
		record(rec, "Failed to list files in remote directory: "+path, err)
		return nil, err
	}
	return splitLines(result.Stdout), nil
}

func splitLines(out string) []string {
	out = strings.TrimSuffix(out, "\n")
	if out == "" {
		return []string{}
	}
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// ListEntriesOfType lists regular files in dir whose name ends with suffix,
// in the order returned by the server. Failures are recorded on rec when non-nil.
func ListEntriesOfType(t Transfer, dir, suffix string, rec ErrorRecorder) ([]Entry, error) {
	infos, err := t.ReadDir(dir)
	if err != nil {
		err = tberr.Network("read remote directory "+dir, err)
		record(rec, "Failed to list files in remote directory: "+dir, err)
		return nil, err
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() || !strings.HasSuffix(info.Name(), suffix) {
			continue
		}
		entries = append(entries, Entry{Name: info.Name(), Size: info.Size()})
	}
	return entries, nil
}

// DownloadFile copies remotePath to localPath in fixed-size chunks until a
// zero-length read. Missing local parent directories are created and an
// existing local file is overwritten. An interrupted download leaves a
// partial local file; retry the whole file.
func DownloadFile(ctx context.Context, t Transfer, remotePath, localPath string, progress ProgressFunc) error {
	src, err := t.Open(remotePath)
	if err != nil {
		return tberr.Network("open remote "+remotePath, err)
	}
	defer src.Close()

	if parent := filepath.Dir(localPath); parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return &tberr.IOError{Op: "create directory", Path: parent, Err: err}
		}
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return &tberr.IOError{Op: "create", Path: localPath, Err: err}
	}

	bufp := buffers.GetChunkBuffer()
	defer buffers.PutChunkBuffer(bufp)
	buf := *bufp
	for {
		if err := ctx.Err(); err != nil {
			dst.Close()
			return &tberr.NetworkError{Op: "download " + remotePath, Err: err}
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				dst.Close()
				return &tberr.IOError{Op: "write", Path: localPath, Err: werr}
			}
			if progress != nil {
				progress(int64(n))
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			dst.Close()
			return &tberr.NetworkError{Op: "read remote " + remotePath, Err: rerr}
		}
		if n == 0 {
			break
		}
	}

	if err := dst.Close(); err != nil {
		return &tberr.IOError{Op: "close", Path: localPath, Err: err}
	}
	return nil
}

// UploadFile streams localPath to remotePath in fixed-size chunks,
// replacing any existing remote file.
func UploadFile(ctx context.Context, t Transfer, localPath, remotePath string, progress ProgressFunc) error {
	src, err := os.Open(localPath)
	if err != nil {
		return &tberr.IOError{Op: "open", Path: localPath, Err: err}
	}
	defer src.Close()

	dst, err := t.Create(remotePath)
	if err != nil {
		return tberr.Network("create remote "+remotePath, err)
	}

	bufp := buffers.GetChunkBuffer()
	defer buffers.PutChunkBuffer(bufp)
	buf := *bufp
	for {
		if err := ctx.Err(); err != nil {
			dst.Close()
			return &tberr.NetworkError{Op: "upload " + remotePath, Err: err}
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				dst.Close()
				return &tberr.NetworkError{Op: "write remote " + remotePath, Err: werr}
			}
			if progress != nil {
				progress(int64(n))
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			dst.Close()
			return &tberr.IOError{Op: "read", Path: localPath, Err: rerr}
		}
	}

	if err := dst.Close(); err != nil {
		return &tberr.NetworkError{Op: "close remote " + remotePath, Err: err}
	}
	return nil
}

func record(rec ErrorRecorder, message string, err error) {
	if rec == nil {
		return
	}
	_ = rec.Record(message, err)
}
