// Package results downloads, deletes and templates the TB-Profiler report
// artifacts stored under the remote output directory.
package results

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/tbgui/tbgui/internal/config"
	"github.com/tbgui/tbgui/internal/constants"
	"github.com/tbgui/tbgui/internal/diskspace"
	"github.com/tbgui/tbgui/internal/localfs"
	"github.com/tbgui/tbgui/internal/logging"
	"github.com/tbgui/tbgui/internal/remotefs"
	"github.com/tbgui/tbgui/internal/tberr"
	"github.com/tbgui/tbgui/internal/validation"
)

// Remote is the part of a session the result operations need.
type Remote interface {
	remotefs.Executor
	OpenTransfer() (remotefs.TransferCloser, error)
}

// FileObserver is told about each file as it moves. Calls arrive on the
// goroutine running the operation.
type FileObserver interface {
	FileStarted(index, total int, remotePath, localPath string, size int64)
	FileProgress(remotePath string, n int64)
	FileCompleted(remotePath string, err error)
}

// DownloadOptions tunes Download.
type DownloadOptions struct {
	// ResultsDir is the fixed local results directory, created if missing.
	// Empty means config.ResultsDirectory().
	ResultsDir string

	// CheckDiskSpace refuses to start when the destination filesystem
	// cannot hold every artifact plus constants.DiskSpaceSafetyMargin.
	CheckDiskSpace bool

	Observer FileObserver
	Recorder remotefs.ErrorRecorder
}

// DownloadSummary lists what Download wrote.
type DownloadSummary struct {
	RemoteDir string
	LocalDir  string
	Files     []string // local paths in download order
	Bytes     int64
}

// RemoteResultsDir returns {remote_out_dir}/results.
func RemoteResultsDir(outDir string) string {
	return path.Join(outDir, constants.ResultsSubdir)
}

// Download copies every regular ".docx" file in {remote_out_dir}/results
// into localDir (the results directory when empty). Files are fetched in
// the order the server lists them and the first failure stops the run; the
// summary then holds what was written so far.
func Download(ctx context.Context, remote Remote, cfg *config.RemoteConfig, localDir string, opts DownloadOptions) (*DownloadSummary, error) {
	outDir, err := cfg.Require(config.FieldRemoteOutDir)
	if err != nil {
		return nil, err
	}

	resultsDir := opts.ResultsDir
	if resultsDir == "" {
		resultsDir = config.ResultsDirectory()
	}
	if localDir == "" {
		localDir = resultsDir
	}
	if err := localfs.EnsureDir(resultsDir); err != nil {
		return nil, &tberr.IOError{Op: "create directory", Path: resultsDir, Err: err}
	}

	remoteDir := RemoteResultsDir(outDir)
	summary := &DownloadSummary{RemoteDir: remoteDir, LocalDir: localDir}

	if err := remotefs.RequireDirectory(ctx, remote, remoteDir, opts.Recorder); err != nil {
		return summary, err
	}
	if err := localfs.EnsureDir(localDir); err != nil {
		return summary, &tberr.IOError{Op: "create directory", Path: localDir, Err: err}
	}

	transfer, err := remote.OpenTransfer()
	if err != nil {
		return summary, tberr.Network("open transfer channel", err)
	}
	defer transfer.Close()

	entries, err := remotefs.ListEntriesOfType(transfer, remoteDir, constants.ArtifactSuffix, opts.Recorder)
	if err != nil {
		return summary, err
	}

	var total int64
	for _, e := range entries {
		if err := validation.ValidateFilename(e.Name); err != nil {
			return summary, &tberr.IOError{Op: "validate remote filename", Path: e.Name, Err: err}
		}
		total += e.Size
	}

	if opts.CheckDiskSpace && total > 0 {
		spaceDir := filepath.Join(localDir, constants.ResultsSubdir)
		if err := diskspace.CheckAvailableSpace(spaceDir, total, constants.DiskSpaceSafetyMargin); err != nil {
			return summary, &tberr.IOError{Op: "check disk space", Path: localDir, Err: err}
		}
	}

	for i, e := range entries {
		remotePath := path.Join(remoteDir, e.Name)
		localPath := filepath.Join(localDir, e.Name)

		if opts.Observer != nil {
			opts.Observer.FileStarted(i+1, len(entries), remotePath, localPath, e.Size)
		}

		var written int64
		err := remotefs.DownloadFile(ctx, transfer, remotePath, localPath, func(n int64) {
			written += n
			if opts.Observer != nil {
				opts.Observer.FileProgress(remotePath, n)
			}
		})
		if opts.Observer != nil {
			opts.Observer.FileCompleted(remotePath, err)
		}
		if err != nil {
			return summary, err
		}

		summary.Files = append(summary.Files, localPath)
		summary.Bytes += written
	}

	return summary, nil
}

// DeleteSummary describes what Delete removed.
type DeleteSummary struct {
	RemoteDir string
	// RemoteWarning holds the remote output when `rm -rf` exited non-zero.
	RemoteWarning string
	LocalRemoved  []string
}

// Delete removes the entire remote output directory and then every regular
// file directly inside localResultsDir, error.log included. A failed remote
// removal is logged as a warning and does not stop the local cleanup.
// A failed or negative `ls` check is recorded on rec (when non-nil) before
// anything is removed.
func Delete(ctx context.Context, exec remotefs.Executor, cfg *config.RemoteConfig, localResultsDir string, rec remotefs.ErrorRecorder, logger *logging.Logger) (*DeleteSummary, error) {
	outDir, err := cfg.Require(config.FieldRemoteOutDir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	summary := &DeleteSummary{RemoteDir: outDir}

	check, err := exec.Execute(ctx, remotefs.ListCommand(outDir))
	if err != nil {
		err = tberr.Network("list remote directory "+outDir, err)
		recordError(rec, "Failed to list files in remote directory: "+outDir, err)
		return summary, err
	}
	if !check.Success() {
		notFound := &tberr.RemoteDirectoryNotFoundError{Path: outDir}
		recordError(rec, notFound.Error(), nil)
		return summary, notFound
	}

	rm, err := exec.Execute(ctx, "rm -rf "+remotefs.Quote(outDir))
	if err != nil {
		return summary, tberr.Network("remove remote directory "+outDir, err)
	}
	if !rm.Success() {
		summary.RemoteWarning = rm.Stderr
		if summary.RemoteWarning == "" {
			summary.RemoteWarning = rm.Stdout
		}
		logger.Warn().
			Str("dir", outDir).
			Uint32("exit_status", rm.ExitStatus).
			Str("stderr", rm.Stderr).
			Msg("Remote directory may be empty; failed to delete files on remote")
	}

	if localResultsDir == "" {
		localResultsDir = config.ResultsDirectory()
	}
	if info, err := os.Stat(localResultsDir); err != nil || !info.IsDir() {
		logger.Info().Str("dir", localResultsDir).Msg("Local results directory does not exist")
		return summary, nil
	}

	removed, err := localfs.RemoveRegularFiles(localResultsDir)
	summary.LocalRemoved = removed
	if err != nil {
		return summary, &tberr.IOError{Op: "remove results", Path: localResultsDir, Err: err}
	}
	return summary, nil
}

// DownloadDefaultTemplate fetches default_template_remote to localPath.
// An empty localPath means constants.DefaultTemplateFilename in the home directory.
func DownloadDefaultTemplate(ctx context.Context, remote Remote, cfg *config.RemoteConfig, localPath string, observer FileObserver) error {
	remotePath, err := cfg.Require(config.FieldDefaultTemplateRemote)
	if err != nil {
		return err
	}
	if localPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return &tberr.IOError{Op: "resolve home directory", Path: "~", Err: err}
		}
		localPath = filepath.Join(home, constants.DefaultTemplateFilename)
	}

	transfer, err := remote.OpenTransfer()
	if err != nil {
		return tberr.Network("open transfer channel", err)
	}
	defer transfer.Close()

	if observer != nil {
		observer.FileStarted(1, 1, remotePath, localPath, 0)
	}
	err = remotefs.DownloadFile(ctx, transfer, remotePath, localPath, progressTo(observer, remotePath))
	if observer != nil {
		observer.FileCompleted(remotePath, err)
	}
	return err
}

// UploadUserTemplate replaces user_template_remote with the file at localPath.
func UploadUserTemplate(ctx context.Context, remote Remote, cfg *config.RemoteConfig, localPath string, observer FileObserver) error {
	remotePath, err := cfg.Require(config.FieldUserTemplateRemote)
	if err != nil {
		return err
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return &tberr.IOError{Op: "stat", Path: localPath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &tberr.IOError{Op: "upload", Path: localPath, Err: os.ErrInvalid}
	}

	transfer, err := remote.OpenTransfer()
	if err != nil {
		return tberr.Network("open transfer channel", err)
	}
	defer transfer.Close()

	if observer != nil {
		observer.FileStarted(1, 1, remotePath, localPath, info.Size())
	}
	err = remotefs.UploadFile(ctx, transfer, localPath, remotePath, progressTo(observer, remotePath))
	if observer != nil {
		observer.FileCompleted(remotePath, err)
	}
	return err
}

func recordError(rec remotefs.ErrorRecorder, message string, err error) {
	if rec != nil {
		_ = rec.Record(message, err)
	}
}

func progressTo(observer FileObserver, remotePath string) remotefs.ProgressFunc {
	if observer == nil {
		return nil
	}
	return func(n int64) { observer.FileProgress(remotePath, n) }
}

// Observers fans out to every non-nil observer.
func Observers(obs ...FileObserver) FileObserver {
	list := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	if len(list) == 0 {
		return nil
	}
	return list
}

type multiObserver []FileObserver

func (m multiObserver) FileStarted(index, total int, remotePath, localPath string, size int64) {
	for _, o := range m {
		o.FileStarted(index, total, remotePath, localPath, size)
	}
}

func (m multiObserver) FileProgress(remotePath string, n int64) {
	for _, o := range m {
		o.FileProgress(remotePath, n)
	}
}

func (m multiObserver) FileCompleted(remotePath string, err error) {
	for _, o := range m {
		o.FileCompleted(remotePath, err)
	}
}
