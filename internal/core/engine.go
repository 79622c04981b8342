// Package core is the command/query boundary between a UI and the remote
// operations. The Engine owns the session, the sample list and the state
// machine; every operation blocks and is meant to be called off the UI loop.
package core

import (
	"context"
	"errors"
	"sync"

	"github.com/tbgui/tbgui/internal/config"
	"github.com/tbgui/tbgui/internal/events"
	"github.com/tbgui/tbgui/internal/jobs"
	"github.com/tbgui/tbgui/internal/logging"
	"github.com/tbgui/tbgui/internal/notify"
	"github.com/tbgui/tbgui/internal/progress"
	"github.com/tbgui/tbgui/internal/remotefs"
	"github.com/tbgui/tbgui/internal/results"
	"github.com/tbgui/tbgui/internal/samples"
	"github.com/tbgui/tbgui/internal/sshclient"
	"github.com/tbgui/tbgui/internal/tberr"
)

// Session is a live remote connection.
type Session interface {
	results.Remote
	Close() error
}

// DialFunc opens a Session.
type DialFunc func(ctx context.Context, cfg *config.RemoteConfig) (Session, error)

// Option configures an Engine.
type Option func(*Engine)

// WithDialer replaces the SSH dialer.
func WithDialer(dial DialFunc) Option {
	return func(e *Engine) { e.dial = dial }
}

// WithNotifier enables desktop notifications.
func WithNotifier(n *notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithResultsDir overrides the local results directory.
func WithResultsDir(dir string) Option {
	return func(e *Engine) { e.resultsDir = dir }
}

// Engine runs remote operations against one cached session.
type Engine struct {
	config     *config.RemoteConfig
	logger     *logging.Logger
	errorLog   *logging.ErrorLog
	eventBus   *events.EventBus
	notifier   *notify.Notifier
	dial       DialFunc
	resultsDir string

	samples *samples.List

	// opMu serialises operations; mu guards the fields below.
	opMu    sync.Mutex
	mu      sync.RWMutex
	session Session
	status  Status
}

// NewEngine creates an Engine. bus may be nil; logger and errorLog default
// to a no-op logger and the error.log in the results directory.
func NewEngine(cfg *config.RemoteConfig, logger *logging.Logger, errorLog *logging.ErrorLog, bus *events.EventBus, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.NewRemoteConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	e := &Engine{
		config:   cfg,
		logger:   logger,
		eventBus: bus,
		dial:     dialSSH,
		samples:  samples.NewList(bus),
		status:   Status{State: StateIdle},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.resultsDir == "" {
		e.resultsDir = config.ResultsDirectory()
	}
	if errorLog == nil {
		errorLog = logging.NewErrorLog(config.ErrorLogPathIn(e.resultsDir))
	}
	e.errorLog = errorLog
	return e
}

func dialSSH(ctx context.Context, cfg *config.RemoteConfig) (Session, error) {
	s, err := sshclient.Connect(ctx, cfg, sshclient.Options{})
	if err != nil {
		return nil, err
	}
	return sshSession{s}, nil
}

// sshSession adapts *sshclient.Session to Session.
type sshSession struct {
	*sshclient.Session
}

func (s sshSession) OpenTransfer() (remotefs.TransferCloser, error) {
	t, err := s.Session.OpenTransfer()
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Config returns the configuration the Engine was built with.
func (e *Engine) Config() *config.RemoteConfig { return e.config }

// Events returns the event bus, which may be nil.
func (e *Engine) Events() *events.EventBus { return e.eventBus }

// Samples returns the sample list filled by ListSamples.
func (e *Engine) Samples() *samples.List { return e.samples }

// ErrorLog returns the error log the Engine records into.
func (e *Engine) ErrorLog() *logging.ErrorLog { return e.errorLog }

// ResultsDir returns the local results directory.
func (e *Engine) ResultsDir() string { return e.resultsDir }

// State returns the current state.
func (e *Engine) State() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.status
	s.Connected = e.session != nil
	return s
}

func (e *Engine) setState(next State, op string, err error) {
	e.mu.Lock()
	prev := e.status.State
	e.status = Status{State: next, Operation: op, Err: err}
	e.mu.Unlock()

	if prev != next {
		e.eventBus.PublishStateChange(string(prev), string(next), op, err)
	}
}

// fail moves to Failed, logs err and drops the session on network errors.
func (e *Engine) fail(op string, err error) error {
	var netErr *tberr.NetworkError
	if errors.As(err, &netErr) {
		e.dropSession()
	}

	kind := tberr.Kind(err)
	e.logger.Error().Err(err).Str("operation", op).Str("kind", kind).Msg("Operation failed")
	e.eventBus.PublishError(op, kind, err)
	e.setState(StateFailed, op, err)
	return err
}

func (e *Engine) dropSession() {
	e.mu.Lock()
	s := e.session
	e.session = nil
	e.mu.Unlock()
	if s != nil {
		_ = s.Close()
	}
}

// connectLocked returns the cached session or dials a new one. opMu must be held.
func (e *Engine) connectLocked(ctx context.Context, op string) (Session, error) {
	e.mu.RLock()
	s := e.session
	e.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	e.setState(StateConnecting, op, nil)
	e.logger.Info().Str("addr", e.config.Connection.Address()).Msg("Connecting to cluster")

	s, err := e.dial(ctx, e.config)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.session = s
	e.mu.Unlock()
	e.setState(StateConnected, op, nil)
	e.eventBus.PublishLog(events.InfoLevel, "Connected to "+e.config.Connection.Address(), op, nil)
	return s, nil
}

// Connect establishes the session if none is cached.
func (e *Engine) Connect(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if _, err := e.connectLocked(ctx, "connect"); err != nil {
		return e.fail("connect", err)
	}
	e.setState(StateIdle, "connect", nil)
	return nil
}

// run wraps one remote operation: connect if needed, enter busy, run fn,
// then return to Idle or Failed.
func (e *Engine) run(ctx context.Context, op string, busy State, fn func(Session) error) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	s, err := e.connectLocked(ctx, op)
	if err != nil {
		return e.fail(op, err)
	}

	e.setState(busy, op, nil)
	if err := fn(s); err != nil {
		return e.fail(op, err)
	}
	e.setState(StateIdle, op, nil)
	return nil
}

// precondition fails op without touching the network.
func (e *Engine) precondition(op string, err error) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.fail(op, err)
}

// ListSamples lists remote_raw_dir, rebuilds the sample list and returns it.
// Any previous selection is discarded.
func (e *Engine) ListSamples(ctx context.Context) ([]samples.Sample, error) {
	const op = "list_samples"

	rawDir, err := e.config.Require(config.FieldRemoteRawDir)
	if err != nil {
		return nil, e.precondition(op, err)
	}

	var found []samples.Sample
	err = e.run(ctx, op, StateListing, func(s Session) error {
		if err := remotefs.RequireDirectory(ctx, s, rawDir, e.errorLog); err != nil {
			return err
		}
		listing, err := remotefs.ListDirectory(ctx, s, rawDir, e.errorLog)
		if err != nil {
			return err
		}
		found = samples.Discover(listing)
		e.logger.Info().Str("dir", rawDir).Int("files", len(listing)).Int("samples", len(found)).Msg("Listed raw reads")
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.samples.Set(found)
	return e.samples.Items(), nil
}

// Submit submits every checked sample in the list as one array job.
func (e *Engine) Submit(ctx context.Context) (string, error) {
	return e.submit(ctx, e.samples.CheckedNames(), e.samples.CheckedCount())
}

// SubmitCommand returns the batch command Submit would run for the checked
// samples, without touching the network.
func (e *Engine) SubmitCommand() (string, error) {
	return jobs.BuildCommand(e.config, e.samples.CheckedNames(), e.samples.CheckedCount())
}

// SubmitNames submits the given sample names, bypassing the list.
func (e *Engine) SubmitNames(ctx context.Context, names []string) (string, error) {
	return e.submit(ctx, names, len(names))
}

func (e *Engine) submit(ctx context.Context, names []string, count int) (string, error) {
	const op = "submit"

	if _, err := jobs.NewRequest(e.config, names, count); err != nil {
		return "", e.precondition(op, err)
	}

	var output string
	err := e.run(ctx, op, StateSubmitting, func(s Session) error {
		out, err := jobs.Submit(ctx, s, e.config, names, count)
		if err != nil {
			return err
		}
		output = out
		return nil
	})
	if err != nil {
		return "", err
	}

	e.logger.Info().Strs("samples", names).Str("output", output).Msg("Submitted TB-Profiler job")
	e.eventBus.PublishJobSubmitted(names, output)
	if e.notifier != nil {
		e.notifier.JobSubmitted(names, output)
	}
	return output, nil
}

// CheckIfRunning reports whether the user has jobs in the scheduler queue.
func (e *Engine) CheckIfRunning(ctx context.Context) (bool, error) {
	const op = "check_running"

	if _, err := e.config.Require(config.FieldUsername); err != nil {
		return false, e.precondition(op, err)
	}

	var running bool
	err := e.run(ctx, op, StateListing, func(s Session) error {
		r, err := jobs.CheckIfRunning(ctx, s, e.config)
		running = r
		return err
	})
	return running, err
}

// DownloadResults downloads the .docx reports into localDir, or into the
// results directory when localDir is empty. observer may be nil.
func (e *Engine) DownloadResults(ctx context.Context, localDir string, checkDiskSpace bool, observer results.FileObserver) (*results.DownloadSummary, error) {
	const op = "download_results"

	if _, err := e.config.Require(config.FieldRemoteOutDir); err != nil {
		return nil, e.precondition(op, err)
	}

	var summary *results.DownloadSummary
	err := e.run(ctx, op, StateTransferring, func(s Session) error {
		var err error
		summary, err = results.Download(ctx, s, e.config, localDir, results.DownloadOptions{
			ResultsDir:     e.resultsDir,
			CheckDiskSpace: checkDiskSpace,
			Observer:       results.Observers(progress.NewEventReporter(e.eventBus, "download"), observer),
			Recorder:       e.errorLog,
		})
		return err
	})
	if e.notifier != nil {
		if err != nil {
			e.notifier.DownloadFailed(err)
		} else {
			e.notifier.DownloadComplete(len(summary.Files), summary.LocalDir)
		}
	}
	if err != nil {
		return summary, err
	}

	e.logger.Info().Int("files", len(summary.Files)).Int64("bytes", summary.Bytes).Str("dir", summary.LocalDir).Msg("Downloaded results")
	return summary, nil
}

// DeleteResults removes the remote output directory and the local result files.
func (e *Engine) DeleteResults(ctx context.Context) (*results.DeleteSummary, error) {
	const op = "delete_results"

	if _, err := e.config.Require(config.FieldRemoteOutDir); err != nil {
		return nil, e.precondition(op, err)
	}

	var summary *results.DeleteSummary
	err := e.run(ctx, op, StateTransferring, func(s Session) error {
		var err error
		summary, err = results.Delete(ctx, s, e.config, e.resultsDir, e.errorLog, e.logger)
		return err
	})
	return summary, err
}

// DownloadDefaultTemplate saves the shared report template to localPath.
func (e *Engine) DownloadDefaultTemplate(ctx context.Context, localPath string, observer results.FileObserver) error {
	const op = "download_template"

	if _, err := e.config.Require(config.FieldDefaultTemplateRemote); err != nil {
		return e.precondition(op, err)
	}

	return e.run(ctx, op, StateTransferring, func(s Session) error {
		obs := results.Observers(progress.NewEventReporter(e.eventBus, "download"), observer)
		return results.DownloadDefaultTemplate(ctx, s, e.config, localPath, obs)
	})
}

// UploadUserTemplate replaces the user's report template with localPath.
func (e *Engine) UploadUserTemplate(ctx context.Context, localPath string, observer results.FileObserver) error {
	const op = "upload_template"

	if _, err := e.config.Require(config.FieldUserTemplateRemote); err != nil {
		return e.precondition(op, err)
	}

	return e.run(ctx, op, StateTransferring, func(s Session) error {
		obs := results.Observers(progress.NewEventReporter(e.eventBus, "upload"), observer)
		return results.UploadUserTemplate(ctx, s, e.config, localPath, obs)
	})
}

// ClearErrorLog deletes the local error log.
func (e *Engine) ClearErrorLog() error {
	if err := e.errorLog.Clear(); err != nil {
		return &tberr.IOError{Op: "remove", Path: e.errorLog.Path(), Err: err}
	}
	return nil
}

// Close drops the session. The Engine may be reused; the next operation reconnects.
func (e *Engine) Close() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	s := e.session
	e.session = nil
	e.mu.Unlock()

	e.setState(StateIdle, "close", nil)
	if s == nil {
		return nil
	}
	return s.Close()
}
