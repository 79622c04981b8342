package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tbgui/tbgui/internal/config"
	"github.com/tbgui/tbgui/internal/events"
	"github.com/tbgui/tbgui/internal/logging"
	"github.com/tbgui/tbgui/internal/remotefs"
	"github.com/tbgui/tbgui/internal/sshclient"
	"github.com/tbgui/tbgui/internal/tberr"
)

type fakeInfo struct {
	name string
	size int64
}

func (f fakeInfo) Name() string       { return f.name }
func (f fakeInfo) Size() int64        { return f.size }
func (f fakeInfo) Mode() fs.FileMode  { return 0644 }
func (f fakeInfo) ModTime() time.Time { return time.Time{} }
func (f fakeInfo) IsDir() bool        { return false }
func (f fakeInfo) Sys() any           { return nil }

// fakeCluster is the remote side shared by every session it hands out.
type fakeCluster struct {
	responses map[string]*sshclient.CommandResult
	files     map[string][]byte
	dirs      map[string][]os.FileInfo
	commands  []string
	dials     int
	dialErr   error
	execErr   error
	closed    int
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{
		responses: map[string]*sshclient.CommandResult{},
		files:     map[string][]byte{},
		dirs:      map[string][]os.FileInfo{},
	}
}

func (c *fakeCluster) dial(context.Context, *config.RemoteConfig) (Session, error) {
	c.dials++
	if c.dialErr != nil {
		return nil, c.dialErr
	}
	return &fakeSession{c}, nil
}

type fakeSession struct{ c *fakeCluster }

func (s *fakeSession) Execute(_ context.Context, command string) (*sshclient.CommandResult, error) {
	s.c.commands = append(s.c.commands, command)
	if s.c.execErr != nil {
		err := s.c.execErr
		s.c.execErr = nil
		return nil, err
	}
	if r, ok := s.c.responses[command]; ok {
		return r, nil
	}
	return &sshclient.CommandResult{}, nil
}

func (s *fakeSession) OpenTransfer() (remotefs.TransferCloser, error) { return s, nil }

func (s *fakeSession) Open(path string) (io.ReadCloser, error) {
	data, ok := s.c.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeSession) Create(string) (io.WriteCloser, error) {
	return nil, errors.New("read-only fake")
}

func (s *fakeSession) ReadDir(path string) ([]os.FileInfo, error) {
	d, ok := s.c.dirs[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return d, nil
}

func (s *fakeSession) Close() error {
	s.c.closed++
	return nil
}

func testConfig() *config.RemoteConfig {
	cfg := config.NewRemoteConfig()
	cfg.Username = "jdoe"
	cfg.RemoteRawDir = "/data/raw"
	cfg.TBProfilerScript = "/data/scripts/tbprofiler.sh"
	cfg.RemoteOutDir = "/data/out"
	cfg.DefaultTemplateRemote = "/data/templates/default_template.docx"
	cfg.UserTemplateRemote = "/data/template/user_template.docx"
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.RemoteConfig, cluster *fakeCluster, bus *events.EventBus) *Engine {
	t.Helper()
	dir := t.TempDir()
	return NewEngine(cfg, logging.NewNopLogger(), logging.NewErrorLog(filepath.Join(dir, "error.log")), bus,
		WithDialer(cluster.dial),
		WithResultsDir(dir),
	)
}

func TestEngine_EndToEnd(t *testing.T) {
	cluster := newFakeCluster()
	cluster.responses["test -d /data/raw && echo 'exists'"] = &sshclient.CommandResult{Stdout: "exists\n"}
	cluster.responses["ls /data/raw"] = &sshclient.CommandResult{
		Stdout: "S1_R1.fastq.gz\nS1_R2.fastq.gz\nS2_R1.fastq.gz\nS2_R2.fastq.gz\nS3_R1.fastq.gz\nS3_R2.fastq.gz\n",
	}
	cluster.responses["test -d /data/out/results && echo 'exists'"] = &sshclient.CommandResult{Stdout: "exists\n"}
	cluster.dirs["/data/out/results"] = []os.FileInfo{fakeInfo{"S1.docx", 4}, fakeInfo{"S3.docx", 4}}
	cluster.files["/data/out/results/S1.docx"] = []byte("one!")
	cluster.files["/data/out/results/S3.docx"] = []byte("tre!")

	engine := newTestEngine(t, testConfig(), cluster, nil)
	ctx := context.Background()

	found, err := engine.ListSamples(ctx)
	if err != nil {
		t.Fatalf("ListSamples failed: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(found))
	}

	engine.Samples().CheckByName("S1", "S3")

	if _, err := engine.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	var sbatch string
	for _, c := range cluster.commands {
		if strings.HasPrefix(c, "sbatch") {
			sbatch = c
		}
	}
	want := `sbatch --array 0-1 /data/scripts/tbprofiler.sh "S1 S3" /data/raw /data/out /data/template/user_template.docx`
	if sbatch != want {
		t.Errorf("expected %q, got %q", want, sbatch)
	}

	localDir := filepath.Join(t.TempDir(), "reports")
	summary, err := engine.DownloadResults(ctx, localDir, false, nil)
	if err != nil {
		t.Fatalf("DownloadResults failed: %v", err)
	}
	if len(summary.Files) != 2 {
		t.Errorf("expected 2 downloaded files, got %v", summary.Files)
	}
	if data, _ := os.ReadFile(filepath.Join(localDir, "S3.docx")); string(data) != "tre!" {
		t.Errorf("unexpected S3.docx content %q", data)
	}

	if cluster.dials != 1 {
		t.Errorf("expected the session to be reused, got %d dials", cluster.dials)
	}
	if st := engine.State(); st.State != StateIdle || !st.Connected {
		t.Errorf("expected idle with cached session, got %+v", st)
	}

	if err := engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if cluster.closed != 1 {
		t.Errorf("expected session closed once, got %d", cluster.closed)
	}
}

func TestEngine_SubmitNothingChecked(t *testing.T) {
	cluster := newFakeCluster()
	engine := newTestEngine(t, testConfig(), cluster, nil)

	_, err := engine.Submit(context.Background())

	if !errors.Is(err, tberr.ErrNoItemsChecked) {
		t.Fatalf("expected ErrNoItemsChecked, got %v", err)
	}
	if cluster.dials != 0 || len(cluster.commands) != 0 {
		t.Errorf("expected no remote activity, got %d dials and %d commands", cluster.dials, len(cluster.commands))
	}
	if st := engine.State(); st.State != StateFailed || !errors.Is(st.Err, tberr.ErrNoItemsChecked) {
		t.Errorf("expected failed state, got %+v", st)
	}
}

func TestEngine_ConfigGating(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		field config.Field
		run   func(*Engine) error
	}{
		{config.FieldRemoteRawDir, func(e *Engine) error { _, err := e.ListSamples(ctx); return err }},
		{config.FieldUsername, func(e *Engine) error { _, err := e.CheckIfRunning(ctx); return err }},
		{config.FieldTBProfilerScript, func(e *Engine) error { _, err := e.SubmitNames(ctx, []string{"S1"}); return err }},
		{config.FieldRemoteOutDir, func(e *Engine) error { _, err := e.DownloadResults(ctx, "", false, nil); return err }},
		{config.FieldDefaultTemplateRemote, func(e *Engine) error { return e.DownloadDefaultTemplate(ctx, "", nil) }},
		{config.FieldUserTemplateRemote, func(e *Engine) error { return e.UploadUserTemplate(ctx, "x", nil) }},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			cfg := testConfig()
			if err := cfg.Set(tt.field, ""); err != nil {
				t.Fatal(err)
			}
			cluster := newFakeCluster()
			engine := newTestEngine(t, cfg, cluster, nil)

			err := tt.run(engine)

			var cfgErr *tberr.ConfigurationError
			if !errors.As(err, &cfgErr) || cfgErr.Field != string(tt.field) {
				t.Fatalf("expected ConfigurationError for %s, got %v", tt.field, err)
			}
			if cluster.dials != 0 {
				t.Errorf("expected no dial, got %d", cluster.dials)
			}
		})
	}
}

func TestEngine_MissingRawDirIsRecorded(t *testing.T) {
	cluster := newFakeCluster()
	engine := newTestEngine(t, testConfig(), cluster, nil)

	_, err := engine.ListSamples(context.Background())

	var dirErr *tberr.RemoteDirectoryNotFoundError
	if !errors.As(err, &dirErr) {
		t.Fatalf("expected RemoteDirectoryNotFoundError, got %v", err)
	}
	data, readErr := os.ReadFile(engine.ErrorLog().Path())
	if readErr != nil {
		t.Fatalf("expected error.log to be written: %v", readErr)
	}
	if !strings.Contains(string(data), "/data/raw") {
		t.Errorf("expected error.log to name the directory, got %q", data)
	}

	if err := engine.ClearErrorLog(); err != nil {
		t.Fatalf("ClearErrorLog failed: %v", err)
	}
	if _, err := os.Stat(engine.ErrorLog().Path()); !os.IsNotExist(err) {
		t.Error("expected error.log to be removed")
	}
}

func TestEngine_NetworkErrorDropsSession(t *testing.T) {
	cluster := newFakeCluster()
	cluster.responses["squeue -u jdoe"] = &sshclient.CommandResult{Stdout: "42 jdoe R\n"}
	engine := newTestEngine(t, testConfig(), cluster, nil)
	ctx := context.Background()

	if err := engine.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	cluster.execErr = errors.New("broken pipe")
	_, err := engine.CheckIfRunning(ctx)
	var netErr *tberr.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if engine.State().Connected {
		t.Error("expected session to be dropped after a network error")
	}

	running, err := engine.CheckIfRunning(ctx)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !running {
		t.Error("expected running job to be detected")
	}
	if cluster.dials != 2 {
		t.Errorf("expected a reconnect, got %d dials", cluster.dials)
	}
}

func TestEngine_DialFailure(t *testing.T) {
	cluster := newFakeCluster()
	cluster.dialErr = &tberr.AuthenticationError{KeyPath: "/nope", Err: fs.ErrNotExist}
	engine := newTestEngine(t, testConfig(), cluster, nil)

	err := engine.Connect(context.Background())

	var authErr *tberr.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if st := engine.State(); st.State != StateFailed || st.Operation != "connect" {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestEngine_StateEvents(t *testing.T) {
	bus := events.NewEventBus(32)
	defer bus.Close()
	ch := bus.Subscribe(events.EventStateChange)

	cluster := newFakeCluster()
	cluster.responses["test -d /data/raw && echo 'exists'"] = &sshclient.CommandResult{Stdout: "exists"}
	engine := newTestEngine(t, testConfig(), cluster, bus)

	if _, err := engine.ListSamples(context.Background()); err != nil {
		t.Fatalf("ListSamples failed: %v", err)
	}

	var got []string
	for len(got) < 4 {
		select {
		case e := <-ch:
			got = append(got, e.(*events.StateChangeEvent).NewState)
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout after %v", got)
		}
	}
	want := []string{"connecting", "connected", "listing", "idle"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected transitions %v, got %v", want, got)
		}
	}
}

func TestEngine_DeleteResults(t *testing.T) {
	cluster := newFakeCluster()
	engine := newTestEngine(t, testConfig(), cluster, nil)
	if err := os.WriteFile(filepath.Join(engine.ResultsDir(), "S1.docx"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	summary, err := engine.DeleteResults(context.Background())
	if err != nil {
		t.Fatalf("DeleteResults failed: %v", err)
	}
	if len(summary.LocalRemoved) != 1 {
		t.Errorf("expected 1 local file removed, got %v", summary.LocalRemoved)
	}
	if cluster.commands[len(cluster.commands)-1] != "rm -rf /data/out" {
		t.Errorf("unexpected commands %q", cluster.commands)
	}
}

func TestEngine_ListingFailuresAreRecorded(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeCluster)
		run   func(context.Context, *Engine) error
		want  string
	}{
		{
			name:  "delete results check",
			setup: func(c *fakeCluster) { c.execErr = errors.New("connection reset") },
			run: func(ctx context.Context, e *Engine) error {
				_, err := e.DeleteResults(ctx)
				return err
			},
			want: "/data/out",
		},
		{
			name: "download results listing",
			setup: func(c *fakeCluster) {
				c.responses["test -d /data/out/results && echo 'exists'"] = &sshclient.CommandResult{Stdout: "exists\n"}
			},
			run: func(ctx context.Context, e *Engine) error {
				_, err := e.DownloadResults(ctx, "", false, nil)
				return err
			},
			want: "/data/out/results",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cluster := newFakeCluster()
			tt.setup(cluster)
			engine := newTestEngine(t, testConfig(), cluster, nil)

			err := tt.run(context.Background(), engine)

			var netErr *tberr.NetworkError
			if !errors.As(err, &netErr) {
				t.Fatalf("expected NetworkError, got %v", err)
			}
			data, readErr := os.ReadFile(engine.ErrorLog().Path())
			if readErr != nil {
				t.Fatalf("expected error.log to be written: %v", readErr)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("expected error.log to name %s, got %q", tt.want, data)
			}
		})
	}
}
