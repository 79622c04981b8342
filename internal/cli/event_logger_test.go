package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tbgui/tbgui/internal/events"
	"github.com/tbgui/tbgui/internal/logging"
)

func withDebugLevel(t *testing.T) {
	t.Helper()
	prev := zerolog.GlobalLevel()
	logging.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { logging.SetGlobalLevel(prev) })
}

func TestEventLogger(t *testing.T) {
	withDebugLevel(t)

	var out bytes.Buffer
	bus := events.NewEventBus(64)
	defer bus.Close()
	el := newEventLogger(bus, logging.NewLogger(logging.Options{Console: &out}))
	el.Start()

	bus.PublishStateChange("idle", "transferring", "download_results", nil)
	bus.PublishTransfer(events.EventTransferProgress, "download", "/data/out/results/S1.docx", "/tmp/S1.docx", 4096, 8192, nil)
	bus.PublishTransfer(events.EventTransferFailed, "download", "/data/out/results/S1.docx", "/tmp/S1.docx", 4096, 8192, errors.New("connection reset"))
	bus.PublishSamplesChanged(3, 2)
	el.Stop()

	got := out.String()
	for _, want := range []string{"State change", "transferring", "Transfer failed", "connection reset", "3 samples, 2 checked"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in log output:\n%s", want, got)
		}
	}
	// The progress event is not logged.
	if lines := strings.Count(strings.TrimSpace(got), "\n") + 1; lines != 3 {
		t.Errorf("expected 3 log lines, got %d:\n%s", lines, got)
	}

	// Events after Stop are not forwarded.
	out.Reset()
	bus.PublishStateChange("transferring", "idle", "download_results", nil)
	if out.Len() != 0 {
		t.Errorf("expected no output after Stop, got %q", out.String())
	}
}

func TestVerboseLogsEngineEvents(t *testing.T) {
	withDebugLevel(t)
	sess := newFakeSession()
	cfgPath, _ := setupCLI(t, sess)
	logFile := filepath.Join(t.TempDir(), "tbgui.log")

	if _, err := runCLI(t, "", "--config", cfgPath, "--log-file", logFile, "--verbose", "status"); err != nil {
		t.Fatalf("status failed: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{`"message":"State change"`, `"to":"connected"`, `"operation":"check_running"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %s in log file:\n%s", want, data)
		}
	}
}
