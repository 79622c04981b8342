package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbgui/tbgui/internal/events"
)

func TestTransferUI_NonTerminal(t *testing.T) {
	var out bytes.Buffer
	ui := newTransferUI(&out, false, "←")

	ui.FileStarted(1, 2, "/out/results/S1.docx", "/home/u/tbgui-results/S1.docx", 8192)
	ui.FileProgress("/out/results/S1.docx", 4096)
	ui.FileProgress("/out/results/S1.docx", 4096)
	ui.FileCompleted("/out/results/S1.docx", nil)

	ui.FileStarted(2, 2, "/out/results/S2.docx", "/home/u/tbgui-results/S2.docx", 10)
	ui.FileCompleted("/out/results/S2.docx", errors.New("connection lost"))
	ui.Wait()

	text := out.String()
	for _, want := range []string{"[1/2]", "tbgui-results/S1.docx", "✓", "✗", "connection lost"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, text)
		}
	}
	if ui.Completed() != 1 || ui.Failed() != 1 {
		t.Errorf("expected 1 completed and 1 failed, got %d/%d", ui.Completed(), ui.Failed())
	}
	if ui.IsTerminal() {
		t.Error("expected non-terminal UI")
	}
}

func TestTransferUI_UnknownFileIgnored(t *testing.T) {
	var out bytes.Buffer
	ui := newTransferUI(&out, false, "→")

	ui.FileProgress("/nope", 10)
	ui.FileCompleted("/nope", nil)

	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path     string
		max      int
		expected string
	}{
		{"S1.docx", 2, "S1.docx"},
		{"results/S1.docx", 2, "S1.docx"},
		{"/home/u/tbgui-results/S1.docx", 2, "…/tbgui-results/S1.docx"},
	}

	for _, tt := range tests {
		if got := truncatePath(tt.path, tt.max); got != tt.expected {
			t.Errorf("truncatePath(%q, %d) = %q, want %q", tt.path, tt.max, got, tt.expected)
		}
	}
}

func TestEventReporter(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.SubscribeAll()

	r := NewEventReporter(bus, "download")
	r.FileStarted(1, 1, "/out/results/S1.docx", "/tmp/S1.docx", 100)
	r.FileProgress("/out/results/S1.docx", 60)
	r.FileProgress("/out/results/S1.docx", 40)
	r.FileCompleted("/out/results/S1.docx", nil)

	var got []*events.TransferEvent
	for i := 0; i < 4; i++ {
		select {
		case e := <-ch:
			got = append(got, e.(*events.TransferEvent))
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout waiting for event %d", i+1)
		}
	}

	wantTypes := []events.EventType{
		events.EventTransferStarted,
		events.EventTransferProgress,
		events.EventTransferProgress,
		events.EventTransferCompleted,
	}
	for i, e := range got {
		if e.Type() != wantTypes[i] {
			t.Errorf("event %d: expected %s, got %s", i, wantTypes[i], e.Type())
		}
	}
	if got[2].Bytes != 100 || got[2].Size != 100 {
		t.Errorf("expected running total 100/100, got %d/%d", got[2].Bytes, got[2].Size)
	}
	if got[3].Direction != "download" || got[3].LocalPath != "/tmp/S1.docx" {
		t.Errorf("unexpected completion event: %+v", got[3])
	}
}

func TestEventReporter_Failure(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventTransferFailed)

	r := NewEventReporter(bus, "upload")
	r.FileStarted(1, 1, "/tmpl/user.docx", "/tmp/user.docx", 5)
	r.FileCompleted("/tmpl/user.docx", errors.New("permission denied"))

	select {
	case e := <-ch:
		if e.(*events.TransferEvent).Error == nil {
			t.Error("expected error on failed transfer event")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for failure event")
	}
}
