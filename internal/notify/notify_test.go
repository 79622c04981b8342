package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/tbgui/tbgui/internal/config"
)

type sent struct {
	title, message string
}

func newTestNotifier(cfg config.NotificationConfig) (*Notifier, *[]sent) {
	var calls []sent
	n := NewNotifier(cfg, nil)
	n.send = func(title, message string) error {
		calls = append(calls, sent{title, message})
		return nil
	}
	return n, &calls
}

func allOn() config.NotificationConfig {
	return config.NotificationConfig{
		Enabled:              true,
		ShowDownloadComplete: true,
		ShowDownloadFailed:   true,
		ShowJobSubmitted:     true,
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a long string", 10, "this is..."},
		{"", 10, ""},
		{"abcd", 3, "..."},
	}

	for _, tt := range tests {
		if result := truncate(tt.input, tt.maxLen); result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestShortenPath(t *testing.T) {
	long := "/home/researcher/projects/tuberculosis/2024/batch-07/tbgui-results/reports"
	if got := shortenPath(long); len(got) >= len(long) || !strings.HasSuffix(got, "reports") {
		t.Errorf("shortenPath(%q) = %q", long, got)
	}
	if got := shortenPath("/home/u/tbgui-results"); got != "/home/u/tbgui-results" {
		t.Errorf("short path should be unchanged, got %q", got)
	}
}

func TestNotifier_Sends(t *testing.T) {
	n, calls := newTestNotifier(allOn())

	n.DownloadComplete(3, "/home/u/tbgui-results")
	n.DownloadFailed(errors.New("remote directory does not exist"))
	n.JobSubmitted([]string{"S1", "S2"}, "Submitted batch job 42\n")

	if len(*calls) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(*calls))
	}
	if (*calls)[0].title != "Download Complete" || !strings.Contains((*calls)[0].message, "3 result file(s)") {
		t.Errorf("unexpected download notification: %+v", (*calls)[0])
	}
	if !strings.Contains((*calls)[2].message, "S1, S2") || !strings.Contains((*calls)[2].message, "batch job 42") {
		t.Errorf("unexpected submission notification: %+v", (*calls)[2])
	}
}

func TestNotifier_Toggles(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.NotificationConfig
		fire  func(*Notifier)
		wants int
	}{
		{"disabled", config.NotificationConfig{ShowDownloadComplete: true}, func(n *Notifier) { n.DownloadComplete(1, "/d") }, 0},
		{"complete off", config.NotificationConfig{Enabled: true}, func(n *Notifier) { n.DownloadComplete(1, "/d") }, 0},
		{"failed off", config.NotificationConfig{Enabled: true}, func(n *Notifier) { n.DownloadFailed(errors.New("x")) }, 0},
		{"nil error", allOn(), func(n *Notifier) { n.DownloadFailed(nil) }, 0},
		{"submitted off", config.NotificationConfig{Enabled: true}, func(n *Notifier) { n.JobSubmitted([]string{"S1"}, "") }, 0},
		{"submitted on", allOn(), func(n *Notifier) { n.JobSubmitted([]string{"S1"}, "") }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, calls := newTestNotifier(tt.cfg)
			tt.fire(n)
			if len(*calls) != tt.wants {
				t.Errorf("expected %d notifications, got %d", tt.wants, len(*calls))
			}
		})
	}
}

func TestSetEnabled(t *testing.T) {
	n, calls := newTestNotifier(allOn())

	n.SetEnabled(false)
	if n.IsEnabled() {
		t.Error("expected notifier to be disabled")
	}
	n.DownloadComplete(1, "/d")
	if len(*calls) != 0 {
		t.Errorf("expected no notifications while disabled, got %d", len(*calls))
	}

	n.SetEnabled(true)
	n.DownloadComplete(1, "/d")
	if len(*calls) != 1 {
		t.Errorf("expected 1 notification after re-enabling, got %d", len(*calls))
	}
}

func TestAlert_Disabled(t *testing.T) {
	n, calls := newTestNotifier(config.NotificationConfig{})
	n.Alert("should not be sent")
	if len(*calls) != 0 {
		t.Errorf("expected no notifications, got %d", len(*calls))
	}
}
