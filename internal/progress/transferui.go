// Package progress renders file transfer progress, either as terminal bars
// or as events on the bus.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/tbgui/tbgui/internal/constants"
)

// TransferUI draws one mpb bar per file. On a non-terminal it prints one
// line per file instead.
type TransferUI struct {
	progress   *mpb.Progress
	out        io.Writer
	arrow      string
	bars       sync.Map // remote path -> *fileBar
	isTerminal bool
	completed  int32
	failed     int32
}

type fileBar struct {
	bar        *mpb.Bar
	remotePath string
	localPath  string
	size       int64
	written    int64
	startTime  time.Time
	lastUpdate time.Time
}

// NewDownloadUI returns a TransferUI for downloads on stderr.
func NewDownloadUI() *TransferUI {
	return newStderrUI("←")
}

// NewUploadUI returns a TransferUI for uploads on stderr.
func NewUploadUI() *TransferUI {
	return newStderrUI("→")
}

func newStderrUI(arrow string) *TransferUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	if isTerminal {
		enableANSI(os.Stderr)
	}
	return newTransferUI(os.Stderr, isTerminal, arrow)
}

func newTransferUI(out io.Writer, isTerminal bool, arrow string) *TransferUI {
	var p *mpb.Progress
	if isTerminal {
		p = mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(constants.ProgressRefreshRate),
			mpb.WithWidth(100),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}
	return &TransferUI{progress: p, out: out, arrow: arrow, isTerminal: isTerminal}
}

// FileStarted adds a bar for remotePath.
func (u *TransferUI) FileStarted(index, total int, remotePath, localPath string, size int64) {
	now := time.Now()
	fb := &fileBar{
		remotePath: remotePath,
		localPath:  localPath,
		size:       size,
		startTime:  now,
		lastUpdate: now,
	}
	label := fmt.Sprintf("[%d/%d] %s (%.1f MiB) %s %s",
		index, total, truncatePath(localPath, 2), mib(size), u.arrow, filepath.Base(remotePath))

	if u.isTerminal {
		fb.bar = u.progress.New(size,
			mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
			mpb.PrependDecorators(decor.Name(label, decor.WCSyncSpace)),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 60, decor.WCSyncSpace),
				decor.Name("  ETA "),
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(u.out, "Transferring %s\n", label)
	}

	u.bars.Store(remotePath, fb)
}

// FileProgress advances the bar for remotePath by n bytes.
func (u *TransferUI) FileProgress(remotePath string, n int64) {
	v, ok := u.bars.Load(remotePath)
	if !ok {
		return
	}
	fb := v.(*fileBar)
	fb.written += n
	if fb.bar == nil {
		return
	}
	now := time.Now()
	fb.bar.EwmaIncrInt64(n, now.Sub(fb.lastUpdate))
	fb.lastUpdate = now
}

// FileCompleted finishes the bar for remotePath and prints a summary line.
func (u *TransferUI) FileCompleted(remotePath string, err error) {
	v, ok := u.bars.LoadAndDelete(remotePath)
	if !ok {
		return
	}
	fb := v.(*fileBar)
	elapsed := time.Since(fb.startTime)

	var msg string
	if err == nil {
		if fb.bar != nil {
			fb.bar.SetTotal(fb.written, true)
		}
		speed := 0.0
		if s := elapsed.Seconds(); s > 0 {
			speed = mib(fb.written) / s
		}
		msg = fmt.Sprintf("✓ %s %s %s (%.1f MiB, %s, %.1f MiB/s)\n",
			truncatePath(fb.localPath, 2), u.arrow, fb.remotePath, mib(fb.written), elapsed.Round(time.Millisecond), speed)
		atomic.AddInt32(&u.completed, 1)
	} else {
		if fb.bar != nil {
			fb.bar.Abort(false)
		}
		msg = fmt.Sprintf("✗ %s %s %s: %v\n", truncatePath(fb.localPath, 2), u.arrow, fb.remotePath, err)
		atomic.AddInt32(&u.failed, 1)
	}

	fmt.Fprint(u.Writer(), msg)
}

// Wait blocks until every bar has finished rendering.
func (u *TransferUI) Wait() {
	u.progress.Wait()
}

// Writer returns a writer that prints above the bars.
func (u *TransferUI) Writer() io.Writer {
	if u.isTerminal {
		return u.progress
	}
	return u.out
}

// Completed returns the number of files finished without error.
func (u *TransferUI) Completed() int {
	return int(atomic.LoadInt32(&u.completed))
}

// Failed returns the number of files that finished with an error.
func (u *TransferUI) Failed() int {
	return int(atomic.LoadInt32(&u.failed))
}

// IsTerminal returns whether bars are drawn.
func (u *TransferUI) IsTerminal() bool {
	return u.isTerminal
}

func mib(n int64) float64 {
	return float64(n) / (1024 * 1024)
}

// truncatePath keeps the last maxComponents elements of path.
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	return "…/" + strings.Join(parts[len(parts)-maxComponents:], "/")
}
