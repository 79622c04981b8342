package progress

import (
	"sync"

	"github.com/tbgui/tbgui/internal/events"
)

// EventReporter publishes transfer progress on the event bus for UIs that
// subscribe instead of drawing bars.
type EventReporter struct {
	eventBus  *events.EventBus
	direction string

	mu    sync.Mutex
	files map[string]*transferState
}

type transferState struct {
	localPath string
	size      int64
	bytes     int64
}

// NewEventReporter creates a reporter for direction ("download" or "upload").
func NewEventReporter(bus *events.EventBus, direction string) *EventReporter {
	return &EventReporter{
		eventBus:  bus,
		direction: direction,
		files:     make(map[string]*transferState),
	}
}

// FileStarted publishes EventTransferStarted.
func (r *EventReporter) FileStarted(_, _ int, remotePath, localPath string, size int64) {
	r.mu.Lock()
	r.files[remotePath] = &transferState{localPath: localPath, size: size}
	r.mu.Unlock()

	r.eventBus.PublishTransfer(events.EventTransferStarted, r.direction, remotePath, localPath, 0, size, nil)
}

// FileProgress publishes EventTransferProgress with the running byte count.
func (r *EventReporter) FileProgress(remotePath string, n int64) {
	r.mu.Lock()
	st, ok := r.files[remotePath]
	if ok {
		st.bytes += n
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	r.eventBus.PublishTransfer(events.EventTransferProgress, r.direction, remotePath, st.localPath, st.bytes, st.size, nil)
}

// FileCompleted publishes EventTransferCompleted or EventTransferFailed.
func (r *EventReporter) FileCompleted(remotePath string, err error) {
	r.mu.Lock()
	st, ok := r.files[remotePath]
	delete(r.files, remotePath)
	r.mu.Unlock()
	if !ok {
		st = &transferState{}
	}

	eventType := events.EventTransferCompleted
	if err != nil {
		eventType = events.EventTransferFailed
	}
	r.eventBus.PublishTransfer(eventType, r.direction, remotePath, st.localPath, st.bytes, st.size, err)
}
