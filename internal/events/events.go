package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tbgui/tbgui/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog            EventType = "log"
	EventStateChange    EventType = "state_change"
	EventError          EventType = "error"
	EventSamplesChanged EventType = "samples_changed"

	EventTransferStarted   EventType = "transfer_started"
	EventTransferProgress  EventType = "transfer_progress"
	EventTransferCompleted EventType = "transfer_completed"
	EventTransferFailed    EventType = "transfer_failed"

	EventJobSubmitted EventType = "job_submitted"
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

func newBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// LogEvent represents log messages
type LogEvent struct {
	BaseEvent
	Level     LogLevel
	Message   string
	Operation string
	Error     error
}

// StateChangeEvent represents a transition of the remote operation state machine.
type StateChangeEvent struct {
	BaseEvent
	OldState  string
	NewState  string
	Operation string
	Error     error // set when NewState is "failed"
}

// ErrorEvent represents an operation failure the UI should surface.
type ErrorEvent struct {
	BaseEvent
	Operation string
	Kind      string // tberr.Kind of Error
	Error     error
}

// SamplesChangedEvent is published when the sample list or a checked flag changes.
type SamplesChangedEvent struct {
	BaseEvent
	Total   int
	Checked int
}

// TransferEvent represents file transfer lifecycle and progress.
type TransferEvent struct {
	BaseEvent
	Direction  string // "upload" or "download"
	RemotePath string
	LocalPath  string
	Bytes      int64 // bytes moved so far
	Size       int64 // total bytes, 0 if unknown
	Error      error
}

// JobSubmittedEvent carries the scheduler response of a submission.
type JobSubmittedEvent struct {
	BaseEvent
	Samples []string
	Output  string
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
// Events for full subscriber channels are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message, operation string, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: newBase(EventLog),
		Level:     level,
		Message:   message,
		Operation: operation,
		Error:     err,
	})
}

// PublishStateChange is a convenience method for publishing state change events
func (eb *EventBus) PublishStateChange(oldState, newState, operation string, err error) {
	eb.Publish(&StateChangeEvent{
		BaseEvent: newBase(EventStateChange),
		OldState:  oldState,
		NewState:  newState,
		Operation: operation,
		Error:     err,
	})
}

// PublishError is a convenience method for publishing error events
func (eb *EventBus) PublishError(operation, kind string, err error) {
	eb.Publish(&ErrorEvent{
		BaseEvent: newBase(EventError),
		Operation: operation,
		Kind:      kind,
		Error:     err,
	})
}

// PublishSamplesChanged is a convenience method for publishing sample list changes
func (eb *EventBus) PublishSamplesChanged(total, checked int) {
	eb.Publish(&SamplesChangedEvent{
		BaseEvent: newBase(EventSamplesChanged),
		Total:     total,
		Checked:   checked,
	})
}

// PublishTransfer is a convenience method for publishing transfer events
func (eb *EventBus) PublishTransfer(eventType EventType, direction, remotePath, localPath string, bytes, size int64, err error) {
	eb.Publish(&TransferEvent{
		BaseEvent:  newBase(eventType),
		Direction:  direction,
		RemotePath: remotePath,
		LocalPath:  localPath,
		Bytes:      bytes,
		Size:       size,
		Error:      err,
	})
}

// PublishJobSubmitted is a convenience method for publishing submission results
func (eb *EventBus) PublishJobSubmitted(samples []string, output string) {
	eb.Publish(&JobSubmittedEvent{
		BaseEvent: newBase(EventJobSubmitted),
		Samples:   samples,
		Output:    output,
	})
}

// UnsubscribeAll removes a subscription channel from all event types
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
