package cli

import (
	"sync"

	"github.com/tbgui/tbgui/internal/events"
	"github.com/tbgui/tbgui/internal/logging"
)

// eventLogger writes engine events to the CLI logger at debug level, so
// --verbose shows state transitions and per-file transfer results.
type eventLogger struct {
	bus          *events.EventBus
	logger       *logging.Logger
	subscription <-chan events.Event

	stopC chan struct{}
	wg    sync.WaitGroup
}

func newEventLogger(bus *events.EventBus, logger *logging.Logger) *eventLogger {
	return &eventLogger{
		bus:    bus,
		logger: logger,
		stopC:  make(chan struct{}),
	}
}

// Start subscribes to every event and begins forwarding.
func (el *eventLogger) Start() {
	el.subscription = el.bus.SubscribeAll()
	el.wg.Add(1)
	go el.forwardLoop()
}

// Stop unsubscribes, logs whatever is still buffered and waits for the
// forwarding goroutine to exit.
func (el *eventLogger) Stop() {
	el.bus.UnsubscribeAll(el.subscription)
	close(el.stopC)
	el.wg.Wait()

	if dropped := el.bus.GetDroppedEventCount(); dropped > 0 {
		el.logger.Debugf("Dropped %d events while the log was busy", dropped)
	}
}

func (el *eventLogger) forwardLoop() {
	defer el.wg.Done()

	for {
		select {
		case event, ok := <-el.subscription:
			if !ok {
				return
			}
			el.logEvent(event)
		case <-el.stopC:
			// Nothing new can arrive once unsubscribed.
			for {
				select {
				case event, ok := <-el.subscription:
					if !ok {
						return
					}
					el.logEvent(event)
				default:
					return
				}
			}
		}
	}
}

func (el *eventLogger) logEvent(event events.Event) {
	switch e := event.(type) {
	case *events.StateChangeEvent:
		ev := el.logger.Debug().Str("from", e.OldState).Str("to", e.NewState).Str("operation", e.Operation)
		if e.Error != nil {
			ev = ev.Err(e.Error)
		}
		ev.Msg("State change")

	case *events.TransferEvent:
		switch e.Type() {
		case events.EventTransferStarted:
			el.logger.Debug().Str("direction", e.Direction).Str("remote", e.RemotePath).Str("local", e.LocalPath).Int64("size", e.Size).Msg("Transfer started")
		case events.EventTransferCompleted:
			el.logger.Debug().Str("direction", e.Direction).Str("remote", e.RemotePath).Int64("bytes", e.Bytes).Msg("Transfer completed")
		case events.EventTransferFailed:
			el.logger.Debug().Str("direction", e.Direction).Str("remote", e.RemotePath).Int64("bytes", e.Bytes).Err(e.Error).Msg("Transfer failed")
		}

	case *events.SamplesChangedEvent:
		el.logger.Debugf("Sample list: %d samples, %d checked", e.Total, e.Checked)

	case *events.JobSubmittedEvent:
		el.logger.Debug().Strs("samples", e.Samples).Str("output", e.Output).Msg("Job submitted")

	case *events.LogEvent:
		el.logger.Debug().Str("operation", e.Operation).Str("level", e.Level.String()).Msg(e.Message)
	}
}
