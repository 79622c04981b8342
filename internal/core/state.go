package core

// State is the Engine's position in the per-operation state machine:
//
//	Idle → Connecting → Connected → {Listing | Submitting | Transferring} → Idle
//
// Any step may move to Failed. The next user-initiated operation starts over
// from Failed; the Engine never retries on its own.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateListing      State = "listing"
	StateSubmitting   State = "submitting"
	StateTransferring State = "transferring"
	StateFailed       State = "failed"
)

// Status is a snapshot of the Engine state.
type Status struct {
	State     State
	Operation string // operation that produced the state
	Err       error  // set when State is StateFailed
	Connected bool   // whether a session is cached
}
