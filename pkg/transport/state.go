package transport

import "sync"

// State is one of the five link states the worker drives through, plus the
// terminal Failed state.
type State int

// Link states, in the order the worker transitions through them.
const (
	StateStart State = iota
	StateReset
	StateUninitialized
	StateInitialized
	StateActive
	StateFailed
)

// String implements fmt.Stringer for log lines.
func (s State) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateReset:
		return "Reset"
	case StateUninitialized:
		return "Uninitialized"
	case StateInitialized:
		return "Initialized"
	case StateActive:
		return "Active"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Per-state exit-criteria records. One struct type per state rather than a
// shared interface: the worker always knows which state it is in, so there
// is no dynamic dispatch to do, only a switch over State.
type (
	startCriteria struct {
		isOpened        bool
		ioResourceError bool
		closeRequested  bool
	}

	resetCriteria struct {
		resetSent bool
	}

	uninitializedCriteria struct {
		syncSent        bool
		syncRspReceived bool
	}

	initializedCriteria struct {
		syncConfigSent        bool
		syncConfigRspReceived bool
		syncConfigReceived    bool
		syncConfigRspSent     bool
	}

	activeCriteria struct {
		syncReceived           bool
		irrecoverableSyncError bool
		closeRequested         bool
		ioResourceError        bool
	}
)

// exitCriteria holds the exit-criteria record for every state, indexed by
// the current state at evaluation time. All access goes through its mutex:
// it is written from the dispatcher (inbound-callback goroutine), the
// lower-transport status handler, Close (caller goroutine) and read by the
// state-machine worker.
type exitCriteria struct {
	mu sync.Mutex

	start   startCriteria
	reset   resetCriteria
	uninit  uninitializedCriteria
	initd   initializedCriteria
	active  activeCriteria
}

func (e *exitCriteria) resetFor(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch s {
	case StateStart:
		e.start = startCriteria{}
	case StateReset:
		e.reset = resetCriteria{}
	case StateUninitialized:
		e.uninit = uninitializedCriteria{}
	case StateInitialized:
		e.initd = initializedCriteria{}
	case StateActive:
		e.active = activeCriteria{}
	}
}

// fulfilled reports whether the exit-criteria record for s is satisfied.
func (e *exitCriteria) fulfilled(s State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch s {
	case StateStart:
		return e.start.isOpened || e.start.ioResourceError || e.start.closeRequested
	case StateReset:
		return e.reset.resetSent
	case StateUninitialized:
		return e.uninit.syncRspReceived
	case StateInitialized:
		return e.initd.syncConfigSent && e.initd.syncConfigRspReceived &&
			e.initd.syncConfigReceived && e.initd.syncConfigRspSent
	case StateActive:
		return e.active.syncReceived || e.active.irrecoverableSyncError ||
			e.active.closeRequested || e.active.ioResourceError
	default:
		return true
	}
}

// resetSnapshot returns a copy of the Reset exit-criteria record.
func (e *exitCriteria) resetSnapshot() resetCriteria {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reset
}

// startSnapshot returns a copy of the Start exit-criteria record for the
// worker to inspect once fulfilled(StateStart) is true.
func (e *exitCriteria) startSnapshot() startCriteria {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.start
}

// activeSnapshot returns a copy of the Active exit-criteria record for the
// worker to inspect once fulfilled(StateActive) is true.
func (e *exitCriteria) activeSnapshot() activeCriteria {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *exitCriteria) setIsOpened() {
	e.mu.Lock()
	e.start.isOpened = true
	e.mu.Unlock()
}

// setIOResourceError records an I/O failure against whichever of Start or
// Active is current; the other states never observe this field (§7).
func (e *exitCriteria) setIOResourceError(current State) {
	e.mu.Lock()
	switch current {
	case StateStart:
		e.start.ioResourceError = true
	case StateActive:
		e.active.ioResourceError = true
	}
	e.mu.Unlock()
}

func (e *exitCriteria) setCloseRequested(current State) {
	e.mu.Lock()
	switch current {
	case StateStart:
		e.start.closeRequested = true
	case StateActive:
		e.active.closeRequested = true
	}
	e.mu.Unlock()
}

func (e *exitCriteria) setResetSent() {
	e.mu.Lock()
	e.reset.resetSent = true
	e.mu.Unlock()
}

func (e *exitCriteria) setSyncSent() {
	e.mu.Lock()
	e.uninit.syncSent = true
	e.mu.Unlock()
}

func (e *exitCriteria) setSyncRspReceived() {
	e.mu.Lock()
	e.uninit.syncRspReceived = true
	e.mu.Unlock()
}

func (e *exitCriteria) setSyncConfigSent() {
	e.mu.Lock()
	e.initd.syncConfigSent = true
	e.mu.Unlock()
}

func (e *exitCriteria) setSyncConfigRspReceived() {
	e.mu.Lock()
	e.initd.syncConfigRspReceived = true
	e.mu.Unlock()
}

func (e *exitCriteria) setSyncConfigReceived() {
	e.mu.Lock()
	e.initd.syncConfigReceived = true
	e.mu.Unlock()
}

func (e *exitCriteria) setSyncConfigRspSent() {
	e.mu.Lock()
	e.initd.syncConfigRspSent = true
	e.mu.Unlock()
}

func (e *exitCriteria) setSyncReceived() {
	e.mu.Lock()
	e.active.syncReceived = true
	e.mu.Unlock()
}

func (e *exitCriteria) setIrrecoverableSyncError() {
	e.mu.Lock()
	e.active.irrecoverableSyncError = true
	e.mu.Unlock()
}
