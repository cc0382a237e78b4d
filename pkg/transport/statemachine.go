package transport

import (
	"time"

	"github.com/nordic-semi/h5link/pkg/h5"
)

// startWorker launches the state-machine worker goroutine. It is only ever
// called once, from Open.
func (t *H5Transport) startWorker() {
	go t.runStateMachine()
}

// runStateMachine drives the link from Start to Active (or Failed), one
// state handler at a time, exactly mirroring stateMachineWorker /
// setupStateMachine in the original source: each handler blocks until its
// own exit criteria are fulfilled and returns the next state.
func (t *H5Transport) runStateMachine() {
	defer close(t.workerDone)

	state := StateStart
	t.setState(state)

	for state != StateFailed {
		next := t.runState(state)
		t.exit.resetFor(next)
		if state == StateActive && next == StateStart {
			// Active only returns to Start on Close: carry the request over
			// so Start moves on to Failed and the worker exits.
			t.exit.setCloseRequested(StateStart)
		}
		state = next
		t.setState(state)
		t.log(LogDebug, "state transition -> %s", state)
	}
}

func (t *H5Transport) runState(s State) State {
	switch s {
	case StateStart:
		return t.runStart()
	case StateReset:
		return t.runReset()
	case StateUninitialized:
		return t.runUninitialized()
	case StateInitialized:
		return t.runInitialized()
	case StateActive:
		return t.runActive()
	default:
		return StateFailed
	}
}

// runStart waits for Open to either finish opening the lower transport,
// hit an I/O error, or be abandoned via Close (§4.4).
func (t *H5Transport) runStart() State {
	for !t.exit.fulfilled(StateStart) {
		<-t.wake
	}

	snap := t.exit.startSnapshot()
	switch {
	case snap.closeRequested:
		return StateFailed
	case snap.ioResourceError:
		return StateFailed
	default:
		return StateReset
	}
}

// runReset sends the Reset packet, reports it, and pauses for
// ResetWaitDuration before moving on, matching the fixed post-reset settle
// time in the original source.
func (t *H5Transport) runReset() State {
	frame, err := h5.Encode(nil, 0, 0, false, false, h5.KindReset)
	if err == nil {
		_ = t.sendRaw(frame)
	}
	t.exit.setResetSent()
	t.notifyStatus(StatusResetPerformed, "link reset")

	time.Sleep(ResetWaitDuration)
	return StateUninitialized
}

// runUninitialized resends Sync every NonActiveStateTimeout until a SyncRsp
// arrives or the retransmission budget is spent (§4.4, §6).
func (t *H5Transport) runUninitialized() State {
	for attempt := 0; attempt < PacketRetransmissions; attempt++ {
		_ = t.sendControlPacket(h5.SyncPacketPayload())
		t.exit.setSyncSent()

		if t.waitFulfilledOrTimeout(StateUninitialized, NonActiveStateTimeout) {
			return StateInitialized
		}
	}
	t.log(LogError, "uninitialized: no SyncRsp after %d attempts", PacketRetransmissions)
	return StateFailed
}

// runInitialized resends Config every NonActiveStateTimeout until both
// halves of the handshake complete: our ConfigRsp received, and the peer's
// Config received and answered (the dispatcher does the answering half).
func (t *H5Transport) runInitialized() State {
	for attempt := 0; attempt < PacketRetransmissions; attempt++ {
		_ = t.sendControlPacket(h5.ConfigPacketPayload(h5.DefaultConfigField))
		t.exit.setSyncConfigSent()

		if t.waitFulfilledOrTimeout(StateInitialized, NonActiveStateTimeout) {
			t.notifyStatus(StatusConnectionActive, "link active")
			return StateActive
		}
	}
	t.log(LogError, "initialized: config handshake incomplete after %d attempts", PacketRetransmissions)
	return StateFailed
}

// runActive zeroes txSeq/rxAck on entry (§3, h5_transport.cpp:505-506) and
// then waits for the link to drop out of Active: peer resync, a semantic
// desync (irrecoverableSyncError), an I/O error, or a Close. It never times
// out on its own (§4.4: Active has no retransmission budget; only Send
// does).
func (t *H5Transport) runActive() State {
	t.seqAck.reset()

	for !t.exit.fulfilled(StateActive) {
		<-t.wake
	}

	snap := t.exit.activeSnapshot()
	switch {
	case snap.syncReceived:
		return StateReset
	case snap.irrecoverableSyncError:
		return StateReset
	case snap.closeRequested:
		return StateStart
	case snap.ioResourceError:
		return StateFailed
	default:
		return StateFailed
	}
}

// waitFulfilledOrTimeout blocks until fulfilled(s) is true or timeout
// elapses, whichever comes first, returning which one happened.
func (t *H5Transport) waitFulfilledOrTimeout(s State, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if t.exit.fulfilled(s) {
			return true
		}
		select {
		case <-t.wake:
		case <-timer.C:
			return false
		}
	}
}
