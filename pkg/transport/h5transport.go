// Package transport implements the H5 link-layer core: the link state
// machine, the reliable transmission engine, and the inbound dispatcher
// that ties them to a byte reassembler and a lower transport.
package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/nordic-semi/h5link/pkg/framework"
	"github.com/nordic-semi/h5link/pkg/metrics"
	"github.com/nordic-semi/h5link/pkg/reassembler"
)

// Constants from §6.
const (
	// PacketRetransmissions is the number of transmit attempts (the first
	// send plus resends) a reliable send or a non-active-state handshake
	// packet gets before giving up. The C++ source's loop counts attempts,
	// not retransmissions in the literal sense; this implementation keeps
	// that convention (see SPEC_FULL.md REDESIGN FLAGS).
	PacketRetransmissions = 4

	// NonActiveStateTimeout is the interval between handshake resends in
	// Uninitialized and Initialized.
	NonActiveStateTimeout = 250 * time.Millisecond

	// OpenWaitTimeout bounds how long Open blocks waiting for Active.
	OpenWaitTimeout = 2000 * time.Millisecond

	// ResetWaitDuration is how long Reset pauses after sending the Reset
	// control packet before moving on to Uninitialized.
	ResetWaitDuration = 300 * time.Millisecond
)

// H5Transport is the link-layer core described by this module: it brings a
// lower transport from power-on to Active, frames and reassembles bytes,
// and provides a reliable, blocking Send.
type H5Transport struct {
	lower                 LowerTransport
	retransmissionTimeout time.Duration

	stateMu      sync.Mutex
	currentState State
	stateBcast   *stateBroadcaster

	exit exitCriteria
	wake wakeChan

	seqAck seqAckCounters

	ackMu   sync.Mutex // serializes Send calls: the negotiated window size is always 1
	ackWake wakeChan

	reassemble *reassembler.Reassembler

	statusCb StatusFunc
	dataCb   DataFunc
	logCb    LogFunc

	counters metrics.Counters

	workerDone   chan struct{}
	onWorkerGoroutine bool // true only while the core is running a consumer StatusFunc or DataFunc
	workerFlagMu      sync.Mutex

	closeOnce sync.Once
}

// New creates an H5Transport wrapping lower. retransmissionTimeout is the
// per-attempt wait for an acknowledgement in Send (§6, construction
// parameter).
func New(lower LowerTransport, retransmissionTimeout time.Duration) *H5Transport {
	t := &H5Transport{
		lower:                 lower,
		retransmissionTimeout: retransmissionTimeout,
		currentState:          StateStart,
		stateBcast:            newStateBroadcaster(StateStart),
		wake:                  newWakeChan(),
		ackWake:               newWakeChan(),
		reassemble:            reassembler.New(),
		workerDone:            make(chan struct{}),
	}
	return t
}

func (t *H5Transport) log(level LogLevel, format string, args ...interface{}) {
	if t.logCb == nil {
		return
	}
	t.logCb(level, fmt.Sprintf(format, args...))
}

// state returns the current link state.
func (t *H5Transport) state() State {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.currentState
}

func (t *H5Transport) setState(s State) {
	t.stateMu.Lock()
	t.currentState = s
	t.stateMu.Unlock()
	t.stateBcast.set(s)
}

// Open blocks up to OpenWaitTimeout waiting for the link to reach Active.
func (t *H5Transport) Open(statusCb StatusFunc, dataCb DataFunc, logCb LogFunc) error {
	if t.state() != StateStart {
		return ErrInvalidState
	}

	t.statusCb, t.dataCb, t.logCb = statusCb, dataCb, logCb
	t.startWorker()

	err := t.lower.Open(t.lowerStatusHandler, t.lowerDataHandler)
	if err != nil {
		t.exit.setIOResourceError(StateStart)
		t.wake.notify()
		return ErrInternal
	}

	t.exit.setIsOpened()
	t.wake.notify()

	if t.stateBcast.waitFor(StateActive, OpenWaitTimeout) {
		return nil
	}
	return ErrTimeout
}

// Close tears down the link. If invoked reentrantly from the worker
// goroutine (e.g. from within a StatusFunc callback the worker itself
// triggered), it detaches instead of self-joining (§5, §9).
func (t *H5Transport) Close() error {
	var closeErr error
	t.closeOnce.Do(func() {
		t.exit.setCloseRequested(t.state())
		t.wake.notify()
		t.ackWake.notify()

		if !t.isWorkerGoroutine() {
			<-t.workerDone
		}

		var errs fx.AggregatedError
		if err := t.lower.Close(); err != nil {
			errs.Add(err)
		}
		closeErr = errs.Aggregate()
	})
	return closeErr
}

func (t *H5Transport) isWorkerGoroutine() bool {
	t.workerFlagMu.Lock()
	defer t.workerFlagMu.Unlock()
	return t.onWorkerGoroutine
}

// runOnWorkerGoroutine marks fn as a consumer callback run by the core (from
// the worker or from the lower transport's goroutine) for the duration of
// the call, so a reentrant Close from inside fn can detect it must detach
// rather than join.
func (t *H5Transport) runOnWorkerGoroutine(fn func()) {
	t.workerFlagMu.Lock()
	t.onWorkerGoroutine = true
	t.workerFlagMu.Unlock()

	fn()

	t.workerFlagMu.Lock()
	t.onWorkerGoroutine = false
	t.workerFlagMu.Unlock()
}

// lowerStatusHandler is registered with the lower transport (§6: "the core
// registers its own internal statusHandler ... and forwards to the
// consumer after its own bookkeeping").
func (t *H5Transport) lowerStatusHandler(code StatusCode, msg string) {
	if code == StatusIOResourcesUnavailable {
		t.exit.setIOResourceError(t.state())
		t.wake.notify()
	}
	if t.statusCb != nil {
		t.runOnWorkerGoroutine(func() { t.statusCb(code, msg) })
	}
}

// lowerDataHandler feeds inbound bytes to the reassembler and dispatches
// every complete frame it yields (§4.2, §4.3).
func (t *H5Transport) lowerDataHandler(chunk []byte) {
	for _, frame := range t.reassemble.Feed(chunk) {
		t.dispatchFrame(frame)
	}
}

func (t *H5Transport) notifyStatus(code StatusCode, msg string) {
	glog.V(1).Infof("status: %s: %s", code, msg)
	if t.statusCb != nil {
		t.runOnWorkerGoroutine(func() { t.statusCb(code, msg) })
	}
}

// Stats is a point-in-time snapshot of the packet/error counters.
type Stats struct {
	Incoming uint64
	Outgoing uint64
	Errors   uint64
}

// String implements fmt.Stringer for display in a status command.
func (s Stats) String() string {
	return fmt.Sprintf("in=%d out=%d errors=%d", s.Incoming, s.Outgoing, s.Errors)
}

// Stats returns the current packet/error counters.
func (t *H5Transport) Stats() Stats {
	return Stats{
		Incoming: t.counters.Incoming(),
		Outgoing: t.counters.Outgoing(),
		Errors:   t.counters.Errors(),
	}
}
