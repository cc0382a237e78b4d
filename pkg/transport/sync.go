package transport

import (
	"sync"
	"time"
)

// wakeChan is a coalesced notification channel: any number of concurrent
// sends collapse into a single pending wakeup, exactly like the teacher's
// Loop.wakeUpCh. It is how every callback site in §5 (inbound packet, I/O
// error, close, timeout) notifies the state-machine worker to re-evaluate
// its current exit-criteria predicate — the channel equivalent of
// broadcasting syncWaitCondition.
type wakeChan chan struct{}

func newWakeChan() wakeChan {
	return make(wakeChan, 1)
}

func (w wakeChan) notify() {
	select {
	case w <- struct{}{}:
	default:
	}
}

// stateBroadcaster lets callers block on waitFor(target, timeout) while the
// worker goroutine publishes transitions with set. It plays the role of
// stateMutex/stateWaitCondition: every transition wakes every waiter, and a
// waiter re-checks its own predicate (spurious wakeups are harmless here
// because waitFor simply loops).
type stateBroadcaster struct {
	mu      sync.Mutex
	current State
	waiters chan struct{}
}

func newStateBroadcaster(initial State) *stateBroadcaster {
	return &stateBroadcaster{current: initial, waiters: make(chan struct{})}
}

func (b *stateBroadcaster) set(s State) {
	b.mu.Lock()
	b.current = s
	ch := b.waiters
	b.waiters = make(chan struct{})
	b.mu.Unlock()
	close(ch)
}

func (b *stateBroadcaster) get() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// waitFor blocks until current equals target or timeout elapses, returning
// whether target was reached.
func (b *stateBroadcaster) waitFor(target State, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		b.mu.Lock()
		cur, ch := b.current, b.waiters
		b.mu.Unlock()

		if cur == target {
			return true
		}

		select {
		case <-ch:
		case <-deadline.C:
			return false
		}
	}
}
