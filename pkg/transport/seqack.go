package transport

import "sync"

// seqAckCounters holds the two 3-bit sequence counters described in §3.
// They are read by the send engine (to stamp a fresh reliable frame) and
// mutated by the inbound dispatcher (on ack/reliable-packet receipt) and by
// the state-machine worker (reset on entry to Active), from different
// goroutines, so every access goes through the mutex (§9: "shared counters
// across threads").
type seqAckCounters struct {
	mu     sync.Mutex
	txSeq  uint8
	rxAck  uint8
}

func (c *seqAckCounters) reset() {
	c.mu.Lock()
	c.txSeq, c.rxAck = 0, 0
	c.mu.Unlock()
}

func (c *seqAckCounters) snapshot() (tx, rx uint8) {
	c.mu.Lock()
	tx, rx = c.txSeq, c.rxAck
	c.mu.Unlock()
	return
}

// advanceTx increments txSeq mod 8. Called by the dispatcher on a valid ack.
func (c *seqAckCounters) advanceTx() {
	c.mu.Lock()
	c.txSeq = (c.txSeq + 1) & 0x07
	c.mu.Unlock()
}

// advanceRx increments rxAck mod 8. Called by the dispatcher on accepting
// an in-order reliable packet.
func (c *seqAckCounters) advanceRx() {
	c.mu.Lock()
	c.rxAck = (c.rxAck + 1) & 0x07
	c.mu.Unlock()
}
