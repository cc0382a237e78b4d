// Package metrics exposes the packet/error counters the core maintains for
// its own log lines and for a consumer's status command.
package metrics

import "sync/atomic"

// Counters are plain monotonic counts; sync/atomic is all a handful of
// running totals needs, and nothing in the example corpus wires a fuller
// metrics library for a link this small (see DESIGN.md).
type Counters struct {
	incoming uint64
	outgoing uint64
	errors   uint64
}

// IncomingIncr increments the count of inbound reliable payloads accepted for
// delivery.
func (c *Counters) IncomingIncr() { atomic.AddUint64(&c.incoming, 1) }

// OutgoingIncr increments the count of frames handed to the lower transport.
func (c *Counters) OutgoingIncr() { atomic.AddUint64(&c.outgoing, 1) }

// ErrorIncr increments the count of dropped, undecodable frames.
func (c *Counters) ErrorIncr() { atomic.AddUint64(&c.errors, 1) }

// Incoming returns the current count of accepted inbound reliable payloads.
func (c *Counters) Incoming() uint64 { return atomic.LoadUint64(&c.incoming) }

// Outgoing returns the current outbound frame count.
func (c *Counters) Outgoing() uint64 { return atomic.LoadUint64(&c.outgoing) }

// Errors returns the current decode-error count.
func (c *Counters) Errors() uint64 { return atomic.LoadUint64(&c.errors) }
