// Package reassembler finds H5/SLIP frame boundaries in an arbitrary byte
// stream from a noisy UART. It is not thread-safe: callers must only drive
// it from a single goroutine (the lower transport's read-callback
// goroutine), matching the single-producer contract of the link it serves.
package reassembler

import "github.com/nordic-semi/h5link/pkg/h5"

// Reassembler accumulates bytes delivered in arbitrary-sized chunks and
// emits complete, sentinel-delimited frames.
type Reassembler struct {
	buf     []byte
	inFrame bool
}

// New creates an empty Reassembler.
func New() *Reassembler {
	return &Reassembler{}
}

// Feed appends chunk to the in-progress buffer and returns every complete
// frame (each beginning and ending with h5.Sentinel) found within it, in
// arrival order. Partial frames persist across calls.
func (r *Reassembler) Feed(chunk []byte) [][]byte {
	var frames [][]byte

	for _, b := range chunk {
		r.buf = append(r.buf, b)

		if b != h5.Sentinel {
			continue
		}

		if !r.inFrame {
			// Start of frame. Anything accumulated before it without a
			// matching opener is UART garbage; drop it.
			r.buf = r.buf[len(r.buf)-1:]
			r.inFrame = true
			continue
		}

		if len(r.buf) == 2 {
			// Two consecutive sentinels: treat the second as the opener
			// of the next frame rather than the closer of an empty one.
			r.buf = r.buf[1:]
			continue
		}

		frames = append(frames, r.buf)
		r.buf = nil
		r.inFrame = false
	}

	return frames
}
