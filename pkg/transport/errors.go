package transport

import "errors"

// Errors returned by H5Transport's public operations. A nil error is the
// Success case everywhere.
var (
	// ErrInvalidState is returned by Send when the link is not Active, and
	// by Open when it is called on a transport that is not in StateStart.
	ErrInvalidState = errors.New("transport: invalid state")

	// ErrTimeout is returned by Open when Active is not reached within
	// OpenWaitTimeout, and by Send when the retry budget is exhausted
	// without a matching acknowledgement.
	ErrTimeout = errors.New("transport: timeout")

	// ErrInternal is returned by Open when the lower transport fails to
	// open.
	ErrInternal = errors.New("transport: internal error")

	// ErrCanceled is returned by Send when the link drops out of Active
	// (peer-initiated resync, I/O failure, or Close) while the send is
	// waiting for an acknowledgement. See DESIGN.md for why this is
	// distinguished from ErrTimeout.
	ErrCanceled = errors.New("transport: canceled")
)
