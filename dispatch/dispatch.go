package dispatch

import "errors"

// ErrClosed is returned when submitting to a dispatcher that has shut down.
var ErrClosed = errors.New("dispatch: loop closed")

// ErrBusy is returned when a dispatcher's queue is full and the submission
// cannot be accepted without blocking.
var ErrBusy = errors.New("dispatch: queue full")

// Dispatcher marshals functions onto a single owner execution context.
// Implementations must run submitted functions one at a time; submission
// order defines the execution order.
type Dispatcher interface {
	// IsOwner reports whether the calling goroutine is the owner context.
	IsOwner() bool

	// Submit enqueues fn for execution on the owner context without
	// waiting for it to run. Returns ErrClosed if the dispatcher can no
	// longer execute anything, or ErrBusy if it cannot accept the
	// submission without blocking.
	Submit(fn func()) error
}
