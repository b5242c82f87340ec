package registry

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	rerr "github.com/openglass/resourced/errors"
)

// mutate routes a mutating operation to the owner context and publishes
// exactly one snapshot before returning, whichever execution path ran.
//
// Contract, in order:
//   - No dispatcher, or caller already on the owner context: run inline.
//   - Otherwise marshal to the owner context and block the calling
//     goroutine until the owner finishes. A panic on the owner side is
//     re-raised here.
//   - If the owner cannot be reached within the bounded wait, run locally.
//     That trades strict linearization for liveness; a claim flag keeps
//     the operation at-most-once even when the owner picks it up late.
//
// Every path executes through run, so mutations that bypass the owner
// context still serialize against it. op must not call back into a
// mutating registry method.
func (r *Registry) mutate(op func()) {
	d := r.cfg.dispatcher
	if d == nil || d.IsOwner() {
		r.run(op)
		return
	}

	var claimed atomic.Bool
	var panicked any
	finished := make(chan struct{})

	wrapped := func() {
		if !claimed.CompareAndSwap(false, true) {
			// A timed-out caller already ran the operation locally.
			return
		}
		defer close(finished)
		defer func() { panicked = recover() }()
		r.run(op)
	}

	if err := d.Submit(wrapped); err != nil {
		Logger().Warn("owner context unavailable, running mutation locally",
			zap.Error(err))
		r.run(op)
		return
	}

	select {
	case <-finished:
	case <-time.After(r.cfg.dispatchWait):
		if claimed.CompareAndSwap(false, true) {
			Logger().Warn("owner context did not respond, running mutation locally",
				zap.Error(rerr.DispatchTimeout(fmt.Sprintf("no response within %v", r.cfg.dispatchWait))))
			r.run(op)
			return
		}
		// The owner claimed the operation first; it will finish.
		<-finished
	}

	if panicked != nil {
		panic(panicked)
	}
}

// run executes one mutation and its snapshot publish under the state lock.
func (r *Registry) run(op func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op()
	r.publish()
}
