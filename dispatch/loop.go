package dispatch

import (
	"sync"
	"sync/atomic"
)

// Loop is a channel-based Dispatcher backed by one long-running goroutine.
// The goroutine that calls Run becomes the owner context until Close.
type Loop struct {
	jobs     chan *job
	done     chan struct{}
	mu       sync.RWMutex
	closed   bool
	running  atomic.Bool
	ownerGID atomic.Uint64
}

type job struct {
	fn       func()
	finished chan struct{}
	panicked any
}

// NewLoop creates a loop that is not yet running. Submissions made before
// Run are queued up to the internal buffer; past that, Submit fails with
// ErrBusy instead of blocking.
func NewLoop() *Loop {
	return &Loop{
		jobs: make(chan *job, 128),
		done: make(chan struct{}),
	}
}

// Run pumps submitted functions on the calling goroutine until Close.
// It must be called exactly once.
func (l *Loop) Run() {
	l.ownerGID.Store(gid())
	l.running.Store(true)
	defer l.running.Store(false)

	for {
		select {
		case j := <-l.jobs:
			j.run()
		case <-l.done:
			// Every send happens-before Close returns, so draining the
			// buffer here runs every job that was ever accepted.
			for {
				select {
				case j := <-l.jobs:
					j.run()
				default:
					return
				}
			}
		}
	}
}

func (j *job) run() {
	defer func() {
		j.panicked = recover()
		close(j.finished)
	}()
	j.fn()
}

// IsOwner reports whether the calling goroutine is the one running the loop.
func (l *Loop) IsOwner() bool {
	return l.running.Load() && l.ownerGID.Load() == gid()
}

// Submit enqueues fn for execution on the loop goroutine without waiting.
// It never blocks: a full queue fails with ErrBusy.
func (l *Loop) Submit(fn func()) error {
	_, err := l.submit(fn)
	return err
}

func (l *Loop) submit(fn func()) (*job, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrClosed
	}
	j := &job{fn: fn, finished: make(chan struct{})}

	// Never block while holding the lock: a full queue would wedge Close
	// behind this read lock. Failing fast keeps the caller live.
	select {
	case l.jobs <- j:
		return j, nil
	default:
		return nil, ErrBusy
	}
}

// Do runs fn on the loop goroutine and blocks until it returns. Called from
// the loop goroutine itself, fn runs inline. A panic inside fn is re-raised
// on the calling goroutine.
func (l *Loop) Do(fn func()) error {
	if l.IsOwner() {
		fn()
		return nil
	}

	j, err := l.submit(fn)
	if err != nil {
		return err
	}

	<-j.finished
	if j.panicked != nil {
		panic(j.panicked)
	}
	return nil
}

// Close stops the loop. Jobs already accepted are still drained by Run;
// later submissions fail with ErrClosed. Close is idempotent.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.done)
}
