package dispatch

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// startLoop runs a loop on a background goroutine and waits until it is
// pumping before returning.
func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := NewLoop()
	go l.Run()

	ready := make(chan struct{})
	if err := l.Submit(func() { close(ready) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not start")
	}
	t.Cleanup(l.Close)
	return l
}

func TestDoRunsOnOwnerGoroutine(t *testing.T) {
	l := startLoop(t)

	var onOwner bool
	if err := l.Do(func() { onOwner = l.IsOwner() }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !onOwner {
		t.Fatal("function did not run on the owner goroutine")
	}
}

func TestIsOwnerFromOutside(t *testing.T) {
	l := startLoop(t)

	if l.IsOwner() {
		t.Fatal("test goroutine must not be the owner")
	}
}

func TestReentrantDo(t *testing.T) {
	l := startLoop(t)

	// Do from inside the loop must run inline instead of deadlocking
	var inner bool
	err := l.Do(func() {
		if err := l.Do(func() { inner = true }); err != nil {
			t.Errorf("nested Do: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !inner {
		t.Fatal("nested function never ran")
	}
}

func TestSubmissionOrder(t *testing.T) {
	l := startLoop(t)

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		i := i
		if err := l.Submit(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			wg.Done()
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()

	for i, v := range got {
		if v != i {
			t.Fatalf("execution order %v does not match submission order", got)
		}
	}
}

func TestDoPanicPropagates(t *testing.T) {
	l := startLoop(t)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic to reach the caller")
		}
	}()
	_ = l.Do(func() { panic("boom") })
}

func TestCloseRejectsNewWork(t *testing.T) {
	l := NewLoop()
	go l.Run()
	l.Close()

	// Close may race with Run startup; the contract is only that Submit
	// eventually fails once Close returns.
	if err := l.Submit(func() {}); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestCloseDrainsAcceptedWork(t *testing.T) {
	l := NewLoop()

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		if err := l.Submit(func() { ran.Add(1) }); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	l.Close()

	finished := make(chan struct{})
	go func() {
		l.Run()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not drain and exit")
	}
	if ran.Load() != 5 {
		t.Fatalf("expected 5 drained jobs, ran %d", ran.Load())
	}
}

func TestConcurrentDo(t *testing.T) {
	l := startLoop(t)

	var counter int // owner-goroutine confined, no lock needed
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Do(func() { counter++ }); err != nil {
				t.Errorf("Do: %v", err)
			}
		}()
	}
	wg.Wait()

	var got int
	if err := l.Do(func() { got = counter }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != 50 {
		t.Fatalf("expected 50 linearized increments, got %d", got)
	}
}

func TestSubmitFailsFastWhenQueueFull(t *testing.T) {
	l := NewLoop()

	// Fill the buffer before Run starts pumping
	var ran atomic.Int32
	queued := cap(l.jobs)
	for i := 0; i < queued; i++ {
		if err := l.Submit(func() { ran.Add(1) }); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	// The overflow submission fails instead of blocking
	if err := l.Submit(func() { ran.Add(1) }); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	// Close must not wedge behind the full queue
	closed := make(chan struct{})
	go func() {
		l.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on a full queue")
	}

	// Run still drains every accepted job
	l.Run()
	if got := ran.Load(); int(got) != queued {
		t.Fatalf("expected %d accepted jobs to run, got %d", queued, got)
	}
}
