package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/openglass/resourced/dispatch"
)

func startLoop(t *testing.T) *dispatch.Loop {
	t.Helper()
	loop := dispatch.NewLoop()
	go loop.Run()

	ready := make(chan struct{})
	if err := loop.Submit(func() { close(ready) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not start")
	}
	t.Cleanup(loop.Close)
	return loop
}

func TestMutationsRunOnOwnerContext(t *testing.T) {
	loop := startLoop(t)
	r := New(WithDispatcher(loop))

	var sawOwner bool
	res := &fakeResource{}
	id, err := r.Register(res, TypeCustom, WithCleanup(func(any) error {
		sawOwner = loop.IsOwner()
		return nil
	}))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := r.Unregister(id, false); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if !sawOwner {
		t.Fatal("cleanup handler did not run on the owner context")
	}
}

func TestCrossGoroutineMutationsLinearize(t *testing.T) {
	loop := startLoop(t)
	r := New(WithDispatcher(loop))

	const n = 100
	keep := make([]*fakeResource, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keep[i] = &fakeResource{}
			if _, err := r.Register(keep[i], TypeCustom); err != nil {
				t.Errorf("Register: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if r.Len() != n {
		t.Fatalf("expected %d records, got %d", n, r.Len())
	}
	r.Shutdown()
	for i, res := range keep {
		if res.released != 1 {
			t.Fatalf("resource %d released %d times, want 1", i, res.released)
		}
	}
}

func TestMutationFromOwnerContextRunsInline(t *testing.T) {
	loop := startLoop(t)
	r := New(WithDispatcher(loop))

	// Registering from inside the owner context must not deadlock
	errCh := make(chan error, 1)
	if err := loop.Submit(func() {
		res := &fakeResource{}
		_, err := r.Register(res, TypeCustom)
		errCh <- err
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Register on owner context: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("owner-context mutation deadlocked")
	}
}

func TestClosedLoopFallsBackLocally(t *testing.T) {
	loop := dispatch.NewLoop()
	go loop.Run()
	loop.Close()

	r := New(WithDispatcher(loop), WithDispatchWait(50*time.Millisecond))

	// The owner context is gone; the mutation must still happen, locally.
	res := &fakeResource{}
	id, err := r.Register(res, TypeCustom)
	if err != nil {
		t.Fatalf("Register with closed loop: %v", err)
	}
	if !r.Exists(id) {
		t.Fatal("fallback mutation was lost")
	}
}

func TestStalledOwnerTimesOutAndFallsBack(t *testing.T) {
	loop := startLoop(t)

	// Wedge the owner context
	release := make(chan struct{})
	if err := loop.Submit(func() { <-release }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	defer close(release)

	r := New(WithDispatcher(loop), WithDispatchWait(50*time.Millisecond))

	done := make(chan string, 1)
	go func() {
		res := &fakeResource{}
		id, err := r.Register(res, TypeCustom)
		if err != nil {
			t.Errorf("Register: %v", err)
		}
		done <- id
	}()

	select {
	case id := <-done:
		if !r.Exists(id) {
			t.Fatal("timed-out mutation was lost")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("caller blocked past the bounded wait")
	}
}
