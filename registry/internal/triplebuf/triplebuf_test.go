package triplebuf

import (
	"sync"
	"testing"
)

func TestEmpty(t *testing.T) {
	b := New[int]()

	v, ok := b.ConsumeLatest()
	if ok {
		t.Fatalf("expected nothing from empty buffer, got %d", v)
	}
}

func TestPublishConsume(t *testing.T) {
	b := New[string]()

	b.Publish("a")
	v, ok := b.ConsumeLatest()
	if !ok || v != "a" {
		t.Fatalf("expected (a, true), got (%q, %v)", v, ok)
	}

	// Same value is not delivered twice
	_, ok = b.ConsumeLatest()
	if ok {
		t.Fatal("expected nothing after value was consumed")
	}
}

func TestLatestWins(t *testing.T) {
	b := New[int]()

	b.Publish(1)
	b.Publish(2)
	b.Publish(3)

	v, ok := b.ConsumeLatest()
	if !ok || v != 3 {
		t.Fatalf("expected latest value 3, got (%d, %v)", v, ok)
	}
	_, ok = b.ConsumeLatest()
	if ok {
		t.Fatal("intermediate values must be dropped, not queued")
	}
}

func TestInterleaved(t *testing.T) {
	b := New[int]()

	for i := 0; i < 100; i++ {
		b.Publish(i)
		v, ok := b.ConsumeLatest()
		if !ok || v != i {
			t.Fatalf("round %d: expected (%d, true), got (%d, %v)", i, i, v, ok)
		}
	}
}

// TestConcurrent drives a producer and a consumer goroutine concurrently and
// checks the consumer only ever observes complete values in monotonic order.
func TestConcurrent(t *testing.T) {
	type pair struct{ a, b uint64 }

	b := New[pair]()
	const rounds = 100000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := uint64(1); i <= rounds; i++ {
			b.Publish(pair{a: i, b: i * 2})
		}
	}()

	var last uint64
	go func() {
		defer wg.Done()
		for last < rounds {
			v, ok := b.ConsumeLatest()
			if !ok {
				continue
			}
			// Torn value check: both halves must belong together
			if v.b != v.a*2 {
				t.Errorf("torn value observed: %+v", v)
				return
			}
			// Latest-value exchange never goes backwards
			if v.a < last {
				t.Errorf("stale value %d after %d", v.a, last)
				return
			}
			last = v.a
		}
	}()

	wg.Wait()
}
