// Package triplebuf implements a lock-free single-producer single-consumer
// latest-value exchange over three slots.
//
// The producer always has a private slot to write into, the consumer always
// has a private slot to read from, and the third slot is the hand-off point.
// Publishing swaps the producer's slot into the middle; consuming swaps the
// middle out. Neither side ever blocks and neither side ever observes a
// partially written value.
package triplebuf

import "sync/atomic"

const (
	idxMask = 0b011
	dirty   = 0b100 // middle slot holds a value not yet consumed
)

// Buffer is a three-slot latest-value exchange. Exactly one goroutine may
// call Publish and exactly one goroutine may call ConsumeLatest; the two
// may run concurrently.
type Buffer[T any] struct {
	slots [3]T

	// middle carries the index of the most recently published slot plus
	// the dirty bit. The atomic swap/CAS on it is what makes slot
	// ownership transfer safe on a freely multi-threaded runtime.
	middle atomic.Uint32

	back  uint32 // producer-owned slot index
	front uint32 // consumer-owned slot index
}

// New creates an empty buffer.
func New[T any]() *Buffer[T] {
	b := &Buffer[T]{back: 0, front: 1}
	b.middle.Store(2) // clean
	return b
}

// Publish makes v the latest value. It never blocks and never overwrites a
// slot the consumer may be reading: the producer writes its private slot,
// then atomically exchanges it with the middle slot.
func (b *Buffer[T]) Publish(v T) {
	b.slots[b.back] = v
	old := b.middle.Swap(b.back | dirty)
	b.back = old & idxMask
}

// ConsumeLatest returns the most recently published value, or false if
// every published value has already been consumed (or nothing was ever
// published). It never blocks regardless of concurrent Publish activity.
func (b *Buffer[T]) ConsumeLatest() (T, bool) {
	for {
		cur := b.middle.Load()
		if cur&dirty == 0 {
			var zero T
			return zero, false
		}
		// Exchange our private slot for the published one. The CAS can
		// lose to a concurrent Publish swap; retry with the newer value.
		if b.middle.CompareAndSwap(cur, b.front) {
			b.front = cur & idxMask
			return b.slots[b.front], true
		}
	}
}
