package registry

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Snapshot is an immutable, point-in-time copy of all resource records,
// ordered by creation time. A snapshot reflects some prefix of the
// mutation history; it is never torn.
type Snapshot struct {
	Records []Record
	Gen     uint64
	TakenAt time.Time

	index map[string]int
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Records)
}

// Lookup returns the record for id, if present.
func (s *Snapshot) Lookup(id string) (Record, bool) {
	i, ok := s.index[id]
	if !ok {
		return Record{}, false
	}
	return s.Records[i], true
}

var emptySnapshot = &Snapshot{}

// takeSnapshot materializes an immutable copy of the live records.
// Callers hold r.mu.
func (r *Registry) takeSnapshot() *Snapshot {
	s := &Snapshot{
		Records: make([]Record, 0, len(r.entries)),
		Gen:     r.gen + 1,
		TakenAt: time.Now(),
		index:   make(map[string]int, len(r.entries)),
	}
	for _, e := range r.entries {
		rec := e.rec
		rec.Metadata = maps.Clone(rec.Metadata)
		s.Records = append(s.Records, rec)
	}
	slices.SortFunc(s.Records, func(a, b Record) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	for i := range s.Records {
		s.index[s.Records[i].ID] = i
	}
	return s
}

// publish pushes a fresh snapshot through the triple buffer. It runs once
// per mutation. Callers hold r.mu, which serializes publishes and keeps
// the buffer single-producer.
func (r *Registry) publish() {
	s := r.takeSnapshot()
	r.gen = s.Gen
	r.buf.Publish(s)
}

// Snapshot returns the most recently published snapshot. It never blocks
// and never observes a partially built snapshot, regardless of concurrent
// mutations; the result may be one generation stale.
func (r *Registry) Snapshot() *Snapshot {
	// The triple buffer is single-consumer. Whichever reader wins the
	// try-lock drains it into the shared cache; everyone else reads the
	// cache directly.
	if r.consuming.CompareAndSwap(false, true) {
		if s, ok := r.buf.ConsumeLatest(); ok {
			r.snapCache.Store(s)
		}
		r.consuming.Store(false)
	}

	if s := r.snapCache.Load(); s != nil {
		return s
	}
	return emptySnapshot
}
