package registry

import (
	"fmt"
	"io"
	"reflect"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	rerr "github.com/openglass/resourced/errors"
	"github.com/openglass/resourced/registry/internal/triplebuf"
)

// handlerSource records how a cleanup handler was selected.
type handlerSource string

const (
	sourceExplicit handlerSource = "explicit"
	sourceReleaser handlerSource = "releaser"
	sourceCloser   handlerSource = "closer"
	sourceNone     handlerSource = "none"
)

// entry is the registry's authoritative state for one resource.
// Entries are touched only while holding the registry's mutation lock.
type entry struct {
	rec      Record
	handler  func(resource any) error
	source   handlerSource
	finalize runtime.Cleanup
}

// Registry tracks externally managed resources and guarantees each one's
// cleanup handler runs at most once, in deterministic bulk-cleanup order.
//
// All mutations are linearized on the owner context (see dispatch). Reads
// are lock-free and served from the last published snapshot.
type Registry struct {
	cfg config

	// mu serializes mutations and their snapshot publishes. With a live
	// owner context it is effectively uncontended; without one (no
	// dispatcher configured, or a dispatch fallback) it is what
	// linearizes concurrent callers.
	mu      sync.Mutex
	entries map[string]*entry
	gen     uint64
	closed  bool

	// closedFlag mirrors closed for the lock-free read path.
	closedFlag atomic.Bool

	// Snapshot exchange. buf is single-producer (mutations, serialized
	// under mu) and single-consumer (whichever reader wins the consuming
	// flag).
	buf       *triplebuf.Buffer[*Snapshot]
	consuming atomic.Bool
	snapCache atomic.Pointer[Snapshot]

	purge   *rate.Limiter
	history *lru.Cache[string, ReleaseInfo]
}

// New creates an empty registry. Without WithDispatcher, mutations run
// inline on the calling goroutine, which is the expected configuration for
// tests and non-GUI embedders.
func New(opts ...Option) *Registry {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	r := &Registry{
		cfg:     cfg,
		entries: make(map[string]*entry),
		buf:     triplebuf.New[*Snapshot](),
		purge:   rate.NewLimiter(cfg.purgeLimit, cfg.purgeBurst),
		history: newHistory(cfg.historySize),
	}
	r.mu.Lock()
	r.publish() // generation 1: the empty snapshot
	r.mu.Unlock()
	return r
}

// Register tracks resource under a fresh id and installs its cleanup
// handler. The registry holds only a weak reference: resources that are
// not pointer-shaped fail with not_weak_referenceable rather than being
// silently pinned, since a strong reference would defeat leak detection.
func (r *Registry) Register(resource any, typ Type, opts ...RegisterOption) (string, error) {
	rv := reflect.ValueOf(resource)
	if !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return "", rerr.InvalidInput(rerr.OpRegister, "nil resource")
	}

	ref, ok := makeWeakRef(resource)
	if !ok {
		return "", rerr.NotWeakReferenceable(fmt.Sprintf("%T", resource))
	}

	var rc registerConfig
	for _, o := range opts {
		o(&rc)
	}
	handler, source := selectHandler(resource, &rc)

	id := typ.String() + "_" + uuid.NewString()
	var err error
	r.mutate(func() {
		if r.closed {
			err = rerr.Shutdown(rerr.OpRegister)
			return
		}

		if source == sourceCloser {
			// Best effort: io.Closer carries no idempotency contract.
			Logger().Warn("no explicit cleanup handler, falling back to io.Closer",
				zap.String("id", id), zap.String("type", typ.String()))
		}

		now := time.Now()
		e := &entry{
			rec: Record{
				ID:           id,
				Type:         typ,
				Group:        GroupFor(typ, rc.metadata),
				Description:  rc.description,
				Metadata:     rc.metadata,
				CreatedAt:    now,
				LastAccessed: now,
				Refs:         1,
				ref:          ref,
			},
			handler: handler,
			source:  source,
		}
		e.finalize = addFinalizer(resource, func() { r.onCollected() })
		r.entries[id] = e
	})
	if err != nil {
		return "", err
	}

	Logger().Debug("registered resource",
		zap.String("id", id),
		zap.String("group", GroupFor(typ, rc.metadata).String()),
		zap.String("handler", string(source)))
	return id, nil
}

// selectHandler applies the registration-time precedence: an explicitly
// supplied handler, then the resource's own Releaser, then io.Closer as a
// logged best effort.
func selectHandler(resource any, rc *registerConfig) (func(any) error, handlerSource) {
	if rc.explicit {
		return rc.handler, sourceExplicit
	}
	if _, ok := resource.(Releaser); ok {
		return func(res any) error {
			res.(Releaser).Release()
			return nil
		}, sourceReleaser
	}
	if _, ok := resource.(io.Closer); ok {
		return func(res any) error {
			return res.(io.Closer).Close()
		}, sourceCloser
	}
	return nil, sourceNone
}

// Unregister removes the record for id and, if the tracked object is still
// alive, runs its cleanup handler exactly once. Handler failures are
// logged and never propagate. With force false, an advisory reference
// count above one fails with still_referenced instead of releasing a
// resource other code still expects to use. An unknown id is a no-op
// returning false.
func (r *Registry) Unregister(id string, force bool) (bool, error) {
	var removed bool
	var err error
	r.mutate(func() {
		e, ok := r.entries[id]
		if !ok {
			return
		}
		if e.rec.Refs > 1 && !force {
			err = rerr.StillReferenced(id, e.rec.Refs)
			return
		}
		r.release(e)
		removed = true
	})
	return removed, err
}

// release removes one entry and runs its handler. Callers hold r.mu.
// Failures are isolated: they are logged, recorded in the history, and
// never escape.
func (r *Registry) release(e *entry) {
	e.finalize.Stop()
	delete(r.entries, e.rec.ID)

	res, alive := e.rec.ref.Value()
	switch {
	case alive && e.handler != nil:
		start := time.Now()
		if herr := runHandler(e.handler, res); herr != nil {
			Logger().Error("cleanup handler failed",
				zap.Error(rerr.CleanupFailure(e.rec.ID, herr)))
			r.recordRelease(e, OutcomeFailed, time.Since(start), herr)
		} else {
			r.recordRelease(e, OutcomeReleased, time.Since(start), nil)
		}
	case alive:
		r.recordRelease(e, OutcomeSkipped, 0, nil)
	default:
		// The object is gone; there is nothing left to pass to a handler.
		r.recordRelease(e, OutcomeCollected, 0, nil)
	}
}

// runHandler invokes a cleanup handler, converting a panic into an error.
func runHandler(h func(any) error, res any) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("panic in cleanup handler: %v", p)
			}
		}
	}()
	return h(res)
}

// Get returns the tracked resource for id while it is alive. The read is
// served from the last published snapshot and never blocks on mutations.
// A collected resource returns false immediately; the stale record is
// purged asynchronously, never on the caller's time.
func (r *Registry) Get(id string) (any, bool) {
	rec, ok := r.Snapshot().Lookup(id)
	if !ok {
		return nil, false
	}
	res, alive := rec.ref.Value()
	if !alive {
		r.schedulePurge()
		return nil, false
	}
	return res, true
}

// GetTyped returns the resource for id if it is alive and of type T.
func GetTyped[T any](r *Registry, id string) (T, bool) {
	var zero T
	res, ok := r.Get(id)
	if !ok {
		return zero, false
	}
	t, ok := res.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Exists reports whether id is registered and its resource still alive.
func (r *Registry) Exists(id string) bool {
	rec, ok := r.Snapshot().Lookup(id)
	if !ok {
		return false
	}
	if !rec.Alive() {
		r.schedulePurge()
		return false
	}
	return true
}

// List returns the records from the last published snapshot, optionally
// filtered by type. The result is a copy; mutating it affects nothing.
func (r *Registry) List(types ...Type) []Record {
	s := r.Snapshot()
	if len(types) == 0 {
		return slices.Clone(s.Records)
	}
	out := make([]Record, 0, len(s.Records))
	for _, rec := range s.Records {
		if slices.Contains(types, rec.Type) {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of records in the last published snapshot.
func (r *Registry) Len() int {
	return r.Snapshot().Len()
}

// Retain increments the advisory reference count for id and returns the
// new count. The count never decides liveness; it only arms the
// still_referenced guard on Unregister.
func (r *Registry) Retain(id string) (int, error) {
	var n int
	var err error
	r.mutate(func() {
		e, ok := r.entries[id]
		if !ok {
			err = rerr.NotFound(rerr.OpRetain, id)
			return
		}
		e.rec.Refs++
		e.rec.LastAccessed = time.Now()
		n = e.rec.Refs
	})
	return n, err
}

// ReleaseRef decrements the advisory reference count for id, never below
// the registration's own count of one, and returns the new count.
func (r *Registry) ReleaseRef(id string) (int, error) {
	var n int
	var err error
	r.mutate(func() {
		e, ok := r.entries[id]
		if !ok {
			err = rerr.NotFound(rerr.OpRetain, id)
			return
		}
		if e.rec.Refs > 1 {
			e.rec.Refs--
		}
		e.rec.LastAccessed = time.Now()
		n = e.rec.Refs
	})
	return n, err
}

// CleanupAll releases every live record in deterministic order: GUI
// objects first, then network/database connections, then GPU handles, then
// filesystem/OS handles, then everything else; within a group by cleanup
// priority, then creation time. Per-resource failures are isolated and the
// call itself never fails.
func (r *Registry) CleanupAll() {
	r.mutate(func() {
		r.releaseAll()
	})
}

// releaseAll is the locked body of CleanupAll and Shutdown.
func (r *Registry) releaseAll() {
	live := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		live = append(live, e)
	}
	orderForCleanup(live)

	Logger().Info("bulk cleanup", zap.Int("resources", len(live)))
	for _, e := range live {
		r.release(e)
	}
}

// Shutdown releases everything and closes the registry; subsequent
// Register calls fail fast. Shutdown is idempotent.
func (r *Registry) Shutdown() {
	r.mutate(func() {
		if r.closed {
			return
		}
		r.releaseAll()
		r.closed = true
		r.closedFlag.Store(true)
	})
}

// Closed reports whether Shutdown has completed.
func (r *Registry) Closed() bool {
	return r.closedFlag.Load()
}

// PurgeCollected removes records whose tracked objects have been garbage
// collected without an explicit Unregister. It returns the number of
// records removed. Get and Exists schedule this automatically.
func (r *Registry) PurgeCollected() int {
	var n int
	r.mutate(func() {
		for _, e := range r.entries {
			if !e.rec.Alive() {
				r.release(e)
				n++
			}
		}
	})
	if n > 0 {
		Logger().Debug("purged collected resources", zap.Int("count", n))
	}
	return n
}

// schedulePurge starts an asynchronous purge sweep, rate limited so a
// storm of dead references collapses into a single pass.
func (r *Registry) schedulePurge() {
	if r.purge.Allow() {
		go r.PurgeCollected()
	}
}

// onCollected is the finalizer hook installed on every tracked object.
// It runs on the garbage collector's cleanup goroutine, so it only
// schedules work. It is idempotent against an explicit Unregister racing
// the collection.
func (r *Registry) onCollected() {
	r.schedulePurge()
}
