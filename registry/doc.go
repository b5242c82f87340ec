// Package registry tracks externally managed resources (GUI objects, GPU
// handles, file and OS handles, network and database connections) and
// guarantees each one's cleanup handler runs at most once, in a
// deterministic order.
//
// # Records and weak tracking
//
// Every registration creates a Record keyed by a fresh `<type>_<uuid>` id.
// The registry is never a strong holder: it keeps only a weak reference to
// the resource plus a finalizer that purges the record if the object is
// collected without an explicit Unregister. Values that cannot be weakly
// referenced are rejected outright; a silent strong-reference fallback
// would defeat leak detection.
//
// # Mutation model
//
// Every mutating call routes through one designated owner context (see
// package dispatch) and runs there, converting multi-writer races into a
// strict total order. In tests and non-GUI programs no dispatcher is
// configured and mutations run inline on the calling goroutine, serialized
// by a mutex instead; the same mutex covers the rare paths where a
// mutation bypasses an unreachable owner context.
//
// # Read model
//
// After every mutation the registry publishes an immutable Snapshot through
// a lock-free triple buffer. Get, Exists, List and Snapshot are served from
// the last published snapshot: they never block, never tear, and may be at
// most one generation stale.
//
// # Cleanup ordering
//
// CleanupAll and Shutdown release records grouped as gui, network_db, gpu,
// filesystem, other, in that fixed order; within a group by per-record
// cleanup priority, then by creation time. One handler's failure never stops the
// rest of the pass.
//
// # Handler selection
//
// At registration the cleanup handler is chosen by precedence: an explicit
// WithCleanup handler, then the resource's own Releaser implementation,
// then io.Closer as a logged best effort. Category helpers in package
// track build correct handlers so callers rarely write one by hand.
package registry
