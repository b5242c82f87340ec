// Package resourced tracks externally managed resources and coordinates
// their cleanup.
//
// The registry holds weak references to GUI objects, GPU handles, file
// handles, and network connections, runs each resource's cleanup handler
// at most once, and releases everything in a deterministic order on bulk
// cleanup: GUI objects first, then network and database connections, then
// GPU objects, then filesystem handles, then everything else.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	resourced/           Root package with the process-wide default registry
//	├── registry/        Weak-reference registry, snapshots, cleanup ordering
//	├── dispatch/        Owner-context loop that linearizes mutations
//	├── track/           Category helpers for GUI, GPU, file, and network resources
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Register a resource and release it:
//
//	reg := registry.New()
//	defer reg.Shutdown()
//
//	f, _ := os.CreateTemp("", "scratch-*")
//	id, err := track.TempFile(reg, f, true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reg.Unregister(id, false) // closes f and deletes the file
//
// # Ownership Model
//
// The registry never keeps a resource alive: it holds weak references
// only, so a tracked object the rest of the program has dropped is
// collected normally and its record purged. Cleanup handlers are the
// caller's code; the registry guarantees only that each one runs at most
// once, on the owner context, with failures logged rather than raised.
//
// # Thread Safety
//
// All registry methods are safe for concurrent use. Mutations are
// linearized on a single owner context (see dispatch); reads are served
// lock-free from published snapshots and may be one generation stale.
package resourced
