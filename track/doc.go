// Package track builds correct, idempotent cleanup handlers for the common
// resource categories (GUI objects, GPU handles, files and OS handles,
// network and database connections) and registers them with a
// registry.Registry. Every helper ends in registry.Register; there is no
// cleanup code path outside the registry.
//
// # GUI objects
//
// GUI registers toolkit-affinity objects. Timers (Stopper) are stopped
// before anything else, thread-like workers (Worker) are asked to stop
// cooperatively and joined with a bounded wait, and objects exposing a
// deferred-delete hook (DeferredDeleter) are deleted through it. Each step
// is guarded independently: one failing step never blocks the rest.
//
// # GPU handles
//
// Raw GPU object names are plain integers and cannot be weakly referenced,
// so they are boxed in a GPUHandle whose only job is to satisfy the
// registry's weak-tracking requirement and make deletion idempotent:
//
//	tex, id, err := track.GPUTexture(reg, 42, gl.DeleteTexture,
//	    track.WithContextBracket(ctx.MakeCurrent, ctx.DoneCurrent))
//
// The caller keeps the returned box alive for as long as the GPU object
// exists; releasing it twice is a no-op.
//
// # Files, temp files, OS handles
//
// File-like objects are flushed before closing when they support it.
// TempFile optionally unlinks the backing path after closing; TempDir
// removes the directory tree, tolerating partial failures. OSHandle boxes
// a raw file descriptor and closes it platform-specifically.
//
// # Network and database connections
//
// Connections are shut down before closing (CloseWrite for TCP-likes,
// Rollback for database sessions). Pools iterate their members, release
// each one, then run the pool-level teardown.
package track
