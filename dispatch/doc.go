// Package dispatch provides owner-context execution for registry mutations.
//
// GUI toolkits require their objects to be touched from one designated
// thread. Dispatcher abstracts that thread: callers submit functions, the
// owner goroutine runs them one at a time, and submission order becomes the
// total order of execution.
//
// # Loop
//
// Loop is the reference implementation for applications that own a main
// goroutine:
//
//	loop := dispatch.NewLoop()
//	go app.Run()        // application logic elsewhere
//	loop.Run()          // main goroutine becomes the owner context
//
// From any other goroutine:
//
//	err := loop.Do(func() {
//	    // runs on the owner goroutine
//	})
//
// Do called from the owner goroutine itself runs the function inline, so
// re-entrant dispatch never deadlocks.
//
// # Absent dispatcher
//
// The registry accepts a nil Dispatcher, in which case mutations run inline
// on the calling goroutine. That is the expected configuration for tests and
// non-GUI embedders.
package dispatch
