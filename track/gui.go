package track

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/openglass/resourced/registry"
)

// Stopper is implemented by timer-like objects that must be stopped before
// deletion.
type Stopper interface {
	Stop()
}

// Worker is implemented by thread-like objects that stop cooperatively.
// Join waits for the worker to finish and reports whether it did so within
// the given bound.
type Worker interface {
	Stop()
	Join(timeout time.Duration) bool
}

// DeferredDeleter is implemented by toolkit objects that must be deleted
// through the toolkit's deferred-delete mechanism rather than immediately.
type DeferredDeleter interface {
	DeleteLater()
}

// defaultJoinWait bounds how long a GUI worker cleanup waits for the
// worker goroutine to exit.
const defaultJoinWait = 2 * time.Second

// GUI registers a GUI-affinity object. Its cleanup runs on the owner
// context like every mutation: timers are stopped first, workers are
// stopped and joined with a bounded wait, and deferred-deletable objects
// go through DeleteLater. Anything left exposing io.Closer is closed.
// Each step is guarded independently.
func GUI(reg *registry.Registry, obj any, opts ...registry.RegisterOption) (string, error) {
	typ := registry.TypeWidget
	switch obj.(type) {
	case Worker:
		typ = registry.TypeWorker
	case Stopper:
		typ = registry.TypeTimer
	}

	opts = append(opts, registry.WithCleanup(releaseGUI))
	return reg.Register(obj, typ, opts...)
}

// Window registers a top-level window object.
func Window(reg *registry.Registry, obj any, opts ...registry.RegisterOption) (string, error) {
	opts = append(opts, registry.WithCleanup(releaseGUI))
	return reg.Register(obj, registry.TypeWindow, opts...)
}

func releaseGUI(res any) error {
	var errs []error

	if s, ok := res.(Stopper); ok {
		errs = append(errs, guard("stop", func() error {
			s.Stop()
			return nil
		}))
	}

	if w, ok := res.(Worker); ok {
		errs = append(errs, guard("join", func() error {
			if !w.Join(defaultJoinWait) {
				return fmt.Errorf("worker did not stop within %v", defaultJoinWait)
			}
			return nil
		}))
	}

	switch v := res.(type) {
	case DeferredDeleter:
		errs = append(errs, guard("delete", func() error {
			v.DeleteLater()
			return nil
		}))
	case io.Closer:
		errs = append(errs, guard("close", v.Close))
	}

	return errors.Join(errs...)
}

// guard runs one cleanup step, converting a panic into an error so the
// remaining steps still run.
func guard(step string, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: panic: %v", step, p)
			Logger().Warn("cleanup step panicked",
				zap.String("step", step), zap.Any("panic", p))
		}
	}()
	if err = fn(); err != nil {
		err = fmt.Errorf("%s: %w", step, err)
	}
	return err
}
