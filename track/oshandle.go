package track

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/openglass/resourced/registry"
)

// FDHandle boxes a raw OS file descriptor so it can be weakly tracked and
// closed exactly once. The caller keeps the box for the descriptor's
// lifetime.
type FDHandle struct {
	fd       int
	released atomic.Bool
}

// FD returns the raw descriptor.
func (h *FDHandle) FD() int {
	return h.fd
}

// Release closes the descriptor. Idempotent.
func (h *FDHandle) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	if err := closeFD(h.fd); err != nil {
		// Matches the registry's cleanup policy: log, never propagate
		Logger().Warn("closing raw descriptor failed",
			zap.Int("fd", h.fd), zap.Error(err))
	}
}

// OSHandle registers a raw OS file descriptor for platform-specific close.
// It returns the box the caller must hold alive.
func OSHandle(reg *registry.Registry, fd int, opts ...registry.RegisterOption) (*FDHandle, string, error) {
	h := &FDHandle{fd: fd}
	opts = append(opts, registry.WithMeta("fd", fd))

	id, err := reg.Register(h, registry.TypeOSHandle, opts...)
	if err != nil {
		return nil, "", err
	}
	return h, id, nil
}
