package resourced

import (
	"sync"

	"github.com/openglass/resourced/registry"
)

var (
	defaultMu  sync.Mutex
	defaultReg *registry.Registry
)

// Default returns the process-wide registry, creating it on first use.
// The default registry runs mutations inline; embedders with a GUI thread
// should build their own with registry.WithDispatcher and install it via
// SetDefault before anything registers.
func Default() *registry.Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultReg == nil {
		defaultReg = registry.New()
	}
	return defaultReg
}

// SetDefault replaces the process-wide registry and returns the previous
// one, which may be nil. The caller owns the returned registry's shutdown.
func SetDefault(r *registry.Registry) *registry.Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultReg
	defaultReg = r
	return prev
}
