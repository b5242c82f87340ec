package registry

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/openglass/resourced/dispatch"
)

const (
	defaultDispatchWait = 5 * time.Second
	defaultHistorySize  = 128
)

type config struct {
	dispatcher   dispatch.Dispatcher
	dispatchWait time.Duration
	historySize  int
	purgeLimit   rate.Limit
	purgeBurst   int
}

func defaultConfig() config {
	return config{
		dispatchWait: defaultDispatchWait,
		historySize:  defaultHistorySize,
		// Coalesce purge sweeps so a burst of finalizers collapses into
		// one pass instead of one goroutine per dead object.
		purgeLimit: rate.Every(100 * time.Millisecond),
		purgeBurst: 1,
	}
}

// Option configures a Registry at construction time.
type Option func(*config)

// WithDispatcher routes every mutation through the given owner-context
// dispatcher. Without it, mutations run inline on the calling goroutine.
func WithDispatcher(d dispatch.Dispatcher) Option {
	return func(c *config) {
		c.dispatcher = d
	}
}

// WithDispatchWait bounds how long a cross-goroutine mutation waits for the
// owner context before falling back to local execution.
func WithDispatchWait(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.dispatchWait = d
		}
	}
}

// WithHistorySize sets how many released records the cleanup history keeps.
func WithHistorySize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.historySize = n
		}
	}
}

// registerConfig collects per-registration settings.
type registerConfig struct {
	description string
	metadata    map[string]any
	handler     func(resource any) error
	explicit    bool
}

// RegisterOption configures a single registration.
type RegisterOption func(*registerConfig)

// WithDescription attaches a human-readable description to the record.
func WithDescription(s string) RegisterOption {
	return func(c *registerConfig) {
		c.description = s
	}
}

// WithMetadata merges m into the record's metadata bag.
func WithMetadata(m map[string]any) RegisterOption {
	return func(c *registerConfig) {
		if c.metadata == nil {
			c.metadata = make(map[string]any, len(m))
		}
		for k, v := range m {
			c.metadata[k] = v
		}
	}
}

// WithMeta sets a single metadata key.
func WithMeta(key string, value any) RegisterOption {
	return func(c *registerConfig) {
		if c.metadata == nil {
			c.metadata = make(map[string]any, 1)
		}
		c.metadata[key] = value
	}
}

// WithCleanup supplies an explicit cleanup handler. It takes precedence
// over the resource's own Releaser or io.Closer implementation.
func WithCleanup(fn func(resource any) error) RegisterOption {
	return func(c *registerConfig) {
		c.handler = fn
		c.explicit = fn != nil
	}
}

// WithCleanupPriority orders the record within its group during bulk
// cleanup. Lower values are cleaned up first.
func WithCleanupPriority(p int) RegisterOption {
	return WithMeta(MetaCleanupPriority, p)
}
