package cache

import (
	"fmt"
	"time"
)

// Option defines a functional option for configuring ResultCache.
type Option func(*Options) error

// Options contains optional configuration for the result cache.
type Options struct {
	// enabled determines if caching is enabled.
	enabled bool

	// ttl is the time-to-live for cached results.
	ttl time.Duration

	// maxEntries bounds the number of cached results.
	maxEntries int

	// now returns the current time, swappable in tests.
	now func() time.Time
}

// DefaultEnabled returns whether caching is enabled by default.
func DefaultEnabled() bool {
	return true
}

// DefaultTTL returns the default time-to-live for cached results.
func DefaultTTL() time.Duration {
	return 30 * time.Second
}

// DefaultMaxEntries returns the default cached-result capacity.
func DefaultMaxEntries() int {
	return 100
}

func NewOptions(opts ...Option) (Options, error) {
	// Default options.
	o := Options{
		enabled:    DefaultEnabled(),
		ttl:        DefaultTTL(),
		maxEntries: DefaultMaxEntries(),
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return Options{}, err
		}
	}

	return o, nil
}

// WithCaching configures whether caching is enabled.
func WithCaching(enabled bool) Option {
	return func(o *Options) error {
		o.enabled = enabled
		return nil
	}
}

// WithTTL sets the cached-result time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(o *Options) error {
		if ttl <= 0 {
			return fmt.Errorf("TTL must be positive, got %v", ttl)
		}
		o.ttl = ttl
		return nil
	}
}

// WithMaxEntries sets the cached-result capacity.
func WithMaxEntries(maxEntries int) Option {
	return func(o *Options) error {
		if maxEntries <= 0 {
			return fmt.Errorf("max entries must be positive, got %d", maxEntries)
		}
		o.maxEntries = maxEntries
		return nil
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Options) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}
