package connector

import (
	"fmt"
	"time"
)

// Option defines a functional option for configuring Connector.
type Option func(*Options) error

// Options contains optional configuration for the connector.
type Options struct {
	// discoveryTTL is how long a server's discovered tool list stays fresh.
	discoveryTTL time.Duration

	// operationTimeout bounds a single per-server discovery listing.
	operationTimeout time.Duration

	// now returns the current time, swappable in tests.
	now func() time.Time
}

// DefaultDiscoveryTTL returns the default freshness window for a server's
// discovered tool list.
func DefaultDiscoveryTTL() time.Duration {
	return 5 * time.Minute
}

// DefaultOperationTimeout returns the default bound on a per-server listing.
func DefaultOperationTimeout() time.Duration {
	return 30 * time.Second
}

func NewOptions(opts ...Option) (Options, error) {
	// Default options.
	o := Options{
		discoveryTTL:     DefaultDiscoveryTTL(),
		operationTimeout: DefaultOperationTimeout(),
		now:              time.Now,
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

// WithDiscoveryTTL sets the freshness window for discovered tool lists.
func WithDiscoveryTTL(ttl time.Duration) Option {
	return func(o *Options) error {
		if ttl <= 0 {
			return fmt.Errorf("discovery TTL must be positive, got %v", ttl)
		}
		o.discoveryTTL = ttl
		return nil
	}
}

// WithOperationTimeout sets the bound on a per-server listing.
func WithOperationTimeout(timeout time.Duration) Option {
	return func(o *Options) error {
		if timeout <= 0 {
			return fmt.Errorf("operation timeout must be positive, got %v", timeout)
		}
		o.operationTimeout = timeout
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
