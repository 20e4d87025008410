package daemon

import (
	"fmt"
	"time"
)

// Options contains optional configuration for the daemon.
// NewOptions should be used to create instances of Options.
type Options struct {
	// APIOptions contains functional options for the API server.
	APIOptions []APIOption

	// RefreshInterval specifies how often to rediscover tools from upstream MCP servers.
	RefreshInterval time.Duration

	// PingInterval specifies how often to ping MCP servers for health checks.
	PingInterval time.Duration

	// PingTimeout specifies maximum time to wait for ping responses.
	PingTimeout time.Duration
}

// Option defines a functional option for configuring Options.
// Options are applied in order, with later options overriding earlier ones.
type Option func(*Options) error

// NewOptions creates Options with optional configurations applied.
// Starts with default values, then applies options in order with later options overriding earlier ones.
func NewOptions(opts ...Option) (Options, error) {
	options := defaultOptions()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&options); err != nil {
			return Options{}, err
		}
	}

	return options, nil
}

// WithAPIOptions configures API server options.
// Replaces all previous API configuration including CORS settings.
func WithAPIOptions(apiOpts ...APIOption) Option {
	return func(o *Options) error {
		o.APIOptions = apiOpts
		return nil
	}
}

// WithRefreshInterval configures how often to rediscover tools from upstream MCP servers.
func WithRefreshInterval(interval time.Duration) Option {
	return func(o *Options) error {
		if interval <= 0 {
			return fmt.Errorf("refresh interval must be positive, got %v", interval)
		}
		o.RefreshInterval = interval
		return nil
	}
}

// WithPingInterval configures how often to ping MCP servers for health checks.
func WithPingInterval(interval time.Duration) Option {
	return func(o *Options) error {
		if interval <= 0 {
			return fmt.Errorf("ping interval must be positive, got %v", interval)
		}
		o.PingInterval = interval
		return nil
	}
}

// WithPingTimeout configures maximum time to wait for MCP server ping responses.
func WithPingTimeout(timeout time.Duration) Option {
	return func(o *Options) error {
		if timeout <= 0 {
			return fmt.Errorf("ping timeout must be positive, got %v", timeout)
		}
		o.PingTimeout = timeout
		return nil
	}
}

// DefaultRefreshInterval is the default interval for tool rediscovery.
func DefaultRefreshInterval() time.Duration {
	return 5 * time.Minute
}

// DefaultPingInterval is the default interval for health check pings.
func DefaultPingInterval() time.Duration {
	return 30 * time.Second
}

// DefaultPingTimeout is the default timeout for ping responses.
func DefaultPingTimeout() time.Duration {
	return 5 * time.Second
}

// defaultOptions returns Options with default values.
func defaultOptions() Options {
	return Options{
		RefreshInterval: DefaultRefreshInterval(),
		PingInterval:    DefaultPingInterval(),
		PingTimeout:     DefaultPingTimeout(),
	}
}
