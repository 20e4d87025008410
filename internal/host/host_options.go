package host

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Option defines a functional option for configuring Host.
type Option func(*Options) error

// Options contains optional configuration for the stdio host.
type Options struct {
	// refreshInterval is the period between background tool refreshes.
	refreshInterval time.Duration

	// stdin and stdout carry the MCP protocol. Tests swap in pipes.
	stdin  io.Reader
	stdout io.Writer
}

// DefaultRefreshInterval returns the default period between background tool
// refreshes, aligned with the connector's discovery TTL.
func DefaultRefreshInterval() time.Duration {
	return 5 * time.Minute
}

func NewOptions(opts ...Option) (Options, error) {
	// Default options.
	o := Options{
		refreshInterval: DefaultRefreshInterval(),
		stdin:           os.Stdin,
		stdout:          os.Stdout,
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

// WithRefreshInterval sets the period between background tool refreshes.
func WithRefreshInterval(interval time.Duration) Option {
	return func(o *Options) error {
		if interval <= 0 {
			return fmt.Errorf("refresh interval must be positive, got %v", interval)
		}
		o.refreshInterval = interval
		return nil
	}
}

// WithIO replaces the process streams the host speaks the protocol over.
// Tests use this to drive the host through in-memory pipes.
func WithIO(stdin io.Reader, stdout io.Writer) Option {
	return func(o *Options) error {
		if stdin == nil {
			return fmt.Errorf("stdin cannot be nil")
		}
		if stdout == nil {
			return fmt.Errorf("stdout cannot be nil")
		}
		o.stdin = stdin
		o.stdout = stdout
		return nil
	}
}
