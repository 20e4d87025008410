// Package options provides the injectable collaborators for CLI commands,
// defaulting to the production implementations and swappable in tests.
package options

import (
	"fmt"

	"github.com/toolmux/toolmux/internal/config"
)

// CmdOption mutates CmdOptions during construction.
type CmdOption func(*CmdOptions) error

// CmdOptions holds the collaborators a command may depend on.
type CmdOptions struct {
	ConfigLoader      config.Loader
	ConfigInitializer config.Initializer
}

func defaultOptions() CmdOptions {
	loader := &config.DefaultLoader{}
	return CmdOptions{
		ConfigLoader:      loader,
		ConfigInitializer: loader,
	}
}

// NewOptions applies the supplied options on top of the defaults.
func NewOptions(opt ...CmdOption) (CmdOptions, error) {
	opts := defaultOptions()

	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return CmdOptions{}, err
		}
	}

	return opts, nil
}

// WithConfigLoader overrides the config loader used by a command.
func WithConfigLoader(l config.Loader) CmdOption {
	return func(o *CmdOptions) error {
		if l == nil {
			return fmt.Errorf("config loader cannot be nil")
		}
		o.ConfigLoader = l
		return nil
	}
}

// WithConfigInitializer overrides the config initializer used by a command.
func WithConfigInitializer(i config.Initializer) CmdOption {
	return func(o *CmdOptions) error {
		if i == nil {
			return fmt.Errorf("config initializer cannot be nil")
		}
		o.ConfigInitializer = i
		return nil
	}
}
