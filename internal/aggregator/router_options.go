package aggregator

import (
	"fmt"

	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/contracts"
)

// Option defines a functional option for configuring Router.
type Option func(*Options) error

// Options contains optional configuration for the router.
type Options struct {
	// mode is the operating mode, fixed for the router's lifetime.
	mode config.Mode

	// highConfidenceThreshold marks find_tools results as high confidence.
	highConfidenceThreshold float64

	// previewLimit caps the blank-need find_tools preview.
	previewLimit int

	// registrar optionally receives each tool registered by find_tools.
	registrar contracts.ToolRegistrar
}

// DefaultMode returns the default operating mode.
func DefaultMode() config.Mode {
	return config.ModeSmart
}

// DefaultHighConfidenceThreshold returns the score at which a find_tools
// result is annotated as high confidence.
func DefaultHighConfidenceThreshold() float64 {
	return config.DefaultHighConfidenceThreshold
}

// DefaultPreviewLimit returns the cap on the blank-need find_tools preview.
func DefaultPreviewLimit() int {
	return 20
}

func NewOptions(opts ...Option) (Options, error) {
	// Default options.
	o := Options{
		mode:                    DefaultMode(),
		highConfidenceThreshold: DefaultHighConfidenceThreshold(),
		previewLimit:            DefaultPreviewLimit(),
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

// WithMode sets the operating mode.
func WithMode(mode config.Mode) Option {
	return func(o *Options) error {
		switch mode {
		case config.ModeSmart, config.ModeTraditional:
			o.mode = mode
			return nil
		default:
			return fmt.Errorf("unknown mode '%s'", mode)
		}
	}
}

// WithHighConfidenceThreshold sets the high-confidence score boundary.
func WithHighConfidenceThreshold(threshold float64) Option {
	return func(o *Options) error {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("high confidence threshold must be in (0, 1], got %v", threshold)
		}
		o.highConfidenceThreshold = threshold
		return nil
	}
}

// WithPreviewLimit sets the cap on the blank-need find_tools preview.
func WithPreviewLimit(limit int) Option {
	return func(o *Options) error {
		if limit <= 0 {
			return fmt.Errorf("preview limit must be positive, got %d", limit)
		}
		o.previewLimit = limit
		return nil
	}
}

// WithToolRegistrar wires a host that wants to be told about every tool
// find_tools registers.
func WithToolRegistrar(registrar contracts.ToolRegistrar) Option {
	return func(o *Options) error {
		if registrar == nil {
			return fmt.Errorf("tool registrar cannot be nil")
		}
		o.registrar = registrar
		return nil
	}
}
