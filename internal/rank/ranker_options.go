package rank

import (
	"fmt"
	"time"
)

// Option defines a functional option for configuring a Ranker.
type Option func(*Options) error

// Options contains optional configuration for the ranker.
type Options struct {
	// relevanceThreshold is the minimum composite score a tool must reach to be returned.
	relevanceThreshold float64

	// maxToolsPerTurn caps the number of ranked tools returned per call.
	maxToolsPerTurn int

	// usageWindow is how long a recorded usage contributes to the history signal.
	usageWindow time.Duration

	// now supplies the clock, overridable in tests.
	now func() time.Time
}

func NewOptions(opts ...Option) (Options, error) {
	// Default options.
	o := Options{
		relevanceThreshold: DefaultRelevanceThreshold(),
		maxToolsPerTurn:    DefaultMaxToolsPerTurn(),
		usageWindow:        DefaultUsageWindow(),
		now:                time.Now,
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

// DefaultRelevanceThreshold returns the default minimum composite score.
func DefaultRelevanceThreshold() float64 {
	return 0.3
}

// DefaultMaxToolsPerTurn returns the default cap on ranked tools per call.
func DefaultMaxToolsPerTurn() int {
	return 5
}

// DefaultUsageWindow returns the default retention window for usage records.
func DefaultUsageWindow() time.Duration {
	return 30 * time.Minute
}

// WithRelevanceThreshold sets the minimum composite score.
// Values above 1.0 are legal and filter everything out.
func WithRelevanceThreshold(threshold float64) Option {
	return func(o *Options) error {
		if threshold < 0 {
			return fmt.Errorf("relevance threshold cannot be negative, got %v", threshold)
		}
		o.relevanceThreshold = threshold
		return nil
	}
}

// WithMaxToolsPerTurn sets the cap on ranked tools returned per call.
func WithMaxToolsPerTurn(n int) Option {
	return func(o *Options) error {
		if n <= 0 {
			return fmt.Errorf("max tools per turn must be positive, got %d", n)
		}
		o.maxToolsPerTurn = n
		return nil
	}
}

// WithUsageWindow sets the retention window for usage records.
func WithUsageWindow(window time.Duration) Option {
	return func(o *Options) error {
		if window <= 0 {
			return fmt.Errorf("usage window must be positive, got %v", window)
		}
		o.usageWindow = window
		return nil
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Options) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}
