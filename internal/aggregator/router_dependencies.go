package aggregator

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/toolmux/toolmux/internal/cache"
	"github.com/toolmux/toolmux/internal/compress"
	"github.com/toolmux/toolmux/internal/contracts"
)

// Dependencies contains required collaborators for the Router.
// NewDependencies should be used to create instances of Dependencies.
type Dependencies struct {
	// Logger for router operations.
	Logger hclog.Logger

	// Source discovers downstream tools and delegates calls to them.
	Source contracts.ToolSource

	// Ranker scores candidate tools against conversational context.
	Ranker contracts.Ranker

	// Compressor derives token-minimized exposures and reverse lookups.
	Compressor *compress.Compressor

	// Results memoizes read-only call results.
	Results *cache.ResultCache
}

// NewDependencies creates validated Dependencies for a Router.
func NewDependencies(
	logger hclog.Logger,
	source contracts.ToolSource,
	ranker contracts.Ranker,
	compressor *compress.Compressor,
	results *cache.ResultCache,
) (Dependencies, error) {
	deps := Dependencies{
		Logger:     logger,
		Source:     source,
		Ranker:     ranker,
		Compressor: compressor,
		Results:    results,
	}

	if err := deps.Validate(); err != nil {
		return Dependencies{}, err
	}

	return deps, nil
}

// Validate ensures all required dependencies are provided and valid.
func (d Dependencies) Validate() error {
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}

	if d.Source == nil {
		return fmt.Errorf("tool source cannot be nil")
	}

	if d.Ranker == nil {
		return fmt.Errorf("ranker cannot be nil")
	}

	if d.Compressor == nil {
		return fmt.Errorf("compressor cannot be nil")
	}

	if d.Results == nil {
		return fmt.Errorf("result cache cannot be nil")
	}

	return nil
}
