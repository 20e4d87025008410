package daemon

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/toolmux/toolmux/internal/cache"
	"github.com/toolmux/toolmux/internal/contracts"
)

// Dependencies contains required dependencies for the Daemon.
// NewDependencies should be used to create instances of Dependencies.
type Dependencies struct {
	// APIAddr specifies the network address for the APIServer to bind (e.g., "0.0.0.0:8090").
	APIAddr string

	// Logger for daemon and subcomponent (API server) operations.
	Logger hclog.Logger

	// Router is the aggregation engine that exposes and dispatches tools.
	Router contracts.ToolRouter

	// Directory discovers tools and reports reachability for upstream MCP servers.
	Directory contracts.ServerDirectory

	// Results holds cached tool call results.
	Results *cache.ResultCache
}

// NewDependencies creates validated Dependencies for the daemon.
func NewDependencies(
	logger hclog.Logger,
	apiAddr string,
	router contracts.ToolRouter,
	directory contracts.ServerDirectory,
	results *cache.ResultCache,
) (Dependencies, error) {
	deps := Dependencies{
		APIAddr:   apiAddr,
		Logger:    logger,
		Router:    router,
		Directory: directory,
		Results:   results,
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

	if err := validateAddr(d.APIAddr); err != nil {
		return fmt.Errorf("invalid API address '%s': %w", d.APIAddr, err)
	}

	if d.Router == nil || reflect.ValueOf(d.Router).IsNil() {
		return fmt.Errorf("router cannot be nil")
	}

	if d.Directory == nil || reflect.ValueOf(d.Directory).IsNil() {
		return fmt.Errorf("server directory cannot be nil")
	}

	if d.Results == nil {
		return fmt.Errorf("result cache cannot be nil")
	}

	return nil
}
