package daemon

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/toolmux/toolmux/internal/cache"
	"github.com/toolmux/toolmux/internal/contracts"
)

// APIDependencies contains the required external dependencies for the API server.
// NewAPIDependencies should be used to create instances of APIDependencies.
type APIDependencies struct {
	// Addr specifies the network address to bind (e.g., "0.0.0.0:8090").
	Addr string

	// Engine is the aggregation engine serving exposed tools.
	Engine contracts.ToolRouter

	// Directory provides the configured server set and liveness probes.
	Directory contracts.ServerDirectory

	// Monitor tracks server availability status.
	Monitor contracts.StatusMonitor

	// Results is the shared tool result cache, exposed for observability routes.
	Results *cache.ResultCache

	// Logger for API server operations.
	Logger hclog.Logger
}

// NewAPIDependencies creates and validates APIDependencies.
func NewAPIDependencies(
	logger hclog.Logger,
	engine contracts.ToolRouter,
	directory contracts.ServerDirectory,
	monitor contracts.StatusMonitor,
	results *cache.ResultCache,
	addr string,
) (APIDependencies, error) {
	deps := APIDependencies{
		Addr:      addr,
		Engine:    engine,
		Directory: directory,
		Monitor:   monitor,
		Results:   results,
		Logger:    logger,
	}

	if err := deps.Validate(); err != nil {
		return APIDependencies{}, err
	}

	return deps, nil
}

// Validate ensures all required dependencies are provided and valid.
func (d APIDependencies) Validate() error {
	if err := validateAddr(d.Addr); err != nil {
		return fmt.Errorf("invalid API address '%s': %w", d.Addr, err)
	}
	if d.Engine == nil || reflect.ValueOf(d.Engine).IsNil() {
		return fmt.Errorf("engine cannot be nil")
	}
	if d.Directory == nil || reflect.ValueOf(d.Directory).IsNil() {
		return fmt.Errorf("server directory cannot be nil")
	}
	if d.Monitor == nil || reflect.ValueOf(d.Monitor).IsNil() {
		return fmt.Errorf("status monitor cannot be nil")
	}
	if d.Results == nil {
		return fmt.Errorf("result cache cannot be nil")
	}
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}
	return nil
}
