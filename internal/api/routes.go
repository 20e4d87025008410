package api

import (
	"fmt"
	"net/url"
	"reflect"

	"github.com/danielgtaylor/huma/v2"

	"github.com/toolmux/toolmux/internal/contracts"
)

// APIVersion is the version used in URL paths.
const APIVersion = "v1"

// RegisterRoutes registers all API routes on the provided Huma router.
// This is the single source of truth for the API route structure.
// Returns the API path prefix (e.g., "/api/v1") under which the routes are created.
func RegisterRoutes(
	router huma.API,
	engine contracts.ToolRouter,
	directory contracts.ServerDirectory,
	monitor contracts.StatusMonitor,
	results CacheController,
) (string, error) {
	if router == nil || reflect.ValueOf(router).IsNil() {
		return "", fmt.Errorf("router cannot be nil")
	}
	if engine == nil || reflect.ValueOf(engine).IsNil() {
		return "", fmt.Errorf("engine cannot be nil")
	}
	if directory == nil || reflect.ValueOf(directory).IsNil() {
		return "", fmt.Errorf("server directory cannot be nil")
	}
	if monitor == nil || reflect.ValueOf(monitor).IsNil() {
		return "", fmt.Errorf("status monitor cannot be nil")
	}
	if results == nil || reflect.ValueOf(results).IsNil() {
		return "", fmt.Errorf("cache controller cannot be nil")
	}

	// Safe way to ensure /api/{version}.
	apiPathPrefix, err := url.JoinPath("/api", APIVersion)
	if err != nil {
		return "", fmt.Errorf("failed to construct API path prefix: %w", err)
	}

	// Group all routes under the /api/{version} prefix.
	versionedGroup := huma.NewGroup(router, apiPathPrefix)
	RegisterServerRoutes(versionedGroup, directory, "/servers")
	RegisterToolRoutes(versionedGroup, engine, "/tools")
	RegisterHealthRoutes(versionedGroup, monitor, "/health")
	RegisterCacheRoutes(versionedGroup, results, "/cache")
	RegisterRefreshRoute(versionedGroup, engine, directory, "/refresh")

	return apiPathPrefix, nil
}
