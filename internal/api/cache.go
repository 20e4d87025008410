package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/toolmux/toolmux/internal/cache"
)

// CacheController is the observability surface of the tool result cache.
type CacheController interface {
	// Stats reports counters and configuration of the cache.
	Stats() cache.Stats

	// Prune removes expired entries eagerly, returning how many were dropped.
	Prune() int
}

// CacheStatsResponse represents the wrapped API response for result cache statistics.
type CacheStatsResponse struct {
	Body cache.Stats
}

// CachePruneResponse reports the outcome of an explicit prune.
type CachePruneResponse struct {
	Body struct {
		Removed int `doc:"Number of expired entries removed" json:"removed"`
	}
}

// RegisterCacheRoutes sets up the result cache observability endpoints.
func RegisterCacheRoutes(routerAPI huma.API, results CacheController, apiPathPrefix string) {
	cacheAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Cache"}

	huma.Register(
		cacheAPI,
		huma.Operation{
			OperationID: "getCacheStats",
			Method:      http.MethodGet,
			Path:        "/stats",
			Summary:     "Get result cache statistics",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*CacheStatsResponse, error) {
			return handleCacheStats(results)
		},
	)

	huma.Register(
		cacheAPI,
		huma.Operation{
			OperationID: "pruneCache",
			Method:      http.MethodPost,
			Path:        "/prune",
			Summary:     "Remove expired result cache entries",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*CachePruneResponse, error) {
			return handleCachePrune(results)
		},
	)
}

// handleCacheStats returns a point-in-time snapshot of the result cache.
func handleCacheStats(results CacheController) (*CacheStatsResponse, error) {
	resp := &CacheStatsResponse{}
	resp.Body = results.Stats()

	return resp, nil
}

// handleCachePrune removes expired entries and reports how many were dropped.
func handleCachePrune(results CacheController) (*CachePruneResponse, error) {
	resp := &CachePruneResponse{}
	resp.Body.Removed = results.Prune()

	return resp, nil
}
