package cmd

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/toolmux/toolmux/internal/aggregator"
	"github.com/toolmux/toolmux/internal/cache"
	"github.com/toolmux/toolmux/internal/compress"
	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/connector"
	"github.com/toolmux/toolmux/internal/rank"
)

// initializeTimeout bounds the MCP handshake when a server session is dialed.
const initializeTimeout = 30 * time.Second

// engine bundles the aggregation components a command needs after assembly.
type engine struct {
	router    *aggregator.Router
	connector *connector.Connector
	ranker    *rank.Ranker
	results   *cache.ResultCache
}

// buildEngine assembles the aggregation engine from resolved configuration:
// connector over the merged server set, ranker, compressor and result cache
// tuned from settings, composed into a router. Extra router options let a
// host attach itself as registrar before construction.
func buildEngine(logger hclog.Logger, cfg config.Modifier, routerOpt ...aggregator.Option) (*engine, error) {
	settings := cfg.Settings()

	servers := cfg.ListServers()
	if settings.AutoDiscover {
		discovered := config.DiscoverServers(config.DefaultManifestPaths()...)
		servers = config.MergeServers(servers, discovered)
	}

	dialer, err := connector.NewStdioDialer(logger, initializeTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdio dialer: %w", err)
	}

	conn, err := connector.NewConnector(logger, dialer, servers)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	ranker, err := rank.NewRanker(
		logger,
		rank.WithRelevanceThreshold(settings.Analyzer.RelevanceThreshold),
		rank.WithMaxToolsPerTurn(settings.Analyzer.MaxToolsPerTurn),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ranker: %w", err)
	}

	compressor, err := compress.NewCompressor(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}

	results, err := cache.NewResultCache(
		logger,
		cache.WithCaching(settings.Cache.Enabled),
		cache.WithTTL(settings.Cache.TTL),
		cache.WithMaxEntries(settings.Cache.MaxEntries),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	deps, err := aggregator.NewDependencies(logger, conn, ranker, compressor, results)
	if err != nil {
		return nil, fmt.Errorf("failed to create router dependencies: %w", err)
	}

	opts := append([]aggregator.Option{
		aggregator.WithMode(settings.Mode),
		aggregator.WithHighConfidenceThreshold(settings.Analyzer.HighConfidenceThreshold),
	}, routerOpt...)

	router, err := aggregator.NewRouter(deps, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	return &engine{
		router:    router,
		connector: conn,
		ranker:    ranker,
		results:   results,
	}, nil
}
