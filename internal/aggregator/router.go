// Package aggregator composes tool discovery, relevance ranking, schema
// compression and result caching into a single router that owns the exposed
// tool namespace. The router is the only component that mutates the route
// map, and an unmapped name on CallTool is the only error it raises itself.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/toolmux/toolmux/internal/cache"
	"github.com/toolmux/toolmux/internal/compress"
	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/contracts"
	"github.com/toolmux/toolmux/internal/domain"
	errs "github.com/toolmux/toolmux/internal/errors"
)

// routeEntry maps an exposed name onto its real (server, tool) target.
type routeEntry struct {
	exposedName string
	serverName  string
	toolName    string
	tool        domain.ToolDescriptor
}

// Router owns the route map and the operating mode fixed at construction.
// Smart mode exposes the find_tools meta-tool plus compressed schemas;
// traditional mode exposes every downstream tool directly, namespaced, with
// its full schema.
// NewRouter should be used to create instances of Router.
type Router struct {
	logger     hclog.Logger
	source     contracts.ToolSource
	ranker     contracts.Ranker
	compressor *compress.Compressor
	results    *cache.ResultCache

	mode                    config.Mode
	highConfidenceThreshold float64
	previewLimit            int

	// Host capabilities, selected once at construction from the registrar
	// value; optional hooks a host does not implement stay nil.
	registrar contracts.ToolRegistrar
	observer  contracts.TurnObserver
	notifier  contracts.ShutdownNotifier

	mu     sync.RWMutex
	routes map[string]routeEntry

	// registered tracks exposed names already announced to the registrar,
	// scoped to this instance so parallel routers never share state.
	registered map[string]struct{}
}

// NewRouter creates a router from validated dependencies.
func NewRouter(deps Dependencies, opts ...Option) (*Router, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}

	options, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}

	router := &Router{
		logger:                  deps.Logger.Named("router"),
		source:                  deps.Source,
		ranker:                  deps.Ranker,
		compressor:              deps.Compressor,
		results:                 deps.Results,
		mode:                    options.mode,
		highConfidenceThreshold: options.highConfidenceThreshold,
		previewLimit:            options.previewLimit,
		registrar:               options.registrar,
		routes:                  make(map[string]routeEntry),
		registered:              make(map[string]struct{}),
	}

	// Select the registrar's optional capabilities exactly once; nothing
	// probes the host per call.
	if options.registrar != nil {
		if observer, ok := options.registrar.(contracts.TurnObserver); ok {
			router.observer = observer
		}
		if notifier, ok := options.registrar.(contracts.ShutdownNotifier); ok {
			router.notifier = notifier
		}
	}

	return router, nil
}

// Mode returns the operating mode fixed at construction.
func (r *Router) Mode() config.Mode {
	return r.mode
}

// RefreshTools rebuilds the route map from a fresh discovery pass. Every
// route belonging to a server that failed this pass is carried over from the
// previous map, unless the name was re-taken this cycle, so previously-known
// tools of an unreachable server stay nominally callable. The rebuilt map is
// swapped in atomically; no caller ever observes a half-built map.
func (r *Router) RefreshTools(ctx context.Context) error {
	tools, err := r.source.DiscoverTools(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover tools: %w", err)
	}

	failed := r.source.LastDiscoveryStatus().FailedSet()

	next := make(map[string]routeEntry, len(tools))
	for _, tool := range tools {
		name := r.exposedName(next, tool)
		next[name] = routeEntry{
			exposedName: name,
			serverName:  tool.ServerName,
			toolName:    tool.Name,
			tool:        tool,
		}
	}

	carried := 0

	r.mu.Lock()
	for name, entry := range r.routes {
		if _, failedServer := failed[entry.serverName]; !failedServer {
			continue
		}
		if _, taken := next[name]; taken {
			continue
		}
		next[name] = entry
		carried++
	}
	r.routes = next
	r.mu.Unlock()

	r.logger.Debug(
		"Route map rebuilt",
		"routes", len(next),
		"carried_over", carried,
		"failed_servers", len(failed),
	)

	return nil
}

// ToolList renders the exposed tools for the current mode, sorted by exposed
// name. Traditional mode returns each route with its real schema; smart mode
// returns the find_tools meta-tool followed by freshly re-compressed
// descriptors.
func (r *Router) ToolList() []mcp.Tool {
	r.mu.RLock()
	entries := make([]routeEntry, 0, len(r.routes))
	for _, entry := range r.routes {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].exposedName < entries[j].exposedName
	})

	if r.mode == config.ModeTraditional {
		out := make([]mcp.Tool, 0, len(entries))
		for _, entry := range entries {
			out = append(out, mcp.Tool{
				Name:        entry.exposedName,
				Description: entry.tool.Description,
				InputSchema: entry.tool.InputSchema,
			})
		}

		return out
	}

	out := make([]mcp.Tool, 0, len(entries)+1)
	out = append(out, FindToolsTool())
	for _, entry := range entries {
		out = append(out, compressedToolView(r.compressor.Compress(entry.tool)))
	}

	return out
}

// CallTool resolves an exposed name and delegates the call downstream. An
// unmapped name raises ErrToolNotFound. Traditional mode calls straight
// through; smart mode serves cacheable repeats from the result cache and
// records usage for the ranker's history signal.
func (r *Router) CallTool(ctx context.Context, name string, args any) (*mcp.CallToolResult, error) {
	if r.mode == config.ModeSmart && name == FindToolsName {
		return r.handleFindTools(ctx, args), nil
	}

	r.mu.RLock()
	entry, ok := r.routes[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrToolNotFound, name)
	}

	params, _ := args.(map[string]any)

	if r.mode == config.ModeTraditional {
		return r.source.CallTool(ctx, entry.serverName, entry.toolName, params)
	}

	cacheable := r.results.IsCacheable(entry.toolName)
	if cacheable {
		if result, ok := r.results.Get(entry.serverName, entry.toolName, params); ok {
			r.logger.Debug("Serving cached result", "server", entry.serverName, "tool", entry.toolName)
			return result, nil
		}
	}

	result, err := r.source.CallTool(ctx, entry.serverName, entry.toolName, params)
	if err != nil {
		return nil, err
	}

	r.ranker.RecordUsage(entry.serverName, entry.toolName)

	if cacheable {
		r.results.Set(entry.serverName, entry.toolName, params, result)
	}

	return result, nil
}

// Shutdown informs the host, when it asked to be told, then releases the
// downstream transport. Safe to call more than once.
func (r *Router) Shutdown() {
	if r.notifier != nil {
		r.notifier.OnShutdown(context.Background())
	}
	r.source.Shutdown()
}

// exposedName derives the route key for a tool. Smart mode uses the
// compressor's derived name; traditional mode namespaces without compressing
// and resolves collisions within the pass by numeric suffixing.
func (r *Router) exposedName(taken map[string]routeEntry, tool domain.ToolDescriptor) string {
	if r.mode == config.ModeSmart {
		return r.compressor.Compress(tool).Name
	}

	name := compress.ExposedName(tool.ServerName, tool.Name)
	if _, exists := taken[name]; !exists {
		return name
	}

	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
}
