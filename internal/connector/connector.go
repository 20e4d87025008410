// Package connector manages sessions with configured downstream MCP servers
// and caches each server's discovered tool list. One server failing to dial,
// list, or call never disturbs its siblings.
package connector

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/contracts"
	"github.com/toolmux/toolmux/internal/domain"
	errs "github.com/toolmux/toolmux/internal/errors"
)

// cacheEntry is the last known tool list for one server. Entries are replaced
// wholesale on successful re-discovery, never partially merged.
type cacheEntry struct {
	tools      []domain.ToolDescriptor
	capturedAt time.Time
}

// serverResult is the outcome of one per-server discovery attempt.
type serverResult struct {
	server    config.ServerEntry
	tools     []domain.ToolDescriptor
	fromCache bool
	err       error
}

// Connector implements contracts.ToolSource over a set of configured servers.
// Sessions are dialed lazily on first discovery and re-attempted every pass
// until they succeed.
// NewConnector should be used to create instances of Connector.
type Connector struct {
	logger  hclog.Logger
	dialer  Dialer
	servers []config.ServerEntry

	discoveryTTL     time.Duration
	operationTimeout time.Duration
	now              func() time.Time

	// refreshMu serializes discovery passes; per-server work inside one
	// pass still fans out concurrently.
	refreshMu sync.Mutex

	mu       sync.Mutex
	sessions map[string]Session
	cache    map[string]*cacheEntry
	status   domain.DiscoveryStatus
	closed   bool
}

var _ contracts.ServerDirectory = (*Connector)(nil)

// NewConnector creates a connector for the given servers. No sessions are
// dialed until the first discovery pass.
func NewConnector(logger hclog.Logger, dialer Dialer, servers []config.ServerEntry, opts ...Option) (*Connector, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if dialer == nil {
		return nil, fmt.Errorf("dialer cannot be nil")
	}

	options, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &Connector{
		logger:           logger.Named("connector"),
		dialer:           dialer,
		servers:          slices.Clone(servers),
		discoveryTTL:     options.discoveryTTL,
		operationTimeout: options.operationTimeout,
		now:              options.now,
		sessions:         make(map[string]Session),
		cache:            make(map[string]*cacheEntry),
	}, nil
}

// DiscoverTools returns the union of every reachable server's tools, each
// tagged with its owning server and that server's configured categories.
// Per-server listings younger than the discovery TTL are reused without a
// round trip and count as successful. A failing server is recorded in the
// discovery status and excluded from the union; its previous cache entry is
// left untouched.
func (c *Connector) DiscoverTools(ctx context.Context) ([]domain.ToolDescriptor, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]serverResult, len(c.servers))

	var wg sync.WaitGroup
	for i, server := range c.servers {
		wg.Add(1)
		go func(i int, server config.ServerEntry) {
			defer wg.Done()
			results[i] = c.discoverServer(ctx, server)
		}(i, server)
	}
	wg.Wait()

	var (
		union  []domain.ToolDescriptor
		status domain.DiscoveryStatus
	)

	c.mu.Lock()
	for _, res := range results {
		if res.err != nil {
			status.Failed = append(status.Failed, res.server.Name)
			c.logger.Warn("Tool discovery failed", "server", res.server.Name, "error", res.err)

			continue
		}

		if !res.fromCache {
			c.cache[res.server.Name] = &cacheEntry{tools: res.tools, capturedAt: c.now()}
		}

		status.Successful = append(status.Successful, res.server.Name)
		union = append(union, res.tools...)
	}
	c.status = status
	c.mu.Unlock()

	c.logger.Debug(
		"Tool discovery complete",
		"tools", len(union),
		"successful", len(status.Successful),
		"failed", len(status.Failed),
	)

	return union, nil
}

// LastDiscoveryStatus returns the successful/failed server-name sets from the
// most recent discovery pass.
func (c *Connector) LastDiscoveryStatus() domain.DiscoveryStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	return domain.DiscoveryStatus{
		Successful: slices.Clone(c.status.Successful),
		Failed:     slices.Clone(c.status.Failed),
	}
}

// CallTool delegates a call to the named server's session. Transport errors
// propagate to the caller wrapped with call context.
func (c *Connector) CallTool(ctx context.Context, server string, tool string, params map[string]any) (*mcp.CallToolResult, error) {
	c.mu.Lock()
	sess, ok := c.sessions[server]
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrSessionNotFound, server)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = params

	result, err := sess.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call tool '%s' on server '%s': %w", tool, server, err)
	}

	return result, nil
}

// Ping checks liveness of the named server's session.
func (c *Connector) Ping(ctx context.Context, server string) error {
	c.mu.Lock()
	sess, ok := c.sessions[server]
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrSessionNotFound, server)
	}

	return sess.Ping(ctx)
}

// ServerNames returns the configured server names in configuration order.
func (c *Connector) ServerNames() []string {
	names := make([]string, 0, len(c.servers))
	for _, server := range c.servers {
		names = append(names, server.Name)
	}

	return names
}

// Shutdown closes every session and clears all cache entries. Safe to call
// more than once.
func (c *Connector) Shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sessions := c.sessions
	c.sessions = make(map[string]Session)
	c.cache = make(map[string]*cacheEntry)
	c.status = domain.DiscoveryStatus{}
	c.mu.Unlock()

	for name, sess := range sessions {
		c.logger.Info("Closing client connection to MCP server", "name", name)
		if err := sess.Close(); err != nil {
			c.logger.Error("Error closing client connection to MCP server", "name", name, "error", err)
		}
	}
}

// discoverServer resolves one server's tool list: cache first, then a live
// listing over an existing or freshly dialed session.
func (c *Connector) discoverServer(ctx context.Context, server config.ServerEntry) serverResult {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return serverResult{server: server, err: fmt.Errorf("connector is shut down")}
	}
	if e, ok := c.cache[server.Name]; ok && c.now().Sub(e.capturedAt) < c.discoveryTTL {
		tools := e.tools
		c.mu.Unlock()

		return serverResult{server: server, tools: tools, fromCache: true}
	}
	sess := c.sessions[server.Name]
	c.mu.Unlock()

	if sess == nil {
		dialed, err := c.dialer.Dial(ctx, server)
		if err != nil {
			return serverResult{server: server, err: fmt.Errorf("failed to dial server '%s': %w", server.Name, err)}
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = dialed.Close()

			return serverResult{server: server, err: fmt.Errorf("connector is shut down")}
		}
		c.sessions[server.Name] = dialed
		c.mu.Unlock()

		sess = dialed
	}

	listCtx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	result, err := sess.ListTools(listCtx, mcp.ListToolsRequest{})
	if err != nil {
		return serverResult{server: server, err: fmt.Errorf("failed to list tools on server '%s': %w", server.Name, err)}
	}

	tools := make([]domain.ToolDescriptor, 0, len(result.Tools))
	for _, tool := range result.Tools {
		tools = append(tools, domain.ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
			ServerName:  server.Name,
			Categories:  server.Categories,
		})
	}

	return serverResult{server: server, tools: tools}
}
