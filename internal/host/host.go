// Package host serves the aggregation engine to one MCP client over stdio.
// The host mirrors the engine's exposed tool list onto an MCP server,
// re-registering after every refresh, and implements the optional registrar
// and shutdown hooks so a smart-mode engine can announce tools mid-session.
// All logging goes to stderr; stdout belongs to the protocol.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/toolmux/toolmux/internal/cmd"
	"github.com/toolmux/toolmux/internal/contracts"
)

// Host exposes a ToolRouter over MCP stdio.
// NewHost should be used to create instances of Host.
type Host struct {
	logger hclog.Logger
	server *server.MCPServer

	refreshInterval time.Duration
	stdin           io.Reader
	stdout          io.Writer

	mu      sync.RWMutex
	engine  contracts.ToolRouter
	exposed map[string]struct{}
}

// The host is handed to the router as its registrar, which selects these
// capability hooks at construction.
var (
	_ contracts.ToolRegistrar    = (*Host)(nil)
	_ contracts.ShutdownNotifier = (*Host)(nil)
)

// NewHost creates a stdio host. The engine is attached later via Serve so
// the router can be constructed with the host as its registrar first.
func NewHost(logger hclog.Logger, opts ...Option) (*Host, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	options, err := NewOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid host options: %w", err)
	}

	return &Host{
		logger: logger.Named("host"),
		server: server.NewMCPServer(
			"toolmux",
			cmd.Version(),
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
		refreshInterval: options.refreshInterval,
		stdin:           options.stdin,
		stdout:          options.stdout,
		exposed:         make(map[string]struct{}),
	}, nil
}

// Serve attaches the engine, primes and mirrors its exposed tool list, and
// speaks MCP over the configured streams until the context is cancelled, the
// client closes the stream, or the transport fails. The engine is shut down
// before Serve returns.
func (h *Host) Serve(ctx context.Context, engine contracts.ToolRouter) error {
	if engine == nil || reflect.ValueOf(engine).IsNil() {
		return fmt.Errorf("engine cannot be nil")
	}

	h.mu.Lock()
	h.engine = engine
	h.mu.Unlock()

	if err := engine.RefreshTools(ctx); err != nil {
		h.logger.Warn("Initial tool discovery failed, serving with an empty exposure", "error", err)
	}
	mirrored, _ := h.syncTools()

	h.logger.Info("Serving MCP over stdio", "mode", engine.Mode(), "tools", mirrored)

	stdio := server.NewStdioServer(h.server)
	stdio.SetErrorLogger(h.logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}))

	errCh := make(chan error, 1)
	go func() {
		errCh <- stdio.Listen(ctx, h.stdin, h.stdout)
	}()

	defer func() {
		h.logger.Info("Shutting down aggregation engine")
		engine.Shutdown()
	}()

	ticker := time.NewTicker(h.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.refresh(ctx)
		case err := <-errCh:
			// Cancellation is the normal shutdown path, not a failure.
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("stdio transport failed: %w", err)
			}
			return nil
		}
	}
}

// RegisterTool announces one exposed tool as invokable on the MCP server. The
// engine calls this when smart mode surfaces a tool it has not announced
// before; a connected client receives a tool list change notification.
func (h *Host) RegisterTool(_ context.Context, tool mcp.Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	h.mu.Lock()
	h.exposed[tool.Name] = struct{}{}
	h.mu.Unlock()

	h.server.AddTool(tool, h.dispatch)
	h.logger.Debug("Tool registered", "tool", tool.Name)

	return nil
}

// OnShutdown detaches the engine so late protocol traffic gets a clean
// in-band error instead of racing a closing transport.
func (h *Host) OnShutdown(context.Context) {
	h.mu.Lock()
	h.engine = nil
	h.mu.Unlock()

	h.logger.Debug("Aggregation engine detached")
}

// refresh re-discovers downstream tools and reconciles the mirrored list.
func (h *Host) refresh(ctx context.Context) {
	h.mu.RLock()
	engine := h.engine
	h.mu.RUnlock()

	if engine == nil {
		return
	}

	logger := h.logger.With("correlation_id", uuid.NewString())

	if err := engine.RefreshTools(ctx); err != nil {
		logger.Error("Tool refresh failed", "error", err)
		return
	}

	mirrored, removed := h.syncTools()
	logger.Info("Tool refresh complete", "tools", mirrored, "removed", removed)
}

// syncTools mirrors the engine's exposed list onto the MCP server: current
// tools are re-registered in one batch so schema changes land, and names no
// longer exposed are deleted.
func (h *Host) syncTools() (mirrored, removed int) {
	h.mu.RLock()
	engine := h.engine
	h.mu.RUnlock()

	if engine == nil {
		return 0, 0
	}

	tools := engine.ToolList()

	next := make(map[string]struct{}, len(tools))
	registrations := make([]server.ServerTool, 0, len(tools))
	for _, tool := range tools {
		next[tool.Name] = struct{}{}
		registrations = append(registrations, server.ServerTool{Tool: tool, Handler: h.dispatch})
	}

	var stale []string
	h.mu.Lock()
	for name := range h.exposed {
		if _, ok := next[name]; !ok {
			stale = append(stale, name)
		}
	}
	h.exposed = next
	h.mu.Unlock()

	if len(registrations) > 0 {
		h.server.AddTools(registrations...)
	}
	if len(stale) > 0 {
		h.server.DeleteTools(stale...)
	}

	return len(tools), len(stale)
}

// dispatch hands one tool call to the attached engine. Engine errors,
// including unknown tool names, surface as in-band error results rather than
// protocol errors.
func (h *Host) dispatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.mu.RLock()
	engine := h.engine
	h.mu.RUnlock()

	if engine == nil {
		return mcp.NewToolResultError("aggregation engine is not running"), nil
	}

	result, err := engine.CallTool(ctx, request.Params.Name, request.GetRawArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return result, nil
}
