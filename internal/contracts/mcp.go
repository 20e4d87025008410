package contracts

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/domain"
)

// ToolSource provides discovery of downstream tools and pass-through calling.
// Implementations isolate per-server failures: DiscoverTools never fails one
// server because another is unreachable.
type ToolSource interface {
	// DiscoverTools returns the union of tool listings across all reachable
	// servers, serving cached listings where they are still fresh.
	DiscoverTools(ctx context.Context) ([]domain.ToolDescriptor, error)

	// LastDiscoveryStatus reports the successful/failed server-name sets from
	// the most recent DiscoverTools call.
	LastDiscoveryStatus() domain.DiscoveryStatus

	// CallTool delegates a call to the named server. Transport errors propagate.
	CallTool(ctx context.Context, server string, tool string, params map[string]any) (*mcp.CallToolResult, error)

	// Shutdown releases all sessions and clears cached listings. Idempotent.
	Shutdown()
}

// ToolRouter is the exposure surface built by the aggregation engine: the
// exposed tool list for the active mode plus name-based dispatch. Both hosts
// (stdio MCP, HTTP API) serve through this interface.
type ToolRouter interface {
	// Mode reports the routing mode fixed at construction.
	Mode() config.Mode

	// RefreshTools re-discovers downstream tools and swaps the route table.
	RefreshTools(ctx context.Context) error

	// ToolList returns the exposed tools for the active mode, sorted by name.
	ToolList() []mcp.Tool

	// CallTool dispatches an exposed tool name to its downstream server.
	CallTool(ctx context.Context, name string, args any) (*mcp.CallToolResult, error)

	// Shutdown releases the underlying tool source.
	Shutdown()
}

// ServerDirectory is a ToolSource that also knows the configured server set
// and can probe individual servers for liveness.
type ServerDirectory interface {
	ToolSource

	// ServerNames returns configured server names in configuration order.
	ServerNames() []string

	// Ping checks the live session for the named server.
	Ping(ctx context.Context, server string) error
}

// Ranker scores candidate tools against recent conversational context.
type Ranker interface {
	// Rank returns the candidates scoring at or above the configured threshold,
	// sorted descending, truncated to the configured per-turn maximum.
	Rank(messages []domain.Message, candidates []domain.ToolDescriptor) ([]domain.RelevanceScore, error)

	// RecordUsage timestamps a (server, tool) pair for the history signal.
	RecordUsage(server string, tool string)
}

// StatusMonitor provides a way to interact with the availability status of MCP servers.
type StatusMonitor interface {
	// Status returns the status for a single tracked server.
	Status(name string) (domain.ServerStatus, error)

	// List returns a copy of all known server status records.
	List() []domain.ServerStatus

	// Update records an observation for a tracked server.
	Update(name string, state domain.ServerState, latency *time.Duration) error
}

// The interfaces below are the named optional hooks a protocol host may support.
// Adapters select capabilities once at construction; nothing probes per call.

// ToolRegistrar registers an exposed tool as an invokable capability on the host.
type ToolRegistrar interface {
	RegisterTool(ctx context.Context, tool mcp.Tool) error
}

// TurnObserver is notified before a conversation turn so the host can
// opportunistically pre-rank tools. Best-effort: implementations must not
// let failures escape this hook.
type TurnObserver interface {
	OnTurnStart(ctx context.Context, messages []domain.Message)
}

// ShutdownNotifier is informed when the engine is shutting down.
type ShutdownNotifier interface {
	OnShutdown(ctx context.Context)
}
