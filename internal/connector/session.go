package connector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/toolmux/toolmux/internal/config"
)

// Session is the slice of an MCP client surface the connector drives.
// *client.Client satisfies it.
type Session interface {
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// Dialer establishes sessions with configured downstream servers.
type Dialer interface {
	Dial(ctx context.Context, server config.ServerEntry) (Session, error)
}

// StdioDialer launches downstream servers as local subprocesses speaking MCP
// over stdio, and initializes the protocol session.
// NewStdioDialer should be used to create instances of StdioDialer.
type StdioDialer struct {
	logger hclog.Logger

	// initTimeout bounds the MCP initialize handshake.
	initTimeout time.Duration
}

// NewStdioDialer creates a dialer for stdio-transport servers.
func NewStdioDialer(logger hclog.Logger, initTimeout time.Duration) (*StdioDialer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if initTimeout <= 0 {
		return nil, fmt.Errorf("initialize timeout must be positive, got %v", initTimeout)
	}

	return &StdioDialer{
		logger:      logger.Named("dialer"),
		initTimeout: initTimeout,
	}, nil
}

// Dial starts the server subprocess and completes the initialize handshake.
// The subprocess is torn down again when the handshake fails.
func (d *StdioDialer) Dial(ctx context.Context, server config.ServerEntry) (Session, error) {
	d.logger.Info(
		"Starting MCP server",
		"name", server.Name,
		"command", server.Command,
		"args", server.Args,
	)

	stdioClient, err := client.NewStdioMCPClient(server.Command, environAsList(server.Env), server.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to start MCP server '%s': %w", server.Name, err)
	}

	if stderr, ok := client.GetStderr(stdioClient); ok {
		go d.pipeStderr(ctx, server.Name, stderr)
	}

	initCtx, cancel := context.WithTimeout(ctx, d.initTimeout)
	defer cancel()

	initResult, err := stdioClient.Initialize(initCtx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "toolmux", Version: "0.1.0"},
		},
	})
	if err != nil {
		_ = stdioClient.Close()
		return nil, fmt.Errorf("failed to initialize MCP server '%s': %w", server.Name, err)
	}

	d.logger.Info(
		"Initialized MCP server",
		"name", server.Name,
		"server_info", fmt.Sprintf("%s@%s", initResult.ServerInfo.Name, initResult.ServerInfo.Version),
	)

	return stdioClient, nil
}

// pipeStderr forwards subprocess stderr lines to the logger until the stream
// closes or the context is done.
func (d *StdioDialer) pipeStderr(ctx context.Context, name string, stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
			d.logger.Debug("stderr", "server", name, "line", scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		d.logger.Debug("stderr stream ended", "server", name, "error", err)
	}
}

// environAsList renders an env map as sorted KEY=VALUE pairs.
func environAsList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)

	return out
}
