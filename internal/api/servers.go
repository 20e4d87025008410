package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/toolmux/toolmux/internal/contracts"
	"github.com/toolmux/toolmux/internal/errors"
)

const (
	// DiscoverySuccessful marks a server whose last discovery pass returned tools.
	DiscoverySuccessful DiscoveryOutcome = "successful"

	// DiscoveryFailed marks a server whose last discovery pass failed.
	DiscoveryFailed DiscoveryOutcome = "failed"

	// DiscoveryPending marks a server not yet covered by a discovery pass.
	DiscoveryPending DiscoveryOutcome = "pending"
)

// DiscoveryOutcome labels a server's most recent discovery result.
type DiscoveryOutcome string

// Server describes one configured MCP server and its discovery outcome.
type Server struct {
	Name      string           `doc:"Configured server name"        json:"name"`
	Discovery DiscoveryOutcome `doc:"Most recent discovery outcome" json:"discovery"`
}

// ServersResponse represents the wrapped API response for the configured server list.
type ServersResponse struct {
	Body struct {
		Servers []Server `doc:"Configured MCP servers" json:"servers"`
	}
}

// ServerToolsRequest represents the incoming API request for one server's discovered tools.
type ServerToolsRequest struct {
	Name string `doc:"Name of the server to lookup tools for" example:"time" path:"name"`
}

// RegisterServerRoutes sets up the configured server endpoints.
func RegisterServerRoutes(routerAPI huma.API, directory contracts.ServerDirectory, apiPathPrefix string) {
	serversAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Servers"}

	// Add route at the root of the group (no path specified).
	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "listServers",
			Method:      http.MethodGet,
			Summary:     "List all servers",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*ServersResponse, error) {
			return handleServers(directory)
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "listServerTools",
			Method:      http.MethodGet,
			Path:        "/{name}/tools",
			Summary:     "List server tools",
			Description: "Returns the tools discovered on one configured server, before any routing-mode transformation",
			Tags:        append(tags, "Tools"),
		},
		func(ctx context.Context, input *ServerToolsRequest) (*ToolsResponse[Tool], error) {
			return handleServerTools(ctx, directory, input.Name)
		},
	)
}

// handleServers returns the configured MCP servers with their discovery outcomes.
func handleServers(directory contracts.ServerDirectory) (*ServersResponse, error) {
	status := directory.LastDiscoveryStatus()

	successful := make(map[string]struct{}, len(status.Successful))
	for _, name := range status.Successful {
		successful[name] = struct{}{}
	}
	failed := status.FailedSet()

	names := directory.ServerNames()
	servers := make([]Server, 0, len(names))
	for _, name := range names {
		outcome := DiscoveryPending
		if _, ok := successful[name]; ok {
			outcome = DiscoverySuccessful
		} else if _, ok := failed[name]; ok {
			outcome = DiscoveryFailed
		}

		servers = append(servers, Server{Name: name, Discovery: outcome})
	}

	slices.SortFunc(servers, func(a, b Server) int {
		return strings.Compare(a.Name, b.Name)
	})

	resp := &ServersResponse{}
	resp.Body.Servers = servers

	return resp, nil
}

// handleServerTools returns the discovered tools for a single configured server.
func handleServerTools(
	ctx context.Context,
	directory contracts.ServerDirectory,
	name string,
) (*ToolsResponse[Tool], error) {
	if !slices.Contains(directory.ServerNames(), name) {
		return nil, fmt.Errorf("%w: %s", errors.ErrServerNotFound, name)
	}

	listCtx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	descriptors, err := directory.DiscoverTools(listCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrToolListFailed, name, err)
	}

	tools := make([]Tool, 0, len(descriptors))
	for _, descriptor := range descriptors {
		if descriptor.ServerName != name {
			continue
		}

		data, err := domainDescriptor(descriptor).ToAPIType()
		if err != nil {
			return nil, err
		}
		tools = append(tools, data)
	}

	if len(tools) == 0 {
		// Distinguish a failed server from one that exposes nothing.
		if _, failed := directory.LastDiscoveryStatus().FailedSet()[name]; failed {
			return nil, fmt.Errorf("%w: %s", errors.ErrToolListFailed, name)
		}

		return nil, fmt.Errorf("%w: %s", errors.ErrToolsNotFound, name)
	}

	slices.SortFunc(tools, func(a, b Tool) int {
		return strings.Compare(a.Name, b.Name)
	})

	resp := &ToolsResponse[Tool]{}
	resp.Body.Tools = tools

	return resp, nil
}
