package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/toolmux/toolmux/internal/contracts"
	"github.com/toolmux/toolmux/internal/domain"
)

const (
	HealthStatusOK          HealthStatus = "ok"
	HealthStatusFailed      HealthStatus = "failed"
	HealthStatusTimeout     HealthStatus = "timeout"
	HealthStatusUnreachable HealthStatus = "unreachable"
	HealthStatusUnknown     HealthStatus = "unknown"
)

// DomainServerStatus is a wrapper that allows receivers to be declared in the API package that deal with domain types.
type DomainServerStatus domain.ServerStatus

// HealthStatus represents the reported availability of a particular MCP server.
type HealthStatus string

// ServerHealth is used to provide information about ongoing availability checks performed on running MCP servers.
type ServerHealth struct {
	Name           string       `json:"name"`
	Status         HealthStatus `json:"status"`
	Latency        *string      `json:"latency,omitempty"`
	LastChecked    *time.Time   `json:"lastChecked,omitempty"`
	LastSuccessful *time.Time   `json:"lastSuccessful,omitempty"`
}

// ServersHealthResponse is the response for GET /health
type ServersHealthResponse struct {
	Body struct {
		Servers []ServerHealth `doc:"Tracked MCP server health statuses" json:"servers"`
	}
}

// ServerHealthRequest represents the incoming request for obtaining ServerHealth.
type ServerHealthRequest struct {
	Name string `doc:"Name of the server to check" example:"time" path:"name"`
}

// ServerHealthResponse represents the wrapped API response for a ServerHealth.
type ServerHealthResponse struct {
	Body ServerHealth
}

var _ Convertible[ServerHealth] = DomainServerStatus{}

// ToAPIType can be used to convert a wrapped domain type to an API-safe type.
func (d DomainServerStatus) ToAPIType() (ServerHealth, error) {
	status, err := parseServerState(d.State)
	if err != nil {
		return ServerHealth{}, err
	}

	var latency *string
	if d.Latency != nil {
		s := d.Latency.String()
		latency = &s
	}

	return ServerHealth{
		Name:           d.Name,
		Status:         status,
		Latency:        latency,
		LastChecked:    d.LastChecked,
		LastSuccessful: d.LastSuccessful,
	}, nil
}

// RegisterHealthRoutes sets up health-related API endpoint routes.
func RegisterHealthRoutes(routerAPI huma.API, monitor contracts.StatusMonitor, apiPathPrefix string) {
	healthAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Health"}

	// Add route at the root of the group (no path specified).
	huma.Register(
		healthAPI,
		huma.Operation{
			OperationID: "listServersHealth",
			Method:      http.MethodGet,
			Summary:     "List the health statuses for all servers",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*ServersHealthResponse, error) {
			return handleHealthServers(monitor)
		},
	)

	huma.Register(
		healthAPI,
		huma.Operation{
			OperationID: "getServerHealth",
			Method:      http.MethodGet,
			Path:        "/servers/{name}",
			Summary:     "Get the health status of a server",
			Tags:        tags,
		},
		func(ctx context.Context, input *ServerHealthRequest) (*ServerHealthResponse, error) {
			return handleHealthServer(monitor, input.Name)
		},
	)
}

// handleHealthServers is the handler for retrieving the current health for all tracked MCP servers.
func handleHealthServers(monitor contracts.StatusMonitor) (*ServersHealthResponse, error) {
	servers := monitor.List()

	slices.SortFunc(servers, func(a, b domain.ServerStatus) int {
		return strings.Compare(a.Name, b.Name)
	})

	apiServers := make([]ServerHealth, 0, len(servers))
	for _, s := range servers {
		data, err := DomainServerStatus(s).ToAPIType()
		if err != nil {
			return nil, err
		}
		apiServers = append(apiServers, data)
	}

	resp := &ServersHealthResponse{}
	resp.Body.Servers = apiServers

	return resp, nil
}

// handleHealthServer is the handler for retrieving the current health of the specified tracked MCP server.
func handleHealthServer(monitor contracts.StatusMonitor, name string) (*ServerHealthResponse, error) {
	status, err := monitor.Status(name)
	if err != nil {
		return nil, err
	}

	data, err := DomainServerStatus(status).ToAPIType()
	if err != nil {
		return nil, err
	}

	response := ServerHealthResponse{}
	response.Body = data

	return &response, nil
}

func parseServerState(state domain.ServerState) (HealthStatus, error) {
	switch state {
	case domain.ServerStateOK:
		return HealthStatusOK, nil
	case domain.ServerStateFailed:
		return HealthStatusFailed, nil
	case domain.ServerStateTimeout:
		return HealthStatusTimeout, nil
	case domain.ServerStateUnreachable:
		return HealthStatusUnreachable, nil
	case domain.ServerStateUnknown:
		return HealthStatusUnknown, nil
	default:
		return "", fmt.Errorf("unknown server state: %s", state)
	}
}
