package api

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/toolmux/toolmux/internal/aggregator"
	"github.com/toolmux/toolmux/internal/contracts"
	"github.com/toolmux/toolmux/internal/domain"
	"github.com/toolmux/toolmux/internal/errors"
)

const (
	// queryParamDetail is the name of the query parameter for detail level selection.
	queryParamDetail = "detail"

	// toolDetailFull returns all fields including input schemas.
	toolDetailFull toolDetailLevel = "full"

	// toolDetailMinimal returns only the exposed name.
	toolDetailMinimal toolDetailLevel = "minimal"

	// toolDetailSummary returns name and description.
	toolDetailSummary toolDetailLevel = "summary"
)

// upstreamTimeout bounds handlers that reach downstream MCP servers.
const upstreamTimeout = 15 * time.Second

// toolDetailLevel defines the amount of information to return about tools.
type toolDetailLevel string

// ToolView is a union constraint for all tool view types.
// This ensures type safety when using generic ToolsResponse.
type ToolView interface {
	ToolMinimal | ToolSummary | Tool
}

// ToolsResponseBody represents the body of a tools response. Mode is set only
// on the aggregated listing; per-server listings omit it.
type ToolsResponseBody[T ToolView] struct {
	Mode  string `doc:"Routing mode that produced this listing" json:"mode,omitempty"`
	Tools []T    `json:"tools"`
}

// ToolsResponse represents a generic wrapped API response for tool collections.
// The type parameter T must be one of the ToolView types (ToolMinimal, ToolSummary, or Tool).
type ToolsResponse[T ToolView] struct {
	Body ToolsResponseBody[T]
}

// ToolMinimal represents minimal tool information, the exposed name only.
type ToolMinimal struct {
	// Name is the exposed name of the tool, routable via the call endpoint.
	Name string `doc:"Exposed name of the tool" json:"name"`
}

// ToolSummary represents summary tool information including name and description.
type ToolSummary struct {
	ToolMinimal

	// Description is a human-readable description of the tool.
	Description string `doc:"Description of what the tool does" json:"description"`
}

// Tool represents complete tool information including the input schema.
// This embeds ToolSummary (which embeds ToolMinimal) providing a full tool definition.
type Tool struct {
	ToolSummary

	// InputSchema is JSONSchema defining the expected parameters for the tool.
	InputSchema *JSONSchema `doc:"Input parameters schema" json:"inputSchema,omitempty"`
}

// JSONSchema defines the structure for a JSON schema object.
type JSONSchema struct {
	// Type defines the type for this schema, e.g. "object".
	Type string `json:"type"`

	// Properties represents a property name and associated object definition.
	Properties map[string]any `json:"properties,omitempty"`

	// Required lists the (keys of) Properties that are required.
	Required []string `json:"required,omitempty"`
}

// ToolCallRequest represents the incoming API request to call an exposed tool.
type ToolCallRequest struct {
	Name string         `doc:"Exposed name of the tool to call" example:"mcp_time_get_current_time" path:"name"`
	Body map[string]any `doc:"Parameters for the tool call"`
}

// ToolCallResponse represents the wrapped API response for calling a tool.
// The body carries the first text content item of the tool result.
type ToolCallResponse struct {
	Body string
}

// FindToolsRequest represents the incoming API request for relevance-ranked
// tool discovery. A blank need browses everything available.
type FindToolsRequest struct {
	Body struct {
		Need string `doc:"Natural-language description of the needed capability" example:"create a calendar event" json:"need,omitempty"`
	}
}

// FindToolsResponse carries the find_tools result payload as JSON text.
type FindToolsResponse struct {
	Body string
}

// RefreshResponse reports the outcome of a forced discovery refresh.
type RefreshResponse struct {
	Body RefreshResult
}

// RefreshResult summarises one discovery pass.
type RefreshResult struct {
	Successful []string `doc:"Servers whose tool listings refreshed" json:"successful"`
	Failed     []string `doc:"Servers that failed discovery"         json:"failed"`
	Tools      int      `doc:"Exposed tool count after the refresh"  json:"tools"`
}

// domainTool wraps mcp.Tool for conversion to the full Tool view.
type domainTool mcp.Tool

// domainDescriptor wraps domain.ToolDescriptor for conversion to the full Tool view.
type domainDescriptor domain.ToolDescriptor

var (
	_ Convertible[Tool] = domainTool{}
	_ Convertible[Tool] = domainDescriptor{}
)

// Normalize handles case-insensitivity and trimming, providing a safe default.
func (t toolDetailLevel) Normalize() toolDetailLevel {
	normalized := toolDetailLevel(strings.ToLower(strings.TrimSpace(string(t))))
	switch normalized {
	case toolDetailMinimal, toolDetailSummary, toolDetailFull:
		return normalized
	default:
		return toolDetailFull // Safe default.
	}
}

// ToAPIType converts a wrapped exposed tool to the full Tool view.
func (d domainTool) ToAPIType() (Tool, error) {
	var schema *JSONSchema
	if d.InputSchema.Type != "" {
		schema = &JSONSchema{
			Type:       d.InputSchema.Type,
			Properties: d.InputSchema.Properties,
			Required:   d.InputSchema.Required,
		}
	}

	return Tool{
		ToolSummary: ToolSummary{
			ToolMinimal: ToolMinimal{Name: d.Name},
			Description: d.Description,
		},
		InputSchema: schema,
	}, nil
}

// ToAPIType converts a wrapped discovery descriptor to the full Tool view.
func (d domainDescriptor) ToAPIType() (Tool, error) {
	var schema *JSONSchema
	if d.InputSchema.Type != "" {
		schema = &JSONSchema{
			Type:       d.InputSchema.Type,
			Properties: d.InputSchema.Properties,
			Required:   d.InputSchema.Required,
		}
	}

	return Tool{
		ToolSummary: ToolSummary{
			ToolMinimal: ToolMinimal{Name: d.Name},
			Description: d.Description,
		},
		InputSchema: schema,
	}, nil
}

// RegisterToolRoutes sets up the tool listing, calling and discovery endpoints
// served by the aggregation engine.
func RegisterToolRoutes(routerAPI huma.API, engine contracts.ToolRouter, apiPathPrefix string) {
	toolsAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Tools"}

	// Add route at the root of the group (no path specified).
	huma.Register(
		toolsAPI,
		huma.Operation{
			OperationID: "listExposedTools",
			Method:      http.MethodGet,
			Summary:     "List exposed tools",
			Description: "Returns the tools exposed for the active routing mode with configurable detail level via ?detail= query parameter (minimal, summary, full)",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*ToolsResponse[Tool], error) {
			return handleExposedTools(engine)
		},
	)

	huma.Register(
		toolsAPI,
		huma.Operation{
			OperationID: "callTool",
			Method:      http.MethodPost,
			Path:        "/{name}/call",
			Summary:     "Call an exposed tool",
			Tags:        tags,
		},
		func(ctx context.Context, input *ToolCallRequest) (*ToolCallResponse, error) {
			return handleToolCall(ctx, engine, input.Name, input.Body)
		},
	)

	huma.Register(
		toolsAPI,
		huma.Operation{
			OperationID: "findTools",
			Method:      http.MethodPost,
			Path:        "/find",
			Summary:     "Find tools matching a need",
			Description: "Runs relevance-ranked discovery over downstream tools. Only available in smart routing mode.",
			Tags:        tags,
		},
		func(ctx context.Context, input *FindToolsRequest) (*FindToolsResponse, error) {
			return handleFindTools(ctx, engine, input.Body.Need)
		},
	)
}

// RegisterRefreshRoute sets up the forced discovery refresh endpoint.
func RegisterRefreshRoute(routerAPI huma.API, engine contracts.ToolRouter, directory contracts.ServerDirectory, path string) {
	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "refreshTools",
			Method:      http.MethodPost,
			Path:        path,
			Summary:     "Force a tool discovery refresh",
			Tags:        []string{"Tools"},
		},
		func(ctx context.Context, _ *struct{}) (*RefreshResponse, error) {
			return handleRefresh(ctx, engine, directory)
		},
	)
}

// handleExposedTools returns the exposed tool list for the active routing mode.
func handleExposedTools(engine contracts.ToolRouter) (*ToolsResponse[Tool], error) {
	listed := engine.ToolList()

	tools := make([]Tool, 0, len(listed))
	for _, tool := range listed {
		data, err := domainTool(tool).ToAPIType()
		if err != nil {
			return nil, err
		}
		tools = append(tools, data)
	}

	resp := &ToolsResponse[Tool]{}
	resp.Body.Mode = string(engine.Mode())
	resp.Body.Tools = tools

	return resp, nil
}

// handleToolCall dispatches a call to an exposed tool by name.
func handleToolCall(
	ctx context.Context,
	engine contracts.ToolRouter,
	name string,
	params map[string]any,
) (*ToolCallResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	result, err := engine.CallTool(callCtx, name, params)
	switch {
	case stderrs.Is(err, errors.ErrToolNotFound):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrToolCallFailed, name, err)
	case result == nil:
		return nil, fmt.Errorf("%w: %s: result was nil", errors.ErrToolCallFailedUnknown, name)
	case result.IsError:
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrToolCallFailed, name, extractMessage(result.Content))
	}

	resp := &ToolCallResponse{}
	resp.Body = extractMessage(result.Content)

	return resp, nil
}

// handleFindTools runs relevance-ranked discovery through the engine's
// find_tools meta-tool and returns its JSON payload verbatim.
func handleFindTools(ctx context.Context, engine contracts.ToolRouter, need string) (*FindToolsResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	result, err := engine.CallTool(callCtx, aggregator.FindToolsName, map[string]any{"need": need})
	switch {
	case stderrs.Is(err, errors.ErrToolNotFound):
		// Traditional mode does not expose find_tools.
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrToolCallFailed, aggregator.FindToolsName, err)
	case result == nil:
		return nil, fmt.Errorf("%w: %s: result was nil", errors.ErrToolCallFailedUnknown, aggregator.FindToolsName)
	}

	resp := &FindToolsResponse{}
	resp.Body = extractMessage(result.Content)

	return resp, nil
}

// handleRefresh forces a discovery pass and reports the per-server outcome.
func handleRefresh(
	ctx context.Context,
	engine contracts.ToolRouter,
	directory contracts.ServerDirectory,
) (*RefreshResponse, error) {
	refreshCtx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	if err := engine.RefreshTools(refreshCtx); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrToolListFailed, err)
	}

	status := directory.LastDiscoveryStatus()

	resp := &RefreshResponse{}
	resp.Body = RefreshResult{
		Successful: emptyIfNil(status.Successful),
		Failed:     emptyIfNil(status.Failed),
		Tools:      len(engine.ToolList()),
	}

	return resp, nil
}

// emptyIfNil keeps refresh result sets serialising as [] rather than null.
func emptyIfNil(names []string) []string {
	if names == nil {
		return []string{}
	}

	return names
}

// extractMessage attempts to extract a single message from content that is returned from a tool call.
func extractMessage(content []mcp.Content) string {
	message := ""
	if len(content) == 0 {
		return message
	}

	// The mcp-go library returns a slice of content items. For most tools, this will be a single text item.
	for _, c := range content {
		if tc, ok := c.(mcp.TextContent); ok {
			// We will return the text from the first text content item we find.
			return tc.Text
		}
	}

	return message
}

// toolFieldSelectTransformer transforms tool responses based on the detail query parameter.
// It filters the response to return only the requested level of detail: minimal, summary, or full.
func toolFieldSelectTransformer(ctx huma.Context, _ string, v any) (any, error) {
	detailParam := ctx.Query(queryParamDetail)
	if detailParam == "" {
		detailParam = string(toolDetailFull)
	}

	detail := toolDetailLevel(detailParam).Normalize()
	if detail == toolDetailFull {
		return v, nil
	}

	// Handle ToolsResponseBody[Tool].
	// Huma passes the Body field to transformers, not the full response.
	body, ok := v.(ToolsResponseBody[Tool])
	if !ok {
		return v, nil // Not our type, pass through.
	}

	// Project each tool onto the requested detail level.
	switch detail {
	case toolDetailMinimal:
		minimal := make([]ToolMinimal, len(body.Tools))
		for i, tool := range body.Tools {
			minimal[i] = tool.ToolMinimal
		}
		return ToolsResponseBody[ToolMinimal]{Mode: body.Mode, Tools: minimal}, nil

	case toolDetailSummary:
		summary := make([]ToolSummary, len(body.Tools))
		for i, tool := range body.Tools {
			summary[i] = tool.ToolSummary
		}
		return ToolsResponseBody[ToolSummary]{Mode: body.Mode, Tools: summary}, nil

	default:
		// Shouldn't reach here due to Normalize(), but pass through as safety.
		return v, nil
	}
}
