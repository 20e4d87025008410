package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/toolmux/toolmux/internal/compress"
	"github.com/toolmux/toolmux/internal/domain"
	"github.com/toolmux/toolmux/internal/rank"
)

// FindToolsName is the exposed name of the smart-mode discovery meta-tool.
const FindToolsName = "find_tools"

// FindToolsTool returns the descriptor of the discovery meta-tool.
func FindToolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        FindToolsName,
		Description: "Find downstream tools relevant to a need. Pass a free-text 'need' to rank matching tools, or leave it blank to browse everything available.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"need": map[string]any{
					"type":        "string",
					"description": "Free-text description of what you are trying to do.",
				},
			},
			Required: []string{},
		},
	}
}

// toolSummary is one find_tools result row.
type toolSummary struct {
	Name           string `json:"name"`
	Server         string `json:"server"`
	Description    string `json:"description"`
	Relevance      string `json:"relevance,omitempty"`
	Confidence     string `json:"confidence,omitempty"`
	MatchType      string `json:"matchType,omitempty"`
	OptionalParams string `json:"optionalParams,omitempty"`
}

// findToolsPayload is the JSON body carried inside every find_tools response
// envelope. Failures surface here as message/error fields, never as a raised
// error.
type findToolsPayload struct {
	Found          int           `json:"found"`
	Tools          []toolSummary `json:"tools"`
	TotalAvailable int           `json:"totalAvailable,omitempty"`
	Message        string        `json:"message,omitempty"`
	Hint           string        `json:"hint,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// handleFindTools runs the discovery/ranking flow. It always produces a
// response: discovery failures and empty tool sets degrade to structured
// informational payloads.
func (r *Router) handleFindTools(ctx context.Context, args any) *mcp.CallToolResult {
	need, strategy := extractNeed(args)
	logger := r.logger.With("correlation_id", uuid.NewString())
	logger.Debug("find_tools invoked", "strategy", strategy, "need", need)

	tools, err := r.source.DiscoverTools(ctx)
	if err != nil {
		logger.Warn("find_tools discovery failed", "error", err)

		return encodePayload(logger, findToolsPayload{
			Found: 0,
			Tools: []toolSummary{},
			Error: fmt.Sprintf("tool discovery failed: %v", err),
		})
	}

	if len(tools) == 0 {
		return encodePayload(logger, findToolsPayload{
			Found:   0,
			Tools:   []toolSummary{},
			Message: "No tools are available from any configured server. Check server configuration and connectivity.",
		})
	}

	if strings.TrimSpace(need) == "" {
		return r.browseAll(ctx, logger, tools)
	}

	return r.rankAndRegister(ctx, logger, need, tools)
}

// browseAll registers every discovered tool and returns a capped preview
// alongside the total count.
func (r *Router) browseAll(ctx context.Context, logger hclog.Logger, tools []domain.ToolDescriptor) *mcp.CallToolResult {
	summaries := make([]toolSummary, 0, min(len(tools), r.previewLimit))
	for i, tool := range tools {
		compressed := r.register(ctx, tool)
		if i < r.previewLimit {
			summaries = append(summaries, toolSummary{
				Name:           compressed.Name,
				Server:         compressed.Original.ServerName,
				Description:    compressed.Description,
				OptionalParams: compressed.OptionalHint,
			})
		}
	}

	logger.Debug("find_tools browse", "total", len(tools), "previewed", len(summaries))

	return encodePayload(logger, findToolsPayload{
		Found:          len(tools),
		Tools:          summaries,
		TotalAvailable: len(tools),
		Message:        fmt.Sprintf("Showing the first %d of %d available tools.", len(summaries), len(tools)),
		Hint:           "Call find_tools again with a 'need' to narrow these down, or call any listed tool directly by name.",
	})
}

// rankAndRegister scores the discovered tools against the need, registers
// the survivors, and renders them with relevance annotations. A ranking
// failure degrades to neutral scores for every tool rather than surfacing.
func (r *Router) rankAndRegister(ctx context.Context, logger hclog.Logger, need string, tools []domain.ToolDescriptor) *mcp.CallToolResult {
	messages := []domain.Message{{Role: domain.RoleUser, Content: need}}

	if r.observer != nil {
		r.observer.OnTurnStart(ctx, messages)
	}

	scores, err := r.ranker.Rank(messages, tools)
	if err != nil {
		logger.Warn("Ranking failed, degrading to neutral scores", "error", err)
		scores = neutralScores(tools)
	}

	if len(scores) == 0 {
		return encodePayload(logger, findToolsPayload{
			Found:   0,
			Tools:   []toolSummary{},
			Message: fmt.Sprintf("No tools matched '%s'.", need),
			Hint:    "Retry find_tools with different wording, or with a blank need to browse everything available.",
		})
	}

	summaries := make([]toolSummary, 0, len(scores))
	for _, score := range scores {
		compressed := r.register(ctx, score.Tool)
		summaries = append(summaries, r.rankedSummary(compressed, score))
	}

	logger.Debug("find_tools ranked", "need", need, "matches", len(summaries))

	return encodePayload(logger, findToolsPayload{
		Found: len(summaries),
		Tools: summaries,
		Hint:  "Call any of these tools directly by name with the parameters shown in its schema.",
	})
}

// register exposes one tool in the route map under its compressed name and,
// when a registrar is wired, announces names not seen before by this router.
// Registrar failures are logged, never propagated.
func (r *Router) register(ctx context.Context, tool domain.ToolDescriptor) compress.CompressedTool {
	compressed := r.compressor.Compress(tool)

	r.mu.Lock()
	r.routes[compressed.Name] = routeEntry{
		exposedName: compressed.Name,
		serverName:  tool.ServerName,
		toolName:    tool.Name,
		tool:        tool,
	}
	_, seen := r.registered[compressed.Name]
	if !seen {
		r.registered[compressed.Name] = struct{}{}
	}
	r.mu.Unlock()

	if !seen && r.registrar != nil {
		if err := r.registrar.RegisterTool(ctx, compressedToolView(compressed)); err != nil {
			r.logger.Warn("Host tool registration failed", "tool", compressed.Name, "error", err)
		}
	}

	return compressed
}

// rankedSummary renders one scored tool with its rounded relevance
// percentage and, past the configured threshold, a high-confidence marker.
func (r *Router) rankedSummary(compressed compress.CompressedTool, score domain.RelevanceScore) toolSummary {
	summary := toolSummary{
		Name:           compressed.Name,
		Server:         compressed.Original.ServerName,
		Description:    compressed.Description,
		Relevance:      fmt.Sprintf("%d%%", int(math.Round(score.Score*100))),
		MatchType:      score.MatchType,
		OptionalParams: compressed.OptionalHint,
	}
	if score.Score >= r.highConfidenceThreshold {
		summary.Confidence = "high"
	}

	return summary
}

// neutralScores renders every tool at the ranker's neutral score, used when
// ranking itself fails.
func neutralScores(tools []domain.ToolDescriptor) []domain.RelevanceScore {
	scores := make([]domain.RelevanceScore, 0, len(tools))
	for _, tool := range tools {
		scores = append(scores, domain.RelevanceScore{
			Tool:      tool,
			Score:     0.5,
			MatchType: rank.MatchTypeNeutral,
		})
	}

	return scores
}

// compressedToolView renders a compressed exposure as an MCP tool
// descriptor, folding the optional-parameter hint into the description.
func compressedToolView(compressed compress.CompressedTool) mcp.Tool {
	description := compressed.Description
	if compressed.OptionalHint != "" {
		description = fmt.Sprintf("%s (%s)", description, compressed.OptionalHint)
	}

	return mcp.Tool{
		Name:        compressed.Name,
		Description: description,
		InputSchema: compressed.InputSchema,
	}
}

// encodePayload wraps a payload as the single-text-content envelope every
// find_tools response uses.
func encodePayload(logger hclog.Logger, payload findToolsPayload) *mcp.CallToolResult {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to encode find_tools payload", "error", err)

		return mcp.NewToolResultText(`{"found":0,"tools":[],"error":"internal encoding failure"}`)
	}

	return mcp.NewToolResultText(string(raw))
}
