package domain

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolDescriptor is one callable tool on a downstream server, tagged with its
// owning server and that server's configured category tags. Descriptors are
// produced by discovery passes and held inside the discovery cache.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema mcp.ToolInputSchema
	ServerName  string
	Categories  []string
}

// Key returns the canonical (server, tool) identity used for usage records.
func (t ToolDescriptor) Key() string {
	return t.ServerName + "/" + t.Name
}

// DiscoveryStatus captures the per-server outcome of the most recent discovery
// pass. A server appears in exactly one of the two sets.
type DiscoveryStatus struct {
	Successful []string
	Failed     []string
}

// FailedSet returns the failed server names as a set for O(1) membership checks.
func (s DiscoveryStatus) FailedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Failed))
	for _, name := range s.Failed {
		set[name] = struct{}{}
	}
	return set
}

const (
	// RoleUser marks a message authored by the human participant.
	RoleUser = "user"

	// RoleAssistant marks a message authored by the model.
	RoleAssistant = "assistant"
)

// Message is one turn of conversational context supplied to relevance ranking.
type Message struct {
	Role    string
	Content string
}

// RelevanceScore is the ranking result for one tool. Scores are in [0,1];
// MatchType names the dominant signal ("keyword", "category", "intent",
// "history", or "neutral" for the can't-tell fallback).
type RelevanceScore struct {
	Tool      ToolDescriptor
	Score     float64
	MatchType string
}
