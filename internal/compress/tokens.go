package compress

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// charsPerToken is the approximate character-to-token ratio of English prose
// and JSON, good enough for savings accounting without a model tokenizer.
const charsPerToken = 4

// estimateTokens approximates the token count of text.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// estimateToolTokens approximates the tokens a tool occupies in a model
// prompt: its name, description and serialized input schema.
func estimateToolTokens(name string, description string, schema mcp.ToolInputSchema) int {
	total := estimateTokens(name) + estimateTokens(description)

	if raw, err := json.Marshal(schema); err == nil {
		total += estimateTokens(string(raw))
	}

	return total
}
