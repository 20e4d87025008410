// Package compress derives token-minimized exposures of downstream tools:
// stable namespaced names, clipped descriptions, and required-only parameter
// schemas, with reverse lookup back to the original tool.
package compress

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/toolmux/toolmux/internal/domain"
	errs "github.com/toolmux/toolmux/internal/errors"
)

const (
	// maxDescriptionLength is the budget for a compressed tool description.
	maxDescriptionLength = 80

	// maxParamDescriptionLength is the budget for a compressed parameter description.
	maxParamDescriptionLength = 60

	exposedNamePrefix = "mcp"
)

// verbose schema fields stripped from kept parameters.
var strippedParamFields = []string{"examples", "pattern", "default"}

// CompressedTool is the token-minimized exposure of one downstream tool.
type CompressedTool struct {
	// Name is the derived exposed name, mcp_<server>_<tool>.
	Name string

	// Description is clipped to the first sentence and the length budget.
	Description string

	// InputSchema carries only the required parameters.
	InputSchema mcp.ToolInputSchema

	// OptionalHint names the dropped optional parameters, empty when none.
	// Callers are trusted to supply optional arguments they infer are valid
	// even though the schema no longer advertises them.
	OptionalHint string

	// Original is the uncompressed descriptor this exposure was derived from.
	Original domain.ToolDescriptor
}

// Compressor derives compressed tool exposures and remembers originals for
// reverse lookup. Safe for concurrent use.
type Compressor struct {
	logger hclog.Logger

	mu        sync.RWMutex
	originals map[string]domain.ToolDescriptor

	compressed  int
	tokensSaved int
}

// Stats reports how many tools were compressed and the estimated token savings.
type Stats struct {
	Compressed  int `json:"compressed"  yaml:"compressed"`
	TokensSaved int `json:"tokensSaved" yaml:"tokensSaved"`
}

// NewCompressor creates a Compressor.
func NewCompressor(logger hclog.Logger) (*Compressor, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Compressor{
		logger:    logger.Named("compressor"),
		originals: make(map[string]domain.ToolDescriptor),
	}, nil
}

// ExposedName derives the stable exposed name for a (server, tool) pair:
// mcp_<sanitize(server)>_<sanitize(tool)>.
func ExposedName(server string, tool string) string {
	return exposedNamePrefix + "_" + sanitize(server) + "_" + sanitize(tool)
}

// Compress derives the exposure for a tool and remembers the original under
// the exposed name for later reverse lookup. Last write wins on collision.
// Compression is deterministic: identical input yields identical output.
func (c *Compressor) Compress(tool domain.ToolDescriptor) CompressedTool {
	name := ExposedName(tool.ServerName, tool.Name)
	description := clip(tool.Description, maxDescriptionLength)
	schema, optional := minimizeSchema(tool.InputSchema)

	out := CompressedTool{
		Name:         name,
		Description:  description,
		InputSchema:  schema,
		OptionalHint: optionalHint(optional),
		Original:     tool,
	}

	saved := estimateToolTokens(tool.Name, tool.Description, tool.InputSchema) -
		estimateToolTokens(out.Name, out.Description, out.InputSchema)
	if saved < 0 {
		saved = 0
	}

	c.mu.Lock()
	c.originals[name] = tool
	c.compressed++
	c.tokensSaved += saved
	c.mu.Unlock()

	c.logger.Debug("compressed tool",
		"server", tool.ServerName,
		"tool", tool.Name,
		"exposed", name,
		"tokens_saved", saved,
	)

	return out
}

// Original reverse-looks-up the uncompressed descriptor for an exposed name.
func (c *Compressor) Original(name string) (domain.ToolDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tool, ok := c.originals[name]
	return tool, ok
}

// Decompress resolves an exposed name back to its true server and tool
// identity. Params pass through unchanged: no validation is performed, by the
// same token-economy tradeoff that drops optional parameters from schemas.
func (c *Compressor) Decompress(name string, params map[string]any) (string, string, map[string]any, error) {
	tool, ok := c.Original(name)
	if !ok {
		return "", "", nil, fmt.Errorf("%w: %s", errs.ErrCompressedToolNotFound, name)
	}

	return tool.ServerName, tool.Name, params, nil
}

// Stats returns compression counters since construction.
func (c *Compressor) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{Compressed: c.compressed, TokensSaved: c.tokensSaved}
}

// sanitize lowercases and maps every character outside [a-z0-9_] to an
// underscore, collapsing consecutive underscores.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	prevUnderscore := false
	for _, r := range strings.ToLower(s) {
		ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if ok {
			b.WriteRune(r)
			prevUnderscore = false
			continue
		}
		if !prevUnderscore {
			b.WriteByte('_')
			prevUnderscore = true
		}
	}

	return b.String()
}

// clip takes text up to the first sentence terminator, trims it, then
// hard-truncates to at most max characters at the nearest word boundary past
// the midpoint, appending an ellipsis when cut.
func clip(s string, max int) string {
	s = strings.TrimSpace(s)

	if i := strings.IndexAny(s, ".!?"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}

	if len(s) <= max {
		return s
	}

	cut := max
	if i := strings.LastIndex(s[:max+1], " "); i > max/2 {
		cut = i
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return strings.TrimSpace(s[:cut]) + "..."
}

// minimizeSchema keeps only required properties, clips their descriptions and
// strips verbose fields. It returns the minimized schema plus the names of the
// dropped optional properties, sorted.
func minimizeSchema(schema mcp.ToolInputSchema) (mcp.ToolInputSchema, []string) {
	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	out := mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]any{},
	}

	var optional []string
	for name, raw := range schema.Properties {
		if _, keep := required[name]; !keep {
			optional = append(optional, name)
			continue
		}

		out.Properties[name] = minimizeProperty(raw)
		out.Required = append(out.Required, name)
	}

	sort.Strings(out.Required)
	sort.Strings(optional)

	return out, optional
}

// minimizeProperty clips the property description and strips verbose fields.
// Non-map property definitions pass through untouched.
func minimizeProperty(raw any) any {
	prop, ok := raw.(map[string]any)
	if !ok {
		return raw
	}

	kept := make(map[string]any, len(prop))
	for k, v := range prop {
		kept[k] = v
	}

	if desc, ok := kept["description"].(string); ok {
		kept["description"] = clip(desc, maxParamDescriptionLength)
	}

	for _, field := range strippedParamFields {
		delete(kept, field)
	}

	return kept
}

// optionalHint renders dropped optional parameter names for humans.
func optionalHint(optional []string) string {
	if len(optional) == 0 {
		return ""
	}
	return "Optional params: " + strings.Join(optional, ", ")
}
