package config

import (
	"fmt"
	"strings"
	"time"
)

var (
	_ Provider = (*DefaultLoader)(nil)
	_ Modifier = (*Config)(nil)
)

const (
	// ModeSmart exposes one find_tools meta-tool plus compressed schemas.
	ModeSmart Mode = "smart"

	// ModeTraditional exposes every downstream tool directly, namespaced, with full schema.
	ModeTraditional Mode = "traditional"
)

// Mode is the router operating mode, fixed for the lifetime of a router.
type Mode string

// ParseMode normalizes and validates a mode string, returning ModeSmart for empty input.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ModeSmart, nil
	case ModeSmart:
		return ModeSmart, nil
	case ModeTraditional:
		return ModeTraditional, nil
	default:
		return "", fmt.Errorf("%w: 'mode' (value: '%s')", ErrInvalidValue, s)
	}
}

// Defaults applied when the config file omits a value.
const (
	DefaultMaxToolsPerTurn         = 5
	DefaultRelevanceThreshold      = 0.3
	DefaultHighConfidenceThreshold = 0.7
	DefaultCacheTTL                = 30 * time.Second
	DefaultCacheMaxEntries         = 100
)

type Loader interface {
	Load(path string) (Modifier, error)
}

type Initializer interface {
	Init(path string) error
}

type Provider interface {
	Initializer
	Loader
}

type Modifier interface {
	AddServer(entry ServerEntry) error
	RemoveServer(name string) error
	ListServers() []ServerEntry
	Settings() Settings
}

type DefaultLoader struct{}

// Config represents the .toolmux.toml file structure.
type Config struct {
	Mode           string          `json:"mode,omitempty"         toml:"mode,omitempty"          yaml:"mode,omitempty"`
	AutoDiscover   *bool           `json:"autoDiscover,omitempty" toml:"auto_discover,omitempty" yaml:"auto_discover,omitempty"`
	Analyzer       *AnalyzerConfig `json:"analyzer,omitempty"     toml:"analyzer,omitempty"      yaml:"analyzer,omitempty"`
	Cache          *CacheConfig    `json:"cache,omitempty"        toml:"cache,omitempty"         yaml:"cache,omitempty"`
	Servers        []ServerEntry   `json:"servers"                toml:"servers"                 yaml:"servers"`
	configFilePath string
}

// AnalyzerConfig tunes the relevance ranking applied by find_tools.
// Zero values mean "use the default".
type AnalyzerConfig struct {
	MaxToolsPerTurn         int     `json:"maxToolsPerTurn,omitempty"         toml:"max_tools_per_turn,omitempty"        yaml:"max_tools_per_turn,omitempty"`
	RelevanceThreshold      float64 `json:"relevanceThreshold,omitempty"      toml:"relevance_threshold,omitempty"       yaml:"relevance_threshold,omitempty"`
	HighConfidenceThreshold float64 `json:"highConfidenceThreshold,omitempty" toml:"high_confidence_threshold,omitempty" yaml:"high_confidence_threshold,omitempty"`
}

// CacheConfig tunes the result cache.
type CacheConfig struct {
	Enabled    *bool `json:"enabled,omitempty"    toml:"enabled,omitempty"     yaml:"enabled,omitempty"`
	TTLMillis  int64 `json:"ttlMs,omitempty"      toml:"ttl_ms,omitempty"      yaml:"ttl_ms,omitempty"`
	MaxEntries int   `json:"maxEntries,omitempty" toml:"max_entries,omitempty" yaml:"max_entries,omitempty"`
}

// ServerEntry represents the configuration of a single downstream MCP server.
type ServerEntry struct {
	// Name is the unique name/ID for the server, referenced by the user.
	// e.g. 'github'
	Name string `json:"name" toml:"name" yaml:"name"`

	// Command is the executable used to launch the server over stdio.
	// e.g. 'npx'
	Command string `json:"command" toml:"command" yaml:"command"`

	// Args are passed to the command verbatim.
	// e.g. '-y', '@modelcontextprotocol/server-github'
	Args []string `json:"args,omitempty" toml:"args,omitempty" yaml:"args,omitempty"`

	// Env captures environment variables the server process requires.
	Env map[string]string `json:"env,omitempty" toml:"env,omitempty" yaml:"env,omitempty"`

	// Categories tag the server's tools for relevance ranking.
	// e.g. 'notes', 'documents'
	Categories []string `json:"categories,omitempty" toml:"categories,omitempty" yaml:"categories,omitempty"`
}

// Settings is the resolved, default-applied view of a Config, consumed by the engine.
type Settings struct {
	Mode         Mode
	AutoDiscover bool
	Analyzer     AnalyzerSettings
	Cache        CacheSettings
}

type AnalyzerSettings struct {
	MaxToolsPerTurn         int
	RelevanceThreshold      float64
	HighConfidenceThreshold float64
}

type CacheSettings struct {
	Enabled    bool
	TTL        time.Duration
	MaxEntries int
}
