package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Init creates the base skeleton configuration file for the toolmux project.
func (d *DefaultLoader) Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	content := `mode = "smart"
servers = []`

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func (d *DefaultLoader) Load(path string) (Modifier, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrConfigLoadFailed)
	}

	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file cannot be found, run: 'toolmux init'", ErrConfigLoadFailed)
		}
		return nil, fmt.Errorf("%w: failed to stat config file (%s): %w", ErrConfigLoadFailed, path, err)
	}

	var cfg *Config
	_, err = toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode config from file (%s): %w", ErrConfigLoadFailed, path, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: config file is empty (%s)", ErrConfigLoadFailed, path)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: failed to validate existing config (%s): %w", ErrConfigLoadFailed, path, err)
	}

	// Update the path that loaded this file to track it.
	cfg.configFilePath = path

	return cfg, nil
}

// AddServer attempts to persist a new MCP server to the configuration file (.toolmux.toml).
func (c *Config) AddServer(entry ServerEntry) error {
	// Add server
	c.Servers = append(c.Servers, entry)

	// Validate servers
	if err := c.validate(); err != nil {
		return err
	}

	// Save
	if err := c.saveConfig(); err != nil {
		return fmt.Errorf("failed to save updated config: %w", err)
	}

	return nil
}

// RemoveServer removes a server entry by name from the configuration file (.toolmux.toml).
func (c *Config) RemoveServer(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("server name cannot be empty")
	}

	// Filter out servers matching the given name
	filtered := make([]ServerEntry, 0, len(c.Servers))
	for _, s := range c.Servers {
		if s.Name != name {
			filtered = append(filtered, s)
		}
	}

	if len(filtered) == len(c.Servers) {
		return fmt.Errorf("server '%s' not found in config", name)
	}

	c.Servers = filtered

	if err := c.validate(); err != nil {
		return err
	}

	if err := c.saveConfig(); err != nil {
		return fmt.Errorf("failed to save updated config: %w", err)
	}

	return nil
}

// ListServers returns a copy of the currently configured server entries.
// This provides read-only access to the internal configuration without exposing direct mutation of the underlying slice.
func (c *Config) ListServers() []ServerEntry {
	return slices.Clone(c.Servers)
}

// Settings resolves the configuration into a default-applied view for the engine.
// Zero or absent values resolve to their documented defaults.
func (c *Config) Settings() Settings {
	mode, err := ParseMode(c.Mode)
	if err != nil {
		// validate() rejects bad modes at load time, this covers hand-built configs.
		mode = ModeSmart
	}

	s := Settings{
		Mode:         mode,
		AutoDiscover: true,
		Analyzer: AnalyzerSettings{
			MaxToolsPerTurn:         DefaultMaxToolsPerTurn,
			RelevanceThreshold:      DefaultRelevanceThreshold,
			HighConfidenceThreshold: DefaultHighConfidenceThreshold,
		},
		Cache: CacheSettings{
			Enabled:    true,
			TTL:        DefaultCacheTTL,
			MaxEntries: DefaultCacheMaxEntries,
		},
	}

	if c.AutoDiscover != nil {
		s.AutoDiscover = *c.AutoDiscover
	}

	if a := c.Analyzer; a != nil {
		if a.MaxToolsPerTurn > 0 {
			s.Analyzer.MaxToolsPerTurn = a.MaxToolsPerTurn
		}
		if a.RelevanceThreshold > 0 {
			s.Analyzer.RelevanceThreshold = a.RelevanceThreshold
		}
		if a.HighConfidenceThreshold > 0 {
			s.Analyzer.HighConfidenceThreshold = a.HighConfidenceThreshold
		}
	}

	if cc := c.Cache; cc != nil {
		if cc.Enabled != nil {
			s.Cache.Enabled = *cc.Enabled
		}
		if cc.TTLMillis > 0 {
			s.Cache.TTL = time.Duration(cc.TTLMillis) * time.Millisecond
		}
		if cc.MaxEntries > 0 {
			s.Cache.MaxEntries = cc.MaxEntries
		}
	}

	return s
}

// SaveConfig saves the current configuration to the config file.
func (c *Config) SaveConfig() error {
	return c.saveConfig()
}

func (c *Config) saveConfig() error {
	if c.configFilePath == "" {
		return fmt.Errorf("config file path not present")
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.configFilePath, data, 0o644)
}

// validate orchestrates validation of configuration structure.
func (c *Config) validate() error {
	if _, err := ParseMode(c.Mode); err != nil {
		return err
	}

	if err := c.validateServers(); err != nil {
		return err
	}

	if a := c.Analyzer; a != nil {
		if a.MaxToolsPerTurn < 0 {
			return NewErrInvalidValue("analyzer.max_tools_per_turn", fmt.Sprintf("%d", a.MaxToolsPerTurn))
		}
		if a.RelevanceThreshold < 0 {
			return NewErrInvalidValue("analyzer.relevance_threshold", fmt.Sprintf("%v", a.RelevanceThreshold))
		}
		if a.HighConfidenceThreshold < 0 {
			return NewErrInvalidValue("analyzer.high_confidence_threshold", fmt.Sprintf("%v", a.HighConfidenceThreshold))
		}
	}

	if cc := c.Cache; cc != nil {
		if cc.TTLMillis < 0 {
			return NewErrInvalidValue("cache.ttl_ms", fmt.Sprintf("%d", cc.TTLMillis))
		}
		if cc.MaxEntries < 0 {
			return NewErrInvalidValue("cache.max_entries", fmt.Sprintf("%d", cc.MaxEntries))
		}
	}

	return nil
}

// validateServers checks the server config section to ensure there are no errors.
func (c *Config) validateServers() error {
	seen := map[string]struct{}{}

	for _, entry := range c.Servers {
		if strings.TrimSpace(entry.Name) == "" {
			return fmt.Errorf("server entry has empty name")
		}
		if strings.TrimSpace(entry.Command) == "" {
			return fmt.Errorf("server entry '%s' has empty command", entry.Name)
		}
		if _, ok := seen[entry.Name]; ok {
			return fmt.Errorf("duplicate server name '%s'", entry.Name)
		}
		seen[entry.Name] = struct{}{}
	}

	return nil
}
