package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// manifest mirrors the Claude-style server manifest shape shared by common MCP clients:
// {"mcpServers": {"<name>": {"command": ..., "args": [...], "env": {...}}}}
type manifest struct {
	MCPServers map[string]manifestServer `json:"mcpServers"`
}

type manifestServer struct {
	Command    string            `json:"command"`
	Args       []string          `json:"args,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	Categories []string          `json:"categories,omitempty"`
}

// DefaultManifestPaths returns the well-known locations probed during auto-discovery,
// project-local paths first, then user-level ones.
func DefaultManifestPaths() []string {
	paths := []string{
		"mcpServers.json",
		".mcp.json",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".toolmux", "mcpServers.json"),
			filepath.Join(home, ".config", "Claude", "claude_desktop_config.json"),
		)
	}

	return paths
}

// DiscoverServers reads every readable manifest at the given paths and returns the
// server entries found. Missing or malformed files are skipped without error, so a
// broken user-level manifest never blocks startup. The first manifest naming a
// server wins; later manifests cannot override it.
func DiscoverServers(paths ...string) []ServerEntry {
	seen := map[string]struct{}{}
	var entries []ServerEntry

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var m manifest
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}

		names := make([]string, 0, len(m.MCPServers))
		for name := range m.MCPServers {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if _, dup := seen[name]; dup {
				continue
			}
			s := m.MCPServers[name]
			if s.Command == "" {
				continue
			}
			seen[name] = struct{}{}
			entries = append(entries, ServerEntry{
				Name:       name,
				Command:    s.Command,
				Args:       s.Args,
				Env:        s.Env,
				Categories: s.Categories,
			})
		}
	}

	return entries
}

// MergeServers combines explicit config entries with auto-discovered ones.
// Explicit entries override discovered entries by name and keep their configured
// order; discovered extras follow in the order discovery produced them.
func MergeServers(explicit, discovered []ServerEntry) []ServerEntry {
	merged := make([]ServerEntry, 0, len(explicit)+len(discovered))
	seen := make(map[string]struct{}, len(explicit))

	for _, e := range explicit {
		merged = append(merged, e)
		seen[e.Name] = struct{}{}
	}

	for _, d := range discovered {
		if _, overridden := seen[d.Name]; overridden {
			continue
		}
		merged = append(merged, d)
	}

	return merged
}
