package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiscoverServers(t *testing.T) {
	t.Parallel()

	t.Run("reads servers from a manifest", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writeManifest(t, dir, "mcpServers.json", `{
			"mcpServers": {
				"notion": {
					"command": "npx",
					"args": ["-y", "@notionhq/notion-mcp-server"],
					"env": {"NOTION_TOKEN": "secret"},
					"categories": ["notes"]
				},
				"github": {
					"command": "npx",
					"args": ["-y", "@modelcontextprotocol/server-github"]
				}
			}
		}`)

		entries := DiscoverServers(path)
		require.Len(t, entries, 2)

		// Names surface in sorted order for deterministic merges.
		assert.Equal(t, "github", entries[0].Name)
		assert.Equal(t, "notion", entries[1].Name)
		assert.Equal(t, "npx", entries[1].Command)
		assert.Equal(t, []string{"-y", "@notionhq/notion-mcp-server"}, entries[1].Args)
		assert.Equal(t, map[string]string{"NOTION_TOKEN": "secret"}, entries[1].Env)
		assert.Equal(t, []string{"notes"}, entries[1].Categories)
	})

	t.Run("skips missing and malformed files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		bad := writeManifest(t, dir, "broken.json", `{"mcpServers": {`)
		good := writeManifest(t, dir, "good.json", `{"mcpServers": {"fetch": {"command": "uvx"}}}`)

		entries := DiscoverServers(filepath.Join(dir, "missing.json"), bad, good)
		require.Len(t, entries, 1)
		assert.Equal(t, "fetch", entries[0].Name)
	})

	t.Run("first manifest naming a server wins", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		first := writeManifest(t, dir, "first.json", `{"mcpServers": {"fetch": {"command": "npx"}}}`)
		second := writeManifest(t, dir, "second.json", `{"mcpServers": {"fetch": {"command": "uvx"}}}`)

		entries := DiscoverServers(first, second)
		require.Len(t, entries, 1)
		assert.Equal(t, "npx", entries[0].Command)
	})

	t.Run("entries without a command are ignored", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writeManifest(t, dir, "m.json", `{"mcpServers": {"broken": {"args": ["x"]}}}`)

		entries := DiscoverServers(path)
		assert.Empty(t, entries)
	})
}

func TestMergeServers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		explicit   []ServerEntry
		discovered []ServerEntry
		expected   []string // expected names in order
		commands   map[string]string
	}{
		{
			name:       "explicit overrides discovered by name",
			explicit:   []ServerEntry{{Name: "github", Command: "uvx"}},
			discovered: []ServerEntry{{Name: "github", Command: "npx"}, {Name: "notion", Command: "npx"}},
			expected:   []string{"github", "notion"},
			commands:   map[string]string{"github": "uvx", "notion": "npx"},
		},
		{
			name:       "discovered only",
			explicit:   nil,
			discovered: []ServerEntry{{Name: "fetch", Command: "npx"}},
			expected:   []string{"fetch"},
			commands:   map[string]string{"fetch": "npx"},
		},
		{
			name:       "explicit only",
			explicit:   []ServerEntry{{Name: "fetch", Command: "npx"}},
			discovered: nil,
			expected:   []string{"fetch"},
			commands:   map[string]string{"fetch": "npx"},
		},
		{
			name:       "both empty",
			explicit:   nil,
			discovered: nil,
			expected:   nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			merged := MergeServers(tc.explicit, tc.discovered)

			var names []string
			for _, e := range merged {
				names = append(names, e.Name)
			}
			require.Equal(t, tc.expected, names)

			for _, e := range merged {
				assert.Equal(t, tc.commands[e.Name], e.Command)
			}
		})
	}
}

func TestValidatingLoader(t *testing.T) {
	t.Parallel()

	boolPtr := func(b bool) *bool { return &b }

	t.Run("predicate failure surfaces as load error", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := createTestConfigFile(t, dir, Config{
			AutoDiscover: boolPtr(false),
			Servers:      []ServerEntry{},
		})

		loader := NewValidatingLoader(&DefaultLoader{}, RequireServers())
		_, err := loader.Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no servers configured")
	})

	t.Run("passing predicates return config", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := createTestConfigFile(t, dir, Config{
			Servers: []ServerEntry{{Name: "github", Command: "npx"}},
		})

		loader := NewValidatingLoader(&DefaultLoader{}, RequireServers())
		cfg, err := loader.Load(path)
		require.NoError(t, err)
		require.Len(t, cfg.ListServers(), 1)
	})
}
