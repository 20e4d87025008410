package cache

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, opts ...Option) *ResultCache {
	t.Helper()

	c, err := NewResultCache(hclog.NewNullLogger(), opts...)
	require.NoError(t, err)

	return c
}

func TestResultCache_IsCacheable(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	tests := []struct {
		name     string
		toolName string
		expected bool
	}{
		{name: "search is read-only", toolName: "search_pages", expected: true},
		{name: "list is read-only", toolName: "list_issues", expected: true},
		{name: "get is read-only", toolName: "get_user", expected: true},
		{name: "fetch with hyphens", toolName: "fetch-remote-data", expected: true},
		{name: "leading camel verb", toolName: "checkStatus", expected: true},
		{name: "create mutates", toolName: "create_page", expected: false},
		{name: "update mutates", toolName: "update_record", expected: false},
		{name: "delete mutates", toolName: "delete_branch", expected: false},
		{name: "run mutates", toolName: "run_workflow", expected: false},
		{name: "mutating verb wins over read-only", toolName: "set_status", expected: false},
		{name: "unrecognized defaults to not cacheable", toolName: "summarize", expected: false},
		{name: "embedded verb needs a boundary", toolName: "prune_index", expected: false},
		{name: "mutating verb after underscore wins", toolName: "get_or_create_page", expected: false},
		{name: "mutating verb after read-only compound", toolName: "fetch_and_delete", expected: false},
		{name: "mutating verb after hyphen wins", toolName: "search-and-replace-set", expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, c.IsCacheable(tc.toolName))
		})
	}
}

func TestResultCache_IsCacheable_Disabled(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, WithCaching(false))

	assert.False(t, c.IsCacheable("search_pages"))
}

func TestCacheKey_IgnoresParamOrder(t *testing.T) {
	t.Parallel()

	first, err := cacheKey("notion", "search_pages", map[string]any{
		"a": 1,
		"b": map[string]any{"x": true, "y": "z"},
	})
	require.NoError(t, err)

	second, err := cacheKey("notion", "search_pages", map[string]any{
		"b": map[string]any{"y": "z", "x": true},
		"a": 1,
	})
	require.NoError(t, err)

	assert.Equal(t, first, second)

	third, err := cacheKey("notion", "search_pages", map[string]any{"a": 2})
	require.NoError(t, err)
	assert.NotEqual(t, first, third)

	otherServer, err := cacheKey("github", "search_pages", map[string]any{"a": 1})
	require.NoError(t, err)
	assert.NotEqual(t, first, otherServer)
}

func TestResultCache_GetSet(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	params := map[string]any{"query": "weekly sync"}
	result := mcp.NewToolResultText("three pages found")

	_, ok := c.Get("notion", "search_pages", params)
	require.False(t, ok)

	c.Set("notion", "search_pages", params, result)

	got, ok := c.Get("notion", "search_pages", map[string]any{"query": "weekly sync"})
	require.True(t, ok)
	assert.Same(t, result, got)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestResultCache_TTLBoundary(t *testing.T) {
	t.Parallel()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	ttl := 30 * time.Second
	c := newTestCache(t, WithTTL(ttl), WithClock(clock))

	params := map[string]any{"id": "42"}
	c.Set("notion", "get_page", params, mcp.NewToolResultText("page"))

	// Exactly at the TTL the entry is still served.
	current = current.Add(ttl)
	_, ok := c.Get("notion", "get_page", params)
	require.True(t, ok)

	// One tick past the TTL it is lazily evicted.
	current = current.Add(time.Nanosecond)
	_, ok = c.Get("notion", "get_page", params)
	require.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, uint64(1), stats.Evictions)
}

func TestResultCache_EvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, WithMaxEntries(3))
	result := mcp.NewToolResultText("ok")

	for _, tool := range []string{"get_a", "get_b", "get_c"} {
		c.Set("srv", tool, nil, result)
	}
	require.Equal(t, 3, c.Stats().Entries)

	c.Set("srv", "get_d", nil, result)

	assert.Equal(t, 3, c.Stats().Entries)

	_, ok := c.Get("srv", "get_a", nil)
	assert.False(t, ok, "oldest insertion should have been evicted")

	for _, tool := range []string{"get_b", "get_c", "get_d"} {
		_, ok := c.Get("srv", tool, nil)
		assert.True(t, ok, "tool %s should still be cached", tool)
	}
}

func TestResultCache_ResettingKeyDoesNotEvict(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, WithMaxEntries(3))
	result := mcp.NewToolResultText("ok")

	for _, tool := range []string{"get_a", "get_b", "get_c"} {
		c.Set("srv", tool, nil, result)
	}

	// Overwriting an existing key at capacity evicts nothing and
	// refreshes that key's insertion order.
	c.Set("srv", "get_a", nil, mcp.NewToolResultText("newer"))
	require.Equal(t, 3, c.Stats().Entries)
	require.Zero(t, c.Stats().Evictions)

	c.Set("srv", "get_d", nil, result)

	_, ok := c.Get("srv", "get_b", nil)
	assert.False(t, ok, "get_b became the oldest insertion after get_a was refreshed")

	got, ok := c.Get("srv", "get_a", nil)
	require.True(t, ok)
	assert.Equal(t, mcp.NewToolResultText("newer"), got)
}

func TestResultCache_Prune(t *testing.T) {
	t.Parallel()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	c := newTestCache(t, WithTTL(30*time.Second), WithClock(clock))
	result := mcp.NewToolResultText("ok")

	c.Set("srv", "get_a", nil, result)
	c.Set("srv", "get_b", nil, result)

	current = current.Add(20 * time.Second)
	c.Set("srv", "get_c", nil, result)

	current = current.Add(15 * time.Second)

	removed := c.Prune()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Stats().Entries)

	_, ok := c.Get("srv", "get_c", nil)
	assert.True(t, ok)
}

func TestResultCache_Disabled(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, WithCaching(false))

	c.Set("srv", "get_a", nil, mcp.NewToolResultText("ok"))

	_, ok := c.Get("srv", "get_a", nil)
	assert.False(t, ok)
	assert.Zero(t, c.Prune())

	stats := c.Stats()
	assert.False(t, stats.Enabled)
	assert.Zero(t, stats.Entries)
}

func TestNewResultCache_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		logger      hclog.Logger
		opts        []Option
		errContains string
	}{
		{
			name:        "nil logger",
			logger:      nil,
			errContains: "logger cannot be nil",
		},
		{
			name:        "zero ttl",
			logger:      hclog.NewNullLogger(),
			opts:        []Option{WithTTL(0)},
			errContains: "TTL must be positive",
		},
		{
			name:        "negative max entries",
			logger:      hclog.NewNullLogger(),
			opts:        []Option{WithMaxEntries(-1)},
			errContains: "max entries must be positive",
		},
		{
			name:        "nil clock",
			logger:      hclog.NewNullLogger(),
			opts:        []Option{WithClock(nil)},
			errContains: "clock cannot be nil",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewResultCache(tc.logger, tc.opts...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.errContains)
		})
	}
}
