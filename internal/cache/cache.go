// Package cache memoizes read-only tool-call results so repeated identical
// invocations within a short window skip the downstream round trip.
package cache

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"
)

// Verb patterns deciding cacheability. The mutating check runs first and wins
// when both match, so a name like set_status is never cacheable. Names
// matching neither pattern default to not-cacheable. Underscores and hyphens
// are rewritten to spaces before matching because \b does not treat an
// underscore as a word boundary, and verbs buried in compound names such as
// get_or_create_page must still be seen.
var (
	mutatingVerbs  = regexp.MustCompile(`(?i)\b(create|update|delete|send|post|put|patch|remove|add|set|modify|write|execute|run|trigger)`)
	readOnlyVerbs  = regexp.MustCompile(`(?i)\b(list|get|search|read|fetch|describe|show|find|query|status|info|check)`)
	verbSeparators = strings.NewReplacer("_", " ", "-", " ")
)

// entry is one memoized call result.
type entry struct {
	result   *mcp.CallToolResult
	storedAt time.Time

	// seq orders entries by insertion so eviction can find the oldest
	// without relying on distinct timestamps.
	seq uint64
}

// ResultCache memoizes downstream call results keyed by server, tool and
// canonicalized params. Entries expire lazily on read after the TTL, and the
// oldest insertion is evicted when a new key would exceed capacity.
// NewResultCache should be used to create instances of ResultCache.
type ResultCache struct {
	logger hclog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	seq     uint64

	enabled    bool
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	hits      uint64
	misses    uint64
	evictions uint64
}

// Stats is a point-in-time snapshot of cache state and counters.
type Stats struct {
	Enabled    bool   `json:"enabled"    yaml:"enabled"`
	Entries    int    `json:"entries"    yaml:"entries"`
	MaxEntries int    `json:"maxEntries" yaml:"maxEntries"`
	TTLMillis  int64  `json:"ttlMs"      yaml:"ttlMs"`
	Hits       uint64 `json:"hits"       yaml:"hits"`
	Misses     uint64 `json:"misses"     yaml:"misses"`
	Evictions  uint64 `json:"evictions"  yaml:"evictions"`
}

// NewResultCache creates a new result cache.
func NewResultCache(logger hclog.Logger, opts ...Option) (*ResultCache, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	options, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &ResultCache{
		logger:     logger.Named("result_cache"),
		entries:    make(map[string]*entry),
		enabled:    options.enabled,
		ttl:        options.ttl,
		maxEntries: options.maxEntries,
		now:        options.now,
	}, nil
}

// IsCacheable reports whether results for a tool name may be memoized.
// Mutating names are rejected before read-only names are considered.
func (c *ResultCache) IsCacheable(toolName string) bool {
	if !c.enabled {
		return false
	}

	name := verbSeparators.Replace(toolName)
	if mutatingVerbs.MatchString(name) {
		return false
	}

	return readOnlyVerbs.MatchString(name)
}

// Get returns the memoized result for a call, or false on a miss. An entry
// older than the TTL is evicted lazily and reported as a miss; an entry at
// exactly the TTL is still served.
func (c *ResultCache) Get(server string, tool string, params map[string]any) (*mcp.CallToolResult, bool) {
	if !c.enabled {
		return nil, false
	}

	key, err := cacheKey(server, tool, params)
	if err != nil {
		c.logger.Debug("Skipping cache lookup, params not serializable", "server", server, "tool", tool, "error", err)
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		c.evictions++
		c.logger.Debug("Evicted expired result", "server", server, "tool", tool)

		return nil, false
	}

	c.hits++

	return e.result, true
}

// Set memoizes a call result. When the key is new and the cache is full, the
// oldest-by-insertion entry is evicted first. Re-setting an existing key
// refreshes both its value and its insertion order.
func (c *ResultCache) Set(server string, tool string, params map[string]any, result *mcp.CallToolResult) {
	if !c.enabled {
		return
	}

	key, err := cacheKey(server, tool, params)
	if err != nil {
		c.logger.Debug("Skipping cache store, params not serializable", "server", server, "tool", tool, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}

	c.seq++
	c.entries[key] = &entry{
		result:   result,
		storedAt: c.now(),
		seq:      c.seq,
	}
}

// Prune eagerly removes all expired entries and reports how many were
// removed. Expiry is otherwise lazy, applied on read.
func (c *ResultCache) Prune() int {
	if !c.enabled {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}

	c.evictions += uint64(removed)
	if removed > 0 {
		c.logger.Debug("Pruned expired results", "removed", removed, "remaining", len(c.entries))
	}

	return removed
}

// Stats returns a snapshot of cache state and counters.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Enabled:    c.enabled,
		Entries:    len(c.entries),
		MaxEntries: c.maxEntries,
		TTLMillis:  c.ttl.Milliseconds(),
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
	}
}

// evictOldestLocked removes the entry with the smallest insertion sequence.
// Callers must hold c.mu.
func (c *ResultCache) evictOldestLocked() {
	var (
		oldestKey string
		oldestSeq uint64
		found     bool
	)

	for key, e := range c.entries {
		if !found || e.seq < oldestSeq {
			oldestKey = key
			oldestSeq = e.seq
			found = true
		}
	}

	if found {
		delete(c.entries, oldestKey)
		c.evictions++
		c.logger.Debug("Evicted oldest result at capacity", "max_entries", c.maxEntries)
	}
}

// cacheKey canonicalizes a call identity as the JSON encoding of
// [server, tool, params]. encoding/json writes map keys in sorted order, so
// the field order of params never affects the key.
func cacheKey(server string, tool string, params map[string]any) (string, error) {
	raw, err := json.Marshal([]any{server, tool, params})
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}

	return string(raw), nil
}
