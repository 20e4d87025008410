package rank

import (
	"sync"
	"time"
)

// usageTracker remembers when each (server, tool) pair was last recorded as
// used. Records older than the retention window are purged on every write, so
// the map never grows beyond the tools used within one window.
type usageTracker struct {
	mu       sync.Mutex
	lastUsed map[string]time.Time
	window   time.Duration
	now      func() time.Time
}

func newUsageTracker(window time.Duration, now func() time.Time) *usageTracker {
	return &usageTracker{
		lastUsed: make(map[string]time.Time),
		window:   window,
		now:      now,
	}
}

// record timestamps the key and purges expired records.
func (u *usageTracker) record(key string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	u.lastUsed[key] = now

	for k, at := range u.lastUsed {
		if now.Sub(at) > u.window {
			delete(u.lastUsed, k)
		}
	}
}

// recency returns the linear decay for a key: 1.0 at the moment of use, 0.0 at
// or beyond the window, 0.0 if the key was never recorded.
func (u *usageTracker) recency(key string) float64 {
	u.mu.Lock()
	defer u.mu.Unlock()

	at, ok := u.lastUsed[key]
	if !ok {
		return 0
	}

	age := u.now().Sub(at)
	if age < 0 {
		return 1
	}
	if age >= u.window {
		return 0
	}

	return 1 - float64(age)/float64(u.window)
}
