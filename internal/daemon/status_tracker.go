package daemon

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/toolmux/toolmux/internal/contracts"
	"github.com/toolmux/toolmux/internal/domain"
	"github.com/toolmux/toolmux/internal/errors"
)

// StatusTracker keeps the latest availability observation for every configured
// server, fed by discovery passes and liveness pings.
// NewStatusTracker should be used to create instances of StatusTracker.
type StatusTracker struct {
	mu       sync.RWMutex
	statuses map[string]domain.ServerStatus
}

var _ contracts.StatusMonitor = (*StatusTracker)(nil)

// NewStatusTracker seeds a tracker with every given server in the unknown
// state, so health endpoints can report servers before first contact.
func NewStatusTracker(serverNames []string) *StatusTracker {
	statuses := make(map[string]domain.ServerStatus, len(serverNames))
	for _, name := range serverNames {
		statuses[name] = domain.ServerStatus{Name: name, State: domain.ServerStateUnknown}
	}

	return &StatusTracker{
		statuses: statuses,
	}
}

// Status returns the availability status for a single tracked server.
func (t *StatusTracker) Status(name string) (domain.ServerStatus, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if status, ok := t.statuses[name]; ok {
		return status, nil
	}

	return domain.ServerStatus{}, fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, name)
}

// List returns a copy of all known server status records.
func (t *StatusTracker) List() []domain.ServerStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return slices.Collect(maps.Values(t.statuses))
}

// Update records an observation for a tracked server.
// The current time is recorded as LastChecked, and LastSuccessful is updated only if the state is ServerStateOK.
// Latency can be nil if the probe failed or was not measured.
func (t *StatusTracker) Update(name string, state domain.ServerState, latency *time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()

	prev, exists := t.statuses[name]
	if !exists {
		return fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, name)
	}

	var lastSuccessful *time.Time
	if state == domain.ServerStateOK {
		lastSuccessful = &now
	} else {
		lastSuccessful = prev.LastSuccessful
	}

	var duration *time.Duration
	if latency != nil {
		d := *latency
		duration = &d
	}

	t.statuses[name] = domain.ServerStatus{
		Name:           name,
		State:          state,
		Latency:        duration,
		LastChecked:    &now,
		LastSuccessful: lastSuccessful,
	}

	return nil
}
