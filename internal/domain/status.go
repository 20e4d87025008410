package domain

import "time"

const (
	ServerStateOK          ServerState = "ok"
	ServerStateFailed      ServerState = "failed"
	ServerStateTimeout     ServerState = "timeout"
	ServerStateUnreachable ServerState = "unreachable"
	ServerStateUnknown     ServerState = "unknown"
)

// ServerState represents the internal state of an MCP server's availability,
// as observed by discovery passes and health pings.
type ServerState string

// ServerStatus tracks the internal availability state for an MCP server.
type ServerStatus struct {
	Name           string
	State          ServerState
	Latency        *time.Duration
	LastChecked    *time.Time
	LastSuccessful *time.Time
}
