package api

import (
	"context"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolmux/toolmux/internal/domain"
	"github.com/toolmux/toolmux/internal/errors"
)

// fakeDirectory implements contracts.ServerDirectory for handler tests.
type fakeDirectory struct {
	names       []string
	descriptors []domain.ToolDescriptor
	discoverErr error
	status      domain.DiscoveryStatus
	pingErrs    map[string]error
}

func (f *fakeDirectory) DiscoverTools(_ context.Context) ([]domain.ToolDescriptor, error) {
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}

	return f.descriptors, nil
}

func (f *fakeDirectory) LastDiscoveryStatus() domain.DiscoveryStatus {
	return f.status
}

func (f *fakeDirectory) CallTool(
	_ context.Context,
	server string,
	tool string,
	_ map[string]any,
) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(server + "/" + tool), nil
}

func (f *fakeDirectory) Shutdown() {}

func (f *fakeDirectory) ServerNames() []string {
	return f.names
}

func (f *fakeDirectory) Ping(_ context.Context, server string) error {
	return f.pingErrs[server]
}

func TestHandleServers(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{
		names: []string{"time", "github", "notion"},
		status: domain.DiscoveryStatus{
			Successful: []string{"time"},
			Failed:     []string{"github"},
		},
	}

	resp, err := handleServers(directory)
	require.NoError(t, err)
	require.NotNil(t, resp)

	// Sorted by name, each carrying its discovery outcome.
	require.Len(t, resp.Body.Servers, 3)
	assert.Equal(t, Server{Name: "github", Discovery: DiscoveryFailed}, resp.Body.Servers[0])
	assert.Equal(t, Server{Name: "notion", Discovery: DiscoveryPending}, resp.Body.Servers[1])
	assert.Equal(t, Server{Name: "time", Discovery: DiscoverySuccessful}, resp.Body.Servers[2])
}

func TestHandleServers_Empty(t *testing.T) {
	t.Parallel()

	resp, err := handleServers(&fakeDirectory{})
	require.NoError(t, err)
	require.Empty(t, resp.Body.Servers)
}

func TestHandleServerTools(t *testing.T) {
	t.Parallel()

	descriptors := []domain.ToolDescriptor{
		{
			Name:        "set_alarm",
			Description: "Sets an alarm",
			InputSchema: mcp.ToolInputSchema{Type: "object"},
			ServerName:  "time",
		},
		{
			Name:        "get_current_time",
			Description: "Gets current time",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"timezone": map[string]any{"type": "string"},
				},
				Required: []string{"timezone"},
			},
			ServerName: "time",
		},
		{
			Name:        "list_issues",
			Description: "Lists issues",
			InputSchema: mcp.ToolInputSchema{Type: "object"},
			ServerName:  "github",
		},
	}

	directory := &fakeDirectory{
		names:       []string{"time", "github"},
		descriptors: descriptors,
		status:      domain.DiscoveryStatus{Successful: []string{"time", "github"}},
	}

	resp, err := handleServerTools(context.Background(), directory, "time")
	require.NoError(t, err)
	require.NotNil(t, resp)

	// Only the requested server's tools, sorted by name.
	require.Len(t, resp.Body.Tools, 2)
	assert.Equal(t, "get_current_time", resp.Body.Tools[0].Name)
	assert.Equal(t, "set_alarm", resp.Body.Tools[1].Name)

	require.NotNil(t, resp.Body.Tools[0].InputSchema)
	assert.Equal(t, []string{"timezone"}, resp.Body.Tools[0].InputSchema.Required)

	// Per-server listings carry no routing mode.
	assert.Empty(t, resp.Body.Mode)
}

func TestHandleServerTools_ServerNotFound(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{names: []string{"time"}}

	resp, err := handleServerTools(context.Background(), directory, "nonexistent")
	require.Error(t, err)
	require.Nil(t, resp)

	assert.ErrorIs(t, err, errors.ErrServerNotFound)
}

func TestHandleServerTools_DiscoveryError(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{
		names:       []string{"time"},
		discoverErr: fmt.Errorf("all transports down"),
	}

	resp, err := handleServerTools(context.Background(), directory, "time")
	require.Error(t, err)
	require.Nil(t, resp)

	assert.ErrorIs(t, err, errors.ErrToolListFailed)
}

func TestHandleServerTools_FailedServer(t *testing.T) {
	t.Parallel()

	// Discovery succeeded overall but this server contributed nothing because it failed.
	directory := &fakeDirectory{
		names: []string{"time", "github"},
		descriptors: []domain.ToolDescriptor{
			{Name: "get_current_time", ServerName: "time", InputSchema: mcp.ToolInputSchema{Type: "object"}},
		},
		status: domain.DiscoveryStatus{
			Successful: []string{"time"},
			Failed:     []string{"github"},
		},
	}

	resp, err := handleServerTools(context.Background(), directory, "github")
	require.Error(t, err)
	require.Nil(t, resp)

	assert.ErrorIs(t, err, errors.ErrToolListFailed)
}

func TestHandleServerTools_NoTools(t *testing.T) {
	t.Parallel()

	// The server is reachable, it just exposes nothing.
	directory := &fakeDirectory{
		names:  []string{"empty"},
		status: domain.DiscoveryStatus{Successful: []string{"empty"}},
	}

	resp, err := handleServerTools(context.Background(), directory, "empty")
	require.Error(t, err)
	require.Nil(t, resp)

	assert.ErrorIs(t, err, errors.ErrToolsNotFound)
}
