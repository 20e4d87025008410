package daemon

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolmux/toolmux/internal/cache"
	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/domain"
)

// fakeRouter is a minimal contracts.ToolRouter for daemon tests.
type fakeRouter struct {
	mu         sync.Mutex
	mode       config.Mode
	tools      []mcp.Tool
	refreshErr error
	refreshes  int
	shutdowns  int
}

func (f *fakeRouter) Mode() config.Mode {
	if f.mode == "" {
		return config.ModeTraditional
	}
	return f.mode
}

func (f *fakeRouter) RefreshTools(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.refreshErr
}

func (f *fakeRouter) ToolList() []mcp.Tool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.tools)
}

func (f *fakeRouter) CallTool(_ context.Context, name string, _ any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(name), nil
}

func (f *fakeRouter) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdowns++
}

func (f *fakeRouter) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

func (f *fakeRouter) shutdownCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdowns
}

// fakeDirectory is a minimal contracts.ServerDirectory for daemon tests.
type fakeDirectory struct {
	mu          sync.Mutex
	names       []string
	descriptors []domain.ToolDescriptor
	status      domain.DiscoveryStatus
	pingErrs    map[string]error
	pings       map[string]int
}

func (f *fakeDirectory) DiscoverTools(_ context.Context) ([]domain.ToolDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.descriptors), nil
}

func (f *fakeDirectory) LastDiscoveryStatus() domain.DiscoveryStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeDirectory) CallTool(_ context.Context, server, tool string, _ map[string]any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(server + "/" + tool), nil
}

func (f *fakeDirectory) Shutdown() {}

func (f *fakeDirectory) ServerNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.names)
}

func (f *fakeDirectory) Ping(_ context.Context, server string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pings == nil {
		f.pings = map[string]int{}
	}
	f.pings[server]++
	return f.pingErrs[server]
}

func (f *fakeDirectory) pingCount(server string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings[server]
}

func newTestCache(t *testing.T) *cache.ResultCache {
	t.Helper()

	results, err := cache.NewResultCache(hclog.NewNullLogger())
	require.NoError(t, err)

	return results
}

// freeAddr reserves an ephemeral port and releases it for the test to bind.
func freeAddr(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	return addr
}

func TestDaemon_NewDaemon(t *testing.T) {
	t.Parallel()

	t.Run("valid dependencies", func(t *testing.T) {
		t.Parallel()

		directory := &fakeDirectory{names: []string{"time", "github"}}
		deps := validDependencies(t)
		deps.Directory = directory

		d, err := NewDaemon(deps)
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, DefaultRefreshInterval(), d.refreshInterval)
		assert.Equal(t, DefaultPingInterval(), d.pingInterval)
		assert.Equal(t, DefaultPingTimeout(), d.pingTimeout)

		// The tracker is seeded with every configured server.
		statuses := d.tracker.List()
		require.Len(t, statuses, 2)
		for _, status := range statuses {
			assert.Equal(t, domain.ServerStateUnknown, status.State)
		}
	})

	t.Run("applies options", func(t *testing.T) {
		t.Parallel()

		d, err := NewDaemon(
			validDependencies(t),
			WithRefreshInterval(time.Minute),
			WithPingInterval(10*time.Second),
			WithPingTimeout(time.Second),
		)
		require.NoError(t, err)
		assert.Equal(t, time.Minute, d.refreshInterval)
		assert.Equal(t, 10*time.Second, d.pingInterval)
		assert.Equal(t, time.Second, d.pingTimeout)
	})

	t.Run("rejects invalid dependencies", func(t *testing.T) {
		t.Parallel()

		deps := validDependencies(t)
		deps.Router = nil

		_, err := NewDaemon(deps)
		require.EqualError(t, err, "invalid dependencies for daemon: router cannot be nil")
	})

	t.Run("rejects invalid options", func(t *testing.T) {
		t.Parallel()

		_, err := NewDaemon(validDependencies(t), WithPingTimeout(0))
		require.EqualError(t, err, "invalid daemon options: ping timeout must be positive, got 0s")
	})
}

func TestDaemon_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("records per-server outcomes", func(t *testing.T) {
		t.Parallel()

		router := &fakeRouter{}
		directory := &fakeDirectory{
			names: []string{"time", "github", "notion"},
			status: domain.DiscoveryStatus{
				Successful: []string{"time", "notion"},
				Failed:     []string{"github"},
			},
		}

		deps := validDependencies(t)
		deps.Router = router
		deps.Directory = directory

		d, err := NewDaemon(deps)
		require.NoError(t, err)

		d.refresh(context.Background())

		require.Equal(t, 1, router.refreshCount())

		timeStatus, err := d.tracker.Status("time")
		require.NoError(t, err)
		assert.Equal(t, domain.ServerStateOK, timeStatus.State)

		notionStatus, err := d.tracker.Status("notion")
		require.NoError(t, err)
		assert.Equal(t, domain.ServerStateOK, notionStatus.State)

		githubStatus, err := d.tracker.Status("github")
		require.NoError(t, err)
		assert.Equal(t, domain.ServerStateFailed, githubStatus.State)
	})

	t.Run("refresh failure leaves statuses untouched", func(t *testing.T) {
		t.Parallel()

		router := &fakeRouter{refreshErr: fmt.Errorf("discovery blew up")}
		directory := &fakeDirectory{
			names:  []string{"time"},
			status: domain.DiscoveryStatus{Successful: []string{"time"}},
		}

		deps := validDependencies(t)
		deps.Router = router
		deps.Directory = directory

		d, err := NewDaemon(deps)
		require.NoError(t, err)

		d.refresh(context.Background())

		status, err := d.tracker.Status("time")
		require.NoError(t, err)
		assert.Equal(t, domain.ServerStateUnknown, status.State)
	})
}

func TestDaemon_PingServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		pingErr     error
		wantState   domain.ServerState
		wantLatency bool
	}{
		{
			name:        "successful ping records latency",
			pingErr:     nil,
			wantState:   domain.ServerStateOK,
			wantLatency: true,
		},
		{
			name:      "deadline exceeded records timeout",
			pingErr:   context.DeadlineExceeded,
			wantState: domain.ServerStateTimeout,
		},
		{
			name:      "transport error records unreachable",
			pingErr:   fmt.Errorf("connection refused"),
			wantState: domain.ServerStateUnreachable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			directory := &fakeDirectory{
				names:    []string{"time"},
				pingErrs: map[string]error{"time": tc.pingErr},
			}

			deps := validDependencies(t)
			deps.Directory = directory

			d, err := NewDaemon(deps)
			require.NoError(t, err)

			d.pingServer(context.Background(), "time")

			status, err := d.tracker.Status("time")
			require.NoError(t, err)
			assert.Equal(t, tc.wantState, status.State)

			if tc.wantLatency {
				require.NotNil(t, status.Latency)
				assert.GreaterOrEqual(t, *status.Latency, time.Duration(0))
				require.NotNil(t, status.LastSuccessful)
			} else {
				assert.Nil(t, status.Latency)
				assert.Nil(t, status.LastSuccessful)
			}

			require.NotNil(t, status.LastChecked)
		})
	}
}

func TestDaemon_PingAll(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{
		names: []string{"time", "github", "notion"},
		pingErrs: map[string]error{
			"github": fmt.Errorf("connection refused"),
		},
	}

	deps := validDependencies(t)
	deps.Directory = directory

	d, err := NewDaemon(deps)
	require.NoError(t, err)

	d.pingAll(context.Background())

	for _, name := range directory.ServerNames() {
		assert.Equal(t, 1, directory.pingCount(name), "server %s should be pinged once", name)
	}

	timeStatus, err := d.tracker.Status("time")
	require.NoError(t, err)
	assert.Equal(t, domain.ServerStateOK, timeStatus.State)

	githubStatus, err := d.tracker.Status("github")
	require.NoError(t, err)
	assert.Equal(t, domain.ServerStateUnreachable, githubStatus.State)
}

func TestDaemon_StartAndManage(t *testing.T) {
	t.Parallel()

	t.Run("graceful shutdown on context cancellation", func(t *testing.T) {
		t.Parallel()

		router := &fakeRouter{}
		directory := &fakeDirectory{
			names:  []string{"time"},
			status: domain.DiscoveryStatus{Successful: []string{"time"}},
		}

		deps := validDependencies(t)
		deps.APIAddr = freeAddr(t)
		deps.Router = router
		deps.Directory = directory

		d, err := NewDaemon(deps, WithRefreshInterval(time.Hour), WithPingInterval(time.Hour))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- d.StartAndManage(ctx)
		}()

		// The route table is primed before the API starts serving.
		require.Eventually(t, func() bool {
			return router.refreshCount() >= 1
		}, 5*time.Second, 10*time.Millisecond)

		// The API answers while the daemon is running.
		require.Eventually(t, func() bool {
			resp, err := http.Get(fmt.Sprintf("http://%s/api/v1/health", deps.APIAddr))
			if err != nil {
				return false
			}
			defer func() { _ = resp.Body.Close() }()
			return resp.StatusCode == http.StatusOK
		}, 5*time.Second, 20*time.Millisecond)

		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Fatal("daemon did not shut down in time")
		}

		assert.Equal(t, 1, router.shutdownCount())
	})

	t.Run("API bind failure is returned", func(t *testing.T) {
		t.Parallel()

		// Hold the port so ListenAndServe fails immediately.
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		t.Cleanup(func() { _ = listener.Close() })

		router := &fakeRouter{}
		deps := validDependencies(t)
		deps.APIAddr = listener.Addr().String()
		deps.Router = router

		d, err := NewDaemon(deps, WithRefreshInterval(time.Hour), WithPingInterval(time.Hour))
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			done <- d.StartAndManage(context.Background())
		}()

		select {
		case err := <-done:
			require.Error(t, err)
			assert.Contains(t, err.Error(), "address already in use")
		case <-time.After(10 * time.Second):
			t.Fatal("daemon did not fail in time")
		}

		// The engine is still released when startup fails.
		assert.Equal(t, 1, router.shutdownCount())
	})

	t.Run("background loops run on their intervals", func(t *testing.T) {
		t.Parallel()

		router := &fakeRouter{}
		directory := &fakeDirectory{
			names:  []string{"time"},
			status: domain.DiscoveryStatus{Successful: []string{"time"}},
		}

		deps := validDependencies(t)
		deps.APIAddr = freeAddr(t)
		deps.Router = router
		deps.Directory = directory

		d, err := NewDaemon(deps, WithRefreshInterval(20*time.Millisecond), WithPingInterval(20*time.Millisecond))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- d.StartAndManage(ctx)
		}()

		require.Eventually(t, func() bool {
			return router.refreshCount() >= 3 && directory.pingCount("time") >= 3
		}, 5*time.Second, 10*time.Millisecond)

		// Pings mark the server healthy.
		status, err := d.tracker.Status("time")
		require.NoError(t, err)
		assert.Equal(t, domain.ServerStateOK, status.State)

		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Fatal("daemon did not shut down in time")
		}
	})
}
