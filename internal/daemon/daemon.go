// Package daemon runs the long-lived aggregation process: it serves the HTTP
// API, keeps the route table fresh by periodically rediscovering downstream
// tools, and tracks upstream server health via pings.
package daemon

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/toolmux/toolmux/internal/contracts"
	"github.com/toolmux/toolmux/internal/domain"
)

// Daemon owns the background loops and the API server for a running
// aggregation engine. NewDaemon should be used to create instances of Daemon.
type Daemon struct {
	logger    hclog.Logger
	apiServer *APIServer
	router    contracts.ToolRouter
	directory contracts.ServerDirectory
	tracker   *StatusTracker

	refreshInterval time.Duration
	pingInterval    time.Duration
	pingTimeout     time.Duration
}

// NewDaemon creates a Daemon with the provided dependencies and options.
// The status tracker is seeded with every configured server so health routes
// report 'unknown' rather than 404 before the first ping completes.
func NewDaemon(deps Dependencies, opt ...Option) (*Daemon, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for daemon: %w", err)
	}

	options, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid daemon options: %w", err)
	}

	tracker := NewStatusTracker(deps.Directory.ServerNames())

	apiDeps, err := NewAPIDependencies(
		deps.Logger,
		deps.Router,
		deps.Directory,
		tracker,
		deps.Results,
		deps.APIAddr,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API server dependencies: %w", err)
	}

	apiServer, err := NewAPIServer(apiDeps, options.APIOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon API server: %w", err)
	}

	return &Daemon{
		logger:          deps.Logger.Named("daemon"),
		apiServer:       apiServer,
		router:          deps.Router,
		directory:       deps.Directory,
		tracker:         tracker,
		refreshInterval: options.RefreshInterval,
		pingInterval:    options.PingInterval,
		pingTimeout:     options.PingTimeout,
	}, nil
}

// StartAndManage runs the API server and background loops until the context
// is canceled or one of them fails. The route table is primed before the API
// starts serving so the first request never sees an empty tool list.
func (d *Daemon) StartAndManage(ctx context.Context) error {
	d.refresh(ctx)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.apiServer.Start(ctx)
	})

	g.Go(func() error {
		return d.refreshLoop(ctx)
	})

	g.Go(func() error {
		return d.pingLoop(ctx)
	})

	err := g.Wait()

	d.logger.Info("Shutting down aggregation engine")
	d.router.Shutdown()

	// Cancellation is the normal shutdown path, not a failure.
	if err != nil && !stdErrors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

// refreshLoop periodically rediscovers downstream tools and swaps the route table.
func (d *Daemon) refreshLoop(ctx context.Context) error {
	ticker := time.NewTicker(d.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Stopping tool refresh loop")
			return ctx.Err()
		case <-ticker.C:
			d.refresh(ctx)
		}
	}
}

// refresh performs a single rediscovery pass and records per-server outcomes
// in the status tracker. Failures are logged, never fatal: a refresh that
// loses some servers keeps serving the tools of the ones that answered.
func (d *Daemon) refresh(ctx context.Context) {
	logger := d.logger.With("correlation_id", uuid.NewString())
	logger.Debug("Refreshing tools from upstream servers")

	if err := d.router.RefreshTools(ctx); err != nil {
		logger.Error("Tool refresh failed", "error", err)
		return
	}

	status := d.directory.LastDiscoveryStatus()
	for _, name := range status.Successful {
		if err := d.tracker.Update(name, domain.ServerStateOK, nil); err != nil {
			logger.Warn("Failed to record server status", "server", name, "error", err)
		}
	}
	for _, name := range status.Failed {
		if err := d.tracker.Update(name, domain.ServerStateFailed, nil); err != nil {
			logger.Warn("Failed to record server status", "server", name, "error", err)
		}
	}

	logger.Info(
		"Tool refresh complete",
		"tools", len(d.router.ToolList()),
		"successful", len(status.Successful),
		"failed", len(status.Failed),
	)
}

// pingLoop periodically pings every configured server, starting immediately
// so health state is populated soon after boot.
func (d *Daemon) pingLoop(ctx context.Context) error {
	ticker := time.NewTicker(d.pingInterval)
	defer ticker.Stop()

	d.pingAll(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Stopping MCP server health checks")
			return ctx.Err()
		case <-ticker.C:
			d.pingAll(ctx)
		}
	}
}

// pingAll pings all configured servers concurrently and waits for the slowest
// one, bounded by the per-ping timeout.
func (d *Daemon) pingAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, name := range d.directory.ServerNames() {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			d.pingServer(ctx, name)
		}(name)
	}
	wg.Wait()
}

// pingServer pings a single server and records the observed state.
// Timeouts are distinguished from other transport failures so operators can
// tell a slow server from a dead one.
func (d *Daemon) pingServer(ctx context.Context, name string) {
	pingCtx, cancel := context.WithTimeout(ctx, d.pingTimeout)
	defer cancel()

	start := time.Now()
	err := d.directory.Ping(pingCtx, name)
	latency := time.Since(start)

	var state domain.ServerState
	var observed *time.Duration

	switch {
	case err == nil:
		state = domain.ServerStateOK
		observed = &latency
		d.logger.Debug("Ping successful", "server", name, "latency", latency)
	case stdErrors.Is(err, context.DeadlineExceeded):
		state = domain.ServerStateTimeout
		d.logger.Warn("Ping timed out", "server", name, "timeout", d.pingTimeout)
	default:
		state = domain.ServerStateUnreachable
		d.logger.Warn("Ping failed", "server", name, "error", err)
	}

	if updateErr := d.tracker.Update(name, state, observed); updateErr != nil {
		d.logger.Warn("Failed to record server status", "server", name, "error", updateErr)
	}
}
