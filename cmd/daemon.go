package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toolmux/toolmux/internal/cmd"
	cmdopts "github.com/toolmux/toolmux/internal/cmd/options"
	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/daemon"
	"github.com/toolmux/toolmux/internal/flags"
)

// DaemonCmd should be used to represent the 'daemon' command.
type DaemonCmd struct {
	*cmd.BaseCmd
	Addr      string
	cfgLoader config.Loader
}

// NewDaemonCmd creates a newly configured (Cobra) command.
func NewDaemonCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &DaemonCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "daemon [--addr]",
		Short: "Launches a `toolmux` daemon instance",
		Long: "Launches a `toolmux` daemon instance, which aggregates the configured MCP servers " +
			"and provides routing via HTTP API",
		RunE: c.run,
	}

	cobraCommand.Flags().StringVar(
		&c.Addr,
		"addr",
		flags.APIAddr(),
		"Address for the daemon API to bind",
	)

	return cobraCommand, nil
}

// run is configured (via NewDaemonCmd) to be called by the Cobra framework when the command is executed.
func (c *DaemonCmd) run(_ *cobra.Command, _ []string) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	addr := strings.TrimSpace(c.Addr)

	loader := config.NewValidatingLoader(c.cfgLoader, config.RequireServers())
	cfg, err := loader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	engine, err := buildEngine(logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble aggregation engine: %w", err)
	}

	deps, err := daemon.NewDependencies(logger, addr, engine.router, engine.connector, engine.results)
	if err != nil {
		return fmt.Errorf("error configuring toolmux daemon: %w", err)
	}

	d, err := daemon.NewDaemon(deps)
	if err != nil {
		return fmt.Errorf("failed to create toolmux daemon instance: %w", err)
	}

	// Create the signal handling context for the application.
	daemonCtx, daemonCtxCancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer daemonCtxCancel()

	runErr := make(chan error, 1)
	go func() {
		if err := d.StartAndManage(daemonCtx); err != nil && !errors.Is(err, context.Canceled) {
			runErr <- err
		}
		close(runErr)
	}()

	select {
	case <-daemonCtx.Done():
		logger.Info("Shutting down daemon")
		err := <-runErr // Wait for cleanup and deferred logging.
		return err      // Graceful Ctrl+C / SIGTERM.
	case err := <-runErr:
		logger.Error("daemon exited with error", "error", err)
		return err // Propagate daemon failure.
	}
}
