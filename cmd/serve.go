package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toolmux/toolmux/internal/aggregator"
	"github.com/toolmux/toolmux/internal/cmd"
	cmdopts "github.com/toolmux/toolmux/internal/cmd/options"
	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/flags"
	"github.com/toolmux/toolmux/internal/host"
)

// ServeCmd should be used to represent the 'serve' command.
type ServeCmd struct {
	*cmd.BaseCmd
	cfgLoader config.Loader
}

// NewServeCmd creates a newly configured (Cobra) command.
func NewServeCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &ServeCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "serve",
		Short: "Serves the aggregated tool surface as an MCP server over stdio",
		Long:  c.longDescription(),
		RunE:  c.run,
	}

	return cobraCommand, nil
}

func (c *ServeCmd) longDescription() string {
	return `Serves the aggregated tool surface as a single MCP server over stdio.

A connected MCP client sees one tool surface for every configured downstream
server. Logging stays off stdout; set --log-path to capture logs.`
}

// run is configured (via NewServeCmd) to be called by the Cobra framework when the command is executed.
func (c *ServeCmd) run(_ *cobra.Command, _ []string) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	loader := config.NewValidatingLoader(c.cfgLoader, config.RequireServers())
	cfg, err := loader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	h, err := host.NewHost(logger)
	if err != nil {
		return fmt.Errorf("failed to create stdio host: %w", err)
	}

	// The host registers as the router's tool registrar so smart mode can
	// announce newly surfaced tools to the connected client mid-session.
	engine, err := buildEngine(logger, cfg, aggregator.WithToolRegistrar(h))
	if err != nil {
		return fmt.Errorf("failed to assemble aggregation engine: %w", err)
	}

	serveCtx, serveCtxCancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer serveCtxCancel()

	return h.Serve(serveCtx, engine.router)
}
