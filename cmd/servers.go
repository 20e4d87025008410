package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/toolmux/toolmux/internal/cmd"
	cmdopts "github.com/toolmux/toolmux/internal/cmd/options"
	"github.com/toolmux/toolmux/internal/cmd/output"
	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/flags"
	"github.com/toolmux/toolmux/internal/printer"
)

// ServersCmd should be used to represent the 'servers' command.
type ServersCmd struct {
	*cmd.BaseCmd
	Format    cmd.OutputFormat
	cfgLoader config.Loader
}

// NewServersCmd creates a newly configured (Cobra) command.
func NewServersCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &ServersCmd{
		BaseCmd:   baseCmd,
		Format:    cmd.FormatText,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "servers",
		Short: "Lists the MCP servers the engine would aggregate",
		Long: "Lists the configured MCP servers merged with any auto-discovered manifest entries, " +
			"exactly as the aggregation engine would see them",
		RunE: c.run,
	}

	formats := cmd.AllowedOutputFormats()
	cobraCommand.Flags().Var(
		&c.Format,
		"format",
		fmt.Sprintf("Output format, one of: %s", formats.String()),
	)

	return cobraCommand, nil
}

// run is configured (via NewServersCmd) to be called by the Cobra framework when the command is executed.
func (c *ServersCmd) run(cobraCmd *cobra.Command, _ []string) error {
	if _, err := c.Logger(); err != nil {
		return err
	}

	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	servers := cfg.ListServers()
	if cfg.Settings().AutoDiscover {
		discovered := config.DiscoverServers(config.DefaultManifestPaths()...)
		servers = config.MergeServers(servers, discovered)
	}

	rows := make([]printer.ServerResult, 0, len(servers))
	for _, entry := range servers {
		rows = append(rows, printer.NewServerResult(entry))
	}

	return c.handler(cobraCmd.OutOrStdout()).HandleResults(rows...)
}

// handler selects the output handler for the configured format.
func (c *ServersCmd) handler(w io.Writer) output.Handler[printer.ServerResult] {
	switch c.Format {
	case cmd.FormatJSON:
		return output.NewJSONHandler[printer.ServerResult](w, 2)
	case cmd.FormatYAML:
		return output.NewYAMLHandler[printer.ServerResult](w, 2)
	default:
		return output.NewTextHandler[printer.ServerResult](w, printer.NewServerResultsPrinter())
	}
}
