package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toolmux/toolmux/internal/cmd"
	cmdopts "github.com/toolmux/toolmux/internal/cmd/options"
	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/flags"
)

// AddCmd should be used to represent the 'add' command.
type AddCmd struct {
	*cmd.BaseCmd
	Command    string
	Args       []string
	Env        []string
	Categories []string
	cfgLoader  config.Loader
}

// NewAddCmd creates a newly configured (Cobra) command.
func NewAddCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &AddCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "add <server-name>",
		Short: "Adds an MCP server to the project",
		Long:  c.longDescription(),
		RunE:  c.run,
	}

	cobraCommand.Flags().StringVar(
		&c.Command,
		"command",
		"",
		"Executable used to launch the server over stdio (e.g. 'npx')",
	)

	cobraCommand.Flags().StringArrayVar(
		&c.Args,
		"arg",
		nil,
		"Argument passed to the server command verbatim (can be repeated)",
	)

	cobraCommand.Flags().StringArrayVar(
		&c.Env,
		"env",
		nil,
		"Environment variable for the server process, as KEY=VALUE (can be repeated)",
	)

	cobraCommand.Flags().StringArrayVar(
		&c.Categories,
		"category",
		nil,
		"Category tag applied to the server's tools for relevance ranking (can be repeated)",
	)

	_ = cobraCommand.MarkFlagRequired("command")

	return cobraCommand, nil
}

func (c *AddCmd) longDescription() string {
	return `Adds an MCP server to the project configuration.

The server is launched over stdio using the supplied command, arguments and
environment. Category tags feed the relevance ranker in smart mode.`
}

// run is configured (via NewAddCmd) to be called by the Cobra framework when the command is executed.
func (c *AddCmd) run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("server name is required and cannot be empty")
	}

	logger, err := c.Logger()
	if err != nil {
		return err
	}

	name := strings.TrimSpace(args[0])

	env, err := parseEnvPairs(c.Env)
	if err != nil {
		return err
	}

	entry := config.ServerEntry{
		Name:       name,
		Command:    strings.TrimSpace(c.Command),
		Args:       c.Args,
		Env:        env,
		Categories: c.Categories,
	}

	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	if err := cfg.AddServer(entry); err != nil {
		return err
	}

	logger.Debug("Server added", "name", name, "command", entry.Command)
	if _, err := fmt.Fprintf(
		cmd.OutOrStdout(),
		"✓ Added server '%s'\n", name,
	); err != nil {
		return err
	}

	return nil
}

// parseEnvPairs converts repeated KEY=VALUE flags into an environment map.
func parseEnvPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid env entry '%s', expected KEY=VALUE", pair)
		}
		env[key] = value
	}

	return env, nil
}
