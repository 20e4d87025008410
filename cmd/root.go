// Package cmd wires the toolmux CLI: project setup (init/add/remove), the
// HTTP API daemon, the stdio MCP host, and one-shot tool inspection.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/toolmux/toolmux/internal/cmd"
	cmdopts "github.com/toolmux/toolmux/internal/cmd/options"
	"github.com/toolmux/toolmux/internal/flags"
)

// RootCmd should be used to represent the root command.
type RootCmd struct {
	*cmd.BaseCmd
}

// Execute builds and runs the root command.
func Execute() error {
	rootCmd, err := NewRootCmd()
	if err != nil {
		return err
	}

	return rootCmd.Execute()
}

// NewRootCmd creates the fully wired root command.
func NewRootCmd(opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	c := &RootCmd{
		BaseCmd: &cmd.BaseCmd{},
	}

	rootCmd := &cobra.Command{
		Use:          "toolmux <command> [args]",
		Short:        "'toolmux' aggregates MCP servers behind one tool surface.",
		Long:         c.longDescription(),
		SilenceUsage: true,
		Version:      cmd.Version(),
	}

	// Global flags
	flags.InitFlags(rootCmd.PersistentFlags())

	subCommands := []func(*cmd.BaseCmd, ...cmdopts.CmdOption) (*cobra.Command, error){
		NewInitCmd,
		NewAddCmd,
		NewRemoveCmd,
		NewServersCmd,
		NewToolsCmd,
		NewDaemonCmd,
		NewServeCmd,
	}

	for _, newCmd := range subCommands {
		subCmd, err := newCmd(c.BaseCmd, opt...)
		if err != nil {
			return nil, err
		}
		rootCmd.AddCommand(subCmd)
	}

	return rootCmd, nil
}

func (c *RootCmd) longDescription() string {
	return `toolmux aggregates many MCP servers behind one unified tool surface.

Smart mode exposes a single find_tools meta-tool plus compressed schemas for
token-frugal callers; traditional mode exposes every downstream tool directly,
namespaced, with its full schema.`
}
