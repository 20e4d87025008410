package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toolmux/toolmux/internal/cmd"
	cmdopts "github.com/toolmux/toolmux/internal/cmd/options"
	"github.com/toolmux/toolmux/internal/cmd/output"
	"github.com/toolmux/toolmux/internal/compress"
	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/domain"
	"github.com/toolmux/toolmux/internal/filter"
	"github.com/toolmux/toolmux/internal/flags"
	"github.com/toolmux/toolmux/internal/printer"
)

// ToolsCmd should be used to represent the 'tools' command.
type ToolsCmd struct {
	*cmd.BaseCmd
	Need       string
	Server     string
	Categories string
	Format     cmd.OutputFormat
	cfgLoader  config.Loader
}

// NewToolsCmd creates a newly configured (Cobra) command.
func NewToolsCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &ToolsCmd{
		BaseCmd:   baseCmd,
		Format:    cmd.FormatText,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCommand := &cobra.Command{
		Use:   "tools [--need <text>]",
		Short: "Discovers downstream tools and prints the exposed tool surface",
		Long:  c.longDescription(),
		RunE:  c.run,
	}

	cobraCommand.Flags().StringVar(
		&c.Need,
		"need",
		"",
		"Free-text need to rank tools against, instead of listing everything",
	)

	cobraCommand.Flags().StringVar(
		&c.Server,
		"server",
		"",
		"Only show tools from the named server",
	)

	cobraCommand.Flags().StringVar(
		&c.Categories,
		"category",
		"",
		"Only show tools tagged with any of the comma-separated categories",
	)

	formats := cmd.AllowedOutputFormats()
	cobraCommand.Flags().Var(
		&c.Format,
		"format",
		fmt.Sprintf("Output format, one of: %s", formats.String()),
	)

	return cobraCommand, nil
}

func (c *ToolsCmd) longDescription() string {
	return `Discovers tools from every configured MCP server and prints the exposed
tool surface for the configured mode.

With --need, tools are scored against the supplied text by the relevance
ranker and only those above the configured threshold are printed, most
relevant first.`
}

// run is configured (via NewToolsCmd) to be called by the Cobra framework when the command is executed.
func (c *ToolsCmd) run(cobraCmd *cobra.Command, _ []string) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	engine, err := buildEngine(logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble aggregation engine: %w", err)
	}
	defer engine.router.Shutdown()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	handler := c.handler(cobraCmd.OutOrStdout())

	rows, err := c.collect(ctx, engine)
	if err != nil {
		return handler.HandleError(err)
	}

	return handler.HandleResults(rows...)
}

// collect gathers the output rows: every discovered tool that passes the
// server/category filters, or the ranked subset when a need was supplied.
func (c *ToolsCmd) collect(ctx context.Context, engine *engine) ([]printer.ToolsListResult, error) {
	candidates, err := engine.connector.DiscoverTools(ctx)
	if err != nil {
		return nil, err
	}

	candidates, err = c.applyFilters(candidates)
	if err != nil {
		return nil, err
	}

	need := strings.TrimSpace(c.Need)
	if need == "" {
		rows := make([]printer.ToolsListResult, 0, len(candidates))
		for _, tool := range candidates {
			rows = append(rows, toolRow(tool, 0))
		}

		return rows, nil
	}

	messages := []domain.Message{{Role: domain.RoleUser, Content: need}}
	scores, err := engine.ranker.Rank(messages, candidates)
	if err != nil {
		return nil, err
	}

	rows := make([]printer.ToolsListResult, 0, len(scores))
	for _, score := range scores {
		rows = append(rows, toolRow(score.Tool, int(math.Round(score.Score*100))))
	}

	return rows, nil
}

// applyFilters keeps the tools matching the --server and --category flags.
func (c *ToolsCmd) applyFilters(tools []domain.ToolDescriptor) ([]domain.ToolDescriptor, error) {
	filters := map[string]string{}
	if strings.TrimSpace(c.Server) != "" {
		filters["server"] = c.Server
	}
	if strings.TrimSpace(c.Categories) != "" {
		filters["category"] = c.Categories
	}
	if len(filters) == 0 {
		return tools, nil
	}

	matchers := filter.WithMatchers(map[string]filter.Predicate[domain.ToolDescriptor]{
		"server": filter.Equals(func(t domain.ToolDescriptor) string {
			return t.ServerName
		}),
		"category": filter.HasAny(func(t domain.ToolDescriptor) []string {
			return t.Categories
		}),
	})

	kept := make([]domain.ToolDescriptor, 0, len(tools))
	for _, tool := range tools {
		ok, err := filter.Match(tool, filters, matchers)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, tool)
		}
	}

	return kept, nil
}

// toolRow renders one descriptor under the name the engine would expose it as.
func toolRow(tool domain.ToolDescriptor, relevance int) printer.ToolsListResult {
	return printer.ToolsListResult{
		Name:        compress.ExposedName(tool.ServerName, tool.Name),
		Server:      tool.ServerName,
		Tool:        tool.Name,
		Description: tool.Description,
		Relevance:   relevance,
	}
}

// handler selects the output handler for the configured format.
func (c *ToolsCmd) handler(w io.Writer) output.Handler[printer.ToolsListResult] {
	switch c.Format {
	case cmd.FormatJSON:
		return output.NewJSONHandler[printer.ToolsListResult](w, 2)
	case cmd.FormatYAML:
		return output.NewYAMLHandler[printer.ToolsListResult](w, 2)
	default:
		return output.NewTextHandler[printer.ToolsListResult](w, printer.NewToolsListPrinter())
	}
}
