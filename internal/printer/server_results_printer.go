package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/toolmux/toolmux/internal/cmd/output"
	"github.com/toolmux/toolmux/internal/config"
)

var _ output.Printer[ServerResult] = (*ServerResultsPrinter)(nil)

// ServerResult is one configured server row in CLI output.
type ServerResult struct {
	Name       string   `json:"name"                 yaml:"name"`
	Command    string   `json:"command"              yaml:"command"`
	Args       []string `json:"args,omitempty"       yaml:"args,omitempty"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// NewServerResult converts a config entry into its CLI row.
func NewServerResult(entry config.ServerEntry) ServerResult {
	return ServerResult{
		Name:       entry.Name,
		Command:    entry.Command,
		Args:       entry.Args,
		Categories: entry.Categories,
	}
}

// ServerResultsPrinter renders configured server rows as text.
type ServerResultsPrinter struct {
	headerFunc output.WriteFunc[ServerResult]
	footerFunc output.WriteFunc[ServerResult]
}

// NewServerResultsPrinter creates a printer with the default header.
func NewServerResultsPrinter() *ServerResultsPrinter {
	p := &ServerResultsPrinter{}
	p.SetHeader(func(w io.Writer, count int) {
		_, _ = fmt.Fprintf(w, "Configured servers (%d total):\n", count)
	})

	return p
}

func (p *ServerResultsPrinter) Header(w io.Writer, count int) {
	if p.headerFunc != nil {
		p.headerFunc(w, count)
	}
}

func (p *ServerResultsPrinter) SetHeader(fn output.WriteFunc[ServerResult]) {
	p.headerFunc = fn
}

func (p *ServerResultsPrinter) Item(w io.Writer, result ServerResult) error {
	command := result.Command
	if len(result.Args) > 0 {
		command = fmt.Sprintf("%s %s", command, strings.Join(result.Args, " "))
	}

	_, _ = fmt.Fprintf(w, "  %s: %s\n", result.Name, command)

	if len(result.Categories) > 0 {
		_, _ = fmt.Fprintf(w, "      categories: %s\n", strings.Join(result.Categories, ", "))
	}

	return nil
}

func (p *ServerResultsPrinter) Footer(w io.Writer, count int) {
	if p.footerFunc != nil {
		p.footerFunc(w, count)
	}
}

func (p *ServerResultsPrinter) SetFooter(fn output.WriteFunc[ServerResult]) {
	p.footerFunc = fn
}
