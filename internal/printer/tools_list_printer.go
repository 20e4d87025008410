// Package printer provides text renderers for CLI results, plugged into the
// generic output handlers.
package printer

import (
	"fmt"
	"io"

	"github.com/toolmux/toolmux/internal/cmd/output"
)

var _ output.Printer[ToolsListResult] = (*ToolsListPrinter)(nil)

// ToolsListResult is one exposed tool row in the 'tools' command output.
type ToolsListResult struct {
	Name        string `json:"name"                  yaml:"name"`
	Server      string `json:"server,omitempty"      yaml:"server,omitempty"`
	Tool        string `json:"tool,omitempty"        yaml:"tool,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Relevance   int    `json:"relevance,omitempty"   yaml:"relevance,omitempty"`
}

// ToolsListPrinter renders exposed tool rows as text.
type ToolsListPrinter struct {
	headerFunc output.WriteFunc[ToolsListResult]
	footerFunc output.WriteFunc[ToolsListResult]
}

// NewToolsListPrinter creates a printer with the default header.
func NewToolsListPrinter() *ToolsListPrinter {
	p := &ToolsListPrinter{}
	p.SetHeader(func(w io.Writer, count int) {
		_, _ = fmt.Fprintf(w, "Exposed tools (%d total):\n", count)
	})

	return p
}

func (p *ToolsListPrinter) Header(w io.Writer, count int) {
	if p.headerFunc != nil {
		p.headerFunc(w, count)
	}
}

func (p *ToolsListPrinter) SetHeader(fn output.WriteFunc[ToolsListResult]) {
	p.headerFunc = fn
}

func (p *ToolsListPrinter) Item(w io.Writer, result ToolsListResult) error {
	_, _ = fmt.Fprintf(w, "  %s", result.Name)

	if result.Server != "" && result.Tool != "" {
		_, _ = fmt.Fprintf(w, " (%s/%s)", result.Server, result.Tool)
	}
	if result.Relevance > 0 {
		_, _ = fmt.Fprintf(w, " [%d%%]", result.Relevance)
	}

	_, _ = fmt.Fprintln(w)

	if result.Description != "" {
		_, _ = fmt.Fprintf(w, "      %s\n", result.Description)
	}

	return nil
}

func (p *ToolsListPrinter) Footer(w io.Writer, count int) {
	if p.footerFunc != nil {
		p.footerFunc(w, count)
	}
}

func (p *ToolsListPrinter) SetFooter(fn output.WriteFunc[ToolsListResult]) {
	p.footerFunc = fn
}
