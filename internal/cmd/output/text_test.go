package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type widgetPrinter struct {
	headerFunc WriteFunc[widget]
	footerFunc WriteFunc[widget]
}

func (p *widgetPrinter) Header(w io.Writer, count int) {
	if p.headerFunc != nil {
		p.headerFunc(w, count)
	}
}

func (p *widgetPrinter) SetHeader(fn WriteFunc[widget]) {
	p.headerFunc = fn
}

func (p *widgetPrinter) Item(w io.Writer, elem widget) error {
	_, err := fmt.Fprintf(w, "%s: %d\n", elem.Name, elem.Count)
	return err
}

func (p *widgetPrinter) Footer(w io.Writer, count int) {
	if p.footerFunc != nil {
		p.footerFunc(w, count)
	}
}

func (p *widgetPrinter) SetFooter(fn WriteFunc[widget]) {
	p.footerFunc = fn
}

func TestTextHandler_HandleResults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := &widgetPrinter{}
	p.SetHeader(func(w io.Writer, count int) {
		_, _ = fmt.Fprintf(w, "%d widgets:\n", count)
	})
	p.SetFooter(func(w io.Writer, count int) {
		_, _ = fmt.Fprintln(w, "done")
	})

	h := NewTextHandler[widget](&buf, p)
	require.NoError(t, h.HandleResults(
		widget{Name: "a", Count: 1},
		widget{Name: "b", Count: 2},
	))

	require.Equal(t, "2 widgets:\na: 1\nb: 2\ndone\n", buf.String())
}

func TestTextHandler_HandleResults_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewTextHandler[widget](&buf, &widgetPrinter{})

	require.NoError(t, h.HandleResults())
	require.Equal(t, "No items found\n", buf.String())
}

func TestTextHandler_HandleResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewTextHandler[widget](&buf, &widgetPrinter{})

	require.NoError(t, h.HandleResult(widget{Name: "solo", Count: 7}))
	require.Equal(t, "solo: 7\n", buf.String())
}

func TestTextHandler_HandleError_PassesThrough(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewTextHandler[widget](&buf, &widgetPrinter{})

	err := errors.New("boom")
	require.Same(t, err, h.HandleError(err))
	require.Empty(t, buf.String())
}
