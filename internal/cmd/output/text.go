package output

import (
	"io"
)

// TextHandler writes human-readable output through a Printer.
type TextHandler[T any] struct {
	out     io.Writer
	printer Printer[T]
}

// NewTextHandler constructs a new TextHandler for items of type T.
func NewTextHandler[T any](w io.Writer, p Printer[T]) *TextHandler[T] {
	return &TextHandler[T]{
		out:     w,
		printer: p,
	}
}

// Writer returns the underlying io.Writer where text will be written.
func (h *TextHandler[T]) Writer() io.Writer {
	return h.out
}

// HandleResult renders a single item with no header or footer.
func (h *TextHandler[T]) HandleResult(item T) error {
	return h.printer.Item(h.out, item)
}

// HandleResults renders all items between the printer's header and footer.
func (h *TextHandler[T]) HandleResults(items ...T) error {
	if len(items) == 0 {
		_, _ = io.WriteString(h.out, "No items found\n")
		return nil
	}

	h.printer.Header(h.out, len(items))

	for _, it := range items {
		if err := h.printer.Item(h.out, it); err != nil {
			return err
		}
	}

	h.printer.Footer(h.out, len(items))

	return nil
}

// HandleError reports the error back to the caller unrendered; text mode
// leaves error presentation to the CLI framework.
func (h *TextHandler[T]) HandleError(err error) error {
	return err
}
