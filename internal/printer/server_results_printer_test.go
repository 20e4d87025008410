package printer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toolmux/toolmux/internal/config"
)

func TestNewServerResult(t *testing.T) {
	t.Parallel()

	entry := config.ServerEntry{
		Name:       "github",
		Command:    "npx",
		Args:       []string{"-y", "@modelcontextprotocol/server-github"},
		Categories: []string{"code", "issues"},
	}

	result := NewServerResult(entry)
	require.Equal(t, "github", result.Name)
	require.Equal(t, "npx", result.Command)
	require.Equal(t, entry.Args, result.Args)
	require.Equal(t, entry.Categories, result.Categories)
}

func TestServerResultsPrinter_Item(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		result   ServerResult
		expected string
	}{
		{
			name: "command with args and categories",
			result: ServerResult{
				Name:       "notion",
				Command:    "npx",
				Args:       []string{"-y", "notion-server"},
				Categories: []string{"notes"},
			},
			expected: "  notion: npx -y notion-server\n      categories: notes\n",
		},
		{
			name: "bare command",
			result: ServerResult{
				Name:    "local",
				Command: "./server",
			},
			expected: "  local: ./server\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			p := NewServerResultsPrinter()
			require.NoError(t, p.Item(&buf, tc.result))
			require.Equal(t, tc.expected, buf.String())
		})
	}
}

func TestServerResultsPrinter_Header(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewServerResultsPrinter()
	p.Header(&buf, 2)
	require.Equal(t, "Configured servers (2 total):\n", buf.String())
}
