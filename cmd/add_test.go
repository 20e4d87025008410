package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	intcmd "github.com/toolmux/toolmux/internal/cmd"
	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/flags"
)

// useTempConfig points the global config flag at a fresh config file for the
// duration of one test. Tests using it must not run in parallel.
func useTempConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".toolmux.toml")
	loader := &config.DefaultLoader{}
	require.NoError(t, loader.Init(path))

	prev := flags.ConfigFile
	flags.ConfigFile = path
	t.Cleanup(func() {
		flags.ConfigFile = prev
	})

	return path
}

func newBaseCmd() *intcmd.BaseCmd {
	base := &intcmd.BaseCmd{}
	base.SetLogger(hclog.NewNullLogger())
	return base
}

func TestAddCmd_AddsServerToConfig(t *testing.T) {
	path := useTempConfig(t)

	addCmd, err := NewAddCmd(newBaseCmd())
	require.NoError(t, err)

	var out bytes.Buffer
	addCmd.SetOut(&out)
	addCmd.SetArgs([]string{
		"github",
		"--command", "npx",
		"--arg", "-y",
		"--arg", "@modelcontextprotocol/server-github",
		"--env", "GITHUB_TOKEN=secret",
		"--category", "code",
	})

	require.NoError(t, addCmd.Execute())
	require.Contains(t, out.String(), "Added server 'github'")

	cfg, err := (&config.DefaultLoader{}).Load(path)
	require.NoError(t, err)

	servers := cfg.ListServers()
	require.Len(t, servers, 1)
	require.Equal(t, "github", servers[0].Name)
	require.Equal(t, "npx", servers[0].Command)
	require.Equal(t, []string{"-y", "@modelcontextprotocol/server-github"}, servers[0].Args)
	require.Equal(t, map[string]string{"GITHUB_TOKEN": "secret"}, servers[0].Env)
	require.Equal(t, []string{"code"}, servers[0].Categories)
}

func TestAddCmd_RequiresServerName(t *testing.T) {
	useTempConfig(t)

	addCmd, err := NewAddCmd(newBaseCmd())
	require.NoError(t, err)

	addCmd.SetOut(&bytes.Buffer{})
	addCmd.SetErr(&bytes.Buffer{})
	addCmd.SetArgs([]string{"--command", "npx"})

	require.Error(t, addCmd.Execute())
}

func TestAddCmd_RequiresCommandFlag(t *testing.T) {
	useTempConfig(t)

	addCmd, err := NewAddCmd(newBaseCmd())
	require.NoError(t, err)

	addCmd.SetOut(&bytes.Buffer{})
	addCmd.SetErr(&bytes.Buffer{})
	addCmd.SetArgs([]string{"github"})

	require.Error(t, addCmd.Execute())
}

func TestAddCmd_RejectsDuplicateName(t *testing.T) {
	useTempConfig(t)

	for i, expectErr := range []bool{false, true} {
		addCmd, err := NewAddCmd(newBaseCmd())
		require.NoError(t, err, "attempt %d", i)

		addCmd.SetOut(&bytes.Buffer{})
		addCmd.SetErr(&bytes.Buffer{})
		addCmd.SetArgs([]string{"notion", "--command", "npx"})

		err = addCmd.Execute()
		if expectErr {
			require.Error(t, err)
		} else {
			require.NoError(t, err)
		}
	}
}

func TestParseEnvPairs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		pairs       []string
		expected    map[string]string
		expectError bool
	}{
		{
			name:     "none",
			pairs:    nil,
			expected: nil,
		},
		{
			name:     "single pair",
			pairs:    []string{"KEY=value"},
			expected: map[string]string{"KEY": "value"},
		},
		{
			name:     "value containing equals",
			pairs:    []string{"URL=https://example.com?a=b"},
			expected: map[string]string{"URL": "https://example.com?a=b"},
		},
		{
			name:     "empty value allowed",
			pairs:    []string{"EMPTY="},
			expected: map[string]string{"EMPTY": ""},
		},
		{
			name:        "missing separator",
			pairs:       []string{"INVALID"},
			expectError: true,
		},
		{
			name:        "empty key",
			pairs:       []string{"=value"},
			expectError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env, err := parseEnvPairs(tc.pairs)
			if tc.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expected, env)
		})
	}
}
