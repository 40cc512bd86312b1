// Package main provides tests for the LeapDB CLI.
package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdb/internal/cli"
	"github.com/leapstack-labs/leapdb/internal/cli/config"
	"github.com/leapstack-labs/leapdb/internal/cli/testutil"
)

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "leapdb v"+cli.Version)
	assert.Contains(t, out, "sqlite")
	assert.Contains(t, out, "sqlserver")
}

func TestHelpCommand(t *testing.T) {
	out, _, err := run(t, "--help")
	require.NoError(t, err)

	for _, expected := range []string{"query", "select", "connections", "version", "completion", "--connection", "--env", "--output"} {
		assert.Contains(t, out, expected)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, _, err := run(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, out, "leapdb")
		})
	}

	_, _, err := run(t, "completion", "tcsh")
	require.Error(t, err)
}

func TestQueryEndToEnd(t *testing.T) {
	proj := testutil.SetupTestProject(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "default connection",
			args: []string{"query", "SELECT COUNT(*) AS n FROM users"},
			want: "n\n3\n",
		},
		{
			name: "connection flag",
			args: []string{"-c", "scratch", "query", "SELECT 1 AS one"},
			want: "one\n1\n",
		},
		{
			name: "select through the builder",
			args: []string{"select", "users", "--columns", "name", "--where", "email is null"},
			want: "name\nCarol\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", proj.ConfigPath, "-o", "csv"}, tt.args...)
			out, _, err := run(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("unknown connection", func(t *testing.T) {
		_, _, err := run(t, "--config", proj.ConfigPath, "-c", "nope", "query", "SELECT 1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `default connection "nope" is not defined`)
	})

	t.Run("verbose logs to stderr", func(t *testing.T) {
		_, errOut, err := run(t, "--config", proj.ConfigPath, "-v", "-o", "csv", "query", "SELECT 1")
		require.NoError(t, err)
		assert.Contains(t, errOut, "using config file")
		assert.Contains(t, errOut, "connection opened")
	})
}
