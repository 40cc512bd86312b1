package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runVersion(t *testing.T, version string) []string {
	t.Helper()

	cmd := NewVersionCommand(version)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func TestVersionCommand(t *testing.T) {
	lines := runVersion(t, "0.3.1")
	require.Len(t, lines, 4)

	assert.Equal(t, "leapdb v0.3.1", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "go:       go"), lines[1])
	// commands_test.go registers the sqlite adapter.
	assert.Contains(t, lines[2], "sqlite")
	assert.NotContains(t, lines[2], "sqlite3", "aliases are not listed")
	assert.Equal(t, "grammars: ansi, mysql, postgres, sqlite, sqlserver", lines[3])
}

func TestVersionCommand_DevBuild(t *testing.T) {
	assert.Equal(t, "leapdb vdev", runVersion(t, "dev")[0])
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := NewVersionCommand("test")

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}
