package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the root command with args and captures output.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRootCommandSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "validate")
	assert.Contains(t, names, "sign")
	assert.Contains(t, names, "realize")
	assert.Contains(t, names, "rules")
	assert.Contains(t, names, "runs")
}

func TestRootCommandRejectsUnknownFormat(t *testing.T) {
	_, _, err := runCommand(t, "--format", "xml", "rules")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootCommandAcceptsValidFormats(t *testing.T) {
	for _, format := range ValidFormats {
		_, _, err := runCommand(t, "--format", format, "rules")
		assert.NoError(t, err, "format %s", format)
	}
}
