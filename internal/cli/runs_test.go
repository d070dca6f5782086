package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signDeclaration returns the signature the CLI prints for a testdata
// declaration.
func signDeclaration(t *testing.T, dir string) string {
	t.Helper()
	out, _, err := runCommand(t, "sign", dir)
	require.NoError(t, err)
	return strings.TrimSpace(out)
}

func TestRunsAfterValidate(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "canon.db")
	declDir := filepath.Join("testdata", "tangent_circles")

	_, _, err := runCommand(t, "validate", "--archive", archive, declDir)
	require.NoError(t, err)

	sig := signDeclaration(t, declDir)
	out, _, err := runCommand(t, "runs", "--archive", archive, sig)

	require.NoError(t, err)
	assert.Contains(t, out, "signature: "+sig)
	assert.Contains(t, out, "verdict: ✓ Two tangent circles")
	assert.Contains(t, out, "runs: 0")
}

func TestRunsAfterFailedValidate(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "canon.db")
	declDir := filepath.Join("testdata", "broken_spiral")

	_, _, err := runCommand(t, "validate", "--archive", archive, declDir)
	require.Error(t, err, "the verdict fails; recording it does not")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	sig := signDeclaration(t, declDir)
	out, _, err := runCommand(t, "runs", "--archive", archive, sig)

	require.NoError(t, err)
	assert.Contains(t, out, "verdict: ✗ Broken spiral (2 findings")
}

func TestRunsAfterRealize(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "canon.db")
	declDir := filepath.Join("testdata", "tangent_circles")

	_, _, err := runCommand(t, "realize", "--archive", archive, declDir)
	require.NoError(t, err)

	sig := signDeclaration(t, declDir)
	out, _, err := runCommand(t, "runs", "--archive", archive, sig)

	require.NoError(t, err)
	assert.Contains(t, out, "verdict: ✓ Two tangent circles", "realize validates and archives the verdict too")
	assert.Contains(t, out, "runs: 1")
}

func TestRunsJSONOutput(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "canon.db")
	declDir := filepath.Join("testdata", "tangent_circles")

	_, _, err := runCommand(t, "realize", "--archive", archive, declDir)
	require.NoError(t, err)

	sig := signDeclaration(t, declDir)
	out, _, err := runCommand(t, "--format", "json", "runs", "--archive", archive, sig)

	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, sig, data["signature"])

	runs, ok := data["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)
	run, ok := runs[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, run["ok"])
	assert.Equal(t, false, run["bypassed"])
}

func TestRunsUnknownSignature(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "canon.db")
	_, _, err := runCommand(t, "validate", "--archive", archive, filepath.Join("testdata", "tangent_circles"))
	require.NoError(t, err)

	out, _, err := runCommand(t, "runs", "--archive", archive, "0000000000000000")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [NOTFOUND]")
}

func TestRunsRequiresArchiveFlag(t *testing.T) {
	_, _, err := runCommand(t, "runs", "0000000000000000")
	require.Error(t, err)
}

func TestRunsMissingArchiveDirectory(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "missing", "canon.db")
	_, _, err := runCommand(t, "runs", "--archive", archive, "0000000000000000")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
