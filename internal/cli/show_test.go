package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runShowCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewShowCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestShowDefinition(t *testing.T) {
	output, err := runShowCommand(t, "text", testSpecsDir, "Outer")
	require.NoError(t, err)

	assert.Contains(t, output, "Outer [")
	assert.Contains(t, output, "Signature:\n")
	assert.Contains(t, output, "Calls: [TT]")
	assert.Contains(t, output, "Decomposition:\n")
	assert.Contains(t, output, " TT\n")
	assert.Contains(t, output, " TT^dag\n")
	assert.Contains(t, output, " CNOT\n")
	assert.Contains(t, output, "✓ All releases verified")
}

func TestShowViolationsJSON(t *testing.T) {
	output, err := runShowCommand(t, "json", testSpecsDir, "Leaky")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ShowResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Leaky", resp.Data.Op)
	assert.Empty(t, resp.Data.Signature)
	assert.Len(t, resp.Data.Instances, 3)
	assert.False(t, resp.Data.Verified)
	assert.Len(t, resp.Data.Violations, 1)
}

func TestShowUnknownOp(t *testing.T) {
	_, err := runShowCommand(t, "text", testSpecsDir, "Nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestShowMissingArgs(t *testing.T) {
	_, err := runShowCommand(t, "text", testSpecsDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg")
}
