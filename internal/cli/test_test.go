package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bellScenario = `name: bell
description: "Bell costs two Clifford gates"
specs: specs
op: Bell
assertions:
  - type: total
    expect:
      clifford: 2
`

// scenarioWorkspace lays out a scenarios directory holding one scenario
// file and a specs directory with a copy of the Bell definition.
func scenarioWorkspace(t *testing.T, scenario string) string {
	t.Helper()
	dir := t.TempDir()
	bell, err := os.ReadFile(filepath.Join(testSpecsDir, "bell.cue"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "specs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specs", "bell.cue"), bell, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bell.yaml"), []byte(scenario), 0o644))
	return dir
}

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	output, err := runTestCommand(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, output, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	output, err := runTestCommand(t, "json", t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestHelpText(t *testing.T) {
	output, err := runTestCommand(t, "text", "--help")
	require.NoError(t, err)

	assert.Contains(t, output, "harness")
	assert.Contains(t, output, "--update")
	assert.Contains(t, output, "--filter")
	assert.Contains(t, output, "scenarios-dir")
}

func TestTestCommandRunsScenarios(t *testing.T) {
	output, err := runTestCommand(t, "text", testScenariosDir)
	require.NoError(t, err, output)

	assert.Contains(t, output, "✓ bell_gate_counts")
	assert.Contains(t, output, "✓ leaky_ancilla")
	assert.Contains(t, output, "✓ outer_t_count")
	assert.Contains(t, output, "Test Summary: 3 passed, 0 failed, 3 total")
}

func TestTestCommandRunsScenariosJSON(t *testing.T) {
	output, err := runTestCommand(t, "json", testScenariosDir, "--filter", "bell*")
	require.NoError(t, err, output)

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, 1, response.Data.Total)
	assert.Equal(t, 1, response.Data.Passed)
	require.Len(t, response.Data.Scenarios, 1)
	assert.Equal(t, "bell_gate_counts", response.Data.Scenarios[0].Name)
}

func TestTestCommandFailingAssertion(t *testing.T) {
	dir := scenarioWorkspace(t, `name: bell
description: "Bell with a wrong Clifford count"
specs: specs
op: Bell
assertions:
  - type: total
    expect:
      clifford: 3
`)

	output, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✗ bell\n")
	assert.Contains(t, output, "Assertion failed: total")
	assert.Contains(t, output, "Expected: {clifford: 3}")
	assert.Contains(t, output, "Actual: {clifford: 2}")
	assert.NotContains(t, output, "failed to load scenario")
	assert.Contains(t, output, "1 failed")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := scenarioWorkspace(t, "name: bell\nspecs: specs\n")

	output, err := runTestCommand(t, "json", dir)
	require.Error(t, err)

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &response))
	assert.Equal(t, "error", response.Status)
	require.Len(t, response.Data.Scenarios, 1)
	assert.Equal(t, "bell.yaml", response.Data.Scenarios[0].Name)
	assert.Contains(t, response.Data.Scenarios[0].Errors[0], "failed to load scenario")
}

func TestTestCommandGoldenFiles(t *testing.T) {
	dir := scenarioWorkspace(t, bellScenario)
	goldenPath := filepath.Join(dir, "golden", "bell.golden")

	// No golden file yet: assertions alone decide.
	_, err := runTestCommand(t, "text", dir)
	require.NoError(t, err)

	output, err := runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, output, "golden updated")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), "op: Bell\ntotal: {clifford: 2}\nqubits: 2\n")

	_, err = runTestCommand(t, "text", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("stale\n"), 0o644))
	output, err = runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, output, "does not match golden file")
}
