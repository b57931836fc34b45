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

func runCostCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewCostCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCostSingleOp(t *testing.T) {
	output, err := runCostCommand(t, "text", testSpecsDir, "Bell")
	require.NoError(t, err)

	assert.Contains(t, output, "Bell [")
	assert.Contains(t, output, "  gate_counts: {clifford: 2}\n")
	assert.Contains(t, output, "  qubits: 2\n")
	assert.NotContains(t, output, "Outer")
}

func TestCostMetricAndGraph(t *testing.T) {
	output, err := runCostCommand(t, "text", testSpecsDir, "Outer", "--metric", "t_count", "--graph")
	require.NoError(t, err)

	assert.Contains(t, output, "  t_count: {t: 4}\n")
	assert.Contains(t, output, "metric: t_count\n")
	assert.Regexp(t, `2 x T \[[0-9a-f]+\] leaf`, output)
	assert.Regexp(t, `2 x T\^dag \[[0-9a-f]+\] leaf`, output)
}

func TestCostAllDefinitionsJSON(t *testing.T) {
	output, err := runCostCommand(t, "json", testSpecsDir)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   CostReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Results, 4)
	assert.Empty(t, resp.Data.RunID)

	byOp := map[string]CostResult{}
	for _, r := range resp.Data.Results {
		byOp[r.Op] = r
	}
	assert.Equal(t, map[string]string{"clifford": "2"}, byOp["Bell"].Total)
	assert.Equal(t, map[string]string{"clifford": "1", "t": "4"}, byOp["Outer"].Total)
	assert.Equal(t, "1", byOp["TT"].Qubits)
	assert.Empty(t, byOp["Bell"].CallGraph)
}

func TestCostGeneralizers(t *testing.T) {
	output, err := runCostCommand(t, "json", testSpecsDir, "Leaky", "--generalize", "ignore_bookkeeping")
	require.NoError(t, err)

	var resp struct {
		Data CostReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, map[string]string{"clifford": "1"}, resp.Data.Results[0].Total)
}

func TestCostUnknownOp(t *testing.T) {
	output, err := runCostCommand(t, "text", testSpecsDir, "Nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, `op "Nope" is not defined`)
}

func TestCostInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown metric", []string{"--metric", "depth"}, "cost.metric"},
		{"unknown generalizer", []string{"--generalize", "ignore_everything"}, "unknown generalizer"},
		{"negative depth", []string{"--max-depth=-1"}, "max_depth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{testSpecsDir, "Bell"}, tt.args...)
			output, err := runCostCommand(t, "text", args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, output, tt.want)
		})
	}
}

func TestCostRecord(t *testing.T) {
	db := filepath.Join(t.TempDir(), "nested", "history.db")

	output, err := runCostCommand(t, "json", testSpecsDir, "--record", "--label", "first", "--db", db)
	require.NoError(t, err)

	var resp struct {
		Data CostReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.NotEmpty(t, resp.Data.RunID)

	_, err = os.Stat(db)
	require.NoError(t, err, "database created with its directory")

	output, err = runCostCommand(t, "text", testSpecsDir, "Bell", "--record", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, output, "Recorded run ")
	assert.Contains(t, output, db)
}
