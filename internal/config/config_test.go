package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qwire/internal/cost"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gate_counts", cfg.Cost.Metric)
	assert.Equal(t, cost.DefaultCacheSize, cfg.Cost.CacheSize)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
store:
  path: /tmp/h.db
cost:
  metric: t_count
  generalizers: [ignore_bookkeeping]
  max_depth: 4
format: json
`))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/h.db", cfg.Store.Path)
	assert.Equal(t, "t_count", cfg.Cost.Metric)
	assert.Equal(t, []string{"ignore_bookkeeping"}, cfg.Cost.Generalizers)
	assert.Equal(t, 4, cfg.Cost.MaxDepth)
	assert.Equal(t, cost.DefaultCacheSize, cfg.Cost.CacheSize, "unset fields keep defaults")
	assert.Equal(t, "json", cfg.Format)

	m, err := cfg.Metric()
	require.NoError(t, err)
	assert.Equal(t, cost.TCount, m)

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 3)
	_, err = cost.NewEngine(opts...)
	assert.NoError(t, err)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{"unknown field", "cost:\n  metrik: t_count\n", "parse config"},
		{"unknown metric", "cost:\n  metric: depth\n", "cost.metric"},
		{"unknown generalizer", "cost:\n  generalizers: [nope]\n", "unknown generalizer"},
		{"negative depth", "cost:\n  max_depth: -1\n", "max_depth"},
		{"zero cache", "cost:\n  cache_size: 0\n", "cache_size"},
		{"bad format", "format: xml\n", "format"},
		{"empty store", "store:\n  path: \"\"\n", "store.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "missing.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(dir, "missing.yaml"), true)
	assert.Error(t, err, "explicit path must exist")

	path := filepath.Join(dir, "qwire.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: json\n"), 0644))
	cfg, err = Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
}
