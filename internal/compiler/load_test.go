package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDefs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0644))
	}
	return dir
}

func TestLoadDirCompilesAcrossFiles(t *testing.T) {
	dir := writeDefs(t, map[string]string{
		"bell.cue":  "package defs\n" + bellSource,
		"calls.cue": "package defs\n" + callsSource,
		"notes.txt": "ignored",
	})

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	v, err := LoadDir(cuecontext.New(), dir)
	require.NoError(t, err)
	p, err := Compile(v)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Len())
	_, ok := p.Lookup("Outer")
	assert.True(t, ok)
}

func TestLoadDirReportsSyntaxErrors(t *testing.T) {
	dir := writeDefs(t, map[string]string{
		"broken.cue": "package defs\nop: {\n",
	})
	_, err := LoadDir(cuecontext.New(), dir)
	assert.Error(t, err)
}
