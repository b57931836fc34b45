package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/qwire/internal/testutil"
)

// createTestStore opens a fresh store with deterministic run ids and seq.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithRunIDs(testutil.NewSequentialIDs("run")),
		WithClock(testutil.NewDeterministicClock()),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
