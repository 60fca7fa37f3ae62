package storage

import (
	"path/filepath"
	"testing"
)

// NewTestStore opens a migrated store in a temporary directory and closes it
// when the test finishes. Exported for use in other package tests.
func NewTestStore(tb testing.TB) *Store {
	tb.Helper()

	store, err := OpenStore(filepath.Join(tb.TempDir(), "test.db"))
	if err != nil {
		tb.Fatalf("Failed to open test store: %v", err)
	}
	tb.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
