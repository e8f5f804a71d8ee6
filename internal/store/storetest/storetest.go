// Package storetest opens throwaway stores for tests in other packages.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/raulk/clock"

	"github.com/roach88/nexus/internal/store"
	"github.com/roach88/nexus/internal/testutil"
)

// OpenStore opens a migrated store in a temp dir driven by a
// testutil.NewClock mock. The store is closed when the test ends.
func OpenStore(t *testing.T) (*store.Store, *clock.Mock) {
	t.Helper()
	mock := testutil.NewClock()
	s, err := store.Open(filepath.Join(t.TempDir(), "nexus.db"), store.WithClock(mock))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mock
}
