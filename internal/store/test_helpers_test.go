package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/raulk/clock"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nexus/internal/model"
	"github.com/roach88/nexus/internal/testutil"
)

// createTestStore opens a store in a temp dir with a mock clock set to
// testutil.Epoch.
func createTestStore(t *testing.T) (*Store, *clock.Mock) {
	t.Helper()
	mock := testutil.NewClock()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(mock))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mock
}

// mustInsert inserts p and fails the test on error.
func mustInsert(t *testing.T, s *Store, e model.Entity, p model.Payload) Outcome {
	t.Helper()
	out, err := s.Insert(context.Background(), e, p)
	require.NoError(t, err)
	return out
}

// countRows returns the number of rows in table.
func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// wideRange is a query request spanning all test timestamps.
func wideRange(page, limit int, filters map[string]string) model.QueryRequest {
	return model.QueryRequest{
		Page:    page,
		Limit:   limit,
		Start:   "2000-01-01 00:00:00",
		End:     "2099-12-31 23:59:59",
		Filters: filters,
	}
}
