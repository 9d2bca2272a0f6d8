package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/dynql/internal/testutil"
)

// createTestStore opens an empty store over the sample catalog.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, testutil.BlogCatalog(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createSeededStore opens a store over the sample catalog and loads the
// sample fixtures.
func createSeededStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	if _, err := s.SeedFile(context.Background(), testutil.BlogFixtures(t)); err != nil {
		t.Fatalf("SeedFile() failed: %v", err)
	}
	return s
}
