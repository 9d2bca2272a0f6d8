package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/dynql/internal/catalog"
)

// RepoRoot walks up from the working directory to the directory holding go.mod.
func RepoRoot(t testing.TB) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, dir, parent, "go.mod not found above working directory")
		dir = parent
	}
}

// BlogCatalog loads the sample User/Post/Page catalog shipped in catalog/.
func BlogCatalog(t testing.TB) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.Load(filepath.Join(RepoRoot(t), "catalog"))
	require.NoError(t, err)
	return cat
}

// BlogFixtures returns the path of the sample YAML fixtures for BlogCatalog.
func BlogFixtures(t testing.TB) string {
	t.Helper()
	return filepath.Join(RepoRoot(t), "fixtures", "blog.yaml")
}
