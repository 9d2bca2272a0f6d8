package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynql/internal/testutil"
)

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	seedFlag := serveCmd.Flags().Lookup("seed")
	require.NotNil(t, seedFlag)
	assert.Equal(t, "", seedFlag.DefValue)
}

func TestServe_StopsWhenContextIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, errOut, err := executeContext(t, ctx,
		"--catalog", catalogDir(t),
		"--db", filepath.Join(t.TempDir(), "blog.db"),
		"--addr", "127.0.0.1:0",
		"serve")
	require.NoError(t, err)
	assert.Contains(t, errOut, "serving")
	assert.Contains(t, errOut, "shutting down")
}

func TestServe_SeedsBeforeServing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, errOut, err := executeContext(t, ctx,
		"--catalog", catalogDir(t),
		"--db", filepath.Join(t.TempDir(), "blog.db"),
		"--addr", "127.0.0.1:0",
		"serve", "--seed", testutil.BlogFixtures(t))
	require.NoError(t, err)
	assert.Contains(t, errOut, "seeded database")
	assert.Contains(t, errOut, "listening")
}

func TestServe_Errors(t *testing.T) {
	_, _, err := execute(t, "--catalog", "/nonexistent", "serve")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "--catalog", catalogDir(t), "--db", filepath.Join(t.TempDir(), "blog.db"),
		"serve", "--seed", "/nonexistent/fixtures.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, _, err = execute(t, "serve", "extra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
