package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/dynql/internal/testutil"
)

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func catalogDir(t *testing.T) string {
	return filepath.Join(testutil.RepoRoot(t), "catalog")
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "dynql", cmd.Use)
	assert.Contains(t, cmd.Long, "one SQL query")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "plan", "query", "seed", "serve", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	flags := cmd.PersistentFlags()

	verboseFlag := flags.Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	defaults := map[string]string{
		"format":    "text",
		"db":        DefaultDB,
		"catalog":   DefaultCatalog,
		"addr":      DefaultAddr,
		"log-level": DefaultLogLevel,
		"config":    "",
	}
	for name, def := range defaults {
		f := flags.Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, def, f.DefValue, name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "validate", catalogDir(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, "--log-level", "loud", "validate", catalogDir(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configure logging")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfig_FromEnvironment(t *testing.T) {
	t.Setenv("DYNQL_CATALOG", catalogDir(t))

	out, _, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog valid")
}

func TestConfig_FlagBeatsEnvironment(t *testing.T) {
	t.Setenv("DYNQL_CATALOG", "/nonexistent/catalog")

	_, _, err := execute(t, "--catalog", catalogDir(t), "validate")
	require.NoError(t, err)
}

func TestConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog: "+catalogDir(t)+"\nlog_level: debug\n"), 0644))

	out, _, err := execute(t, "--config", path, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog valid")
}

func TestConfig_MissingFile(t *testing.T) {
	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load configuration")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := newLogger("warn", buf)
	require.NoError(t, err)

	log.Infow("hidden")
	log.Warnw("shown", "entity", "Post")
	require.NoError(t, log.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), `"entity": "Post"`)
	assert.True(t, log.Desugar().Core().Enabled(zapcore.WarnLevel))
	assert.False(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestVerboseForcesDebug(t *testing.T) {
	opts := &RootOptions{Verbose: true, Config: Config{LogLevel: "error"}}
	assert.Equal(t, "debug", opts.logLevel())

	opts.Verbose = false
	assert.Equal(t, "error", opts.logLevel())
}
