package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/dynql/internal/testutil"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "failures: %v", result.Failures)
		})
	}
}

func TestRunWithGolden(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "get_post_author.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func inlineScenario(t *testing.T, query string, assertions ...Assertion) *Scenario {
	root := testutil.RepoRoot(t)
	return &Scenario{
		Name:        "inline",
		Description: "inline",
		Catalog:     filepath.Join(root, "catalog"),
		Fixtures:    testutil.BlogFixtures(t),
		Query:       query,
		Assertions:  assertions,
	}
}

func TestRun_ReportsFailedAssertions(t *testing.T) {
	s := inlineScenario(t, `{ getUser(userId: 1) { firstName } }`,
		Assertion{Type: AssertEquals, Path: "getUser.firstName", Value: "Grace"},
		Assertion{Type: AssertJoins, Count: 3},
		Assertion{Type: AssertErrorContains, Message: "boom"},
	)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Failures, 3)
	assert.Contains(t, result.Failures[0], "Grace")
	assert.Contains(t, result.Failures[1], "3 joins")
}

func TestRun_RecordsExecutions(t *testing.T) {
	s := inlineScenario(t, `{ getAllUsers { firstName } getPost(postId: 1) { title } }`,
		Assertion{Type: AssertNoErrors})

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "failures: %v", result.Failures)

	entities := make([]string, 0, len(result.Executions))
	for _, e := range result.Executions {
		entities = append(entities, e.Entity)
	}
	assert.ElementsMatch(t, []string{"User", "Post"}, entities)
}

func TestRun_SetupErrors(t *testing.T) {
	s := inlineScenario(t, `{ getAllUsers { firstName } }`, Assertion{Type: AssertNoErrors})
	s.Catalog = t.TempDir()
	_, err := Run(s)
	assert.Error(t, err)

	s = inlineScenario(t, `{ getAllUsers { firstName } }`, Assertion{Type: AssertNoErrors})
	s.Seed = map[string][]map[string]interface{}{"Comment": {{"id": 1}}}
	_, err = Run(s)
	assert.Error(t, err)
}

func TestHarness_Logs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := &Harness{Log: zap.New(core).Sugar()}

	_, err := h.Run(context.Background(), inlineScenario(t, `{ getAllPages { content } }`, Assertion{Type: AssertNoErrors}))
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("scenario finished").Len())
	assert.Equal(t, 1, logs.FilterMessage("compiled query").Len())
}
