package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynql/internal/testutil"
)

// seededDB seeds a fresh database with the blog fixtures and returns the
// global flags that point commands at it.
func seededDB(t *testing.T) []string {
	t.Helper()

	flags := []string{
		"--catalog", catalogDir(t),
		"--db", filepath.Join(t.TempDir(), "blog.db"),
	}
	_, _, err := execute(t, append(flags, "seed", testutil.BlogFixtures(t))...)
	require.NoError(t, err)
	return flags
}

func TestSeed(t *testing.T) {
	flags := []string{"--catalog", catalogDir(t), "--db", filepath.Join(t.TempDir(), "blog.db")}

	out, _, err := execute(t, append(flags, "seed", testutil.BlogFixtures(t))...)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 9 row(s)")

	out, _, err = execute(t, append(flags, "--format", "json", "seed", testutil.BlogFixtures(t))...)
	require.NoError(t, err)

	var resp struct {
		Data SeedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 9, resp.Data.Rows)
}

func TestSeed_Errors(t *testing.T) {
	flags := []string{"--catalog", catalogDir(t), "--db", filepath.Join(t.TempDir(), "blog.db")}

	_, _, err := execute(t, append(flags, "seed", "/nonexistent/fixtures.yaml")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, _, err = execute(t, append(flags, "seed")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestQuery(t *testing.T) {
	flags := seededDB(t)

	out, _, err := execute(t, append(flags, "query",
		`{ getPost(postId: 1) { title author { firstName } pages(orderDescBy: "pageId") { content } } }`)...)
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, map[string]any{
		"getPost": map[string]any{
			"title":  "Notes on the Engine",
			"author": map[string]any{"firstName": "Ada"},
			"pages": []any{
				map[string]any{"content": "conclusion"},
				map[string]any{"content": "intro"},
			},
		},
	}, resp["data"])
	assert.Nil(t, resp["errors"])
}

func TestQuery_ListWithFilterAndVariables(t *testing.T) {
	flags := seededDB(t)

	out, _, err := execute(t, append(flags, "query",
		`query($name: String) { getAllUsers(firstName: $name) { lastName posts(orderDescBy: "title") { title } } }`,
		"--vars", `{"name": "Ada"}`)...)
	require.NoError(t, err)

	var resp struct {
		Data struct {
			GetAllUsers []struct {
				LastName string `json:"lastName"`
				Posts    []struct {
					Title string `json:"title"`
				} `json:"posts"`
			} `json:"getAllUsers"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.GetAllUsers, 1)

	ada := resp.Data.GetAllUsers[0]
	assert.Equal(t, "Lovelace", ada.LastName)
	require.Len(t, ada.Posts, 2)
	assert.Equal(t, "Sketch of the Analytical Engine", ada.Posts[0].Title)
	assert.Equal(t, "Notes on the Engine", ada.Posts[1].Title)
}

func TestQuery_ResponseErrors(t *testing.T) {
	flags := seededDB(t)

	out, _, err := execute(t, append(flags, "query", `{ getPost(postId: 1) { body } }`)...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `"errors"`)
	assert.Contains(t, out, `"body"`)
}

func TestQuery_MissingCatalog(t *testing.T) {
	_, _, err := execute(t, "--catalog", "/nonexistent", "--db", filepath.Join(t.TempDir(), "x.db"),
		"query", `{ getAllUsers { firstName } }`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
