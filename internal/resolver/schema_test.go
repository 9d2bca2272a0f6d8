package resolver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynql/internal/catalog"
	"github.com/roach88/dynql/internal/compiler"
	"github.com/roach88/dynql/internal/ir"
	"github.com/roach88/dynql/internal/querytree"
	"github.com/roach88/dynql/internal/repository"
	"github.com/roach88/dynql/internal/store"
	"github.com/roach88/dynql/internal/testutil"
)

func blogSchema(t *testing.T) graphql.Schema {
	t.Helper()
	cat := testutil.BlogCatalog(t)
	s, err := store.Open(filepath.Join(t.TempDir(), "blog.db"), cat)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	_, err = s.SeedFile(context.Background(), testutil.BlogFixtures(t))
	require.NoError(t, err)

	schema, err := NewSchema(cat, repository.New(compiler.New(cat), s, nil))
	require.NoError(t, err)
	return schema
}

func run(t *testing.T, schema graphql.Schema, query string, vars map[string]interface{}) string {
	t.Helper()
	res := graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        context.Background(),
	})
	out, err := json.Marshal(res)
	require.NoError(t, err)
	return string(out)
}

func TestSchema_RootQueries(t *testing.T) {
	schema := blogSchema(t)
	fields := schema.QueryType().Fields()

	for _, name := range []string{"getUser", "getAllUsers", "getPost", "getAllPosts", "getPage", "getAllPages"} {
		assert.Contains(t, fields, name)
	}

	getPost := fields["getPost"]
	require.Len(t, getPost.Args, 1)
	assert.Equal(t, "postId", getPost.Args[0].Name())
	assert.Equal(t, "Int!", getPost.Args[0].Type.String())

	var names []string
	for _, a := range fields["getAllPosts"].Args {
		names = append(names, a.Name())
	}
	assert.ElementsMatch(t, []string{"postId", "title", "orderAscBy", "orderDescBy"}, names)
	assert.Equal(t, "[Post!]!", fields["getAllPosts"].Type.String())
}

func TestSchema_RelationFields(t *testing.T) {
	schema := blogSchema(t)
	post := schema.Type("Post").(*graphql.Object).Fields()

	assert.Equal(t, "User", post["author"].Type.String())
	assert.Empty(t, post["author"].Args)
	assert.Equal(t, "[Page!]!", post["pages"].Type.String())
	assert.NotEmpty(t, post["pages"].Args)
	assert.Equal(t, "Int!", post["postId"].Type.String())
	assert.Equal(t, "String", post["title"].Type.String())
}

func TestGetPost_NestedRelations(t *testing.T) {
	got := run(t, blogSchema(t), `{
		getPost(postId: 1) {
			title
			author { firstName lastName }
			pages(orderDescBy: "pageId") { content }
		}
	}`, nil)

	assert.JSONEq(t, `{"data": {"getPost": {
		"title": "Notes on the Engine",
		"author": {"firstName": "Ada", "lastName": "Lovelace"},
		"pages": [{"content": "conclusion"}, {"content": "intro"}]
	}}}`, got)
}

func TestGetPost_NotFoundIsNull(t *testing.T) {
	got := run(t, blogSchema(t), `{ getPost(postId: 42) { title } }`, nil)
	assert.JSONEq(t, `{"data": {"getPost": null}}`, got)
}

func TestGetAllUsers_OrderAndVariables(t *testing.T) {
	got := run(t, blogSchema(t), `query Users($dir: String) {
		getAllUsers(orderDescBy: $dir) { firstName posts { title } }
	}`, map[string]interface{}{"dir": "firstName"})

	assert.JSONEq(t, `{"data": {"getAllUsers": [
		{"firstName": "Grace", "posts": []},
		{"firstName": "Alan", "posts": [{"title": "On Computable Numbers"}]},
		{"firstName": "Ada", "posts": [
			{"title": "Notes on the Engine"},
			{"title": "Sketch of the Analytical Engine"}
		]}
	]}}`, got)
}

func TestGetAllPosts_FragmentsAndNestedFilter(t *testing.T) {
	got := run(t, blogSchema(t), `
		fragment postFields on Post { title pages(content: "abstract") { content } }
		{ getAllPosts(orderAscBy: "postId") { ...postFields author { ... on User { lastName } } } }
	`, nil)

	// The nested filter is part of the single query's WHERE clause, so only
	// posts with a matching page are returned.
	assert.JSONEq(t, `{"data": {"getAllPosts": [
		{"title": "On Computable Numbers", "pages": [{"content": "abstract"}], "author": {"lastName": "Turing"}}
	]}}`, got)
}

func TestUnknownFieldIsRejected(t *testing.T) {
	got := run(t, blogSchema(t), `{ getPost(postId: 1) { subtitle } }`, nil)
	assert.Contains(t, got, `Cannot query field \"subtitle\" on type \"Post\"`)
}

func TestGetUser_AliasedRelationsWithDifferentFilters(t *testing.T) {
	got := run(t, blogSchema(t), `{ getUser(userId: 1) {
		a: posts(title: "Notes on the Engine") { title }
		b: posts(title: "Sketch of the Analytical Engine") { title }
	} }`, nil)

	assert.Contains(t, got, "CONFLICTING_ARGUMENTS")
	assert.NotContains(t, got, `"b":[{"title":"Notes on the Engine"}]`)
}

// recorder captures what the root resolvers pass to the finder.
type recorder struct {
	tree   *querytree.Node
	marker string
}

func (r *recorder) FindOne(_ context.Context, tree *querytree.Node, marker string) (map[string]any, bool, error) {
	r.tree, r.marker = tree, marker
	return map[string]any{"title": "stub"}, true, nil
}

func (r *recorder) Find(_ context.Context, tree *querytree.Node, marker string) ([]map[string]any, error) {
	r.tree, r.marker = tree, marker
	return []map[string]any{}, nil
}

func TestResolvers_PassTreeAndMarker(t *testing.T) {
	cat := testutil.BlogCatalog(t)
	rec := &recorder{}
	schema, err := NewSchema(cat, rec)
	require.NoError(t, err)

	run(t, schema, `{ getPost(postId: 3) { title author { firstName } } }`, nil)

	assert.Equal(t, "Post", rec.marker)
	require.NotNil(t, rec.tree)
	assert.Equal(t, "getPost", rec.tree.Name)
	assert.Equal(t, ir.IRInt(3), rec.tree.Properties.Args["postId"])
	require.NotNil(t, rec.tree.Field("author"))
	assert.True(t, rec.tree.Field("author").IsRelation())

	run(t, schema, `{ getAllPages(orderAscBy: "content") { content } }`, nil)
	assert.Equal(t, "Page", rec.marker)
	assert.Equal(t, querytree.Ascending, rec.tree.Properties.Options.Order["content"])
}

func TestNewSchema_Errors(t *testing.T) {
	_, err := NewSchema(nil, &recorder{})
	assert.Error(t, err)

	cat, err := catalog.LoadString("dup.cue", `
entity: Tag: {table: "tag", primary: "id", fields: id: "int"}
entity: Label: {table: "label", primary: "id", plural: "Tags", fields: id: "int"}
`)
	require.NoError(t, err)
	_, err = NewSchema(cat, &recorder{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getAllTags")
}
