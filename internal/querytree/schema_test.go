package querytree

import (
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/stretchr/testify/require"
)

// blogSchema builds a small User/Post/Page schema for tree tests.
// The root resolvers are nil; tests that execute queries attach their own.
func blogSchema(t *testing.T, resolve graphql.FieldResolveFn) graphql.Schema {
	t.Helper()

	var userType, postType, pageType *graphql.Object

	orderArgs := func(extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
		extra["orderAscBy"] = &graphql.ArgumentConfig{Type: graphql.String}
		extra["orderDescBy"] = &graphql.ArgumentConfig{Type: graphql.String}
		return extra
	}

	userType = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"userId":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"firstName": &graphql.Field{Type: graphql.String},
				"lastName":  &graphql.Field{Type: graphql.String},
				"posts": &graphql.Field{
					Type: graphql.NewList(graphql.NewNonNull(postType)),
					Args: orderArgs(graphql.FieldConfigArgument{
						"title": &graphql.ArgumentConfig{Type: graphql.String},
					}),
				},
			}
		}),
	})

	postType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Post",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"postId": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"userId": &graphql.Field{Type: graphql.Int},
				"title":  &graphql.Field{Type: graphql.String},
				"author": &graphql.Field{Type: userType},
				"pages": &graphql.Field{
					Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(pageType))),
					Args: orderArgs(graphql.FieldConfigArgument{
						"content": &graphql.ArgumentConfig{Type: graphql.String},
					}),
				},
			}
		}),
	})

	pageType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Page",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"pageId":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"postId":  &graphql.Field{Type: graphql.Int},
				"content": &graphql.Field{Type: graphql.String},
				"post":    &graphql.Field{Type: postType},
			}
		}),
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"getPost": &graphql.Field{
				Type: postType,
				Args: graphql.FieldConfigArgument{
					"postId": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: resolve,
			},
			"getAllPosts": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType))),
				Args: orderArgs(graphql.FieldConfigArgument{
					"userId": &graphql.ArgumentConfig{Type: graphql.Int},
					"title":  &graphql.ArgumentConfig{Type: graphql.String},
				}),
				Resolve: resolve,
			},
			"getUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"userId": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: resolve,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: query})
	require.NoError(t, err)
	return schema
}

// infoFor parses query and returns the ResolveInfo the executor would pass
// to the resolver of the first root field. Parsing without validation lets
// tests reach requests a validating executor would reject.
func infoFor(t *testing.T, schema graphql.Schema, query string, vars map[string]interface{}) graphql.ResolveInfo {
	t.Helper()

	doc, err := parser.Parse(parser.ParseParams{Source: query})
	require.NoError(t, err)

	fragments := map[string]ast.Definition{}
	var op *ast.OperationDefinition
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.OperationDefinition:
			if op == nil {
				op = d
			}
		case *ast.FragmentDefinition:
			fragments[d.Name.Value] = d
		}
	}
	require.NotNil(t, op, "query has no operation")
	require.NotEmpty(t, op.SelectionSet.Selections)

	field, ok := op.SelectionSet.Selections[0].(*ast.Field)
	require.True(t, ok, "first root selection must be a field")

	root := schema.QueryType()
	def, ok := root.Fields()[field.Name.Value]
	require.True(t, ok, "unknown root field %q", field.Name.Value)

	return graphql.ResolveInfo{
		FieldName:      field.Name.Value,
		FieldASTs:      []*ast.Field{field},
		ReturnType:     def.Type,
		ParentType:     root,
		Schema:         schema,
		Fragments:      fragments,
		VariableValues: vars,
		Operation:      op,
	}
}

func mustBuild(t *testing.T, query string, vars map[string]interface{}) *Node {
	t.Helper()
	schema := blogSchema(t, nil)
	tree, err := Build(infoFor(t, schema, query, vars))
	require.NoError(t, err)
	return tree
}
