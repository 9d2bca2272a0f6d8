package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynql/internal/ir"
)

func col(alias, field string) Column {
	return Column{Alias: alias, Field: field, Name: field}
}

func samplePlan() Select {
	return Select{
		From:    Source{Entity: "Post", Table: "post", Alias: "post"},
		Columns: []Column{col("post", "title"), col("post", "postId"), col("post_author", "firstName")},
		Joins: []Join{{
			Kind:   LeftOuter,
			Parent: "post",
			Path:   "author",
			Source: Source{Entity: "User", Table: "user", Alias: "post_author"},
			On:     JoinOn{Parent: col("post", "userId"), Child: col("post_author", "userId")},
		}},
		Where:   &And{Predicates: []Predicate{Equals{Column: col("post", "postId"), Value: ir.IRInt(7)}}},
		OrderBy: []Order{{Column: col("post", "title"), Direction: Desc}},
	}
}

func TestColumn_Ref(t *testing.T) {
	c := Column{Alias: "post_author", Field: "firstName", Name: "first_name"}
	assert.Equal(t, "post_author.firstName", c.Ref())
}

func TestSelect_Accessors(t *testing.T) {
	sel := samplePlan()

	assert.Equal(t, 1, sel.JoinCount())
	assert.Equal(t, []string{"post", "post_author"}, sel.Aliases())
	assert.Equal(t, []string{"post.title", "post.postId", "post_author.firstName"}, sel.ColumnRefs())

	preds := sel.Predicates()
	require.Len(t, preds, 1)
	assert.Equal(t, "post.postId", preds[0].Column.Ref())
	assert.Equal(t, ir.IRInt(7), preds[0].Value)
}

func TestSelect_PredicatesNested(t *testing.T) {
	sel := Select{Where: And{Predicates: []Predicate{
		&Equals{Column: col("a", "x"), Value: ir.IRInt(1)},
		&And{Predicates: []Predicate{Equals{Column: col("a", "y"), Value: ir.IRBool(true)}}},
	}}}

	preds := sel.Predicates()
	require.Len(t, preds, 2)
	assert.Equal(t, "a.x", preds[0].Column.Ref())
	assert.Equal(t, "a.y", preds[1].Column.Ref())

	assert.Empty(t, Select{}.Predicates())
}

func TestSelect_ImplementsPredicate(t *testing.T) {
	var p Predicate = Equals{}
	switch p.(type) {
	case Equals:
	case And:
		t.Fatal("unexpected type")
	}
}

func TestSelect_Describe(t *testing.T) {
	b, err := ir.MarshalCanonical(samplePlan().Describe())
	require.NoError(t, err)

	assert.Equal(t,
		`{"columns":["post.title","post.postId","post_author.firstName"],`+
			`"from":{"alias":"post","entity":"Post","table":"post"},`+
			`"joins":[{"alias":"post_author","entity":"User","from":"post.author","kind":"LEFT","many":false,"on":"post.userId = post_author.userId"}],`+
			`"order":["post.title DESC"],`+
			`"where":[{"column":"post.postId","equals":7}]}`,
		string(b))
}

func TestSelect_Fingerprint(t *testing.T) {
	a, err := samplePlan().Fingerprint()
	require.NoError(t, err)
	b, err := samplePlan().Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	changed := samplePlan()
	changed.OrderBy[0].Direction = Asc
	c, err := changed.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
