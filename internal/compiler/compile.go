package compiler

import (
	"strings"

	"github.com/roach88/dynql/internal/catalog"
	"github.com/roach88/dynql/internal/queryir"
	"github.com/roach88/dynql/internal/querytree"
)

// Catalog is the metadata the compiler reads. *catalog.Catalog implements it.
type Catalog interface {
	// Entity looks up an entity by marker.
	Entity(marker string) (*catalog.Entity, bool)

	// Resolve looks up the relation named path on parent.
	Resolve(parent *catalog.Entity, path string) (catalog.Link, bool)
}

// Compiler turns selection trees into query plans. It holds no per-call
// state and is safe for concurrent use.
type Compiler struct {
	catalog Catalog
}

// New creates a compiler over cat.
func New(cat Catalog) *Compiler {
	return &Compiler{catalog: cat}
}

// Result is the outcome of one compilation.
type Result struct {
	Plan queryir.Select

	// Skipped lists the tree paths of relation nodes that resolved to no
	// declared relation and were left out of the plan.
	Skipped []string
}

// Entity resolves an entity marker.
func (c *Compiler) Entity(marker string) (*catalog.Entity, error) {
	e, ok := c.catalog.Entity(marker)
	if !ok {
		return nil, newCompileError(ErrCodeUnknownEntity, "", "unknown entity %q", marker)
	}
	return e, nil
}

// Compile builds a fresh plan for tree rooted at the entity named marker.
func (c *Compiler) Compile(tree *querytree.Node, marker string) (*Result, error) {
	entity, err := c.Entity(marker)
	if err != nil {
		return nil, err
	}
	return c.CompileInto(queryir.NewBuilder(RootSource(entity)), tree, entity)
}

// CompileInto adds tree's projection, filters, ordering and joins to b,
// whose root alias must belong to entity. The caller clears any default
// projection on b beforehand.
//
// For every tree node that names a declared relation, exactly one left
// outer join is added under an alias derived from the parent alias and the
// relation path, and compilation descends with the related entity's
// metadata. Relation nodes that name no declared relation are skipped.
func (c *Compiler) CompileInto(b *queryir.Builder, tree *querytree.Node, entity *catalog.Entity) (*Result, error) {
	if tree == nil || !tree.IsRelation() {
		name := ""
		if tree != nil {
			name = tree.Name
		}
		return nil, newCompileError(ErrCodeNotARelation, name, "query root must select at least one field")
	}

	cc := &compilation{catalog: c.catalog, builder: b}
	if err := cc.compile(tree, b.Alias(), entity, tree.Name); err != nil {
		return nil, err
	}

	plan := b.Build()
	if res := queryir.Validate(plan); !res.IsValid {
		return nil, newCompileError(ErrCodeInvalidPlan, tree.Name, "%s", strings.Join(res.Problems, "; "))
	}

	return &Result{Plan: plan, Skipped: cc.skipped}, nil
}

// compilation is the state of one CompileInto call.
type compilation struct {
	catalog Catalog
	builder *queryir.Builder
	skipped []string
}

func (cc *compilation) compile(node *querytree.Node, alias string, entity *catalog.Entity, path string) error {
	b := cc.builder
	props := node.Properties
	if props == nil {
		props = querytree.NewProperties(nil)
	}
	argKeys := props.ArgKeys()

	// Projection: requested leaves, then argument columns.
	for _, child := range node.Children {
		if child.IsRelation() {
			continue
		}
		col, err := ColumnFor(entity, alias, child.Name)
		if err != nil {
			return withPath(err, path+"."+child.Name)
		}
		b.AddSelect(col)
	}
	for _, key := range argKeys {
		col, err := ColumnFor(entity, alias, key)
		if err != nil {
			return withPath(err, path)
		}
		b.AddSelect(col)
	}

	// Ordering.
	for _, key := range props.Options.OrderKeys() {
		col, err := ColumnFor(entity, alias, key)
		if err != nil {
			return withPath(err, path)
		}
		b.AddOrderBy(col, directionOf(props.Options.Order[key]))
	}

	// Filters.
	for _, key := range argKeys {
		col, err := ColumnFor(entity, alias, key)
		if err != nil {
			return withPath(err, path)
		}
		b.AndWhere(col, props.Args[key])
	}

	// Relations.
	for _, child := range node.Children {
		if !child.IsRelation() {
			continue
		}
		childPath := path + "." + child.Name

		link, ok := cc.catalog.Resolve(entity, child.Name)
		if !ok {
			cc.skipped = append(cc.skipped, childPath)
			continue
		}

		joinAlias := catalog.JoinAlias(alias, link.Path())
		parentCol, err := ColumnFor(entity, alias, link.Local)
		if err != nil {
			return withPath(err, childPath)
		}
		childCol, err := ColumnFor(link.Entity, joinAlias, link.Remote)
		if err != nil {
			return withPath(err, childPath)
		}

		b.LeftJoinAndSelect(alias, link.Path(), SourceFor(link.Entity, joinAlias),
			queryir.JoinOn{Parent: parentCol, Child: childCol}, link.Many())

		if err := cc.compile(child, joinAlias, link.Entity, childPath); err != nil {
			return err
		}
	}

	return nil
}

// RootSource returns the aliased root source of a query over e.
func RootSource(e *catalog.Entity) queryir.Source {
	return SourceFor(e, catalog.RootAlias(e.Name))
}

// SourceFor returns e's table under alias.
func SourceFor(e *catalog.Entity, alias string) queryir.Source {
	return queryir.Source{
		Entity: e.Name,
		Table:  e.Table,
		Alias:  alias,
		Key:    queryir.Column{Alias: alias, Field: e.Primary, Name: e.PrimaryColumn()},
	}
}

// ColumnFor returns the alias-qualified column of e's field.
func ColumnFor(e *catalog.Entity, alias, field string) (queryir.Column, error) {
	f, ok := e.Field(field)
	if !ok {
		return queryir.Column{}, newCompileError(ErrCodeUnknownColumn, "",
			"%s has no column for %q", e.Name, field)
	}
	return queryir.Column{Alias: alias, Field: f.Name, Name: f.Column}, nil
}

// Columns returns every column of e under alias, in declaration order.
func Columns(e *catalog.Entity, alias string) []queryir.Column {
	cols := make([]queryir.Column, 0, len(e.Fields))
	for _, f := range e.Fields {
		cols = append(cols, queryir.Column{Alias: alias, Field: f.Name, Name: f.Column})
	}
	return cols
}

func directionOf(d querytree.Direction) queryir.Direction {
	if d == querytree.Descending {
		return queryir.Desc
	}
	return queryir.Asc
}

func withPath(err error, path string) error {
	if ce, ok := err.(*CompileError); ok && ce.Path == "" {
		ce.Path = path
	}
	return err
}
