package querysql

import (
	"fmt"

	"github.com/roach88/dynql/internal/queryir"
)

// Row is one result row keyed by column reference (alias.field).
type Row map[string]any

// Shape describes how the rows of one alias nest into entities.
type Shape struct {
	Alias  string
	Entity string
	Path   string // relation path on the parent; empty at the root
	Many   bool
	Key    string // primary key reference

	// Fields are the plan columns projected under Alias. Only these appear
	// in hydrated entities.
	Fields   []queryir.Column
	Children []*Shape
}

// NewShape derives the hydration shape of a plan. The plan is assumed
// valid: every join's parent precedes it.
func NewShape(plan queryir.Select) *Shape {
	root := &Shape{
		Alias:  plan.From.Alias,
		Entity: plan.From.Entity,
		Key:    plan.From.Key.Ref(),
	}
	byAlias := map[string]*Shape{root.Alias: root}

	for _, j := range plan.Joins {
		child := &Shape{
			Alias:  j.Source.Alias,
			Entity: j.Source.Entity,
			Path:   j.Path,
			Many:   j.Many,
			Key:    j.Source.Key.Ref(),
		}
		byAlias[child.Alias] = child
		if parent, ok := byAlias[j.Parent]; ok {
			parent.Children = append(parent.Children, child)
		}
	}

	for _, col := range plan.Columns {
		if s, ok := byAlias[col.Alias]; ok {
			s.Fields = append(s.Fields, col)
		}
	}
	return root
}

// Walk calls fn for s and every nested shape, parents first.
func (s *Shape) Walk(fn func(*Shape)) {
	fn(s)
	for _, c := range s.Children {
		c.Walk(fn)
	}
}

// Hydrate nests flat joined rows into entities.
//
// Rows are grouped by primary key at every level, so the repetition a join
// introduces collapses into one entity. Entities appear in the order their
// key is first seen. A many relation with no matching rows hydrates as an
// empty list; a one relation with no match hydrates as nil.
func (s *Shape) Hydrate(rows []Row) []map[string]any {
	roots := newCollection()
	for _, row := range rows {
		s.merge(roots, row)
	}
	return s.materialize(roots)
}

type record struct {
	values    map[string]any
	relations map[string]*collection
}

type collection struct {
	order []*record
	index map[string]*record
}

func newCollection() *collection {
	return &collection{index: make(map[string]*record)}
}

func (s *Shape) merge(into *collection, row Row) {
	key, ok := row[s.Key]
	if !ok || key == nil {
		return
	}
	// Type-qualified so that 1 and "1" stay distinct.
	k := fmt.Sprintf("%T:%v", key, key)

	rec, ok := into.index[k]
	if !ok {
		rec = &record{
			values:    make(map[string]any, len(s.Fields)),
			relations: make(map[string]*collection, len(s.Children)),
		}
		for _, f := range s.Fields {
			rec.values[f.Field] = row[f.Ref()]
		}
		for _, c := range s.Children {
			rec.relations[c.Path] = newCollection()
		}
		into.index[k] = rec
		into.order = append(into.order, rec)
	}

	for _, c := range s.Children {
		c.merge(rec.relations[c.Path], row)
	}
}

func (s *Shape) materialize(coll *collection) []map[string]any {
	out := make([]map[string]any, 0, len(coll.order))
	for _, rec := range coll.order {
		entity := make(map[string]any, len(rec.values)+len(s.Children))
		for k, v := range rec.values {
			entity[k] = v
		}
		for _, c := range s.Children {
			related := c.materialize(rec.relations[c.Path])
			if c.Many {
				list := make([]any, 0, len(related))
				for _, r := range related {
					list = append(list, r)
				}
				entity[c.Path] = list
				continue
			}
			if len(related) == 0 {
				entity[c.Path] = nil
			} else {
				entity[c.Path] = related[0]
			}
		}
		out = append(out, entity)
	}
	return out
}
