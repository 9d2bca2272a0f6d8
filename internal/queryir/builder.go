package queryir

import "github.com/roach88/dynql/internal/ir"

// Builder accumulates a plan. It is not safe for concurrent use; each
// compile call owns its own Builder.
type Builder struct {
	sel     Select
	columns map[string]bool
}

// NewBuilder starts a plan over from. defaults is the projection the
// store applies when nothing else is selected; ClearSelect drops it.
func NewBuilder(from Source, defaults ...Column) *Builder {
	b := &Builder{
		sel:     Select{From: from},
		columns: make(map[string]bool),
	}
	b.AddSelect(defaults...)
	return b
}

// Alias returns the root alias.
func (b *Builder) Alias() string {
	return b.sel.From.Alias
}

// ClearSelect removes every selected column.
func (b *Builder) ClearSelect() *Builder {
	b.sel.Columns = nil
	b.columns = make(map[string]bool)
	return b
}

// AddSelect appends columns. A column already selected is not repeated.
func (b *Builder) AddSelect(cols ...Column) *Builder {
	for _, c := range cols {
		if b.columns[c.Ref()] {
			continue
		}
		b.columns[c.Ref()] = true
		b.sel.Columns = append(b.sel.Columns, c)
	}
	return b
}

// AddOrderBy appends an order clause.
func (b *Builder) AddOrderBy(col Column, dir Direction) *Builder {
	b.sel.OrderBy = append(b.sel.OrderBy, Order{Column: col, Direction: dir})
	return b
}

// AndWhere conjoins col = value with the existing filter.
func (b *Builder) AndWhere(col Column, value ir.IRValue) *Builder {
	eq := Equals{Column: col, Value: value}

	switch w := b.sel.Where.(type) {
	case nil:
		b.sel.Where = &And{Predicates: []Predicate{eq}}
	case *And:
		w.Predicates = append(w.Predicates, eq)
	default:
		b.sel.Where = &And{Predicates: []Predicate{w, eq}}
	}
	return b
}

// LeftJoinAndSelect joins target under parentAlias.path. The joined
// alias takes part in hydration; its columns are added with AddSelect.
func (b *Builder) LeftJoinAndSelect(parentAlias, path string, target Source, on JoinOn, many bool) *Builder {
	b.sel.Joins = append(b.sel.Joins, Join{
		Kind:   LeftOuter,
		Parent: parentAlias,
		Path:   path,
		Source: target,
		Many:   many,
		On:     on,
	})
	return b
}

// Build returns a copy of the accumulated plan. Later builder calls do not
// affect it.
func (b *Builder) Build() Select {
	out := Select{
		From:    b.sel.From,
		Columns: append([]Column(nil), b.sel.Columns...),
		Joins:   append([]Join(nil), b.sel.Joins...),
		OrderBy: append([]Order(nil), b.sel.OrderBy...),
	}
	if and, ok := b.sel.Where.(*And); ok {
		out.Where = &And{Predicates: append([]Predicate(nil), and.Predicates...)}
	} else {
		out.Where = b.sel.Where
	}
	return out
}
