package queryir

import (
	"github.com/roach88/dynql/internal/ir"
)

// Source is an aliased table access.
type Source struct {
	Entity string // Entity marker (e.g., "Post")
	Table  string // Physical table (e.g., "post")
	Alias  string // Plan alias (e.g., "post", "post_author")

	// Key is the primary key column under Alias. It identifies rows during
	// hydration and is not part of the projection.
	Key Column
}

// Column is an alias-qualified entity field.
//
// Field is the entity's property name, Name its physical column. Rows are
// keyed by Ref(), so "post_author.firstName" identifies the firstName of
// the author joined under post.
type Column struct {
	Alias string
	Field string
	Name  string
}

// Ref returns the alias-qualified field reference, alias.field.
func (c Column) Ref() string {
	return c.Alias + "." + c.Field
}

// Direction is an ordering direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order is one ORDER BY clause.
type Order struct {
	Column    Column
	Direction Direction
}

// JoinKind is the kind of a join. Only left outer joins are produced, so a
// parent row without related rows is kept with null relation columns.
type JoinKind string

const (
	LeftOuter JoinKind = "LEFT"
)

// Join attaches a related entity under a fresh alias.
//
// Semantics:
//
//	LEFT JOIN <source.table> AS <source.alias> ON <on.parent> = <on.child>
//
// Parent and Path record where the join hangs in the entity graph so that
// joined rows can be nested back under their parent during hydration.
type Join struct {
	Kind   JoinKind
	Parent string // Alias of the parent source
	Path   string // Relation path on the parent entity (e.g., "author")
	Source Source
	Many   bool // One-to-many relations hydrate as lists
	On     JoinOn
}

// JoinOn is an equi-join condition: Parent column equals Child column.
type JoinOn struct {
	Parent Column
	Child  Column
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Equals is an alias-qualified column compared to a literal.
//
// Semantics:
//
//	<column.alias>.<column.name> = <value>
//
// Example:
//
//	Equals{Column: Column{Alias: "post", Field: "postId", Name: "postId"}, Value: ir.IRInt(7)}
type Equals struct {
	Column Column
	Value  ir.IRValue
}

func (Equals) predicateNode() {}

// And is a conjunction of predicates. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Select is a complete query plan.
//
// Semantics:
//
//	SELECT <columns> FROM <from> <joins> WHERE <where> ORDER BY <order>
type Select struct {
	From    Source
	Columns []Column
	Joins   []Join
	Where   Predicate // nil = no filter
	OrderBy []Order
}

// JoinCount returns the number of joins in the plan.
func (s Select) JoinCount() int {
	return len(s.Joins)
}

// Aliases returns the root alias followed by every join alias, in plan order.
func (s Select) Aliases() []string {
	out := make([]string, 0, 1+len(s.Joins))
	out = append(out, s.From.Alias)
	for _, j := range s.Joins {
		out = append(out, j.Source.Alias)
	}
	return out
}

// ColumnRefs returns the alias-qualified references of the selected columns.
func (s Select) ColumnRefs() []string {
	out := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		out = append(out, c.Ref())
	}
	return out
}

// Predicates flattens Where into its equality predicates, in order.
func (s Select) Predicates() []Equals {
	var out []Equals
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch pred := p.(type) {
		case Equals:
			out = append(out, pred)
		case *Equals:
			out = append(out, *pred)
		case And:
			for _, sub := range pred.Predicates {
				walk(sub)
			}
		case *And:
			for _, sub := range pred.Predicates {
				walk(sub)
			}
		}
	}
	walk(s.Where)
	return out
}

// Describe renders the plan as plain maps and slices suitable for
// ir.MarshalCanonical. It is the printable form used by plan fingerprints,
// golden files and the plan command.
func (s Select) Describe() map[string]any {
	columns := make([]any, 0, len(s.Columns))
	for _, c := range s.Columns {
		columns = append(columns, c.Ref())
	}

	joins := make([]any, 0, len(s.Joins))
	for _, j := range s.Joins {
		joins = append(joins, map[string]any{
			"kind":   string(j.Kind),
			"from":   j.Parent + "." + j.Path,
			"alias":  j.Source.Alias,
			"entity": j.Source.Entity,
			"many":   j.Many,
			"on":     j.On.Parent.Ref() + " = " + j.On.Child.Ref(),
		})
	}

	where := make([]any, 0)
	for _, eq := range s.Predicates() {
		where = append(where, map[string]any{
			"column": eq.Column.Ref(),
			"equals": eq.Value,
		})
	}

	order := make([]any, 0, len(s.OrderBy))
	for _, o := range s.OrderBy {
		order = append(order, o.Column.Ref()+" "+string(o.Direction))
	}

	return map[string]any{
		"from":    map[string]any{"entity": s.From.Entity, "table": s.From.Table, "alias": s.From.Alias},
		"columns": columns,
		"joins":   joins,
		"where":   where,
		"order":   order,
	}
}

// Fingerprint returns a stable hash of the plan's printable form.
func (s Select) Fingerprint() (string, error) {
	return ir.Fingerprint(ir.DomainPlan, s.Describe())
}
