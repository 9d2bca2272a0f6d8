package querysql

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/dynql/internal/ir"
	"github.com/roach88/dynql/internal/queryir"
)

// Query is a compiled plan: parameterized SQL, its arguments, and the shape
// needed to nest the flat result rows back into entities.
type Query struct {
	SQL  string
	Args []any

	// Columns lists the result column labels in SELECT order. Each label is
	// a column reference, alias.field.
	Columns []string

	Shape *Shape
}

// SQLCompiler compiles query plans to parameterized SQL for SQLite.
//
// Every query carries an ORDER BY ending in each alias's primary key so
// that row order, and therefore hydrated list order, is deterministic.
// Values are never interpolated; they are always bound as ? placeholders.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a plan to SQL.
//
// The projection is the plan's columns followed by the primary key of any
// alias whose key was not requested; keys are needed to tell rows apart
// during hydration and never reach the caller.
func (c *SQLCompiler) Compile(plan queryir.Select) (*Query, error) {
	if res := queryir.Validate(plan); !res.IsValid {
		return nil, fmt.Errorf("invalid plan: %s", strings.Join(res.Problems, "; "))
	}

	sources := make([]queryir.Source, 0, 1+len(plan.Joins))
	sources = append(sources, plan.From)
	for _, j := range plan.Joins {
		sources = append(sources, j.Source)
	}
	for _, s := range sources {
		if s.Key.Name == "" || s.Key.Field == "" {
			return nil, fmt.Errorf("source %q has no primary key", s.Alias)
		}
	}

	columns := selection(plan, sources)
	exprs := make([]string, 0, len(columns))
	labels := make([]string, 0, len(columns))
	for _, col := range columns {
		exprs = append(exprs, fmt.Sprintf("%s AS %s", qualified(col), QuoteIdent(col.Ref())))
		labels = append(labels, col.Ref())
	}

	q := sq.Select(exprs...).From(table(plan.From))
	for _, j := range plan.Joins {
		q = q.LeftJoin(fmt.Sprintf("%s ON %s = %s",
			table(j.Source), qualified(j.On.Parent), qualified(j.On.Child)))
	}

	for _, eq := range plan.Predicates() {
		param, err := ir.ToParam(eq.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", eq.Column.Ref(), err)
		}
		q = q.Where(sq.Eq{qualified(eq.Column): param})
	}

	q = q.OrderBy(orderBy(plan, sources)...)

	sql, args, err := q.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return nil, fmt.Errorf("render sql: %w", err)
	}

	return &Query{
		SQL:     sql,
		Args:    args,
		Columns: labels,
		Shape:   NewShape(plan),
	}, nil
}

// selection returns the plan's columns plus any missing primary keys.
func selection(plan queryir.Select, sources []queryir.Source) []queryir.Column {
	seen := make(map[string]bool, len(plan.Columns))
	out := make([]queryir.Column, 0, len(plan.Columns)+len(sources))
	for _, col := range plan.Columns {
		seen[col.Ref()] = true
		out = append(out, col)
	}
	for _, s := range sources {
		if !seen[s.Key.Ref()] {
			seen[s.Key.Ref()] = true
			out = append(out, s.Key)
		}
	}
	return out
}

// orderBy returns the requested order followed by a primary key tiebreaker
// per alias.
func orderBy(plan queryir.Select, sources []queryir.Source) []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range plan.OrderBy {
		seen[o.Column.Ref()] = true
		out = append(out, qualified(o.Column)+" "+string(o.Direction))
	}
	for _, s := range sources {
		if !seen[s.Key.Ref()] {
			seen[s.Key.Ref()] = true
			out = append(out, qualified(s.Key)+" "+string(queryir.Asc))
		}
	}
	return out
}

func table(s queryir.Source) string {
	return QuoteIdent(s.Table) + " AS " + QuoteIdent(s.Alias)
}

func qualified(c queryir.Column) string {
	return QuoteIdent(c.Alias) + "." + QuoteIdent(c.Name)
}

// QuoteIdent quotes an SQL identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
