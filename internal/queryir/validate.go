package queryir

import (
	"fmt"

	"github.com/roach88/dynql/internal/ir"
)

// ValidationResult contains the structural analysis of a plan.
type ValidationResult struct {
	// IsValid indicates the plan can be compiled to SQL and hydrated.
	IsValid bool

	// Problems lists every structural defect found. Empty when IsValid.
	Problems []string
}

// Validate checks that a plan is well formed:
//  1. Every alias is non-empty and unique
//  2. Every join hangs under an alias introduced before it
//  3. Every column, predicate and order clause references a known alias
//  4. Predicates compare against scalar, non-null values
//  5. At least one column is selected
//
// Validate is a pure function with no side effects.
func Validate(sel Select) ValidationResult {
	v := &validator{
		problems: []string{},
		aliases:  make(map[string]bool),
	}
	v.validateSelect(sel)

	return ValidationResult{
		IsValid:  len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
	aliases  map[string]bool
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) declare(alias string) {
	if alias == "" {
		v.addProblem("empty alias")
		return
	}
	if v.aliases[alias] {
		v.addProblem("alias %q is used more than once", alias)
	}
	v.aliases[alias] = true
}

func (v *validator) validateSelect(sel Select) {
	v.declare(sel.From.Alias)
	if sel.From.Table == "" {
		v.addProblem("root source %q has no table", sel.From.Alias)
	}

	// Joins are checked in order: a join may only hang under a root or an
	// earlier join.
	for _, j := range sel.Joins {
		if !v.aliases[j.Parent] {
			v.addProblem("join %q hangs under unknown alias %q", j.Source.Alias, j.Parent)
		}
		if j.Kind != LeftOuter {
			v.addProblem("join %q has unsupported kind %q", j.Source.Alias, j.Kind)
		}
		v.declare(j.Source.Alias)
		v.validateColumn("join condition", j.On.Parent)
		v.validateColumn("join condition", j.On.Child)
	}

	if len(sel.Columns) == 0 {
		v.addProblem("no columns selected")
	}
	for _, c := range sel.Columns {
		v.validateColumn("column", c)
	}
	for _, o := range sel.OrderBy {
		v.validateColumn("order", o.Column)
		if o.Direction != Asc && o.Direction != Desc {
			v.addProblem("order on %s has unknown direction %q", o.Column.Ref(), o.Direction)
		}
	}

	v.validatePredicate(sel.Where)
}

func (v *validator) validateColumn(role string, c Column) {
	if !v.aliases[c.Alias] {
		v.addProblem("%s %s references unknown alias %q", role, c.Ref(), c.Alias)
	}
	if c.Name == "" {
		v.addProblem("%s %s has no physical column", role, c.Ref())
	}
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		return
	}

	switch pred := p.(type) {
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	v.validateColumn("predicate", eq.Column)

	switch eq.Value.(type) {
	case ir.IRString, ir.IRInt, ir.IRBool:
	case ir.IRNull, nil:
		v.addProblem("%s compared to NULL never matches", eq.Column.Ref())
	default:
		v.addProblem("%s compared to non-scalar %T", eq.Column.Ref(), eq.Value)
	}
}
