package compiler

import (
	"fmt"

	"github.com/roach88/dynql/internal/catalog"
	"github.com/roach88/dynql/internal/querytree"
)

// Catalog lint codes (E200-E299)
const (
	ErrNoIdentifyArgs     = "E201" // single lookup has no arguments
	ErrJoinTypeMismatch   = "E202" // join columns have different types
	ErrReservedFieldName  = "E203" // field shadows an option argument
	ErrQueryNameCollision = "E204" // two entities generate the same query name
)

// ValidationError is one catalog problem the compiler would trip over at
// request time.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Lint checks a catalog for problems that New cannot see because they
// only matter to query compilation. Returns all problems found (does not
// fail-fast).
func Lint(cat *catalog.Catalog) []ValidationError {
	errs := []ValidationError{}
	queryNames := make(map[string]string)

	for _, e := range cat.Entities() {
		// E201: get<Entity> without arguments cannot identify anything.
		if len(e.Args.Identify) == 0 {
			errs = append(errs, ValidationError{
				Field:   e.Name + ".args.identify",
				Message: "at least one identifying argument is required",
				Code:    ErrNoIdentifyArgs,
			})
		}

		// E203: a field named like an option would be classified as a filter.
		for _, f := range e.Fields {
			if f.Name == querytree.OptionOrderAscBy || f.Name == querytree.OptionOrderDescBy {
				errs = append(errs, ValidationError{
					Field:   e.Name + ".fields." + f.Name,
					Message: fmt.Sprintf("field name %q is reserved for ordering", f.Name),
					Code:    ErrReservedFieldName,
				})
			}
		}

		// E202: join columns must compare like with like.
		for _, r := range e.Relations {
			link, ok := cat.Resolve(e, r.Name)
			if !ok {
				continue
			}
			local, _ := e.Field(r.Local)
			remote, _ := link.Entity.Field(r.Remote)
			if local.Type != remote.Type {
				errs = append(errs, ValidationError{
					Field: e.Name + ".relations." + r.Name,
					Message: fmt.Sprintf("joins %s.%s (%s) to %s.%s (%s)",
						e.Name, local.Name, local.Type, link.Entity.Name, remote.Name, remote.Type),
					Code: ErrJoinTypeMismatch,
				})
			}
		}

		// E204: generated root query names must be unique.
		for _, name := range []string{"get" + e.Name, "getAll" + e.Plural} {
			if owner, dup := queryNames[name]; dup {
				errs = append(errs, ValidationError{
					Field:   e.Name,
					Message: fmt.Sprintf("query %s is also generated by %s", name, owner),
					Code:    ErrQueryNameCollision,
				})
				continue
			}
			queryNames[name] = e.Name
		}
	}

	return errs
}
