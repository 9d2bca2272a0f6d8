package querytree

import (
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// resolveArguments resolves the arguments of one field occurrence.
//
// Supplied arguments come first, in request order, so that option arguments
// keep their last-write-wins order. Declared arguments that were not supplied
// follow in declaration order when they have a default value. Arguments that
// resolve to null are dropped.
func (b *builder) resolveArguments(def *graphql.FieldDefinition, supplied []*ast.Argument, path string) ([]Arg, error) {
	decls := make(map[string]*graphql.Argument, len(def.Args))
	for _, a := range def.Args {
		decls[a.Name()] = a
	}

	var args []Arg
	seen := make(map[string]bool, len(supplied))

	for _, a := range supplied {
		name := a.Name.Value
		decl, ok := decls[name]
		if !ok {
			return nil, newSchemaError(ErrCodeInvalidArgument, path,
				"unknown argument %q on field %q", name, def.Name)
		}
		seen[name] = true

		value, present, err := b.valueFromAST(a.Value, decl.Type)
		if err != nil {
			return nil, newSchemaError(ErrCodeInvalidArgument, path, "argument %q: %v", name, err)
		}
		if !present {
			value = decl.DefaultValue
		}
		if value == nil {
			continue
		}
		args = append(args, Arg{Name: name, Value: value})
	}

	for _, decl := range def.Args {
		if seen[decl.Name()] || decl.DefaultValue == nil {
			continue
		}
		args = append(args, Arg{Name: decl.Name(), Value: decl.DefaultValue})
	}

	return args, nil
}

// valueFromAST coerces a literal or variable reference to a Go value of the
// given input type. present is false only for a variable the request did
// not provide; the caller then falls back to the argument's default.
// Variable values are taken as-is because the executor has already coerced
// them.
func (b *builder) valueFromAST(v ast.Value, t graphql.Input) (value any, present bool, err error) {
	if variable, ok := v.(*ast.Variable); ok {
		value, present = b.variables[variable.Name.Value]
		return value, present, nil
	}

	switch tt := t.(type) {
	case *graphql.NonNull:
		inner, ok := tt.OfType.(graphql.Input)
		if !ok {
			return nil, false, fmt.Errorf("non-null wraps non-input type %s", tt.OfType)
		}
		return b.valueFromAST(v, inner)

	case *graphql.List:
		elem, ok := tt.OfType.(graphql.Input)
		if !ok {
			return nil, false, fmt.Errorf("list wraps non-input type %s", tt.OfType)
		}
		list, ok := v.(*ast.ListValue)
		if !ok {
			// A single value is accepted where a list is expected.
			item, _, err := b.valueFromAST(v, elem)
			if err != nil {
				return nil, false, err
			}
			return []any{item}, true, nil
		}
		items := make([]any, 0, len(list.Values))
		for i, raw := range list.Values {
			item, _, err := b.valueFromAST(raw, elem)
			if err != nil {
				return nil, false, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, item)
		}
		return items, true, nil

	case *graphql.InputObject:
		obj, ok := v.(*ast.ObjectValue)
		if !ok {
			return nil, false, fmt.Errorf("expected input object %s", tt.Name())
		}
		fields := tt.Fields()
		out := make(map[string]any, len(fields))
		for _, f := range obj.Fields {
			decl, ok := fields[f.Name.Value]
			if !ok {
				return nil, false, fmt.Errorf("unknown field %q on input %s", f.Name.Value, tt.Name())
			}
			fv, fieldPresent, err := b.valueFromAST(f.Value, decl.Type)
			if err != nil {
				return nil, false, fmt.Errorf("%s: %w", f.Name.Value, err)
			}
			if fieldPresent && fv != nil {
				out[f.Name.Value] = fv
			}
		}
		for name, decl := range fields {
			if _, set := out[name]; !set && decl.DefaultValue != nil {
				out[name] = decl.DefaultValue
			}
		}
		return out, true, nil

	case *graphql.Scalar:
		return tt.ParseLiteral(v), true, nil

	case *graphql.Enum:
		return tt.ParseLiteral(v), true, nil

	default:
		return nil, false, fmt.Errorf("unsupported input type %T", t)
	}
}
