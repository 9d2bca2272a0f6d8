package querytree

import (
	"reflect"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/roach88/dynql/internal/ir"
)

// MetaTypeName is the introspection field that never becomes a tree node.
const MetaTypeName = "__typename"

// builder holds the request-scoped state needed while walking selections.
type builder struct {
	fragments map[string]ast.Definition
	variables map[string]interface{}
}

// Build constructs the selection tree for the field currently being resolved.
//
// The root node is seeded from info.FieldName, the field's declared
// arguments as supplied in the request, and its declared return type.
// Selections of every AST occurrence of the field are merged into one
// node. Hydrated rows are keyed by field name, not response key, so
// occurrences that differ in their arguments are rejected.
//
// Returns a *SchemaError when the request does not resolve structurally.
func Build(info graphql.ResolveInfo) (*Node, error) {
	if len(info.FieldASTs) == 0 {
		return nil, newSchemaError(ErrCodeUnknownField, info.FieldName, "no field AST for %q", info.FieldName)
	}

	b := &builder{
		fragments: info.Fragments,
		variables: info.VariableValues,
	}

	def, ok := FieldsOf(info.ParentType)[info.FieldName]
	if !ok {
		return nil, newSchemaError(ErrCodeUnknownField, info.FieldName,
			"field %q is not declared on %s", info.FieldName, typeName(info.ParentType))
	}

	return b.buildField(info.FieldName, def, info.FieldASTs, info.FieldName)
}

// buildField builds the node for one field. occurrences holds every AST
// node that requested this field at the current level; they must agree on
// arguments, and their selection sets are merged.
func (b *builder) buildField(name string, def *graphql.FieldDefinition, occurrences []*ast.Field, path string) (*Node, error) {
	named := NamedType(def.Type)

	props, err := b.occurrenceProperties(named, def, occurrences[0], path)
	if err != nil {
		return nil, err
	}
	for _, occ := range occurrences[1:] {
		other, err := b.occurrenceProperties(named, def, occ, path)
		if err != nil {
			return nil, err
		}
		if !reflect.DeepEqual(props.Args, other.Args) || !reflect.DeepEqual(props.Options, other.Options) {
			return nil, newSchemaError(ErrCodeConflictingArguments, path,
				"field %q is selected more than once with different arguments", name)
		}
	}

	var selections []ast.Selection
	hasSelectionSet := false
	for _, occ := range occurrences {
		if occ.SelectionSet != nil {
			hasSelectionSet = true
			selections = append(selections, occ.SelectionSet.Selections...)
		}
	}

	if !hasSelectionSet {
		if isComposite(named) {
			return nil, newSchemaError(ErrCodeEmptyRelation, path,
				"field %q of type %s must select at least one sub-field", name, named.Name())
		}
		return NewLeaf(name, props), nil
	}

	if !isComposite(named) {
		return nil, newSchemaError(ErrCodeScalarSelection, path,
			"field %q of type %s has no sub-fields to select", name, named.Name())
	}

	children, err := b.buildChildren(named, selections, path)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, newSchemaError(ErrCodeEmptyRelation, path,
			"relation %q selects no fields", name)
	}

	return NewRelation(name, props, children...), nil
}

func (b *builder) occurrenceProperties(named graphql.Type, def *graphql.FieldDefinition, occ *ast.Field, path string) (*Properties, error) {
	raw, err := b.resolveArguments(def, occ.Arguments, path)
	if err != nil {
		return nil, err
	}
	return buildProperties(named, raw, path)
}

// buildChildren flattens one level of selections and builds a node per
// distinct field name, in order of first appearance.
func (b *builder) buildChildren(parent graphql.Type, selections []ast.Selection, path string) ([]*Node, error) {
	fields, err := b.flatten(selections, map[string]bool{}, path)
	if err != nil {
		return nil, err
	}

	var order []string
	grouped := make(map[string][]*ast.Field)
	for _, f := range fields {
		name := f.Name.Value
		if name == MetaTypeName {
			continue
		}
		if _, seen := grouped[name]; !seen {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], f)
	}

	defs := FieldsOf(parent)
	children := make([]*Node, 0, len(order))
	for _, name := range order {
		childPath := path + "." + name
		def, ok := defs[name]
		if !ok {
			return nil, newSchemaError(ErrCodeUnknownField, childPath,
				"field %q is not declared on %s", name, parent.Name())
		}

		child, err := b.buildField(name, def, grouped[name], childPath)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return children, nil
}

// flatten replaces fragment spreads and inline fragments with the fields
// they contain, recursively, preserving order. visiting guards against
// fragments that spread themselves.
func (b *builder) flatten(selections []ast.Selection, visiting map[string]bool, path string) ([]*ast.Field, error) {
	var fields []*ast.Field

	for _, sel := range selections {
		switch s := sel.(type) {
		case *ast.Field:
			fields = append(fields, s)

		case *ast.FragmentSpread:
			name := s.Name.Value
			frag, ok := b.fragments[name].(*ast.FragmentDefinition)
			if !ok {
				return nil, newSchemaError(ErrCodeUnknownFragment, path, "unknown fragment %q", name)
			}
			if visiting[name] {
				return nil, newSchemaError(ErrCodeFragmentCycle, path, "fragment %q spreads itself", name)
			}
			if frag.SelectionSet == nil {
				continue
			}

			visiting[name] = true
			inner, err := b.flatten(frag.SelectionSet.Selections, visiting, path)
			delete(visiting, name)
			if err != nil {
				return nil, err
			}
			fields = append(fields, inner...)

		case *ast.InlineFragment:
			if s.SelectionSet == nil {
				continue
			}
			inner, err := b.flatten(s.SelectionSet.Selections, visiting, path)
			if err != nil {
				return nil, err
			}
			fields = append(fields, inner...)
		}
	}

	return fields, nil
}

// buildProperties classifies resolved arguments against the field names of
// t. Scalar types have no fields, so their arguments are neither filters
// nor options.
func buildProperties(t graphql.Type, raw []Arg, path string) (*Properties, error) {
	props := NewProperties(t)

	defs := FieldsOf(t)
	if defs == nil {
		return props, nil
	}

	names := make(map[string]struct{}, len(defs))
	for name := range defs {
		names[name] = struct{}{}
	}

	fields, options := Classify(names, raw)
	for _, arg := range fields {
		v, err := ir.FromGo(arg.Value)
		if err != nil {
			return nil, newSchemaError(ErrCodeInvalidArgument, path, "argument %q: %v", arg.Name, err)
		}
		props.Args[arg.Name] = v
	}
	props.Options = BuildOptions(options)

	return props, nil
}

// NamedType strips list and non-null wrappers until a named type remains.
// [Post!]! becomes Post.
func NamedType(t graphql.Type) graphql.Type {
	for {
		switch w := t.(type) {
		case *graphql.NonNull:
			t = w.OfType
		case *graphql.List:
			t = w.OfType
		default:
			return t
		}
	}
}

// FieldsOf returns the field definitions of an object or interface type,
// or nil for any other type.
func FieldsOf(t graphql.Type) graphql.FieldDefinitionMap {
	switch nt := NamedType(t).(type) {
	case *graphql.Object:
		return nt.Fields()
	case *graphql.Interface:
		return nt.Fields()
	default:
		return nil
	}
}

func isComposite(t graphql.Type) bool {
	switch t.(type) {
	case *graphql.Object, *graphql.Interface, *graphql.Union:
		return true
	default:
		return false
	}
}

func typeName(t graphql.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}
