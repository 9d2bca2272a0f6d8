package querytree

import (
	"sort"

	"github.com/graphql-go/graphql"

	"github.com/roach88/dynql/internal/ir"
)

// Properties is the per-node bundle of resolved arguments, options and type.
type Properties struct {
	// Args maps an entity field name to the value it must equal.
	Args map[string]ir.IRValue

	// Options holds ordering directives for this level.
	Options QueryOptions

	// Type is the node's named result type with list and non-null wrappers removed.
	Type graphql.Type
}

// NewProperties creates Properties with empty args and options.
func NewProperties(t graphql.Type) *Properties {
	return &Properties{
		Args:    make(map[string]ir.IRValue),
		Options: QueryOptions{Order: make(map[string]Direction)},
		Type:    t,
	}
}

// ArgKeys returns the argument names in lexical order.
func (p *Properties) ArgKeys() []string {
	keys := make([]string, 0, len(p.Args))
	for k := range p.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TypeName returns the name of the node's type, or "" when unset.
func (p *Properties) TypeName() string {
	if p == nil || p.Type == nil {
		return ""
	}
	return p.Type.Name()
}
