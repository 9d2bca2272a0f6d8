package resolver

import (
	"github.com/graphql-go/graphql"

	"github.com/roach88/dynql/internal/catalog"
	"github.com/roach88/dynql/internal/querytree"
)

// Base is the pair of root queries served for one entity: a single lookup
// by identifying arguments and a filtered, ordered list lookup.
type Base struct {
	// Marker names the entity the queries are compiled against.
	Marker string
	Type   *graphql.Object

	Singular string // get<Singular>
	Plural   string // getAll<Plural>

	Identify graphql.FieldConfigArgument
	Filter   graphql.FieldConfigArgument
}

// NewBase derives the root queries of e from its catalog declaration.
func NewBase(e *catalog.Entity, t *graphql.Object) Base {
	return Base{
		Marker:   e.Name,
		Type:     t,
		Singular: e.Name,
		Plural:   e.Plural,
		Identify: IdentifyArgs(e),
		Filter:   FilterArgs(e),
	}
}

// Fields returns the root query fields, keyed by query name.
func (b Base) Fields(finder Finder) graphql.Fields {
	return graphql.Fields{
		"get" + b.Singular: &graphql.Field{
			Type:    b.Type,
			Args:    b.Identify,
			Resolve: b.findOne(finder),
		},
		"getAll" + b.Plural: &graphql.Field{
			Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(b.Type))),
			Args:    b.Filter,
			Resolve: b.find(finder),
		},
	}
}

func (b Base) findOne(finder Finder) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		tree, err := querytree.Build(p.Info)
		if err != nil {
			return nil, err
		}
		entity, found, err := finder.FindOne(p.Context, tree, b.Marker)
		if err != nil || !found {
			return nil, err
		}
		return entity, nil
	}
}

func (b Base) find(finder Finder) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		tree, err := querytree.Build(p.Info)
		if err != nil {
			return nil, err
		}
		return finder.Find(p.Context, tree, b.Marker)
	}
}
