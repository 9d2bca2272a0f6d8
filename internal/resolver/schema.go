package resolver

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/roach88/dynql/internal/catalog"
	"github.com/roach88/dynql/internal/querytree"
)

// Finder answers selection trees. *repository.Repository implements it.
type Finder interface {
	FindOne(ctx context.Context, tree *querytree.Node, marker string) (map[string]any, bool, error)
	Find(ctx context.Context, tree *querytree.Node, marker string) ([]map[string]any, error)
}

var scalars = map[catalog.FieldType]graphql.Output{
	catalog.TypeInt:    graphql.Int,
	catalog.TypeString: graphql.String,
	catalog.TypeBool:   graphql.Boolean,
}

// NewSchema builds the executable schema for cat, resolving root queries
// through finder.
func NewSchema(cat *catalog.Catalog, finder Finder) (graphql.Schema, error) {
	if cat == nil || len(cat.Entities()) == 0 {
		return graphql.Schema{}, fmt.Errorf("build schema: catalog declares no entities")
	}

	g := &generator{catalog: cat, objects: make(map[string]*graphql.Object)}
	for _, e := range cat.Entities() {
		g.objects[e.Name] = g.object(e)
	}

	root := graphql.Fields{}
	for _, e := range cat.Entities() {
		b := NewBase(e, g.objects[e.Name])
		for name, field := range b.Fields(finder) {
			if _, dup := root[name]; dup {
				return graphql.Schema{}, fmt.Errorf("build schema: query %s is generated twice", name)
			}
			root[name] = field
		}
	}

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: root}),
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("build schema: %w", err)
	}
	return schema, nil
}

type generator struct {
	catalog *catalog.Catalog
	objects map[string]*graphql.Object
}

// object declares e's type. Fields are a thunk so that relations can refer
// to types declared later.
func (g *generator) object(e *catalog.Entity) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: e.Name,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			fields := graphql.Fields{}
			for _, f := range e.Fields {
				var t graphql.Output = scalars[f.Type]
				if f.Name == e.Primary {
					t = graphql.NewNonNull(t)
				}
				fields[f.Name] = &graphql.Field{Type: t}
			}
			for _, r := range e.Relations {
				target, ok := g.catalog.Entity(r.Target)
				if !ok {
					continue
				}
				obj := g.objects[target.Name]
				if !r.Many() {
					fields[r.Name] = &graphql.Field{Type: obj}
					continue
				}
				fields[r.Name] = &graphql.Field{
					Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(obj))),
					Args: FilterArgs(target),
				}
			}
			return fields
		}),
	})
}

// IdentifyArgs returns the required arguments of e's single lookup.
func IdentifyArgs(e *catalog.Entity) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{}
	for _, name := range e.Args.Identify {
		if f, ok := e.Field(name); ok {
			args[name] = &graphql.ArgumentConfig{Type: graphql.NewNonNull(scalars[f.Type])}
		}
	}
	return args
}

// FilterArgs returns the optional filter arguments of e's list lookups,
// plus the ordering options.
func FilterArgs(e *catalog.Entity) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{
		querytree.OptionOrderAscBy:  &graphql.ArgumentConfig{Type: graphql.String},
		querytree.OptionOrderDescBy: &graphql.ArgumentConfig{Type: graphql.String},
	}
	for _, name := range e.Args.Filter {
		if f, ok := e.Field(name); ok {
			args[name] = &graphql.ArgumentConfig{Type: scalars[f.Type]}
		}
	}
	return args
}
