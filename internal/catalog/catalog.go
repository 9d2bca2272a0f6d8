package catalog

import (
	"fmt"
	"strings"
)

// FieldType is the storage type of an entity field.
type FieldType string

const (
	TypeInt    FieldType = "int"
	TypeString FieldType = "string"
	TypeBool   FieldType = "bool"
)

// Cardinality describes how many target rows a relation yields per source row.
type Cardinality string

const (
	ManyToOne Cardinality = "many-to-one"
	OneToOne  Cardinality = "one-to-one"
	OneToMany Cardinality = "one-to-many"
)

// Field is one stored property of an entity.
type Field struct {
	Name   string
	Column string
	Type   FieldType
}

// Relation is a declared association from one entity to another.
//
// The join condition is source.Local = target.Remote.
type Relation struct {
	// Name is the property name the relation is requested by.
	Name   string
	Target string
	Kind   Cardinality
	Local  string
	Remote string
}

// Path is the canonical path used to derive the join alias.
func (r Relation) Path() string { return r.Name }

// Many reports whether the relation yields a list.
func (r Relation) Many() bool { return r.Kind == OneToMany }

// ArgShape lists the fields an entity can be queried by.
type ArgShape struct {
	// Identify are the arguments of the single-entity lookup.
	Identify []string
	// Filter are the optional arguments of the list lookup.
	Filter []string
}

// Entity is the relational metadata of one entity kind.
type Entity struct {
	Name      string
	Table     string
	Plural    string
	Primary   string
	Fields    []Field
	Relations []Relation
	Args      ArgShape
}

// Field returns the named field.
func (e *Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Relation returns the named relation.
func (e *Entity) Relation(name string) (Relation, bool) {
	for _, r := range e.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// PrimaryColumn returns the column of the primary key field.
func (e *Entity) PrimaryColumn() string {
	f, _ := e.Field(e.Primary)
	return f.Column
}

// Link is a resolved relation together with its target entity.
type Link struct {
	Relation
	Entity *Entity
}

// Catalog is the read-only set of entity metadata. It is safe for
// concurrent use once constructed.
type Catalog struct {
	entities map[string]*Entity
	order    []string
}

// New validates the entities and builds a catalog.
func New(entities ...*Entity) (*Catalog, error) {
	c := &Catalog{entities: make(map[string]*Entity, len(entities))}

	for _, e := range entities {
		if e.Name == "" {
			return nil, fmt.Errorf("entity name is required")
		}
		if _, dup := c.entities[e.Name]; dup {
			return nil, fmt.Errorf("entity %s declared twice", e.Name)
		}
		if e.Table == "" {
			return nil, fmt.Errorf("entity %s: table is required", e.Name)
		}
		if e.Plural == "" {
			e.Plural = e.Name + "s"
		}
		for i := range e.Fields {
			f := &e.Fields[i]
			if f.Column == "" {
				f.Column = f.Name
			}
			if err := checkFieldType(f.Type); err != nil {
				return nil, fmt.Errorf("entity %s field %s: %w", e.Name, f.Name, err)
			}
		}
		if _, ok := e.Field(e.Primary); !ok {
			return nil, fmt.Errorf("entity %s: primary key %q is not a field", e.Name, e.Primary)
		}
		for _, name := range append(append([]string{}, e.Args.Identify...), e.Args.Filter...) {
			if _, ok := e.Field(name); !ok {
				return nil, fmt.Errorf("entity %s: argument %q is not a field", e.Name, name)
			}
		}

		c.entities[e.Name] = e
		c.order = append(c.order, e.Name)
	}

	for _, name := range c.order {
		e := c.entities[name]
		for _, r := range e.Relations {
			target, ok := c.entities[r.Target]
			if !ok {
				return nil, fmt.Errorf("entity %s relation %s: unknown target %q", e.Name, r.Name, r.Target)
			}
			if strings.Contains(r.Name, "_") {
				return nil, fmt.Errorf("entity %s relation %s: relation names may not contain \"_\"", e.Name, r.Name)
			}
			if _, ok := e.Field(r.Name); ok {
				return nil, fmt.Errorf("entity %s: %q is both a field and a relation", e.Name, r.Name)
			}
			if _, ok := e.Field(r.Local); !ok {
				return nil, fmt.Errorf("entity %s relation %s: local field %q is not declared", e.Name, r.Name, r.Local)
			}
			if _, ok := target.Field(r.Remote); !ok {
				return nil, fmt.Errorf("entity %s relation %s: remote field %q is not declared on %s", e.Name, r.Name, r.Remote, target.Name)
			}
			switch r.Kind {
			case ManyToOne, OneToOne, OneToMany:
			default:
				return nil, fmt.Errorf("entity %s relation %s: unknown kind %q", e.Name, r.Name, r.Kind)
			}
		}
	}

	return c, nil
}

func checkFieldType(t FieldType) error {
	switch t {
	case TypeInt, TypeString, TypeBool:
		return nil
	case "float":
		return fmt.Errorf("float fields are not supported; equality filters need exact values")
	default:
		return fmt.Errorf("unknown field type %q", t)
	}
}

// Entity looks up an entity by its marker (the entity name).
func (c *Catalog) Entity(marker string) (*Entity, bool) {
	e, ok := c.entities[marker]
	return e, ok
}

// Entities returns all entities in declaration order.
func (c *Catalog) Entities() []*Entity {
	out := make([]*Entity, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.entities[name])
	}
	return out
}

// Resolve looks up the relation named path on parent. It reports false when
// parent declares no such relation.
func (c *Catalog) Resolve(parent *Entity, path string) (Link, bool) {
	if parent == nil {
		return Link{}, false
	}
	r, ok := parent.Relation(path)
	if !ok {
		return Link{}, false
	}
	target, ok := c.entities[r.Target]
	if !ok {
		return Link{}, false
	}
	return Link{Relation: r, Entity: target}, true
}

// Describe renders a one-line summary per entity, used by the validate command.
func (c *Catalog) Describe() []string {
	var lines []string
	for _, e := range c.Entities() {
		rels := make([]string, 0, len(e.Relations))
		for _, r := range e.Relations {
			rels = append(rels, fmt.Sprintf("%s->%s(%s)", r.Name, r.Target, r.Kind))
		}
		lines = append(lines, fmt.Sprintf("%s table=%s fields=%d relations=[%s]",
			e.Name, e.Table, len(e.Fields), strings.Join(rels, " ")))
	}
	return lines
}
