package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/dynql/internal/catalog"
	"github.com/roach88/dynql/internal/compiler"
	"github.com/roach88/dynql/internal/queryir"
	"github.com/roach88/dynql/internal/querysql"
)

// QueryBuilder returns a plan builder rooted at the entity named marker.
// Like most ORMs' query builders it starts out selecting every column of
// the entity; callers that drive the projection themselves clear it first.
func (s *Store) QueryBuilder(marker string) (*queryir.Builder, *catalog.Entity, error) {
	e, ok := s.catalog.Entity(marker)
	if !ok {
		return nil, nil, fmt.Errorf("query builder: unknown entity %q", marker)
	}
	root := compiler.RootSource(e)
	return queryir.NewBuilder(root, compiler.Columns(e, root.Alias)...), e, nil
}

// FindMany executes the plan accumulated on b and returns the hydrated root
// entities. Returns an empty slice (not nil) when nothing matches.
func (s *Store) FindMany(ctx context.Context, b *queryir.Builder) ([]map[string]any, error) {
	q, err := s.sql.Compile(b.Build())
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	return q.Shape.Hydrate(rows), nil
}

// FindOne executes the plan accumulated on b and returns the first hydrated
// root entity. The query carries no LIMIT, since that would cut one-to-many
// children short. Absence is reported as (nil, false, nil).
func (s *Store) FindOne(ctx context.Context, b *queryir.Builder) (map[string]any, bool, error) {
	entities, err := s.FindMany(ctx, b)
	if err != nil {
		return nil, false, err
	}
	if len(entities) == 0 {
		return nil, false, nil
	}
	return entities[0], true, nil
}

// query runs q and returns its rows keyed by column reference, with values
// converted to their field types.
func (s *Store) query(ctx context.Context, q *querysql.Query) ([]querysql.Row, error) {
	types := s.columnTypes(q)

	rows, err := s.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Shape.Entity, err)
	}
	defer rows.Close()

	var out []querysql.Row
	for rows.Next() {
		values := make([]any, len(q.Columns))
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Shape.Entity, err)
		}

		row := make(querysql.Row, len(values))
		for i, label := range q.Columns {
			v, err := convert(values[i], types[label])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", label, err)
			}
			row[label] = v
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", q.Shape.Entity, err)
	}

	return out, nil
}

// columnTypes maps each result label of q to its field type.
func (s *Store) columnTypes(q *querysql.Query) map[string]catalog.FieldType {
	entities := make(map[string]*catalog.Entity)
	q.Shape.Walk(func(sh *querysql.Shape) {
		if e, ok := s.catalog.Entity(sh.Entity); ok {
			entities[sh.Alias] = e
		}
	})

	types := make(map[string]catalog.FieldType, len(q.Columns))
	for _, label := range q.Columns {
		alias, field, _ := strings.Cut(label, ".")
		if e, ok := entities[alias]; ok {
			if f, ok := e.Field(field); ok {
				types[label] = f.Type
			}
		}
	}
	return types
}

// convert normalizes a driver value to the Go type of its field: int for
// int fields, string for string fields, bool for bool fields.
func convert(v any, t catalog.FieldType) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil, nil
	}

	switch t {
	case catalog.TypeInt:
		switch n := v.(type) {
		case int64:
			return int(n), nil
		case int:
			return n, nil
		}
	case catalog.TypeBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case int64:
			return b != 0, nil
		}
	case catalog.TypeString:
		if str, ok := v.(string); ok {
			return str, nil
		}
		return fmt.Sprint(v), nil
	default:
		return v, nil
	}
	return nil, fmt.Errorf("cannot read %T as %s", v, t)
}
