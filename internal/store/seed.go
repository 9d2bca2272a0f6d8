package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"gopkg.in/yaml.v3"

	"github.com/roach88/dynql/internal/catalog"
	"github.com/roach88/dynql/internal/querysql"
)

// Fixtures are rows to insert, keyed by entity name. Each row maps field
// names to values.
//
//	User:
//	  - {userId: 1, firstName: Ada, lastName: Lovelace}
//	Post:
//	  - {postId: 1, userId: 1, title: Notes}
type Fixtures map[string][]map[string]any

// ParseFixtures decodes YAML fixtures.
func ParseFixtures(r io.Reader) (Fixtures, error) {
	var f Fixtures
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return Fixtures{}, nil
		}
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return f, nil
}

// SeedFile loads YAML fixtures from path and inserts them.
func (s *Store) SeedFile(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	defer file.Close()

	f, err := ParseFixtures(file)
	if err != nil {
		return 0, err
	}
	return s.Seed(ctx, f)
}

// Seed inserts fixtures in one transaction, entity by entity in catalog
// order, and returns the number of rows written. Rows whose primary key
// already exists are replaced, so seeding is repeatable.
func (s *Store) Seed(ctx context.Context, f Fixtures) (int, error) {
	for name := range f {
		if _, ok := s.catalog.Entity(name); !ok {
			return 0, fmt.Errorf("seed: unknown entity %q", name)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed: begin: %w", err)
	}
	defer tx.Rollback()

	count := 0
	for _, e := range s.catalog.Entities() {
		for i, row := range f[e.Name] {
			query, args, err := insertRow(e, row)
			if err != nil {
				return 0, fmt.Errorf("seed %s[%d]: %w", e.Name, i, err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return 0, fmt.Errorf("seed %s[%d]: %w", e.Name, i, err)
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed: commit: %w", err)
	}
	return count, nil
}

// insertRow renders an INSERT OR REPLACE for one fixture row. Columns are
// emitted in field name order.
func insertRow(e *catalog.Entity, row map[string]any) (string, []any, error) {
	if len(row) == 0 {
		return "", nil, fmt.Errorf("empty row")
	}

	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]string, 0, len(names))
	vals := make([]any, 0, len(names))
	for _, name := range names {
		field, ok := e.Field(name)
		if !ok {
			return "", nil, fmt.Errorf("unknown field %q", name)
		}
		v, err := fixtureValue(row[name], field.Type)
		if err != nil {
			return "", nil, fmt.Errorf("field %q: %w", name, err)
		}
		cols = append(cols, querysql.QuoteIdent(field.Column))
		vals = append(vals, v)
	}

	return sq.Insert(querysql.QuoteIdent(e.Table)).
		Options("OR REPLACE").
		Columns(cols...).
		Values(vals...).
		PlaceholderFormat(sq.Question).
		ToSql()
}

// fixtureValue checks a decoded YAML value against the field type.
func fixtureValue(v any, t catalog.FieldType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case catalog.TypeInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case catalog.TypeString:
		if str, ok := v.(string); ok {
			return str, nil
		}
	case catalog.TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%v (%T) is not a %s", v, v, t)
}
