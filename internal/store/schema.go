package store

import (
	"fmt"
	"strings"

	"github.com/roach88/dynql/internal/catalog"
	"github.com/roach88/dynql/internal/querysql"
)

// sqlTypes maps field types to SQLite column types. BOOLEAN makes the
// driver return bool for the column.
var sqlTypes = map[catalog.FieldType]string{
	catalog.TypeInt:    "INTEGER",
	catalog.TypeString: "TEXT",
	catalog.TypeBool:   "BOOLEAN",
}

// DDL returns the CREATE statements for every entity in cat, in catalog
// order: each table followed by the indexes on its incoming join columns.
func DDL(cat *catalog.Catalog) []string {
	var stmts []string
	for _, e := range cat.Entities() {
		stmts = append(stmts, createTable(e))
		stmts = append(stmts, joinIndexes(cat, e)...)
	}
	return stmts
}

func createTable(e *catalog.Entity) string {
	cols := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		def := querysql.QuoteIdent(f.Column) + " " + sqlTypes[f.Type]
		if f.Name == e.Primary {
			def += " PRIMARY KEY"
		}
		cols = append(cols, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		querysql.QuoteIdent(e.Table), strings.Join(cols, ", "))
}

// joinIndexes indexes the columns of e that other entities join on, other
// than its primary key.
func joinIndexes(cat *catalog.Catalog, e *catalog.Entity) []string {
	seen := map[string]bool{e.PrimaryColumn(): true}
	var stmts []string
	for _, source := range cat.Entities() {
		for _, r := range source.Relations {
			if r.Target != e.Name {
				continue
			}
			f, ok := e.Field(r.Remote)
			if !ok || seen[f.Column] {
				continue
			}
			seen[f.Column] = true
			stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				querysql.QuoteIdent("idx_"+e.Table+"_"+f.Column),
				querysql.QuoteIdent(e.Table),
				querysql.QuoteIdent(f.Column)))
		}
	}
	return stmts
}
