package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RootAlias returns the plan alias of a query's root entity: its name in
// lower case. Post becomes post.
func RootAlias(entity string) string {
	// cases.Caser is not safe for concurrent use.
	return cases.Lower(language.Und).String(entity)
}

// JoinAlias derives the alias of a joined relation from its parent alias
// and the relation's canonical path. Aliases are unique within one plan:
// relation names are unique per entity and New rejects names containing
// "_", so no two join chains produce the same alias.
func JoinAlias(parentAlias, path string) string {
	return parentAlias + "_" + strings.ReplaceAll(path, ".", "_")
}
