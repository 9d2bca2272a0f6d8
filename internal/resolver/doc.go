// Package resolver generates the GraphQL schema of a catalog.
//
// Every entity becomes an object type with one field per stored field and
// one per relation. Two root queries are generated per entity:
//
//	get<Entity>(<identify args>!)                         single lookup
//	getAll<Plural>(<filter args>, orderAscBy, orderDescBy) list lookup
//
// Many relations take the target's filter arguments and the ordering
// options, so nested lists can be narrowed and sorted in the same request.
// Root resolvers build a selection tree from the request and answer it with
// one query through the repository; nested fields are read from the
// already-hydrated entity.
package resolver
