// Package querytree builds a selection tree from a GraphQL resolve call.
//
// A selection tree mirrors the shape of the request: one Node per requested
// field, in request order, with nested selections as children. Each node
// carries Properties: the arguments that name fields of the node's own type
// (equality filter candidates), the QueryOptions built from the remaining
// arguments, and the node's resolved named type.
//
// PIPELINE:
//
//	[graphql.ResolveInfo] -> Build -> [*Node tree] -> compiler.Compile -> [queryir.Select]
//
// The builder only needs schema type metadata. It never consults the entity
// catalog, so a field with no storage representation is not an error here;
// the compiler decides what to do with it.
//
// LEAF AND RELATION NODES:
//
// Kind is fixed when a node is constructed. A field requested with a
// selection set is a Relation, any other field is a Leaf. A relation whose
// selection set is empty after fragment flattening (for example one that
// only asks for __typename) is rejected with a SchemaError, so a relation is
// never mistaken for a scalar column.
//
// ARGUMENT CLASSIFICATION:
//
// Classify splits the resolved arguments of a field by membership in the
// field names of its result type:
//
//	getAllUsers(lastName: "Doe", orderAscBy: "firstName")
//	            `- entity field  `- option (orderAscBy)
//
// Options are interpreted by BuildOptions. Unknown option keys are ignored.
package querytree
