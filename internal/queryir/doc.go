// Package queryir provides the relational query plan produced by the
// compiler and executed by the store.
//
// ARCHITECTURE:
//
// The plan sits between the query compiler and the SQL backend:
//
//	[selection tree] -> [compiler] -> [Query IR] -> [querysql] -> SQLite
//
// A plan is a single Select: one aliased root source, an explicit column
// list, left outer joins (each introducing a fresh alias), a conjunction of
// equality predicates and an ordered list of order clauses. Every column,
// predicate and order clause is qualified by the alias of the source it
// belongs to.
//
// BUILDER:
//
// Plans are accumulated on a mutable Builder owned by exactly one compile
// call. The Builder mirrors the primitives the store offers: clear the
// default projection, add columns, add an order clause, conjoin a
// predicate, and left-join-and-select a relation. Build returns an
// independent copy.
//
// SEALED INTERFACES:
//
// Predicate is sealed with a marker method. Only Equals and And implement
// it, so backends can switch on it exhaustively:
//
//	switch p := pred.(type) {
//	case *Equals:
//	    // alias.column = ?
//	case *And:
//	    // conjunction
//	}
//
// VALUES:
//
// All literal values are ir.IRValue. Floats cannot be represented, which
// keeps equality filters exact and plans canonically encodable.
package queryir
