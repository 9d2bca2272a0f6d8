// Package ir defines the value model shared by the query pipeline.
//
// Argument values resolved from a GraphQL request are converted to IRValue
// before they become filter predicates. IRValue is a sealed interface: only
// null, string, int, bool, array and object exist. Floats are excluded because
// an equality predicate on a float column is not a reliable filter.
//
// The package also provides RFC 8785 canonical JSON (MarshalCanonical) and
// domain-separated SHA-256 fingerprints (Fingerprint). Both are used to make
// plans and selection trees byte-stable for logging and golden tests.
package ir
