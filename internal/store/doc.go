// Package store executes query plans against SQLite and materializes the
// joined rows into entity graphs.
//
// Tables are derived from the catalog: one table per entity, one column per
// field, the primary key field as PRIMARY KEY, and an index on every
// relation's remote column. Fixtures are seeded from YAML.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Queries are compiled by internal/querysql; values are always bound as
// parameters and every query orders by primary keys, so results are
// deterministic.
package store
