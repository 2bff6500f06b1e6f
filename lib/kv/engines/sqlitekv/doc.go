// Package sqlitekv implements a durable kv.Area backed by a single SQLite
// table. Rows are namespaced by area name so both areas of a store can share
// one database file.
//
// The engine serializes writes through a transaction per Set call, which
// makes the batched multi-key write atomic the same way the host's key-value
// primitive treats one set() call as a unit. Save/Load are intentionally
// unsupported: the database file itself is the portable artifact.
package sqlitekv
