// Package memkv implements a pure in-memory key-value area based on the
// kv.Area interface. Data is held in a concurrent map and is not persisted
// between process restarts unless explicitly snapshotted with Save.
//
// Key Features:
//   - Concurrent map storage (xsync.MapOf) without external locking
//   - Synchronous change notifications to registered watchers
//   - Binary snapshot format for Save/Load (magic number + version header)
//   - Defensive copying of values on both read and write paths
//
// Implementation Details:
//
//   - Watcher Registry: Watchers are held in a second concurrent map keyed by
//     a monotonically increasing registration id. Notification happens
//     synchronously on the mutating goroutine; the store layer above uses this
//     to track the sync-enabled flag without re-reading storage.
//
//   - Snapshot Format: Save writes a magic number, a format version, an entry
//     count, and length-prefixed key/value pairs in little-endian order. Load
//     rejects snapshots with a mismatched magic number or version rather than
//     guessing at compatibility.
//
// Suitable Use Cases:
//
//	The in-memory engine backs the embedded store inside a running host
//	process (where the host itself owns durability) and is the default engine
//	for tests. For durable command-line operation see the filekv and sqlitekv
//	packages.
package memkv
