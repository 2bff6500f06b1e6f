// Package filekv wraps the memkv engine with a snapshot file on disk so the
// command-line tooling can operate on a store between process invocations.
//
// Open reads an existing snapshot (or starts empty), all operations then run
// against the in-memory engine, and Flush/Close write the state back using an
// atomic rename. This is a snapshot model, not a write-ahead log: a crash
// between flushes loses the writes since the last flush, which matches the
// durability the host's own key-value primitive provides to the extension.
package filekv
