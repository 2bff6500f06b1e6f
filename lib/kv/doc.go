// Package kv provides a standardized interface for the key-value primitive
// underlying the settings store. It defines the Area interface that models one
// of the two physical storage partitions (local, sync) exposed by the host,
// while abstracting the concrete engine implementation.
//
// The package focuses on:
//   - A unified interface for batched key-value operations
//   - Feature discovery through capability flags
//   - Change notifications after every successful mutation
//   - Standardized persistence operations and metadata reporting
//
// Key Components:
//
//   - Area Interface: The core interface that all engine implementations must
//     satisfy. It provides batched read/write operations (Get, Set, Remove,
//     Clear, Keys), change notifications (Watch), persistence (Save, Load),
//     and metadata retrieval (GetInfo).
//
//   - Feature Flags: The Feature type defines capability flags that engines
//     advertise through the SupportsFeature method. This allows clients to
//     discover supported operations at runtime.
//
//   - AreaInfo: Standardized reporting on area state, including entry counts
//     and size estimates. Sizes are estimates based on serialized value
//     lengths, since a precise calculation mirroring the host's accounting
//     is not possible from this side.
//
// Implementations:
//
//   - memkv: a pure in-memory engine based on concurrent maps, suitable for
//     the embedded store and for tests.
//   - filekv: memkv plus a binary snapshot format for operating on a store
//     file from the command line.
//   - sqlitekv: a durable engine backed by an SQLite database file.
//
// The two areas differ only in their modeled capacity (QuotaLocalBytes,
// QuotaSyncBytes) and in the replication the host performs for the sync area,
// which is entirely outside this component's control.
package kv
