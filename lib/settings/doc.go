// Package settings implements the typed settings store over the two storage
// areas exposed by the kv package. It is the only component that talks to
// the areas directly; everything above it uses the typed accessor surface.
//
// The package focuses on:
//   - Dual-area routing: sync-eligible keys follow the sync flag, everything
//     else stays local. The flag is cached on the store and tracked through
//     area change notifications, never re-read per routing decision.
//   - A core accessor with defaulting: reads fall back to the caller's
//     default on any failure, writes surface their errors.
//   - The update serializer: one global FIFO lock covering every
//     read-modify-write cycle (merge updates, collection upserts, stats).
//   - Bounded collections: each capped collection evicts its oldest entry by
//     write timestamp when an insert crosses the cap. Eviction is silent,
//     the designed steady state rather than a fault.
//   - Redirect stats with lazy daily rollover into a 7-day history.
//
// Concurrency Model:
//
//	The store is single-process and safe for concurrent use. Plain Get/Set
//	calls are unserialized full-value replacements; only read-modify-write
//	cycles take the update lock. The lock is process-global and covers the
//	whole store. That is a known scalability ceiling, accepted for a
//	low-throughput settings store; a port to a higher-concurrency context
//	should replace it with per-key locks while preserving the same
//	read-modify-write atomicity.
//
//	No operation carries a cancellation or timeout contract. Callers that
//	need bounded latency must impose their own timeout and accept that the
//	underlying write may still land after they give up.
//
// Ownership:
//
//	A key's value is owned by exactly one area at a time. Toggling the sync
//	flag moves ownership of every sync-eligible key copy-then-clear, so
//	outside the toggle itself both areas never hold authoritative copies.
package settings
