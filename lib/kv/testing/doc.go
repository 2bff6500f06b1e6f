// Package testing provides a reusable conformance test suite for kv.Area
// implementations. Engine packages call RunAreaTests from their own tests so
// every engine is exercised against the same behavioral contract: batched
// get/set semantics, absent-key handling, watcher notification and
// cancellation, snapshot round-trips, and defensive copying.
//
// Tests for features an engine does not advertise via SupportsFeature are
// skipped rather than failed.
package testing
