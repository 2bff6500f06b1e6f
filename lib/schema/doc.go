// Package schema declares every configuration key the store knows about:
// its default value, its sync-eligibility, the caps and retention windows of
// the bounded collections, the quota heuristics of the health monitor, and
// the current schema version. Pure data, no behavior beyond lookups.
//
// Changing a declaration here changes what migration writes for missing keys
// and what the router considers sync-eligible; the schema version must be
// bumped whenever a change is not backward compatible.
package schema
