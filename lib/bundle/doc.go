// Package bundle implements the migration and import/export gate of the
// settings store.
//
// Migrate brings a store's schema up to the current version: pre-versioning
// installs get their legacy on/off flag carried over, missing entries get
// their declared defaults and the version is stamped. The operation is
// idempotent and best-effort; a broken key is logged and skipped rather
// than blocking startup.
//
// Export and Import move settings through a versioned JSON bundle.
// Validation reports every violated constraint at once so a user can fix a
// bundle in one pass, and Import never touches the store when validation
// fails. Unknown bundle sections are ignored, never merged, which keeps
// foreign bundles from injecting arbitrary keys.
//
// MergeList consumes the separate list-subscription format ("orr-list") and
// unions its items into the matching whitelist or filter list after
// normalization and deduplication.
package bundle
