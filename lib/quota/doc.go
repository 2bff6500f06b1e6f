// Package quota implements the quota and health monitor of the settings
// store.
//
// The monitor measures each storage area by serialized byte size, reports a
// per-key breakdown sorted largest first, and classifies the overall state
// as healthy, warning (an area at or above 80% of its quota) or critical
// (90% or above). Byte counts are the encoded JSON lengths of the stored
// values; the host's own accounting may differ slightly, so all figures are
// estimates meant for trend detection rather than exact bookkeeping.
//
// Near-quota checks additionally return cleanup recommendations for the
// keys that accumulate entries over time (scroll positions, user tags,
// subreddit preferences) once they cross their per-key byte flags.
//
// Thread-safety: Monitor is stateless apart from its histogram and gauge
// caches, both of which are internally synchronized; all methods are safe
// for concurrent use.
package quota
