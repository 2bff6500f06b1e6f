// Package maintenance implements the periodic upkeep pass of the settings
// store.
//
// A run executes four steps in order: expire entries that outlived their
// collection's retention window, trim the per-subreddit statistics map,
// compact stored encodings by stripping null members (only when the earlier
// steps freed enough bytes to make the rewrite worthwhile) and regenerate
// the health report. Every step's failure is captured in the Result and the
// remaining steps still execute.
//
// The Scheduler wraps gocron to run maintenance at a fixed interval;
// embedders that bring their own timer can call Runner.Run directly.
//
// Thread-safety: Runner methods serialize through the store's update lock
// where they mutate state; a Runner may be shared between a Scheduler and
// manual invocations.
package maintenance
