// Package shortcuts implements the keybinding conflict detector: a pairwise
// comparison over the stored shortcut table that reports enabled entries
// bound to the same normalized chord. Overlapping activation contexts make a
// collision an error, disjoint ones a warning. The package is pure; reading
// the table and persisting the result is the store's job.
package shortcuts
