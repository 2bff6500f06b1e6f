package shortcuts

import (
	"sort"
	"strings"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Context is the activation scope of a shortcut.
type Context string

const (
	ContextAny      Context = "any"
	ContextFeed     Context = "feed"
	ContextComments Context = "comments"
	ContextSettings Context = "settings"
)

// Contexts lists every declared activation context.
func Contexts() []Context {
	return []Context{ContextAny, ContextFeed, ContextComments, ContextSettings}
}

// ValidContext reports whether c is a declared context.
func ValidContext(c Context) bool {
	for _, known := range Contexts() {
		if c == known {
			return true
		}
	}
	return false
}

// Entry is one user-configurable keybinding, keyed by shortcut id in the
// stored table.
type Entry struct {
	Keys      string  `json:"keys"`
	Enabled   bool    `json:"enabled"`
	Context   Context `json:"context"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// Severity of a detected conflict.
const (
	SeverityError   = "error"   // same chord, overlapping contexts
	SeverityWarning = "warning" // same chord, disjoint contexts
)

// Conflict is one detected pair of colliding shortcuts. IDs are ordered
// lexicographically so a pair is reported exactly once.
type Conflict struct {
	First    string `json:"first"`
	Second   string `json:"second"`
	Keys     string `json:"keys"` // normalized chord
	Severity string `json:"severity"`
}

// --------------------------------------------------------------------------
// Chord Normalization
// --------------------------------------------------------------------------

// modifier order for canonical chords
var modifierRank = map[string]int{
	"ctrl":  0,
	"alt":   1,
	"shift": 2,
	"meta":  3,
}

// Normalize canonicalizes a chord string: case-insensitive, whitespace
// around parts ignored, modifiers in a fixed order. "Shift + ctrl+K" and
// "Ctrl+Shift+k" normalize to the same chord.
func Normalize(keys string) string {
	parts := strings.Split(keys, "+")

	var modifiers, rest []string
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if _, ok := modifierRank[part]; ok {
			modifiers = append(modifiers, part)
		} else {
			rest = append(rest, part)
		}
	}

	sort.Slice(modifiers, func(i, j int) bool {
		return modifierRank[modifiers[i]] < modifierRank[modifiers[j]]
	})

	return strings.Join(append(modifiers, rest...), "+")
}

// --------------------------------------------------------------------------
// Conflict Detection
// --------------------------------------------------------------------------

// Detect compares every unordered pair of enabled entries and reports pairs
// bound to the same normalized chord. Pairs with overlapping contexts (any
// overlaps everything, otherwise contexts must match exactly) are errors;
// pairs whose contexts are disjoint are warnings, since the same physical
// keystroke still fires two different context-scoped actions.
//
// The scan is O(n²) over the entry count, which stays in the tens for this
// table; no smarter structure is warranted.
func Detect(entries map[string]Entry) []Conflict {
	type candidate struct {
		id      string
		chord   string
		context Context
	}

	candidates := make([]candidate, 0, len(entries))
	for id, entry := range entries {
		if !entry.Enabled {
			continue
		}
		chord := Normalize(entry.Keys)
		if chord == "" {
			continue
		}
		candidates = append(candidates, candidate{id, chord, entry.Context})
	}

	// deterministic pair ordering
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].id < candidates[j].id
	})

	var conflicts []Conflict
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			if a.chord != b.chord {
				continue
			}

			severity := SeverityWarning
			if contextsOverlap(a.context, b.context) {
				severity = SeverityError
			}
			conflicts = append(conflicts, Conflict{
				First:    a.id,
				Second:   b.id,
				Keys:     a.chord,
				Severity: severity,
			})
		}
	}
	return conflicts
}

// contextsOverlap reports whether two activation contexts can be live at
// the same time.
func contextsOverlap(a, b Context) bool {
	return a == ContextAny || b == ContextAny || a == b
}
