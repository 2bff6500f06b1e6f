package shortcuts

import "testing"

// TestNormalize tests chord canonicalization
func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Ctrl+K", "ctrl+k"},
		{"Shift + ctrl+K", "ctrl+shift+k"},
		{"META+alt+x", "alt+meta+x"},
		{"  j  ", "j"},
		{"ctrl++", "ctrl"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := Normalize(tc.input); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// TestDetectOverlappingContextsIsError tests that two enabled entries on
// the same chord with overlapping contexts produce exactly one error
func TestDetectOverlappingContextsIsError(t *testing.T) {
	conflicts := Detect(map[string]Entry{
		"next":   {Keys: "ctrl+k", Enabled: true, Context: ContextAny},
		"search": {Keys: "Ctrl+K", Enabled: true, Context: ContextFeed},
	})

	if len(conflicts) != 1 {
		t.Fatalf("Expected exactly one conflict, got %d", len(conflicts))
	}
	c := conflicts[0]
	if c.Severity != SeverityError {
		t.Errorf("Expected severity error, got %s", c.Severity)
	}
	if c.Keys != "ctrl+k" {
		t.Errorf("Expected normalized chord ctrl+k, got %s", c.Keys)
	}
	if c.First != "next" || c.Second != "search" {
		t.Errorf("IDs must be ordered lexicographically, got (%s, %s)", c.First, c.Second)
	}
}

// TestDetectDisjointContextsIsWarning tests the warning severity for equal
// chords in contexts that can never be live together
func TestDetectDisjointContextsIsWarning(t *testing.T) {
	conflicts := Detect(map[string]Entry{
		"collapse": {Keys: "x", Enabled: true, Context: ContextComments},
		"hide":     {Keys: "x", Enabled: true, Context: ContextFeed},
	})

	if len(conflicts) != 1 {
		t.Fatalf("Expected exactly one conflict, got %d", len(conflicts))
	}
	if conflicts[0].Severity != SeverityWarning {
		t.Errorf("Expected severity warning, got %s", conflicts[0].Severity)
	}
}

// TestDetectIgnoresDisabledEntries tests that disabled entries never
// participate in conflicts
func TestDetectIgnoresDisabledEntries(t *testing.T) {
	conflicts := Detect(map[string]Entry{
		"next":   {Keys: "j", Enabled: true, Context: ContextAny},
		"legacy": {Keys: "j", Enabled: false, Context: ContextAny},
	})

	if len(conflicts) != 0 {
		t.Errorf("Disabled entries must not conflict, got %d conflicts", len(conflicts))
	}
}

// TestDetectNoDuplicatePairs tests that every colliding pair is reported
// exactly once across three entries on one chord
func TestDetectNoDuplicatePairs(t *testing.T) {
	conflicts := Detect(map[string]Entry{
		"a": {Keys: "g", Enabled: true, Context: ContextAny},
		"b": {Keys: "g", Enabled: true, Context: ContextAny},
		"c": {Keys: "g", Enabled: true, Context: ContextAny},
	})

	// three entries, three unordered pairs
	if len(conflicts) != 3 {
		t.Fatalf("Expected 3 pairs, got %d", len(conflicts))
	}
	seen := map[string]bool{}
	for _, c := range conflicts {
		pair := c.First + "/" + c.Second
		if seen[pair] {
			t.Errorf("Pair %s reported twice", pair)
		}
		seen[pair] = true
		if c.First >= c.Second {
			t.Errorf("Pair IDs out of order: (%s, %s)", c.First, c.Second)
		}
	}
}

// TestDetectDifferentChordsNoConflict tests the no-collision case
func TestDetectDifferentChordsNoConflict(t *testing.T) {
	conflicts := Detect(map[string]Entry{
		"next": {Keys: "j", Enabled: true, Context: ContextAny},
		"prev": {Keys: "k", Enabled: true, Context: ContextAny},
	})

	if len(conflicts) != 0 {
		t.Errorf("Distinct chords must not conflict, got %d conflicts", len(conflicts))
	}
}

// TestValidContext tests the declared context set
func TestValidContext(t *testing.T) {
	for _, context := range Contexts() {
		if !ValidContext(context) {
			t.Errorf("Declared context %q should be valid", context)
		}
	}
	if ValidContext("modal") {
		t.Error("Undeclared context should be invalid")
	}
}
