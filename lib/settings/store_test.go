package settings

import (
	"testing"

	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/kv/engines/memkv"
	"github.com/orrlabs/prefstore/lib/schema"
)

// fakeClock returns a Clock backed by a mutable millisecond counter.
func fakeClock(start int64) (Clock, *int64) {
	now := start
	return func() int64 { return now }, &now
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store := New(
		memkv.New(kv.AreaLocal, kv.QuotaLocalBytes),
		memkv.New(kv.AreaSync, kv.QuotaSyncBytes),
		opts...,
	)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestGetReturnsDefaultOnMissingKey tests that Get leaves the caller's
// default untouched and reports false for unset keys
func TestGetReturnsDefaultOnMissingKey(t *testing.T) {
	store := newTestStore(t)

	value := "fallback"
	if store.Get("no_such_key", &value) {
		t.Error("Get should report false for an unset key")
	}
	if value != "fallback" {
		t.Errorf("Get should leave the default untouched, got %q", value)
	}
}

// TestSetGetRoundTrip tests basic typed persistence
func TestSetGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set(schema.KeyDarkMode, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var darkMode bool
	if !store.Get(schema.KeyDarkMode, &darkMode) {
		t.Fatal("Get should find the key after Set")
	}
	if !darkMode {
		t.Error("Expected dark mode to be true")
	}
}

// TestGetRecoversFromCorruptValue tests that a value that fails to decode
// falls back to the caller default instead of surfacing an error
func TestGetRecoversFromCorruptValue(t *testing.T) {
	store := newTestStore(t)

	if err := store.SetRaw(kv.AreaLocal, schema.KeyDarkMode, []byte("{not json")); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}

	darkMode := true
	if store.Get(schema.KeyDarkMode, &darkMode) {
		t.Error("Get should report false for an undecodable value")
	}
	if !darkMode {
		t.Error("Get should leave the default untouched on decode failure")
	}
}

// TestRoutingFollowsSyncFlag tests that sync-eligible keys move area with
// the sync flag while ineligible keys always stay local
func TestRoutingFollowsSyncFlag(t *testing.T) {
	store := newTestStore(t)

	// sync disabled: everything lands in the local area
	if err := store.Set(schema.KeyDarkMode, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if name := store.routeName(schema.KeyDarkMode); name != kv.AreaLocal {
		t.Errorf("Expected local routing with sync disabled, got %s", name)
	}

	if err := store.SetSyncEnabled(true); err != nil {
		t.Fatalf("SetSyncEnabled failed: %v", err)
	}

	if name := store.routeName(schema.KeyDarkMode); name != kv.AreaSync {
		t.Errorf("Expected sync routing for an eligible key, got %s", name)
	}
	if name := store.routeName(schema.KeyScrollPositions); name != kv.AreaLocal {
		t.Errorf("Scroll positions are never sync-eligible, got %s", name)
	}
}

// TestSyncToggleMovesEligibleKeys tests the copy-then-clear area move
func TestSyncToggleMovesEligibleKeys(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set(schema.KeyDarkMode, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(schema.KeyScrollPositions, map[string]int{"a": 1}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := store.SetSyncEnabled(true); err != nil {
		t.Fatalf("SetSyncEnabled failed: %v", err)
	}

	localRaw, err := store.Raw(kv.AreaLocal)
	if err != nil {
		t.Fatalf("Raw failed: %v", err)
	}
	syncRaw, err := store.Raw(kv.AreaSync)
	if err != nil {
		t.Fatalf("Raw failed: %v", err)
	}

	if _, exists := localRaw[schema.KeyDarkMode]; exists {
		t.Error("Eligible key should have been cleared from the local area")
	}
	if _, exists := syncRaw[schema.KeyDarkMode]; !exists {
		t.Error("Eligible key should now live in the sync area")
	}
	if _, exists := localRaw[schema.KeyScrollPositions]; !exists {
		t.Error("Ineligible key must stay in the local area")
	}

	// the value survives the move and is readable through the router
	var darkMode bool
	if !store.Get(schema.KeyDarkMode, &darkMode) || !darkMode {
		t.Error("Value should survive the area move")
	}

	// toggling back moves the key home again
	if err := store.SetSyncEnabled(false); err != nil {
		t.Fatalf("SetSyncEnabled failed: %v", err)
	}
	localRaw, _ = store.Raw(kv.AreaLocal)
	if _, exists := localRaw[schema.KeyDarkMode]; !exists {
		t.Error("Eligible key should be back in the local area")
	}
}

// TestGetAllUnionsAreas tests that GetAll sees both areas with sync
// precedence on collisions
func TestGetAllUnionsAreas(t *testing.T) {
	store := newTestStore(t)

	if err := store.SetRaw(kv.AreaLocal, "only_local", []byte(`1`)); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}
	if err := store.SetRaw(kv.AreaSync, "only_sync", []byte(`2`)); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}
	if err := store.SetRaw(kv.AreaLocal, "both", []byte(`"local"`)); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}
	if err := store.SetRaw(kv.AreaSync, "both", []byte(`"sync"`)); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}

	all, err := store.GetAll()
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 keys, got %d", len(all))
	}
	if string(all["both"]) != `"sync"` {
		t.Errorf("Sync value should win on collision, got %s", all["both"])
	}
}

// TestMonotonicTimestamps tests that logical write stamps strictly increase
// even when the wall clock stalls
func TestMonotonicTimestamps(t *testing.T) {
	clock, _ := fakeClock(1000)
	store := newTestStore(t, WithClock(clock))

	first := store.now()
	second := store.now()
	third := store.now()

	if !(first < second && second < third) {
		t.Errorf("Stamps must strictly increase, got %d, %d, %d", first, second, third)
	}
}

// TestClearResetsBothAreas tests factory reset behavior
func TestClearResetsBothAreas(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set(schema.KeyDarkMode, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.SetSyncEnabled(true); err != nil {
		t.Fatalf("SetSyncEnabled failed: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	all, err := store.GetAll()
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Expected empty store after Clear, got %d keys", len(all))
	}
	if store.SyncEnabled() {
		t.Error("Clear should reset the sync flag")
	}
}
