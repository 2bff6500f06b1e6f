package settings

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/kv/engines/memkv"
	"github.com/orrlabs/prefstore/lib/schema"
)

// capTestStore builds a store with a controllable clock for eviction tests.
func capTestStore(t *testing.T) (*Store, *int64) {
	t.Helper()
	clock, now := fakeClock(1_700_000_000_000)
	store := New(
		memkv.New(kv.AreaLocal, kv.QuotaLocalBytes),
		memkv.New(kv.AreaSync, kv.QuotaSyncBytes),
		WithClock(clock),
	)
	t.Cleanup(func() { _ = store.Close() })
	return store, now
}

// TestUpsertInsertsAndMerges tests that an upsert with a partial patch
// merges field-wise into the existing record
func TestUpsertInsertsAndMerges(t *testing.T) {
	store, _ := capTestStore(t)

	if err := store.SetUserTag("alice", TagRecord{Text: "helpful", Color: "#00ff00"}); err != nil {
		t.Fatalf("SetUserTag failed: %v", err)
	}
	// patch only the text, the color must survive
	if err := store.UpsertRecord(schema.CollectionUserTags, "alice", map[string]interface{}{
		"text": "very helpful",
	}); err != nil {
		t.Fatalf("UpsertRecord failed: %v", err)
	}

	tag, exists := store.GetUserTag("alice")
	if !exists {
		t.Fatal("Tag should exist after upsert")
	}
	if tag.Text != "very helpful" {
		t.Errorf("Expected merged text, got %q", tag.Text)
	}
	if tag.Color != "#00ff00" {
		t.Errorf("Color should survive a partial patch, got %q", tag.Color)
	}
}

// TestUpsertStampsTimestamp tests that every upsert stamps the logical
// write time, overriding any caller-supplied value
func TestUpsertStampsTimestamp(t *testing.T) {
	store, now := capTestStore(t)

	if err := store.SetUserTag("alice", TagRecord{Text: "x", Timestamp: 42}); err != nil {
		t.Fatalf("SetUserTag failed: %v", err)
	}

	tag, _ := store.GetUserTag("alice")
	if tag.Timestamp < *now {
		t.Errorf("Timestamp should be stamped by the store, got %d", tag.Timestamp)
	}
}

// TestEvictionRemovesOldestEntry tests LRU eviction at the cap: writing a
// record into a full collection evicts the entry with the oldest timestamp
func TestEvictionRemovesOldestEntry(t *testing.T) {
	store, now := capTestStore(t)

	cap := schema.MaxEntries(schema.CollectionScrollPositions)
	for i := 0; i < cap; i++ {
		*now += 1000
		url := fmt.Sprintf("https://example.com/%03d", i)
		if err := store.SetScrollPosition(url, ScrollPosition{Offset: i}); err != nil {
			t.Fatalf("SetScrollPosition failed: %v", err)
		}
	}
	if count := store.CountRecords(schema.CollectionScrollPositions); count != cap {
		t.Fatalf("Expected %d records, got %d", cap, count)
	}

	// one more write: the first URL carries the oldest stamp and must go
	*now += 1000
	if err := store.SetScrollPosition("https://example.com/newest", ScrollPosition{Offset: 1}); err != nil {
		t.Fatalf("SetScrollPosition failed: %v", err)
	}

	if count := store.CountRecords(schema.CollectionScrollPositions); count != cap {
		t.Errorf("Count must never exceed the cap, got %d", count)
	}
	if _, exists := store.GetScrollPosition("https://example.com/000"); exists {
		t.Error("Oldest entry should have been evicted")
	}
	if _, exists := store.GetScrollPosition("https://example.com/newest"); !exists {
		t.Error("Just-written entry must never be evicted")
	}
}

// TestEvictionNeverRemovesJustWritten tests the cap edge where the
// just-written record has the oldest timestamp in the collection
func TestEvictionNeverRemovesJustWritten(t *testing.T) {
	store, now := capTestStore(t)

	// fill the collection with future-stamped entries by walking the clock
	// forward, then update an old entry so it gets a fresh stamp anyway
	cap := schema.MaxEntries(schema.CollectionLayoutPresets)
	for i := 0; i <= cap; i++ {
		*now += 1000
		name := fmt.Sprintf("preset%03d", i)
		if err := store.SaveLayoutPreset(name, LayoutPreset{Body: map[string]interface{}{"i": i}}); err != nil {
			t.Fatalf("SaveLayoutPreset failed: %v", err)
		}
		if _, exists := store.GetLayoutPresets()[name]; !exists {
			t.Fatalf("Just-written preset %s must exist", name)
		}
	}
}

// TestRemoveOlderThan tests the retention sweep primitive
func TestRemoveOlderThan(t *testing.T) {
	store, now := capTestStore(t)

	if err := store.SetScrollPosition("https://example.com/old", ScrollPosition{Offset: 1}); err != nil {
		t.Fatalf("SetScrollPosition failed: %v", err)
	}
	cutoff := *now + 10_000
	*now += 20_000
	if err := store.SetScrollPosition("https://example.com/new", ScrollPosition{Offset: 2}); err != nil {
		t.Fatalf("SetScrollPosition failed: %v", err)
	}

	removed, err := store.RemoveOlderThan(schema.CollectionScrollPositions, cutoff)
	if err != nil {
		t.Fatalf("RemoveOlderThan failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed entry, got %d", removed)
	}
	if count := store.CountRecords(schema.CollectionScrollPositions); count != 1 {
		t.Errorf("Expected 1 surviving entry, got %d", count)
	}
}

// TestConcurrentUpsertsHoldCap tests that parallel upserts into a full
// collection never overshoot the cap
func TestConcurrentUpsertsHoldCap(t *testing.T) {
	store, _ := capTestStore(t)

	cap := schema.MaxEntries(schema.CollectionScrollPositions)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < cap; i++ {
				url := fmt.Sprintf("https://example.com/%d/%d", g, i)
				if err := store.SetScrollPosition(url, ScrollPosition{Offset: i}); err != nil {
					t.Errorf("SetScrollPosition failed: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if count := store.CountRecords(schema.CollectionScrollPositions); count > cap {
		t.Errorf("Cap overshoot: %d records with a cap of %d", count, cap)
	}
}

// TestGetCollectionSkipsCorruptRecords tests the typed read path
func TestGetCollectionSkipsCorruptRecords(t *testing.T) {
	store, _ := capTestStore(t)

	if err := store.SetUserTag("alice", TagRecord{Text: "ok"}); err != nil {
		t.Fatalf("SetUserTag failed: %v", err)
	}
	// inject a record that cannot decode into TagRecord
	err := store.Update(string(schema.CollectionUserTags), func(raw json.RawMessage) (interface{}, error) {
		return map[string]interface{}{
			"alice": TagRecord{Text: "ok"},
			"bob":   "not an object",
		}, nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	tags := GetCollection[TagRecord](store, schema.CollectionUserTags)
	if _, exists := tags["alice"]; !exists {
		t.Error("Decodable record should survive")
	}
	if _, exists := tags["bob"]; exists {
		t.Error("Undecodable record should be skipped")
	}
}
