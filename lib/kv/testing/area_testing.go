package testing

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/orrlabs/prefstore/lib/kv"
)

// AreaFactory is a function that creates a new instance of an Area implementation
type AreaFactory func() kv.Area

// RunAreaTests runs a comprehensive test suite for an Area implementation.
func RunAreaTests(t *testing.T, name string, factory AreaFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory())
		})

		t.Run("Clear", func(t *testing.T) {
			testClear(t, factory())
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory())
		})

		t.Run("Watch", func(t *testing.T) {
			testWatch(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ConcurrentAccess", func(t *testing.T) {
			testConcurrentAccess(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the area supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, area kv.Area, feature kv.Feature) {
	if !area.SupportsFeature(feature) {
		t.Skip()
	}
}

func mustSet(t testing.TB, area kv.Area, key string, value []byte) {
	t.Helper()
	if err := area.Set(map[string][]byte{key: value}); err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
}

func mustGet(t testing.TB, area kv.Area, key string) ([]byte, bool) {
	t.Helper()
	values, err := area.Get(key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	value, ok := values[key]
	return value, ok
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, area kv.Area) {
	defer area.Close()

	requireFeature(t, area, kv.FeatureSet)
	requireFeature(t, area, kv.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	mustSet(t, area, testKey, testValue1)

	result, exists := mustGet(t, area, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	// Overwrite
	mustSet(t, area, testKey, testValue2)
	result, _ = mustGet(t, area, testKey)
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s after overwrite, got %s", testValue2, result)
	}

	// Unknown keys are absent, not errors
	values, err := area.Get("missing-key")
	if err != nil {
		t.Errorf("Get of missing key should not error, got %v", err)
	}
	if _, ok := values["missing-key"]; ok {
		t.Error("Missing key should be absent from result map")
	}

	// Batched set
	if err := area.Set(map[string][]byte{
		"batch-1": []byte("a"),
		"batch-2": []byte("b"),
	}); err != nil {
		t.Fatalf("Batched Set failed: %v", err)
	}
	values, err = area.Get("batch-1", "batch-2")
	if err != nil {
		t.Fatalf("Batched Get failed: %v", err)
	}
	if len(values) != 2 {
		t.Errorf("Expected 2 values from batched get, got %d", len(values))
	}
}

func testRemove(t *testing.T, area kv.Area) {
	defer area.Close()

	requireFeature(t, area, kv.FeatureSet)
	requireFeature(t, area, kv.FeatureRemove)

	mustSet(t, area, "key-a", []byte("a"))
	mustSet(t, area, "key-b", []byte("b"))

	if err := area.Remove("key-a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if _, exists := mustGet(t, area, "key-a"); exists {
		t.Error("key-a should not exist after Remove")
	}
	if _, exists := mustGet(t, area, "key-b"); !exists {
		t.Error("key-b should still exist after removing key-a")
	}

	// Removing an absent key is not an error
	if err := area.Remove("never-existed"); err != nil {
		t.Errorf("Remove of absent key should not error, got %v", err)
	}
}

func testClear(t *testing.T, area kv.Area) {
	defer area.Close()

	requireFeature(t, area, kv.FeatureSet)
	requireFeature(t, area, kv.FeatureClear)

	for i := 0; i < 10; i++ {
		mustSet(t, area, fmt.Sprintf("key-%d", i), []byte("value"))
	}

	if err := area.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	info := area.GetInfo()
	if info.EntryCount != 0 {
		t.Errorf("Expected empty area after Clear, got %d entries", info.EntryCount)
	}
}

func testKeys(t *testing.T, area kv.Area) {
	defer area.Close()

	requireFeature(t, area, kv.FeatureSet)
	requireFeature(t, area, kv.FeatureKeys)

	want := []string{"alpha", "beta", "gamma"}
	for _, key := range want {
		mustSet(t, area, key, []byte("x"))
	}

	keys, err := area.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}

	sort.Strings(keys)
	if len(keys) != len(want) {
		t.Fatalf("Expected %d keys, got %d", len(want), len(keys))
	}
	for i, key := range want {
		if keys[i] != key {
			t.Errorf("Expected key %s at position %d, got %s", key, i, keys[i])
		}
	}
}

func testWatch(t *testing.T, area kv.Area) {
	defer area.Close()

	requireFeature(t, area, kv.FeatureSet)
	requireFeature(t, area, kv.FeatureWatch)

	var (
		mu       sync.Mutex
		got      []string
		gotAreas []kv.AreaName
	)
	cancel := area.Watch(func(changedKeys []string, name kv.AreaName) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, changedKeys...)
		gotAreas = append(gotAreas, name)
	})

	mustSet(t, area, "watched", []byte("v"))

	mu.Lock()
	if len(got) != 1 || got[0] != "watched" {
		t.Errorf("Expected watcher to see [watched], got %v", got)
	}
	if len(gotAreas) != 1 || gotAreas[0] != area.GetInfo().Name {
		t.Errorf("Expected watcher to see area %s, got %v", area.GetInfo().Name, gotAreas)
	}
	mu.Unlock()

	// After cancel, no further notifications
	cancel()
	mustSet(t, area, "watched-2", []byte("v"))

	mu.Lock()
	if len(got) != 1 {
		t.Errorf("Expected no notifications after cancel, got %v", got)
	}
	mu.Unlock()
}

func testSaveLoad(t *testing.T, factory AreaFactory) {
	area := factory()
	defer area.Close()

	requireFeature(t, area, kv.FeatureSave)
	requireFeature(t, area, kv.FeatureLoad)

	for i := 0; i < 25; i++ {
		mustSet(t, area, fmt.Sprintf("key-%d", i), []byte(fmt.Sprintf("value-%d", i)))
	}

	var buf bytes.Buffer
	if err := area.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := factory()
	defer restored.Close()
	if err := restored.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for i := 0; i < 25; i++ {
		key := fmt.Sprintf("key-%d", i)
		value, exists := mustGet(t, restored, key)
		if !exists {
			t.Errorf("Expected key %s to exist after Load", key)
			continue
		}
		if want := fmt.Sprintf("value-%d", i); string(value) != want {
			t.Errorf("Expected %s for key %s, got %s", want, key, value)
		}
	}

	// Garbage input must be rejected
	if err := restored.Load(bytes.NewReader([]byte("not a snapshot"))); err == nil {
		t.Error("Load of invalid data should fail")
	}
}

func testInfo(t *testing.T, area kv.Area) {
	defer area.Close()

	requireFeature(t, area, kv.FeatureSet)

	info := area.GetInfo()
	if info.EntryCount != 0 {
		t.Errorf("Fresh area should report 0 entries, got %d", info.EntryCount)
	}

	mustSet(t, area, "info-key", bytes.Repeat([]byte("x"), 1024))

	info = area.GetInfo()
	if info.EntryCount != 1 {
		t.Errorf("Expected 1 entry, got %d", info.EntryCount)
	}
	if info.SizeBytes < 1024 {
		t.Errorf("Size estimate %d should at least cover the stored value", info.SizeBytes)
	}
	if info.QuotaBytes <= 0 {
		t.Errorf("Expected a positive modeled quota, got %d", info.QuotaBytes)
	}
}

func testEdgeCases(t *testing.T, area kv.Area) {
	defer area.Close()

	requireFeature(t, area, kv.FeatureSet)
	requireFeature(t, area, kv.FeatureGet)

	// Empty value
	mustSet(t, area, "empty", []byte{})
	value, exists := mustGet(t, area, "empty")
	if !exists {
		t.Error("Key with empty value should exist")
	}
	if len(value) != 0 {
		t.Errorf("Expected empty value, got %d bytes", len(value))
	}

	// Empty batch is a no-op
	if err := area.Set(map[string][]byte{}); err != nil {
		t.Errorf("Empty Set should not error, got %v", err)
	}

	// Caller mutation of the stored slice must not leak into the area
	original := []byte("immutable")
	mustSet(t, area, "aliased", original)
	original[0] = 'X'
	value, _ = mustGet(t, area, "aliased")
	if string(value) != "immutable" {
		t.Errorf("Stored value was corrupted by caller mutation: %s", value)
	}

	// Mutating a returned value must not change the stored one
	value[0] = 'Y'
	again, _ := mustGet(t, area, "aliased")
	if string(again) != "immutable" {
		t.Errorf("Stored value was corrupted by reader mutation: %s", again)
	}
}

func testConcurrentAccess(t *testing.T, area kv.Area) {
	defer area.Close()

	requireFeature(t, area, kv.FeatureSet)
	requireFeature(t, area, kv.FeatureGet)

	const (
		goroutines = 8
		writes     = 50
	)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for i := 0; i < writes; i++ {
				key := fmt.Sprintf("g%d-k%d", g, i)
				if err := area.Set(map[string][]byte{key: []byte(key)}); err != nil {
					t.Errorf("concurrent Set failed: %v", err)
					return
				}
				if _, err := area.Get(key); err != nil {
					t.Errorf("concurrent Get failed: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	info := area.GetInfo()
	if info.EntryCount != goroutines*writes {
		t.Errorf("Expected %d entries after concurrent writes, got %d", goroutines*writes, info.EntryCount)
	}
}
