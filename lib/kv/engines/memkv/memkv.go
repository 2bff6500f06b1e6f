package memkv

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Constants for the snapshot file format
const (
	magicNum      = "PREFKV\x00" // File format identifier
	formatVersion = 1            // Snapshot format version
)

// Per-entry overhead added to size estimates (key header + bookkeeping)
const entryOverhead = 16

// --------------------------------------------------------------------------
// Core engine structure
// --------------------------------------------------------------------------

// memImpl implements kv.Area with a concurrent in-memory map.
type memImpl struct {
	name       kv.AreaName
	quotaBytes int

	data *xsync.MapOf[string, []byte]

	// watcher registry, keyed by registration id
	watchers  *xsync.MapOf[uint64, kv.WatchFunc]
	watcherID atomic.Uint64
}

// New creates a new in-memory area with the given name and modeled quota.
//
// Thread-safety: the returned Area is safe for concurrent use.
func New(name kv.AreaName, quotaBytes int) kv.Area {
	return &memImpl{
		name:       name,
		quotaBytes: quotaBytes,
		data:       xsync.NewMapOf[string, []byte](),
		watchers:   xsync.NewMapOf[uint64, kv.WatchFunc](),
	}
}

// --------------------------------------------------------------------------
// Core Area Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves the values for the given keys. Keys without a stored value
// are absent from the result map. The returned values are copies of the
// stored data and therefore safe to use and modify.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memImpl) Get(keys ...string) (map[string][]byte, error) {
	values := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok := m.data.Load(key); ok {
			valueCopy := make([]byte, len(value))
			copy(valueCopy, value)
			values[key] = valueCopy
		}
	}
	return values, nil
}

// Keys returns all keys currently stored in the area.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memImpl) Keys() ([]string, error) {
	keys := make([]string, 0, m.data.Size())
	m.data.Range(func(key string, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	return keys, nil
}

// --------------------------------------------------------------------------
// Core Area Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates the given key-value pairs in one call.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memImpl) Set(values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}

	changed := make([]string, 0, len(values))
	for key, value := range values {
		// Copy value to prevent memory corruption through caller aliasing
		valueCopy := make([]byte, len(value))
		copy(valueCopy, value)
		m.data.Store(key, valueCopy)
		changed = append(changed, key)
	}

	m.notify(changed)
	return nil
}

// Remove deletes the given keys. Removing an absent key is not an error.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memImpl) Remove(keys ...string) error {
	changed := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, existed := m.data.LoadAndDelete(key); existed {
			changed = append(changed, key)
		}
	}

	if len(changed) > 0 {
		m.notify(changed)
	}
	return nil
}

// Clear removes every entry from the area.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memImpl) Clear() error {
	keys, _ := m.Keys()
	m.data.Clear()

	if len(keys) > 0 {
		m.notify(keys)
	}
	return nil
}

// --------------------------------------------------------------------------
// Change Notifications
// --------------------------------------------------------------------------

// Watch registers a callback invoked after every successful mutation.
// The callback is invoked synchronously on the mutating goroutine; watchers
// that need to do heavy work must dispatch it themselves.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memImpl) Watch(fn kv.WatchFunc) func() {
	id := m.watcherID.Add(1)
	m.watchers.Store(id, fn)
	return func() {
		m.watchers.Delete(id)
	}
}

// notify invokes all registered watchers with the changed keys.
func (m *memImpl) notify(changedKeys []string) {
	m.watchers.Range(func(_ uint64, fn kv.WatchFunc) bool {
		fn(changedKeys, m.name)
		return true
	})
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save persists the area to the writer using the binary snapshot format.
// Concurrent reading and writing is allowed during a Save operation; the
// snapshot reflects some consistent-enough interleaving of ongoing writes.
//
// Thread-safety: This method allows concurrent operations with all other
// methods except Load.
func (m *memImpl) Save(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer

	type entryToSave struct {
		key   string
		value []byte
	}

	var entries []entryToSave
	m.data.Range(func(key string, value []byte) bool {
		valueCopy := make([]byte, len(value))
		copy(valueCopy, value)
		entries = append(entries, entryToSave{key, valueCopy})
		return true
	})

	// Write file header
	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}

	// Write format version
	if err := binary.Write(bw, binary.LittleEndian, uint8(formatVersion)); err != nil {
		return err
	}

	// Write entry count
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(entries))); err != nil {
		return err
	}

	// Write entries
	for _, item := range entries {
		// Write key length and key bytes
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(item.key))); err != nil {
			return err
		}
		if _, err := bw.WriteString(item.key); err != nil {
			return err
		}

		// Write value length and value bytes
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(item.value))); err != nil {
			return err
		}
		if _, err := bw.Write(item.value); err != nil {
			return err
		}
	}

	// Flush buffer to ensure all data is written
	return bw.Flush()
}

// Load restores the area from the reader. Existing entries are discarded.
//
// Thread-safety: This method is not thread-safe and should not be called
// concurrently with other operations.
func (m *memImpl) Load(r io.Reader) error {
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer

	// Read and verify magic number
	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}
	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	// Read and verify version
	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if int(version) != formatVersion {
		return fmt.Errorf("unsupported snapshot version: %d (expected %d)", version, formatVersion)
	}

	// Read entry count
	var entryCount uint64
	if err := binary.Read(br, binary.LittleEndian, &entryCount); err != nil {
		return err
	}

	// Replace the map wholesale, no notifications for restored entries
	data := xsync.NewMapOf[string, []byte]()

	for i := uint64(0); i < entryCount; i++ {
		// Read key
		var keyLen uint32
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return err
		}
		keyBytes := make([]byte, keyLen)
		if _, err := io.ReadFull(br, keyBytes); err != nil {
			return err
		}

		// Read value
		var valueLen uint32
		if err := binary.Read(br, binary.LittleEndian, &valueLen); err != nil {
			return err
		}
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(br, value); err != nil {
			return err
		}

		data.Store(string(keyBytes), value)
	}

	m.data = data
	return nil
}

// --------------------------------------------------------------------------
// Area Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the area. SizeBytes is the sum of key and
// value lengths plus a fixed per-entry overhead; it approximates but does not
// exactly match the host's own accounting.
func (m *memImpl) GetInfo() kv.AreaInfo {
	count := 0
	sizeBytes := 0
	m.data.Range(func(key string, value []byte) bool {
		count++
		sizeBytes += len(key) + len(value) + entryOverhead
		return true
	})

	return kv.AreaInfo{
		Name:       m.name,
		EntryCount: count,
		SizeBytes:  sizeBytes,
		QuotaBytes: m.quotaBytes,
		Engine:     kv.ImplMem,
	}
}

// SupportsFeature checks if this engine supports a specific Area feature
func (m *memImpl) SupportsFeature(feature kv.Feature) bool {
	supportedFeatures := kv.FeatureGet |
		kv.FeatureSet |
		kv.FeatureRemove |
		kv.FeatureClear |
		kv.FeatureKeys |
		kv.FeatureWatch |
		kv.FeatureSave |
		kv.FeatureLoad
	return supportedFeatures&feature == feature
}

// Close releases the watcher registry.
func (m *memImpl) Close() error {
	m.watchers.Clear()
	return nil
}
