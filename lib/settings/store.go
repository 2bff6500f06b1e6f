package settings

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/logger"
	"github.com/orrlabs/prefstore/lib/schema"
)

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// Clock returns the current time in Unix milliseconds. Injectable for tests.
type Clock func() int64

// SystemClock is the default clock.
func SystemClock() int64 { return time.Now().UnixMilli() }

// Store is the typed settings store over the two storage areas. All values
// are persisted as JSON-encoded bytes; the typed accessor surface (typed.go)
// bakes in schema-declared defaults.
type Store struct {
	local kv.Area
	sync  kv.Area

	lock  updateLock
	clock Clock

	lastStamp   atomic.Int64
	syncEnabled atomic.Bool

	log         *logger.Logger
	cancelWatch func()
}

// Option configures a Store during construction.
type Option func(*Store)

// WithClock replaces the system clock, used by tests to control timestamps.
func WithClock(clock Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// New creates a store over the given local and sync areas. The sync flag is
// read once from the local area and tracked through change notifications
// afterwards.
func New(local, sync kv.Area, opts ...Option) *Store {
	s := &Store{
		local: local,
		sync:  sync,
		clock: SystemClock,
		log:   logger.GetLogger("settings"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.reloadSyncFlag()
	s.watchSyncFlag()
	return s
}

// Close cancels the sync flag watcher. It does not close the underlying
// areas; their owner does.
func (s *Store) Close() error {
	if s.cancelWatch != nil {
		s.cancelWatch()
	}
	return nil
}

// now returns a monotonically non-decreasing logical timestamp in Unix
// milliseconds. Successive writes are guaranteed distinct stamps even when
// the wall clock does not advance between them.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store) now() int64 {
	for {
		last := s.lastStamp.Load()
		stamp := s.clock()
		if stamp <= last {
			stamp = last + 1
		}
		if s.lastStamp.CompareAndSwap(last, stamp) {
			return stamp
		}
	}
}

// --------------------------------------------------------------------------
// Core Accessor
// --------------------------------------------------------------------------

// Get reads the value for a key into out, which the caller pre-populates
// with the desired default. On a missing key, an underlying read failure, or
// a decode failure, out is left untouched and false is returned; failures
// are logged but never surfaced, the caller-supplied default wins.
func (s *Store) Get(key string, out interface{}) bool {
	area := s.route(key)

	values, err := area.Get(key)
	if err != nil {
		s.log.Errorf("get %q from %s area failed, using default: %v", key, area.GetInfo().Name, err)
		return false
	}

	raw, ok := values[key]
	if !ok {
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Errorf("decoding %q failed, using default: %v", key, err)
		return false
	}
	return true
}

// Set serializes the value and writes it to the routed area. Unlike Get, a
// Set failure is surfaced: the caller must treat it as fatal to the
// operation, since intended and actual state may now diverge.
func (s *Store) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}

	area := s.route(key)
	if err := area.Set(map[string][]byte{key: raw}); err != nil {
		return fmt.Errorf("writing %q to %s area: %w", key, area.GetInfo().Name, err)
	}
	return nil
}

// Delete removes a key from the routed area.
func (s *Store) Delete(key string) error {
	return s.route(key).Remove(key)
}

// GetAll unions both areas, sync values taking precedence on key collision.
// Only sync-eligible keys should ever collide; a collision on anything else
// indicates an interrupted sync toggle and resolves in favor of sync.
func (s *Store) GetAll() (map[string]json.RawMessage, error) {
	result := make(map[string]json.RawMessage)

	for _, area := range []kv.Area{s.local, s.sync} {
		keys, err := area.Keys()
		if err != nil {
			return nil, fmt.Errorf("listing %s area: %w", area.GetInfo().Name, err)
		}
		values, err := area.Get(keys...)
		if err != nil {
			return nil, fmt.Errorf("reading %s area: %w", area.GetInfo().Name, err)
		}
		for key, raw := range values {
			result[key] = json.RawMessage(raw)
		}
	}

	return result, nil
}

// Clear empties both areas. Factory reset only.
func (s *Store) Clear() error {
	if err := s.local.Clear(); err != nil {
		return fmt.Errorf("clearing local area: %w", err)
	}
	if err := s.sync.Clear(); err != nil {
		return fmt.Errorf("clearing sync area: %w", err)
	}
	s.syncEnabled.Store(false)
	return nil
}

// Update runs a serialized read-modify-write cycle on a single key. The
// callback receives the current raw value (nil when the key is unset) and
// returns the replacement value. The global update lock is held for the full
// cycle, so concurrent Updates never interleave.
func (s *Store) Update(key string, fn func(raw json.RawMessage) (interface{}, error)) error {
	s.lock.Acquire()
	defer s.lock.Release()

	return s.updateLocked(key, fn)
}

// updateLocked is Update without lock management, for callers that already
// hold the update lock and need to touch several keys in one critical
// section.
func (s *Store) updateLocked(key string, fn func(raw json.RawMessage) (interface{}, error)) error {
	area := s.route(key)

	var raw json.RawMessage
	values, err := area.Get(key)
	if err != nil {
		s.log.Errorf("update read of %q failed, treating as unset: %v", key, err)
	} else if current, ok := values[key]; ok {
		raw = json.RawMessage(current)
	}

	replacement, err := fn(raw)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(replacement)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	if err := area.Set(map[string][]byte{key: encoded}); err != nil {
		return fmt.Errorf("writing %q to %s area: %w", key, area.GetInfo().Name, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Sync Toggle
// --------------------------------------------------------------------------

// SyncEnabled reports the cached sync flag.
func (s *Store) SyncEnabled() bool {
	return s.syncEnabled.Load()
}

// SetSyncEnabled toggles replication of sync-eligible keys. Ownership of
// each eligible key moves atomically under the update lock: values are
// copied to the destination area first and cleared from the source only
// after the copy landed, so at no point outside the toggle itself do both
// areas hold authoritative copies.
func (s *Store) SetSyncEnabled(enabled bool) error {
	s.lock.Acquire()
	defer s.lock.Release()

	if s.syncEnabled.Load() == enabled {
		return nil
	}

	src, dst := s.local, s.sync
	if !enabled {
		src, dst = s.sync, s.local
	}

	// collect the sync-eligible keys currently held by the source area
	keys, err := src.Keys()
	if err != nil {
		return fmt.Errorf("listing %s area: %w", src.GetInfo().Name, err)
	}
	var eligible []string
	for _, key := range keys {
		if schema.SyncEligible(key) {
			eligible = append(eligible, key)
		}
	}

	// copy first
	if len(eligible) > 0 {
		values, err := src.Get(eligible...)
		if err != nil {
			return fmt.Errorf("reading %s area: %w", src.GetInfo().Name, err)
		}
		if err := dst.Set(values); err != nil {
			return fmt.Errorf("copying to %s area: %w", dst.GetInfo().Name, err)
		}

		// then clear the source copies
		if err := src.Remove(eligible...); err != nil {
			return fmt.Errorf("clearing %s area: %w", src.GetInfo().Name, err)
		}
	}

	// persist the flag (always local; the flag itself is never synced) and
	// update the cached value. The watcher would do the latter too, this
	// just makes the new routing visible before SetSyncEnabled returns.
	raw, _ := json.Marshal(enabled)
	if err := s.local.Set(map[string][]byte{schema.KeySyncEnabled: raw}); err != nil {
		return fmt.Errorf("writing sync flag: %w", err)
	}
	s.syncEnabled.Store(enabled)
	return nil
}

// --------------------------------------------------------------------------
// Raw Access (maintenance and diagnostics)
// --------------------------------------------------------------------------

// AreaInfo returns metadata for the named area.
func (s *Store) AreaInfo(name kv.AreaName) kv.AreaInfo {
	return s.areaByName(name).GetInfo()
}

// Raw returns every key-value pair of the named area as stored. Used by the
// quota monitor and maintenance; regular callers use the typed surface.
func (s *Store) Raw(name kv.AreaName) (map[string][]byte, error) {
	area := s.areaByName(name)
	keys, err := area.Keys()
	if err != nil {
		return nil, err
	}
	return area.Get(keys...)
}

// SetRaw writes an already-encoded value into the named area, bypassing
// routing. Maintenance uses it to rewrite compacted values in place.
func (s *Store) SetRaw(name kv.AreaName, key string, value []byte) error {
	return s.areaByName(name).Set(map[string][]byte{key: value})
}

func (s *Store) areaByName(name kv.AreaName) kv.Area {
	if name == kv.AreaSync {
		return s.sync
	}
	return s.local
}
