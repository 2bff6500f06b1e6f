package settings

import (
	"encoding/json"
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	"github.com/orrlabs/prefstore/lib/schema"
)

// --------------------------------------------------------------------------
// Bounded Collection Manager
// --------------------------------------------------------------------------

// recordMeta is the slice of a record the eviction scan needs.
type recordMeta struct {
	Timestamp int64 `json:"timestamp"`
}

// UpsertRecord inserts or updates one record of a bounded collection under
// the global update lock:
//
//  1. Read the collection (default: empty map).
//  2. Merge the patch into the existing record, or insert a new one.
//  3. Stamp the record's timestamp with the logical clock.
//  4. If the collection now exceeds its cap, evict the entry with the
//     smallest timestamp, never the record just written.
//  5. Write the collection back.
//
// Eviction is silent: a full collection is the designed steady state, not a
// fault. Ties in timestamp break by map iteration order, which is
// deliberately unspecified.
func (s *Store) UpsertRecord(coll schema.Collection, id string, patch interface{}) error {
	patchMap, err := toPatchMap(patch)
	if err != nil {
		return fmt.Errorf("encoding patch for %s/%s: %w", coll, id, err)
	}

	s.lock.Acquire()
	defer s.lock.Release()

	return s.updateLocked(string(coll), func(raw json.RawMessage) (interface{}, error) {
		records := decodeCollection(raw)

		// merge the patch into the existing record, field-wise. Records are
		// flat; slice- and object-valued fields are replaced wholesale.
		merged := map[string]interface{}{}
		if existing, ok := records[id]; ok {
			if err := json.Unmarshal(existing, &merged); err != nil {
				s.log.Warningf("discarding malformed record %s/%s: %v", coll, id, err)
				merged = map[string]interface{}{}
			}
		}
		for field, value := range patchMap {
			merged[field] = value
		}
		merged["timestamp"] = s.now()

		encoded, err := json.Marshal(merged)
		if err != nil {
			return nil, fmt.Errorf("encoding record %s/%s: %w", coll, id, err)
		}
		records[id] = json.RawMessage(encoded)

		// a single insert pushes the count at most one past the cap
		if max := schema.MaxEntries(coll); max > 0 && len(records) > max {
			s.evictOldest(coll, records, id)
		}

		return records, nil
	})
}

// evictOldest removes the record with the smallest timestamp, excluding the
// record that was just written. Records whose timestamp cannot be decoded
// sort first and are evicted before intact ones.
func (s *Store) evictOldest(coll schema.Collection, records map[string]json.RawMessage, keep string) {
	var (
		victim   string
		victimTS int64
		found    bool
	)

	for id, raw := range records {
		if id == keep {
			continue
		}
		var meta recordMeta
		_ = json.Unmarshal(raw, &meta)
		if !found || meta.Timestamp < victimTS {
			victim, victimTS, found = id, meta.Timestamp, true
		}
	}

	if found {
		delete(records, victim)
		metrics.GetOrCreateCounter(fmt.Sprintf(`prefstore_evictions_total{collection=%q}`, coll)).Inc()
		s.log.Debugf("evicted %s/%s (timestamp %d)", coll, victim, victimTS)
	}
}

// DeleteRecord removes one record. Deletes bypass eviction logic entirely.
func (s *Store) DeleteRecord(coll schema.Collection, id string) error {
	s.lock.Acquire()
	defer s.lock.Release()

	return s.updateLocked(string(coll), func(raw json.RawMessage) (interface{}, error) {
		records := decodeCollection(raw)
		delete(records, id)
		return records, nil
	})
}

// ClearCollection removes every record of a collection.
func (s *Store) ClearCollection(coll schema.Collection) error {
	return s.Set(string(coll), map[string]json.RawMessage{})
}

// CountRecords returns the number of records currently in a collection.
func (s *Store) CountRecords(coll schema.Collection) int {
	records := map[string]json.RawMessage{}
	s.Get(string(coll), &records)
	return len(records)
}

// RemoveOlderThan deletes every record whose timestamp is strictly below the
// cutoff and returns how many were removed. Used by the maintenance
// retention sweep.
func (s *Store) RemoveOlderThan(coll schema.Collection, cutoff int64) (int, error) {
	removed := 0

	s.lock.Acquire()
	defer s.lock.Release()

	err := s.updateLocked(string(coll), func(raw json.RawMessage) (interface{}, error) {
		records := decodeCollection(raw)
		for id, rawRecord := range records {
			var meta recordMeta
			_ = json.Unmarshal(rawRecord, &meta)
			if meta.Timestamp < cutoff {
				delete(records, id)
				removed++
			}
		}
		return records, nil
	})

	return removed, err
}

// --------------------------------------------------------------------------
// Typed collection access
// --------------------------------------------------------------------------

// GetCollection reads a full bounded collection into typed records. Records
// that fail to decode are skipped.
func GetCollection[R any](s *Store, coll schema.Collection) map[string]R {
	records := map[string]json.RawMessage{}
	s.Get(string(coll), &records)

	result := make(map[string]R, len(records))
	for id, raw := range records {
		var record R
		if err := json.Unmarshal(raw, &record); err != nil {
			s.log.Warningf("skipping malformed record %s/%s: %v", coll, id, err)
			continue
		}
		result[id] = record
	}
	return result
}

// GetRecord reads a single typed record.
func GetRecord[R any](s *Store, coll schema.Collection, id string) (R, bool) {
	var record R

	records := map[string]json.RawMessage{}
	if !s.Get(string(coll), &records) {
		return record, false
	}
	raw, ok := records[id]
	if !ok {
		return record, false
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		s.log.Warningf("malformed record %s/%s: %v", coll, id, err)
		return record, false
	}
	return record, true
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// decodeCollection interprets a raw stored value as a collection map. A
// missing or malformed value decodes to an empty collection.
func decodeCollection(raw json.RawMessage) map[string]json.RawMessage {
	records := map[string]json.RawMessage{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &records)
	}
	return records
}

// toPatchMap converts a typed record (or partial record) into a field map.
// The timestamp field is dropped; the manager stamps it itself.
func toPatchMap(patch interface{}) (map[string]interface{}, error) {
	encoded, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	patchMap := map[string]interface{}{}
	if err := json.Unmarshal(encoded, &patchMap); err != nil {
		return nil, err
	}
	delete(patchMap, "timestamp")
	return patchMap, nil
}
