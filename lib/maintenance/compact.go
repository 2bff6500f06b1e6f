// This file implements value compaction. Stored encodings accumulate null
// members over time (cleared optional fields, tombstoned entries from older
// versions); compaction strips them and rewrites a value only when the
// stripped encoding is strictly smaller.

package maintenance

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/orrlabs/prefstore/lib/kv"
)

// compact rewrites every local value whose encoding shrinks after null
// stripping. Sync values are left alone, the sync transport tolerates
// nulls and rewriting them would burn write quota.
func (r *Runner) compact(result *Result) {
	raw, err := r.store.Raw(kv.AreaLocal)
	if err != nil {
		result.Errors = append(result.Errors, StepError{Step: "compact", Err: err.Error()})
		return
	}

	for key, value := range raw {
		// Cheap pre-check, a value without the null literal can not shrink.
		if !bytes.Contains(value, []byte("null")) {
			continue
		}
		compacted, ok := stripNulls(value)
		if !ok || len(compacted) >= len(value) {
			continue
		}
		if err := r.store.SetRaw(kv.AreaLocal, key, compacted); err != nil {
			result.Errors = append(result.Errors,
				StepError{Step: fmt.Sprintf("compact %s", key), Err: err.Error()})
			continue
		}
		result.Compacted++
		r.log.Debugf("compacted %s: %d -> %d bytes", key, len(value), len(compacted))
	}
}

// stripNulls decodes a JSON value, removes null object members and null
// array elements recursively and re-encodes it. Returns false for values
// that are not valid JSON.
func stripNulls(value []byte) ([]byte, bool) {
	var decoded interface{}
	if err := json.Unmarshal(value, &decoded); err != nil {
		return nil, false
	}
	stripped := stripValue(decoded)
	encoded, err := json.Marshal(stripped)
	if err != nil {
		return nil, false
	}
	return encoded, true
}

func stripValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		for key, member := range typed {
			if member == nil {
				delete(typed, key)
				continue
			}
			typed[key] = stripValue(member)
		}
		return typed
	case []interface{}:
		kept := typed[:0]
		for _, element := range typed {
			if element == nil {
				continue
			}
			kept = append(kept, stripValue(element))
		}
		return kept
	default:
		return v
	}
}
