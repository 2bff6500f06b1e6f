package kv

import "io"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMem    Implementation = "mem"
	ImplFile   Implementation = "file"
	ImplSQLite Implementation = "sqlite"
)

// AreaName identifies one of the two physical storage partitions.
type AreaName string

const (
	AreaLocal AreaName = "local" // large quota, device-only
	AreaSync  AreaName = "sync"  // small quota, replicated by the host
)

// Modeled capacities of the two areas in bytes. These mirror the quotas the
// host enforces; this layer never blocks a write on them, it only reports.
const (
	QuotaLocalBytes = 5 * 1024 * 1024
	QuotaSyncBytes  = 100 * 1024
)

// Feature represents engine features as bit flags
type Feature uint64

const (
	FeatureGet    Feature = 1 << iota // Support for Get operations
	FeatureSet                        // Support for Set operations
	FeatureRemove                     // Support for Remove operations
	FeatureClear                      // Support for Clear operations
	FeatureKeys                       // Support for Keys enumeration
	FeatureWatch                      // Support for change notifications
	FeatureSave                       // Support for Save operations
	FeatureLoad                       // Support for Load operations
)

func (f Feature) String() string {
	switch f {
	case FeatureGet:
		return "Get"
	case FeatureSet:
		return "Set"
	case FeatureRemove:
		return "Remove"
	case FeatureClear:
		return "Clear"
	case FeatureKeys:
		return "Keys"
	case FeatureWatch:
		return "Watch"
	case FeatureSave:
		return "Save"
	case FeatureLoad:
		return "Load"
	default:
		return "Unknown"
	}
}

// AreaInfo describes the current state of a storage area.
// All size values are estimates based on the serialized length of the stored
// values and may differ from what the host would account.
type AreaInfo struct {
	Name       AreaName       `json:"name"`
	EntryCount int            `json:"entry_count"`
	SizeBytes  int            `json:"size_bytes"`
	QuotaBytes int            `json:"quota_bytes"`
	Engine     Implementation `json:"engine"`
	Metadata   interface{}    `json:"metadata"`
}

// WatchFunc is invoked after a mutation with the keys that changed and the
// name of the area the change happened in.
type WatchFunc func(changedKeys []string, area AreaName)

// --------------------------------------------------------------------------
// Area Interface
// --------------------------------------------------------------------------

// Area defines the interface for a single key-value storage partition.
// Values are opaque byte slices; callers own serialization. Implementations
// must be safe for concurrent use and must invoke registered watchers after
// every successful mutation.
type Area interface {

	// --------------------------------------------------------------------------
	// Read Operations
	// --------------------------------------------------------------------------

	// Get retrieves the values for the given keys. Keys without a stored
	// value are absent from the result map.
	Get(keys ...string) (values map[string][]byte, err error)

	// Keys returns all keys currently stored in the area.
	Keys() (keys []string, err error)

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or updates the given key-value pairs in one call.
	Set(values map[string][]byte) (err error)

	// Remove deletes the given keys. Removing an absent key is not an error.
	Remove(keys ...string) (err error)

	// Clear removes every entry from the area.
	Clear() (err error)

	// --------------------------------------------------------------------------
	// Change Notifications
	// --------------------------------------------------------------------------

	// Watch registers a callback invoked after every successful mutation.
	// The returned function cancels the registration.
	Watch(fn WatchFunc) (cancel func())

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Save persists the current state of the area to the provided io.Writer.
	Save(w io.Writer) (err error)

	// Load restores the area state from the data provided by an io.Reader.
	Load(r io.Reader) (err error)

	// --------------------------------------------------------------------------
	// Feature Support and Metadata
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the engine supports the specified feature.
	// Multiple features can be checked at once using the bitwise OR operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns metadata about the area. Sizes are estimates.
	GetInfo() (info AreaInfo)

	// Close releases any resources held by the area.
	Close() (err error)
}

// AreaFactory is a function type that creates a new Area for the given name.
// This is used to abstract the creation of the engine from the store.
type AreaFactory func(name AreaName, quotaBytes int) Area
