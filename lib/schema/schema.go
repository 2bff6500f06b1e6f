package schema

// CurrentVersion is the schema version stamped into storage. A store without
// a stored version is a pre-versioning install and triggers one-time
// migration.
const CurrentVersion = 2

// --------------------------------------------------------------------------
// Storage Keys
// --------------------------------------------------------------------------

// Top-level storage keys. Every persisted value lives under exactly one of
// these keys in whichever area the router selects for it.
const (
	KeySchemaVersion   = "schema_version"
	KeySyncEnabled     = "sync_enabled"
	KeyOptions         = "options"
	KeyDarkMode        = "dark_mode"
	KeyUserTags        = "user_tags"
	KeyMuteList        = "mute_list"
	KeySubredditPrefs  = "subreddit_prefs"
	KeyScrollPositions = "scroll_positions"
	KeyLayoutPresets   = "layout_presets"
	KeyHistory         = "history"
	KeyStats           = "stats"
	KeyShortcuts       = "shortcuts"
	KeyConflicts       = "conflicts"
	KeySession         = "session"

	// KeyLegacyEnabled is the raw key pre-versioning installs used for the
	// global on/off switch. Only read by migration, never written.
	KeyLegacyEnabled = "redirect_enabled"
)

// --------------------------------------------------------------------------
// Config Entries
// --------------------------------------------------------------------------

// ConfigEntry declares a configuration key, its default value, and whether
// it may be replicated through the sync area. Entries are compiled into the
// binary and never mutated at runtime.
type ConfigEntry struct {
	Key          string
	Default      interface{}
	SyncEligible bool
}

// entries is the full registry. Bounded collections and stats stay local:
// they can individually outgrow the entire modeled sync quota.
var entries = []ConfigEntry{
	{Key: KeySyncEnabled, Default: false, SyncEligible: false},
	{Key: KeyOptions, Default: map[string]interface{}{}, SyncEligible: true},
	{Key: KeyDarkMode, Default: false, SyncEligible: true},
	{Key: KeyUserTags, Default: map[string]interface{}{}, SyncEligible: false},
	{Key: KeyMuteList, Default: map[string]interface{}{}, SyncEligible: false},
	{Key: KeySubredditPrefs, Default: map[string]interface{}{}, SyncEligible: true},
	{Key: KeyScrollPositions, Default: map[string]interface{}{}, SyncEligible: false},
	{Key: KeyLayoutPresets, Default: map[string]interface{}{}, SyncEligible: false},
	{Key: KeyHistory, Default: map[string]interface{}{}, SyncEligible: false},
	{Key: KeyStats, Default: nil, SyncEligible: false},
	{Key: KeyShortcuts, Default: map[string]interface{}{}, SyncEligible: true},
	{Key: KeyConflicts, Default: []interface{}{}, SyncEligible: false},
	{Key: KeySession, Default: map[string]interface{}{}, SyncEligible: false},
}

// Entries returns the full registry in declaration order.
func Entries() []ConfigEntry {
	result := make([]ConfigEntry, len(entries))
	copy(result, entries)
	return result
}

// Lookup returns the entry declared for the given key.
func Lookup(key string) (ConfigEntry, bool) {
	for _, entry := range entries {
		if entry.Key == key {
			return entry, true
		}
	}
	return ConfigEntry{}, false
}

// SyncEligible reports whether the key may be routed to the sync area.
// Unknown keys are never sync-eligible.
func SyncEligible(key string) bool {
	entry, ok := Lookup(key)
	return ok && entry.SyncEligible
}

// --------------------------------------------------------------------------
// Bounded Collection Declarations
// --------------------------------------------------------------------------

// Collection identifies one of the independently capped collections.
type Collection string

const (
	CollectionUserTags        Collection = KeyUserTags
	CollectionMuteList        Collection = KeyMuteList
	CollectionSubredditPrefs  Collection = KeySubredditPrefs
	CollectionScrollPositions Collection = KeyScrollPositions
	CollectionLayoutPresets   Collection = KeyLayoutPresets
	CollectionHistory         Collection = KeyHistory
)

// MaxEntries caps per collection. Crossing a cap evicts the entry with the
// oldest timestamp.
var maxEntries = map[Collection]int{
	CollectionUserTags:        1000,
	CollectionMuteList:        500,
	CollectionSubredditPrefs:  200,
	CollectionScrollPositions: 100,
	CollectionLayoutPresets:   50,
	CollectionHistory:         500,
}

// MaxEntries returns the declared cap for a collection, 0 for unknown ones.
func MaxEntries(c Collection) int {
	return maxEntries[c]
}

// RetentionMillis returns the retention window for a collection in
// milliseconds, 0 when entries are kept indefinitely. Maintenance removes
// entries older than the window.
func RetentionMillis(c Collection) int64 {
	switch c {
	case CollectionScrollPositions:
		return 24 * 60 * 60 * 1000 // 24h
	case CollectionSubredditPrefs:
		return 30 * 24 * 60 * 60 * 1000 // 30 days
	default:
		return 0
	}
}

// Collections returns every declared bounded collection.
func Collections() []Collection {
	return []Collection{
		CollectionUserTags,
		CollectionMuteList,
		CollectionSubredditPrefs,
		CollectionScrollPositions,
		CollectionLayoutPresets,
		CollectionHistory,
	}
}

// --------------------------------------------------------------------------
// Quota Heuristics
// --------------------------------------------------------------------------

// Per-key byte thresholds above which the health monitor flags a key with a
// remediation recommendation. Hand-picked coarse heuristics carried over from
// the original system, deliberately not derived from exact quota math.
const (
	FlagBytesScrollPositions = 50_000
	FlagBytesUserTags        = 100_000
	FlagBytesSubredditPrefs  = 30_000
)

// Stats trimming and history bounds.
const (
	StatsPerSubredditCap  = 50 // live cap enforced on every stats write
	StatsPerSubredditTrim = 25 // tighter cap applied by maintenance
	StatsWeeklyHistoryCap = 7  // last 7 days, oldest first
)

// CompactionThresholdBytes is the minimum number of bytes the expire/trim
// steps must free before maintenance bothers rewriting compacted values.
const CompactionThresholdBytes = 1000

// Import validation caps for list-type bundle sections.
const (
	ImportMaxSubreddits  = 500
	ImportMaxKeywords    = 200
	ImportMaxDomains     = 100
	ImportMaxBundleBytes = 5 * 1024 * 1024
)
