package settings

import (
	"encoding/json"

	"github.com/orrlabs/prefstore/lib/schema"
	"github.com/orrlabs/prefstore/lib/shortcuts"
)

// Typed accessor surface. Each pair is a thin wrapper over the core accessor
// or the bounded collection manager with the schema-declared default baked
// in; other components never touch raw keys.

// --------------------------------------------------------------------------
// Scalars and Sections
// --------------------------------------------------------------------------

func (s *Store) GetDarkMode() bool {
	enabled := false
	s.Get(schema.KeyDarkMode, &enabled)
	return enabled
}

func (s *Store) SetDarkMode(enabled bool) error {
	return s.Set(schema.KeyDarkMode, enabled)
}

func (s *Store) GetOptions() Options {
	options := Options{}
	s.Get(schema.KeyOptions, &options)
	return options
}

// UpdateOptions applies a typed patch to the options section under the
// update lock. Slice fields in the patch replace their stored counterparts
// wholesale (see MergeOptions).
func (s *Store) UpdateOptions(patch Options) error {
	return s.Update(schema.KeyOptions, func(raw json.RawMessage) (interface{}, error) {
		base := Options{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &base); err != nil {
				s.log.Warningf("discarding malformed options: %v", err)
				base = Options{}
			}
		}
		return MergeOptions(base, patch), nil
	})
}

// --------------------------------------------------------------------------
// User Tags
// --------------------------------------------------------------------------

func (s *Store) GetUserTag(username string) (TagRecord, bool) {
	return GetRecord[TagRecord](s, schema.CollectionUserTags, username)
}

func (s *Store) GetUserTags() map[string]TagRecord {
	return GetCollection[TagRecord](s, schema.CollectionUserTags)
}

func (s *Store) SetUserTag(username string, tag TagRecord) error {
	return s.UpsertRecord(schema.CollectionUserTags, username, tag)
}

func (s *Store) DeleteUserTag(username string) error {
	return s.DeleteRecord(schema.CollectionUserTags, username)
}

// --------------------------------------------------------------------------
// Mute List
// --------------------------------------------------------------------------

func (s *Store) GetMuteList() map[string]MuteRecord {
	return GetCollection[MuteRecord](s, schema.CollectionMuteList)
}

func (s *Store) MuteUser(username string, record MuteRecord) error {
	return s.UpsertRecord(schema.CollectionMuteList, username, record)
}

func (s *Store) UnmuteUser(username string) error {
	return s.DeleteRecord(schema.CollectionMuteList, username)
}

// --------------------------------------------------------------------------
// Subreddit Preferences
// --------------------------------------------------------------------------

func (s *Store) GetSubredditPref(subreddit string) (SubredditPref, bool) {
	return GetRecord[SubredditPref](s, schema.CollectionSubredditPrefs, subreddit)
}

func (s *Store) SetSubredditPref(subreddit string, pref SubredditPref) error {
	return s.UpsertRecord(schema.CollectionSubredditPrefs, subreddit, pref)
}

func (s *Store) DeleteSubredditPref(subreddit string) error {
	return s.DeleteRecord(schema.CollectionSubredditPrefs, subreddit)
}

// --------------------------------------------------------------------------
// Scroll Positions
// --------------------------------------------------------------------------

func (s *Store) GetScrollPosition(url string) (ScrollPosition, bool) {
	return GetRecord[ScrollPosition](s, schema.CollectionScrollPositions, url)
}

func (s *Store) SetScrollPosition(url string, position ScrollPosition) error {
	return s.UpsertRecord(schema.CollectionScrollPositions, url, position)
}

// --------------------------------------------------------------------------
// Layout Presets
// --------------------------------------------------------------------------

func (s *Store) GetLayoutPresets() map[string]LayoutPreset {
	return GetCollection[LayoutPreset](s, schema.CollectionLayoutPresets)
}

func (s *Store) SaveLayoutPreset(name string, preset LayoutPreset) error {
	return s.UpsertRecord(schema.CollectionLayoutPresets, name, preset)
}

func (s *Store) DeleteLayoutPreset(name string) error {
	return s.DeleteRecord(schema.CollectionLayoutPresets, name)
}

// --------------------------------------------------------------------------
// History
// --------------------------------------------------------------------------

func (s *Store) AddHistoryEntry(url string, entry HistoryEntry) error {
	return s.UpsertRecord(schema.CollectionHistory, url, entry)
}

func (s *Store) GetHistory() map[string]HistoryEntry {
	return GetCollection[HistoryEntry](s, schema.CollectionHistory)
}

func (s *Store) ClearHistory() error {
	return s.ClearCollection(schema.CollectionHistory)
}

// --------------------------------------------------------------------------
// Shortcuts and Conflicts
// --------------------------------------------------------------------------

func (s *Store) GetShortcuts() map[string]shortcuts.Entry {
	table := map[string]shortcuts.Entry{}
	s.Get(schema.KeyShortcuts, &table)
	return table
}

func (s *Store) SetShortcut(id string, entry shortcuts.Entry) error {
	return s.Update(schema.KeyShortcuts, func(raw json.RawMessage) (interface{}, error) {
		table := map[string]shortcuts.Entry{}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &table)
		}
		entry.Timestamp = s.now()
		table[id] = entry
		return table, nil
	})
}

func (s *Store) DeleteShortcut(id string) error {
	return s.Update(schema.KeyShortcuts, func(raw json.RawMessage) (interface{}, error) {
		table := map[string]shortcuts.Entry{}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &table)
		}
		delete(table, id)
		return table, nil
	})
}

// DetectShortcutConflicts runs the conflict detector over the stored table,
// persists the result under the conflicts key, and returns it.
func (s *Store) DetectShortcutConflicts() ([]shortcuts.Conflict, error) {
	conflicts := shortcuts.Detect(s.GetShortcuts())
	if conflicts == nil {
		conflicts = []shortcuts.Conflict{}
	}
	if err := s.Set(schema.KeyConflicts, conflicts); err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (s *Store) GetConflicts() []shortcuts.Conflict {
	conflicts := []shortcuts.Conflict{}
	s.Get(schema.KeyConflicts, &conflicts)
	return conflicts
}
