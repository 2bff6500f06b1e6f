package settings

import (
	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/schema"
)

// --------------------------------------------------------------------------
// Area Router
// --------------------------------------------------------------------------

// route decides which area a read/write for the given key targets. A key is
// routed to the sync area only if it is declared sync-eligible in the schema
// and the sync flag is currently enabled; everything else goes local.
//
// The sync flag is held on the store and recomputed from area change events
// (see watchSyncFlag), never re-read from storage per routing decision. That
// keeps routing a pure function of two cheap in-memory reads and avoids the
// recursion a storage read from inside the router would cause.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store) route(key string) kv.Area {
	if schema.SyncEligible(key) && s.syncEnabled.Load() {
		return s.sync
	}
	return s.local
}

// routeName returns the name of the area route selects for the key.
func (s *Store) routeName(key string) kv.AreaName {
	return s.route(key).GetInfo().Name
}

// watchSyncFlag registers a watcher on the local area that reloads the
// cached sync flag whenever the flag key changes. The initial value is read
// once during construction.
func (s *Store) watchSyncFlag() {
	s.cancelWatch = s.local.Watch(func(changedKeys []string, _ kv.AreaName) {
		for _, key := range changedKeys {
			if key == schema.KeySyncEnabled {
				s.reloadSyncFlag()
				return
			}
		}
	})
}

// reloadSyncFlag reads the flag key directly from the local area, bypassing
// the generic accessor. A missing or unreadable flag means sync off.
func (s *Store) reloadSyncFlag() {
	enabled := false

	values, err := s.local.Get(schema.KeySyncEnabled)
	if err != nil {
		s.log.Warningf("reading sync flag failed, assuming off: %v", err)
	} else if raw, ok := values[schema.KeySyncEnabled]; ok {
		enabled = string(raw) == "true"
	}

	s.syncEnabled.Store(enabled)
}
