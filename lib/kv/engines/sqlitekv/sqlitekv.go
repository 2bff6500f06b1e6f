package sqlitekv

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/puzpuzpuz/xsync/v3"
	_ "modernc.org/sqlite"
)

// sqliteImpl implements kv.Area on a single SQLite table. Both areas of a
// store may share one database file; rows are namespaced by area name.
type sqliteImpl struct {
	name       kv.AreaName
	quotaBytes int

	db *sql.DB
	mu sync.RWMutex

	watchers  *xsync.MapOf[uint64, kv.WatchFunc]
	watcherID atomic.Uint64
}

// Open creates an SQLite-backed area in the database at dbPath.
// Use ":memory:" for an in-memory database, or a file path for persistent
// storage. The schema is created on first use.
func Open(dbPath string, name kv.AreaName, quotaBytes int) (kv.Area, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	area := &sqliteImpl{
		name:       name,
		quotaBytes: quotaBytes,
		db:         db,
		watchers:   xsync.NewMapOf[uint64, kv.WatchFunc](),
	}
	if err := area.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return area, nil
}

func (s *sqliteImpl) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		area TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (area, key)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --------------------------------------------------------------------------
// Interface Methods (docu see kv.Area)
// --------------------------------------------------------------------------

func (s *sqliteImpl) Get(keys ...string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[string][]byte, len(keys))
	for _, key := range keys {
		var value []byte
		err := s.db.QueryRow(
			"SELECT value FROM kv WHERE area = ? AND key = ?",
			string(s.name), key,
		).Scan(&value)
		switch err {
		case nil:
			values[key] = value
		case sql.ErrNoRows:
			// absent keys are simply omitted
		default:
			return nil, fmt.Errorf("select key %q: %w", key, err)
		}
	}
	return values, nil
}

func (s *sqliteImpl) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT key FROM kv WHERE area = ?", string(s.name))
	if err != nil {
		return nil, fmt.Errorf("select keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *sqliteImpl) Set(values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	tx, err := s.db.Begin()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("begin transaction: %w", err)
	}

	now := time.Now().UnixMilli()
	changed := make([]string, 0, len(values))
	for key, value := range values {
		if _, err := tx.Exec(
			"INSERT INTO kv (area, key, value, updated_at) VALUES (?, ?, ?, ?) "+
				"ON CONFLICT (area, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
			string(s.name), key, value, now,
		); err != nil {
			_ = tx.Rollback()
			s.mu.Unlock()
			return fmt.Errorf("upsert key %q: %w", key, err)
		}
		changed = append(changed, key)
	}

	if err := tx.Commit(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("commit: %w", err)
	}
	s.mu.Unlock()

	s.notify(changed)
	return nil
}

func (s *sqliteImpl) Remove(keys ...string) error {
	s.mu.Lock()
	changed := make([]string, 0, len(keys))
	for _, key := range keys {
		res, err := s.db.Exec(
			"DELETE FROM kv WHERE area = ? AND key = ?",
			string(s.name), key,
		)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("delete key %q: %w", key, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			changed = append(changed, key)
		}
	}
	s.mu.Unlock()

	if len(changed) > 0 {
		s.notify(changed)
	}
	return nil
}

func (s *sqliteImpl) Clear() error {
	keys, err := s.Keys()
	if err != nil {
		return err
	}

	s.mu.Lock()
	_, err = s.db.Exec("DELETE FROM kv WHERE area = ?", string(s.name))
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("clear area: %w", err)
	}

	if len(keys) > 0 {
		s.notify(keys)
	}
	return nil
}

func (s *sqliteImpl) Watch(fn kv.WatchFunc) func() {
	id := s.watcherID.Add(1)
	s.watchers.Store(id, fn)
	return func() {
		s.watchers.Delete(id)
	}
}

func (s *sqliteImpl) notify(changedKeys []string) {
	s.watchers.Range(func(_ uint64, fn kv.WatchFunc) bool {
		fn(changedKeys, s.name)
		return true
	})
}

// Save and Load are not supported; SQLite is already durable and the database
// file itself is the portable artifact.
func (s *sqliteImpl) Save(io.Writer) error {
	return kv.NewError(kv.RetCUnsupportedOperation, "Save is not supported by the sqlite engine")
}

func (s *sqliteImpl) Load(io.Reader) error {
	return kv.NewError(kv.RetCUnsupportedOperation, "Load is not supported by the sqlite engine")
}

func (s *sqliteImpl) GetInfo() kv.AreaInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count, sizeBytes int
	_ = s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(LENGTH(key) + LENGTH(value)), 0) FROM kv WHERE area = ?",
		string(s.name),
	).Scan(&count, &sizeBytes)

	return kv.AreaInfo{
		Name:       s.name,
		EntryCount: count,
		SizeBytes:  sizeBytes,
		QuotaBytes: s.quotaBytes,
		Engine:     kv.ImplSQLite,
	}
}

func (s *sqliteImpl) SupportsFeature(feature kv.Feature) bool {
	supportedFeatures := kv.FeatureGet |
		kv.FeatureSet |
		kv.FeatureRemove |
		kv.FeatureClear |
		kv.FeatureKeys |
		kv.FeatureWatch
	return supportedFeatures&feature == feature
}

func (s *sqliteImpl) Close() error {
	s.watchers.Clear()
	return s.db.Close()
}
