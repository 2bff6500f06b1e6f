// This file implements the one-time schema migration. Migration is assumed
// to run before any other component issues operations; the host sequences
// it first.

package bundle

import (
	"encoding/json"
	"strings"

	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/logger"
	"github.com/orrlabs/prefstore/lib/schema"
	"github.com/orrlabs/prefstore/lib/settings"
)

// MigrationResult describes what a migration pass did.
type MigrationResult struct {
	Migrated        bool     `json:"migrated"`
	FromVersion     int      `json:"from_version"` // 0 for pre-versioning installs
	DefaultsWritten []string `json:"defaults_written,omitempty"`
	LegacyEnabled   *bool    `json:"legacy_enabled,omitempty"`
}

// Migrate brings the store's schema up to the current version. It is
// idempotent: an already-versioned store short-circuits on the version
// check. Failures along the way are logged and skipped so startup proceeds
// with best-effort defaults rather than blocking on a broken key.
func Migrate(store *settings.Store) MigrationResult {
	log := logger.GetLogger("migrate")

	var storedVersion int
	if store.Get(schema.KeySchemaVersion, &storedVersion) && storedVersion >= schema.CurrentVersion {
		log.Debugf("schema already at version %d", storedVersion)
		return MigrationResult{FromVersion: storedVersion}
	}

	result := MigrationResult{Migrated: true, FromVersion: storedVersion}
	log.Infof("migrating schema from version %d to %d", storedVersion, schema.CurrentVersion)

	if storedVersion == 0 {
		result.LegacyEnabled = inferLegacyEnabled(store)
		if result.LegacyEnabled != nil {
			if err := store.UpdateOptions(settings.Options{Enabled: result.LegacyEnabled}); err != nil {
				log.Errorf("failed to carry over legacy enabled state: %v", err)
			} else {
				log.Infof("carried over legacy enabled state: %v", *result.LegacyEnabled)
			}
		}
	}

	// Additive defaults for entries introduced since the stored version.
	stored, err := store.GetAll()
	if err != nil {
		log.Errorf("failed to list stored keys, writing all defaults: %v", err)
		stored = map[string]json.RawMessage{}
	}
	for _, entry := range schema.Entries() {
		if entry.Key == schema.KeySchemaVersion {
			continue
		}
		if _, exists := stored[entry.Key]; exists {
			continue
		}
		if err := store.Set(entry.Key, entry.Default); err != nil {
			log.Errorf("failed to write default for %s: %v", entry.Key, err)
			continue
		}
		result.DefaultsWritten = append(result.DefaultsWritten, entry.Key)
	}

	if err := store.Set(schema.KeySchemaVersion, schema.CurrentVersion); err != nil {
		log.Errorf("failed to stamp schema version: %v", err)
	}
	return result
}

// inferLegacyEnabled reads the raw on/off flag pre-versioning installs
// wrote directly into the local area. Returns nil when no signal exists.
func inferLegacyEnabled(store *settings.Store) *bool {
	raw, err := store.Raw(kv.AreaLocal)
	if err != nil {
		return nil
	}
	value, exists := raw[schema.KeyLegacyEnabled]
	if !exists {
		return nil
	}
	enabled := strings.TrimSpace(string(value)) == "true"
	return &enabled
}
