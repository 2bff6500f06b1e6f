package bundle

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/kv/engines/memkv"
	"github.com/orrlabs/prefstore/lib/schema"
	"github.com/orrlabs/prefstore/lib/settings"
	"github.com/orrlabs/prefstore/lib/shortcuts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *settings.Store {
	t.Helper()
	store := settings.New(
		memkv.New(kv.AreaLocal, kv.QuotaLocalBytes),
		memkv.New(kv.AreaSync, kv.QuotaSyncBytes),
	)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

// --------------------------------------------------------------------------
// Migration
// --------------------------------------------------------------------------

func TestMigrateFreshStore(t *testing.T) {
	store := newTestStore(t)

	result := Migrate(store)

	assert.True(t, result.Migrated)
	assert.Zero(t, result.FromVersion)
	assert.NotEmpty(t, result.DefaultsWritten)

	var version int
	require.True(t, store.Get(schema.KeySchemaVersion, &version))
	assert.Equal(t, schema.CurrentVersion, version)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	Migrate(store)
	before, err := store.GetAll()
	require.NoError(t, err)

	result := Migrate(store)
	assert.False(t, result.Migrated)
	assert.Equal(t, schema.CurrentVersion, result.FromVersion)

	after, err := store.GetAll()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMigrateInfersLegacyEnabled(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetRaw(kv.AreaLocal, schema.KeyLegacyEnabled, []byte("true")))

	result := Migrate(store)

	require.NotNil(t, result.LegacyEnabled)
	assert.True(t, *result.LegacyEnabled)

	opts := store.GetOptions()
	require.NotNil(t, opts.Enabled)
	assert.True(t, *opts.Enabled)
}

func TestMigratePreservesExistingValues(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetDarkMode(true))

	Migrate(store)

	assert.True(t, store.GetDarkMode())
}

// --------------------------------------------------------------------------
// Export / Import round-trip
// --------------------------------------------------------------------------

func TestExportImportRoundTrip(t *testing.T) {
	source := newTestStore(t)
	require.NoError(t, source.UpdateOptions(settings.Options{
		Enabled:    boolPtr(true),
		Frontend:   strPtr("redlib"),
		FilterMode: strPtr(settings.FilterModePlain),
		Keywords:   []string{"spoiler", "leak"},
		Whitelist:  []string{"golang", "programming"},
	}))
	require.NoError(t, source.SetDarkMode(true))
	require.NoError(t, source.SetSubredditPref("golang", settings.SubredditPref{Sort: "top", Layout: "compact"}))
	require.NoError(t, source.SetShortcut("next_post", shortcuts.Entry{
		Keys: "j", Enabled: true, Context: shortcuts.ContextFeed,
	}))

	exported := Export(source, "2.4.0")
	assert.Equal(t, ExportVersion, exported.ExportVersion)
	assert.NotEmpty(t, exported.ExportDate)
	raw, err := json.Marshal(exported)
	require.NoError(t, err)

	target := newTestStore(t)
	result, err := Import(target, raw)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	opts := target.GetOptions()
	require.NotNil(t, opts.Enabled)
	assert.True(t, *opts.Enabled)
	assert.Equal(t, "redlib", *opts.Frontend)
	assert.Equal(t, []string{"spoiler", "leak"}, opts.Keywords)
	assert.Equal(t, []string{"golang", "programming"}, opts.Whitelist)
	assert.True(t, target.GetDarkMode())

	pref, exists := target.GetSubredditPref("golang")
	require.True(t, exists)
	assert.Equal(t, "top", pref.Sort)

	entry, exists := target.GetShortcuts()["next_post"]
	require.True(t, exists)
	assert.Equal(t, "j", entry.Keys)
}

func TestExportExcludesStats(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.RecordRedirect("golang"))

	raw, err := json.Marshal(Export(store, "2.4.0"))
	require.NoError(t, err)

	assert.NotContains(t, string(raw), schema.KeyStats)
	assert.NotContains(t, string(raw), schema.KeySession)
}

// --------------------------------------------------------------------------
// Validation
// --------------------------------------------------------------------------

func TestValidateImportRejectsOversizedWhitelist(t *testing.T) {
	store := newTestStore(t)

	whitelist := make([]string, 501)
	for i := range whitelist {
		whitelist[i] = fmt.Sprintf("subreddit%03d", i)
	}
	raw, err := json.Marshal(Bundle{
		ExportVersion:      ExportVersion,
		SubredditOverrides: &SubredditSection{Whitelist: whitelist},
	})
	require.NoError(t, err)

	result := ValidateImport(raw)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "500")

	before, err := store.GetAll()
	require.NoError(t, err)
	_, err = Import(store, raw)
	assert.Error(t, err)
	after, err := store.GetAll()
	require.NoError(t, err)
	assert.Equal(t, before, after, "a rejected import must not mutate storage")
}

func TestValidateImportReportsAllViolations(t *testing.T) {
	raw, err := json.Marshal(map[string]interface{}{
		// _exportVersion deliberately missing
		"frontend": map[string]interface{}{
			"frontend":   "oldreddit.example",
			"filterMode": "regex",
			"keywords":   []string{"[broken"},
		},
		"subredditOverrides": map[string]interface{}{
			"whitelist": []string{"has spaces", "ok_name"},
		},
	})
	require.NoError(t, err)

	result := ValidateImport(raw)
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 4)
}

func TestValidateImportVersionChecks(t *testing.T) {
	tooNew, err := json.Marshal(Bundle{ExportVersion: ExportVersion + 1})
	require.NoError(t, err)
	result := ValidateImport(tooNew)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "unsupported")

	missing := []byte(`{"frontend":{}}`)
	result = ValidateImport(missing)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "_exportVersion")
}

func TestValidateImportRejectsOversizedBundle(t *testing.T) {
	raw := []byte(`{"pad":"` + strings.Repeat("x", schema.ImportMaxBundleBytes) + `"}`)
	result := ValidateImport(raw)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "bytes")
}

func TestValidateImportAcceptsCleanBundle(t *testing.T) {
	raw, err := json.Marshal(Bundle{
		ExportVersion: ExportVersion,
		Frontend: &FrontendSection{
			Frontend:   strPtr("teddit"),
			FilterMode: strPtr(settings.FilterModeRegex),
			Keywords:   []string{`(?i)spoiler.*`},
		},
		UI: &UISection{Shortcuts: map[string]shortcuts.Entry{
			"open": {Keys: "o", Context: shortcuts.ContextAny},
		}},
	})
	require.NoError(t, err)

	result := ValidateImport(raw)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

// --------------------------------------------------------------------------
// List subscriptions
// --------------------------------------------------------------------------

func TestMergeListUnionsAndDeduplicates(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpdateOptions(settings.Options{Whitelist: []string{"golang"}}))

	raw, err := json.Marshal(ListBundle{
		Type:        ListBundleType,
		ContentType: ContentSubreddits,
		Metadata:    ListMetadata{Name: "starter pack"},
		Items:       []string{"r/Golang", " programming ", "programming", "rust"},
	})
	require.NoError(t, err)

	result, err := MergeList(store, raw)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Added) // programming, rust
	assert.Equal(t, 2, result.Duplicates)
	assert.Equal(t, []string{"golang", "programming", "rust"}, store.GetOptions().Whitelist)
}

func TestMergeListHonorsCap(t *testing.T) {
	store := newTestStore(t)

	existing := make([]string, schema.ImportMaxKeywords-1)
	for i := range existing {
		existing[i] = fmt.Sprintf("keyword%03d", i)
	}
	require.NoError(t, store.UpdateOptions(settings.Options{Keywords: existing}))

	raw, err := json.Marshal(ListBundle{
		Type:        ListBundleType,
		ContentType: ContentKeywords,
		Items:       []string{"fresh_one", "fresh_two", "fresh_three"},
	})
	require.NoError(t, err)

	result, err := MergeList(store, raw)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 2, result.Dropped)
	assert.Equal(t, schema.ImportMaxKeywords, result.Total)
}

func TestMergeListRejectsWrongType(t *testing.T) {
	store := newTestStore(t)

	_, err := MergeList(store, []byte(`{"type":"orr-export","contentType":"subreddits","items":[]}`))
	assert.Error(t, err)

	_, err = MergeList(store, []byte(`{"type":"orr-list","contentType":"usernames","items":[]}`))
	assert.Error(t, err)
}
