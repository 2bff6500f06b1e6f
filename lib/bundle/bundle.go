package bundle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/logger"
	"github.com/orrlabs/prefstore/lib/schema"
	"github.com/orrlabs/prefstore/lib/settings"
	"github.com/orrlabs/prefstore/lib/shortcuts"
)

// ExportVersion is the bundle format version written by Export and the
// highest version Import accepts.
const ExportVersion = 1

// --------------------------------------------------------------------------
// Bundle format
// --------------------------------------------------------------------------

// Bundle is the full-export interchange format. Sections absent from a
// bundle are left untouched on import; stats and session state are never
// part of a bundle.
type Bundle struct {
	ExportVersion    int    `json:"_exportVersion"`
	ExportDate       string `json:"_exportDate"`
	ExtensionVersion string `json:"_extensionVersion,omitempty"`

	Frontend           *FrontendSection  `json:"frontend,omitempty"`
	SubredditOverrides *SubredditSection `json:"subredditOverrides,omitempty"`
	UI                 *UISection        `json:"ui,omitempty"`
}

// FrontendSection mirrors the frontend options.
type FrontendSection struct {
	Enabled    *bool    `json:"enabled,omitempty"`
	Frontend   *string  `json:"frontend,omitempty"`
	FilterMode *string  `json:"filterMode,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Domains    []string `json:"domains,omitempty"`
}

// SubredditSection carries the whitelist and per-subreddit overrides.
type SubredditSection struct {
	Whitelist []string                          `json:"whitelist,omitempty"`
	Prefs     map[string]settings.SubredditPref `json:"prefs,omitempty"`
}

// UISection carries display settings and keyboard shortcuts.
type UISection struct {
	DarkMode  *bool                      `json:"darkMode,omitempty"`
	Shortcuts map[string]shortcuts.Entry `json:"shortcuts,omitempty"`
}

// ValidationResult reports every constraint a bundle violates, not just the
// first, so a bundle can be fixed in one pass.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// --------------------------------------------------------------------------
// Declared value sets
// --------------------------------------------------------------------------

var subredditName = regexp.MustCompile(`(?i)^[a-z0-9_]+$`)

var validFrontends = map[string]bool{
	"old_reddit": true,
	"redlib":     true,
	"libreddit":  true,
	"teddit":     true,
}

var validSorts = map[string]bool{
	"": true, "hot": true, "new": true, "top": true, "rising": true, "controversial": true,
}

var validLayouts = map[string]bool{
	"": true, "card": true, "classic": true, "compact": true,
}

// --------------------------------------------------------------------------
// Export
// --------------------------------------------------------------------------

// Export assembles a bundle from the store's current state. Stats, history
// and session state are deliberately excluded.
func Export(store *settings.Store, extensionVersion string) *Bundle {
	opts := store.GetOptions()
	darkMode := store.GetDarkMode()

	b := &Bundle{
		ExportVersion:    ExportVersion,
		ExportDate:       time.Now().UTC().Format(time.RFC3339),
		ExtensionVersion: extensionVersion,
		Frontend: &FrontendSection{
			Enabled:    opts.Enabled,
			Frontend:   opts.Frontend,
			FilterMode: opts.FilterMode,
			Keywords:   opts.Keywords,
			Domains:    opts.Domains,
		},
		SubredditOverrides: &SubredditSection{
			Whitelist: opts.Whitelist,
			Prefs:     settings.GetCollection[settings.SubredditPref](store, schema.CollectionSubredditPrefs),
		},
		UI: &UISection{
			DarkMode:  &darkMode,
			Shortcuts: store.GetShortcuts(),
		},
	}
	return b
}

// --------------------------------------------------------------------------
// Validation
// --------------------------------------------------------------------------

// ValidateImport checks a serialized bundle against every declared
// constraint and reports all violations at once.
func ValidateImport(raw []byte) ValidationResult {
	var errs []string

	if len(raw) > schema.ImportMaxBundleBytes {
		errs = append(errs, fmt.Sprintf("bundle is %d bytes, the limit is %d bytes",
			len(raw), schema.ImportMaxBundleBytes))
		return ValidationResult{Valid: false, Errors: errs}
	}

	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return ValidationResult{Valid: false, Errors: []string{
			fmt.Sprintf("bundle is not a valid JSON object: %v", err)}}
	}

	switch {
	case b.ExportVersion == 0:
		errs = append(errs, "missing _exportVersion field")
	case b.ExportVersion > ExportVersion:
		errs = append(errs, fmt.Sprintf("unsupported _exportVersion %d, newest supported is %d",
			b.ExportVersion, ExportVersion))
	}

	errs = append(errs, validateFrontend(b.Frontend)...)
	errs = append(errs, validateSubreddits(b.SubredditOverrides)...)
	errs = append(errs, validateUI(b.UI)...)

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func validateFrontend(section *FrontendSection) []string {
	if section == nil {
		return nil
	}
	var errs []string

	if section.Frontend != nil && !validFrontends[*section.Frontend] {
		errs = append(errs, fmt.Sprintf("unknown frontend %q", *section.Frontend))
	}
	filterMode := ""
	if section.FilterMode != nil {
		filterMode = *section.FilterMode
		if filterMode != settings.FilterModePlain && filterMode != settings.FilterModeRegex {
			errs = append(errs, fmt.Sprintf("unknown filter mode %q", filterMode))
		}
	}
	if len(section.Keywords) > schema.ImportMaxKeywords {
		errs = append(errs, fmt.Sprintf("keywords list has %d entries, the limit is %d entries",
			len(section.Keywords), schema.ImportMaxKeywords))
	}
	if len(section.Domains) > schema.ImportMaxDomains {
		errs = append(errs, fmt.Sprintf("domains list has %d entries, the limit is %d entries",
			len(section.Domains), schema.ImportMaxDomains))
	}
	if filterMode == settings.FilterModeRegex {
		for _, keyword := range section.Keywords {
			if _, err := regexp.Compile(keyword); err != nil {
				errs = append(errs, fmt.Sprintf("keyword %q is not a valid regular expression", keyword))
			}
		}
	}
	return errs
}

func validateSubreddits(section *SubredditSection) []string {
	if section == nil {
		return nil
	}
	var errs []string

	if len(section.Whitelist) > schema.ImportMaxSubreddits {
		errs = append(errs, fmt.Sprintf("whitelist has %d entries, the limit is %d entries",
			len(section.Whitelist), schema.ImportMaxSubreddits))
	}
	for _, name := range section.Whitelist {
		if !subredditName.MatchString(name) {
			errs = append(errs, fmt.Sprintf("malformed subreddit name %q in whitelist", name))
		}
	}

	if len(section.Prefs) > schema.ImportMaxSubreddits {
		errs = append(errs, fmt.Sprintf("prefs has %d entries, the limit is %d entries",
			len(section.Prefs), schema.ImportMaxSubreddits))
	}
	prefNames := make([]string, 0, len(section.Prefs))
	for name := range section.Prefs {
		prefNames = append(prefNames, name)
	}
	sort.Strings(prefNames)
	for _, name := range prefNames {
		pref := section.Prefs[name]
		if !subredditName.MatchString(name) {
			errs = append(errs, fmt.Sprintf("malformed subreddit name %q in prefs", name))
		}
		if !validSorts[pref.Sort] {
			errs = append(errs, fmt.Sprintf("unknown sort %q for subreddit %q", pref.Sort, name))
		}
		if !validLayouts[pref.Layout] {
			errs = append(errs, fmt.Sprintf("unknown layout %q for subreddit %q", pref.Layout, name))
		}
	}
	return errs
}

func validateUI(section *UISection) []string {
	if section == nil {
		return nil
	}
	var errs []string

	ids := make([]string, 0, len(section.Shortcuts))
	for id := range section.Shortcuts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		entry := section.Shortcuts[id]
		if !shortcuts.ValidContext(entry.Context) {
			errs = append(errs, fmt.Sprintf("unknown context %q for shortcut %q", entry.Context, id))
		}
		if entry.Keys == "" {
			errs = append(errs, fmt.Sprintf("shortcut %q has no key combination", id))
		}
	}
	return errs
}

// --------------------------------------------------------------------------
// Import
// --------------------------------------------------------------------------

// Import validates a serialized bundle and merges its known sections into
// the store. An invalid bundle leaves the store untouched. Sections outside
// the declared format are ignored, never merged.
func Import(store *settings.Store, raw []byte) (ValidationResult, error) {
	result := ValidateImport(raw)
	if !result.Valid {
		return result, kv.NewError(kv.RetCInvalidOperation,
			fmt.Sprintf("bundle failed validation with %d error(s)", len(result.Errors)))
	}

	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return result, err
	}

	log := logger.GetLogger("bundle")

	if section := b.Frontend; section != nil {
		patch := settings.Options{
			Enabled:    section.Enabled,
			Frontend:   section.Frontend,
			FilterMode: section.FilterMode,
			Keywords:   section.Keywords,
			Domains:    section.Domains,
		}
		if err := store.UpdateOptions(patch); err != nil {
			return result, err
		}
	}

	if section := b.SubredditOverrides; section != nil {
		if section.Whitelist != nil {
			if err := store.UpdateOptions(settings.Options{Whitelist: section.Whitelist}); err != nil {
				return result, err
			}
		}
		for name, pref := range section.Prefs {
			if err := store.SetSubredditPref(name, pref); err != nil {
				return result, err
			}
		}
	}

	if section := b.UI; section != nil {
		if section.DarkMode != nil {
			if err := store.SetDarkMode(*section.DarkMode); err != nil {
				return result, err
			}
		}
		for id, entry := range section.Shortcuts {
			if err := store.SetShortcut(id, entry); err != nil {
				return result, err
			}
		}
	}

	log.Infof("imported bundle (version %d, exported %s)", b.ExportVersion, b.ExportDate)
	return result, nil
}
