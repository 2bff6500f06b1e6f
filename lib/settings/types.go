package settings

// --------------------------------------------------------------------------
// Bounded Collection Records
// --------------------------------------------------------------------------

// Records of the bounded collections. Every record carries the logical write
// timestamp stamped by the collection manager; the entry with the smallest
// timestamp is evicted first when a collection crosses its cap.

// TagRecord is a user tag: free text plus a display color, keyed by username.
type TagRecord struct {
	Text      string `json:"text"`
	Color     string `json:"color,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// MuteRecord marks a muted user, keyed by username.
type MuteRecord struct {
	Reason    string `json:"reason,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// SubredditPref holds per-subreddit overrides, keyed by subreddit name.
type SubredditPref struct {
	Sort      string `json:"sort,omitempty"`
	Layout    string `json:"layout,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ScrollPosition remembers a scroll offset, keyed by URL.
type ScrollPosition struct {
	Offset    int   `json:"offset"`
	Timestamp int64 `json:"timestamp"`
}

// LayoutPreset is a named UI layout, keyed by preset name. The body is kept
// opaque; this layer only persists it.
type LayoutPreset struct {
	Body      map[string]interface{} `json:"body"`
	Timestamp int64                  `json:"timestamp"`
}

// HistoryEntry records a visited item, keyed by URL.
type HistoryEntry struct {
	Title     string `json:"title,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// --------------------------------------------------------------------------
// Frontend Options
// --------------------------------------------------------------------------

// Filter modes for keyword filtering.
const (
	FilterModePlain = "plain"
	FilterModeRegex = "regex"
)

// Options is the frontend configuration section. Pointer fields distinguish
// "not set" from zero values so a partial Options can act as a patch.
type Options struct {
	Enabled    *bool    `json:"enabled,omitempty"`
	Frontend   *string  `json:"frontend,omitempty"`
	FilterMode *string  `json:"filter_mode,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Domains    []string `json:"domains,omitempty"`
	Whitelist  []string `json:"whitelist,omitempty"`
}

// MergeOptions merges patch into base and returns the result. Scalar fields
// are taken from the patch only when set; slice fields are replaced wholesale
// when present in the patch, never element-merged.
func MergeOptions(base, patch Options) Options {
	out := base
	if patch.Enabled != nil {
		out.Enabled = patch.Enabled
	}
	if patch.Frontend != nil {
		out.Frontend = patch.Frontend
	}
	if patch.FilterMode != nil {
		out.FilterMode = patch.FilterMode
	}
	if patch.Keywords != nil {
		out.Keywords = patch.Keywords
	}
	if patch.Domains != nil {
		out.Domains = patch.Domains
	}
	if patch.Whitelist != nil {
		out.Whitelist = patch.Whitelist
	}
	return out
}

// --------------------------------------------------------------------------
// Redirect Stats
// --------------------------------------------------------------------------

// DayCount is one day of redirect counts in the weekly history.
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// Stats holds the redirect counters. TodayRedirects is reset lazily: the
// first write after TodayDate stops matching the current date rolls the old
// day into WeeklyHistory before counting continues.
type Stats struct {
	TotalRedirects int            `json:"total_redirects"`
	TodayRedirects int            `json:"today_redirects"`
	TodayDate      string         `json:"today_date"`
	PerSubreddit   map[string]int `json:"per_subreddit"`
	WeeklyHistory  []DayCount     `json:"weekly_history"` // oldest first, capped at 7
}
