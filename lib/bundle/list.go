// This file implements list-subscription bundles, a lightweight interchange
// format for sharing whitelists and filter lists separately from a full
// export.

package bundle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/logger"
	"github.com/orrlabs/prefstore/lib/schema"
	"github.com/orrlabs/prefstore/lib/settings"
)

// ListBundleType is the required type discriminator of a list bundle.
const ListBundleType = "orr-list"

// List content types and their target lists.
const (
	ContentSubreddits = "subreddits"
	ContentKeywords   = "keywords"
	ContentDomains    = "domains"
)

// ListMetadata describes a list bundle's origin.
type ListMetadata struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	Version     string `json:"version,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}

// ListBundle is the subscription interchange format.
type ListBundle struct {
	Type        string       `json:"type"`
	ContentType string       `json:"contentType"`
	Metadata    ListMetadata `json:"metadata"`
	Items       []string     `json:"items"`
}

// MergeResult reports the outcome of merging a list bundle.
type MergeResult struct {
	ContentType string `json:"content_type"`
	Added       int    `json:"added"`
	Duplicates  int    `json:"duplicates"`
	Dropped     int    `json:"dropped"` // items beyond the per-type cap
	Total       int    `json:"total"`
}

func listCap(contentType string) int {
	switch contentType {
	case ContentSubreddits:
		return schema.ImportMaxSubreddits
	case ContentKeywords:
		return schema.ImportMaxKeywords
	case ContentDomains:
		return schema.ImportMaxDomains
	default:
		return 0
	}
}

// MergeList parses a serialized list bundle, normalizes and deduplicates
// its items against the matching existing list and writes back the union.
// Existing entries always survive; new items beyond the per-type cap are
// dropped, oldest-position first.
func MergeList(store *settings.Store, raw []byte) (MergeResult, error) {
	var lb ListBundle
	if err := json.Unmarshal(raw, &lb); err != nil {
		return MergeResult{}, kv.NewError(kv.RetCInvalidOperation,
			fmt.Sprintf("list bundle is not a valid JSON object: %v", err))
	}
	if lb.Type != ListBundleType {
		return MergeResult{}, kv.NewError(kv.RetCInvalidOperation,
			fmt.Sprintf("unexpected bundle type %q, want %q", lb.Type, ListBundleType))
	}
	limit := listCap(lb.ContentType)
	if limit == 0 {
		return MergeResult{}, kv.NewError(kv.RetCInvalidOperation,
			fmt.Sprintf("unknown content type %q", lb.ContentType))
	}

	result := MergeResult{ContentType: lb.ContentType}

	opts := store.GetOptions()
	existing := targetList(opts, lb.ContentType)
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(lb.Items))
	for _, item := range existing {
		merged = append(merged, item)
		seen[normalizeItem(lb.ContentType, item)] = true
	}

	for _, item := range lb.Items {
		normalized := normalizeItem(lb.ContentType, item)
		if normalized == "" {
			continue
		}
		if lb.ContentType == ContentSubreddits && !subredditName.MatchString(normalized) {
			result.Dropped++
			continue
		}
		if seen[normalized] {
			result.Duplicates++
			continue
		}
		if len(merged) >= limit {
			result.Dropped++
			continue
		}
		seen[normalized] = true
		merged = append(merged, normalized)
		result.Added++
	}
	result.Total = len(merged)

	patch := settings.Options{}
	switch lb.ContentType {
	case ContentSubreddits:
		patch.Whitelist = merged
	case ContentKeywords:
		patch.Keywords = merged
	case ContentDomains:
		patch.Domains = merged
	}
	if err := store.UpdateOptions(patch); err != nil {
		return result, err
	}

	logger.GetLogger("bundle").Infof("merged list %q: %d added, %d duplicate(s), %d dropped",
		lb.Metadata.Name, result.Added, result.Duplicates, result.Dropped)
	return result, nil
}

func targetList(opts settings.Options, contentType string) []string {
	switch contentType {
	case ContentSubreddits:
		return opts.Whitelist
	case ContentKeywords:
		return opts.Keywords
	default:
		return opts.Domains
	}
}

// normalizeItem lowercases and trims an item. Subreddit names additionally
// shed a leading "r/" prefix.
func normalizeItem(contentType, item string) string {
	item = strings.ToLower(strings.TrimSpace(item))
	if contentType == ContentSubreddits {
		item = strings.TrimPrefix(item, "r/")
	}
	return item
}
