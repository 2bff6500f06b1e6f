package quota

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/logger"
	"github.com/orrlabs/prefstore/lib/schema"
	"github.com/orrlabs/prefstore/lib/settings"
)

// --------------------------------------------------------------------------
// Thresholds
// --------------------------------------------------------------------------

const (
	// DefaultWarningPercent is the usage percentage at which an area is
	// considered near its quota.
	DefaultWarningPercent = 80

	// CriticalPercent is the usage percentage at which the health status
	// degrades to critical.
	CriticalPercent = 90

	// collectionWarnPercent flags a bounded collection whose entry count
	// approaches its cap.
	collectionWarnPercent = 80
)

// --------------------------------------------------------------------------
// Report types
// --------------------------------------------------------------------------

// KeyUsage describes the serialized footprint of one top-level key.
type KeyUsage struct {
	Key   string `json:"key"`
	Bytes int    `json:"bytes"`
}

// AreaUsage summarizes one area's footprint against its quota. Byte counts
// are the encoded JSON lengths of the stored values and are an estimate of
// what the host would account, not an exact figure.
type AreaUsage struct {
	Area        kv.AreaName `json:"area"`
	UsedBytes   int         `json:"used_bytes"`
	QuotaBytes  int         `json:"quota_bytes"`
	UsedPercent float64     `json:"used_percent"`
	Breakdown   []KeyUsage  `json:"breakdown"` // sorted by size, largest first
}

// Usage is the combined footprint of both areas.
type Usage struct {
	Local AreaUsage `json:"local"`
	Sync  AreaUsage `json:"sync"`
	Total int       `json:"total"` // used bytes across both areas
}

// Recommendation names a cleanup action for one oversized key.
type Recommendation struct {
	Key    string `json:"key"`
	Bytes  int    `json:"bytes"`
	Action string `json:"action"`
}

// QuotaStatus is the result of a near-quota check for one area.
type QuotaStatus struct {
	Area            kv.AreaName      `json:"area"`
	IsNearLimit     bool             `json:"is_near_limit"`
	UsedPercent     float64          `json:"used_percent"`
	Recommendations []Recommendation `json:"recommendations"`
}

// HealthStatus classifies the store's overall condition.
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWarning  HealthStatus = "warning"
	StatusCritical HealthStatus = "critical"
)

// HealthReport is a full snapshot of quotas, collection fill levels and the
// resulting status.
type HealthReport struct {
	Status      HealthStatus   `json:"status"`
	Issues      []string       `json:"issues"`
	Usage       Usage          `json:"usage"`
	Collections map[string]int `json:"collections"` // entry count per bounded collection
	SampledKeys int64          `json:"sampled_keys"`
	MedianBytes int            `json:"median_bytes"`
	AvgBytes    int            `json:"avg_bytes"`
	P95Bytes    int            `json:"p95_bytes"`
}

// --------------------------------------------------------------------------
// Monitor
// --------------------------------------------------------------------------

// Monitor computes usage, near-quota and health reports over a settings
// store. It holds no state beyond cached gauge values and is safe for
// concurrent use.
type Monitor struct {
	store *settings.Store
	log   *logger.Logger
	hist  *SizeHistogram

	// last observed usage percentages, exported as gauges
	localPct atomic.Uint64
	syncPct  atomic.Uint64
}

// NewMonitor creates a quota monitor for the given store and registers its
// usage gauges.
func NewMonitor(store *settings.Store) *Monitor {
	m := &Monitor{
		store: store,
		log:   logger.GetLogger("quota"),
		hist:  NewSizeHistogram(),
	}
	metrics.GetOrCreateGauge(`prefstore_area_used_percent{area="local"}`, func() float64 {
		return float64(m.localPct.Load())
	})
	metrics.GetOrCreateGauge(`prefstore_area_used_percent{area="sync"}`, func() float64 {
		return float64(m.syncPct.Load())
	})
	return m
}

// Usage measures both areas. Each top-level key contributes the byte length
// of its stored encoding plus the key itself. The size histogram is rebuilt
// from scratch on every call so the estimates describe the current store,
// not every measurement ever taken.
func (m *Monitor) Usage() (Usage, error) {
	m.hist.Reset()
	local, err := m.areaUsage(kv.AreaLocal)
	if err != nil {
		return Usage{}, err
	}
	syncUsage, err := m.areaUsage(kv.AreaSync)
	if err != nil {
		return Usage{}, err
	}
	m.localPct.Store(uint64(local.UsedPercent))
	m.syncPct.Store(uint64(syncUsage.UsedPercent))
	return Usage{
		Local: local,
		Sync:  syncUsage,
		Total: local.UsedBytes + syncUsage.UsedBytes,
	}, nil
}

func (m *Monitor) areaUsage(name kv.AreaName) (AreaUsage, error) {
	raw, err := m.store.Raw(name)
	if err != nil {
		return AreaUsage{}, fmt.Errorf("measure %s area: %w", name, err)
	}
	info := m.store.AreaInfo(name)

	usage := AreaUsage{
		Area:       name,
		QuotaBytes: info.QuotaBytes,
		Breakdown:  make([]KeyUsage, 0, len(raw)),
	}
	for key, value := range raw {
		size := len(key) + len(value)
		usage.UsedBytes += size
		usage.Breakdown = append(usage.Breakdown, KeyUsage{Key: key, Bytes: size})
		m.hist.AddSample(len(value))
	}
	sort.Slice(usage.Breakdown, func(i, j int) bool {
		a, b := usage.Breakdown[i], usage.Breakdown[j]
		if a.Bytes != b.Bytes {
			return a.Bytes > b.Bytes
		}
		return a.Key < b.Key
	})
	if usage.QuotaBytes > 0 {
		usage.UsedPercent = float64(usage.UsedBytes) / float64(usage.QuotaBytes) * 100
	}
	return usage, nil
}

// IsNearQuota checks whether the named area sits at or above the given
// percentage of its quota. A threshold of 0 uses DefaultWarningPercent.
// When the area is near its limit the status carries per-key cleanup
// recommendations for the keys known to grow without bound.
func (m *Monitor) IsNearQuota(name kv.AreaName, threshold float64) (QuotaStatus, error) {
	if threshold <= 0 {
		threshold = DefaultWarningPercent
	}
	au, err := m.areaUsage(name)
	if err != nil {
		return QuotaStatus{}, err
	}

	status := QuotaStatus{
		Area:        name,
		UsedPercent: au.UsedPercent,
		IsNearLimit: au.UsedPercent >= threshold,
	}
	if status.IsNearLimit {
		status.Recommendations = recommend(au.Breakdown)
		m.log.Warningf("%s area at %.1f%% of quota (%d/%d bytes)",
			name, au.UsedPercent, au.UsedBytes, au.QuotaBytes)
	}
	return status, nil
}

// flagBytes maps the keys that accumulate entries over time to the byte
// size at which they become cleanup candidates.
var flagBytes = map[string]struct {
	limit  int
	action string
}{
	schema.KeyScrollPositions: {schema.FlagBytesScrollPositions, "cleanup_scroll_positions"},
	schema.KeyUserTags:        {schema.FlagBytesUserTags, "cleanup_user_tags"},
	schema.KeySubredditPrefs:  {schema.FlagBytesSubredditPrefs, "cleanup_subreddit_prefs"},
}

func recommend(breakdown []KeyUsage) []Recommendation {
	var recs []Recommendation
	for _, ku := range breakdown {
		flag, ok := flagBytes[ku.Key]
		if !ok || ku.Bytes <= flag.limit {
			continue
		}
		recs = append(recs, Recommendation{Key: ku.Key, Bytes: ku.Bytes, Action: flag.action})
	}
	return recs
}

// Report produces a full health report. Status is critical when any area is
// at or above CriticalPercent, warning at or above DefaultWarningPercent,
// healthy otherwise. Bounded collections close to their entry caps are
// listed as issues but do not degrade the status on their own.
func (m *Monitor) Report() (HealthReport, error) {
	usage, err := m.Usage()
	if err != nil {
		return HealthReport{}, err
	}

	report := HealthReport{
		Status:      StatusHealthy,
		Usage:       usage,
		Collections: make(map[string]int),
		SampledKeys: m.hist.GetCount(),
		MedianBytes: m.hist.MedianEstimate(),
		AvgBytes:    m.hist.AverageSize(),
		P95Bytes:    m.hist.GetPercentileEstimate(95),
	}

	for _, au := range []AreaUsage{usage.Local, usage.Sync} {
		switch {
		case au.UsedPercent >= CriticalPercent:
			report.Status = StatusCritical
			report.Issues = append(report.Issues,
				fmt.Sprintf("%s area at %.1f%% of quota", au.Area, au.UsedPercent))
		case au.UsedPercent >= DefaultWarningPercent:
			if report.Status != StatusCritical {
				report.Status = StatusWarning
			}
			report.Issues = append(report.Issues,
				fmt.Sprintf("%s area at %.1f%% of quota", au.Area, au.UsedPercent))
		}
	}

	for _, coll := range schema.Collections() {
		count := m.store.CountRecords(coll)
		report.Collections[string(coll)] = count
		cap := schema.MaxEntries(coll)
		if cap > 0 && count*100 >= cap*collectionWarnPercent {
			report.Issues = append(report.Issues,
				fmt.Sprintf("%s near limit (%d/%d)", coll, count, cap))
		}
	}

	metrics.GetOrCreateCounter(`prefstore_health_reports_total`).Inc()
	if report.Status != StatusHealthy {
		m.log.Warningf("health %s: %d issue(s)", report.Status, len(report.Issues))
	}
	return report, nil
}
