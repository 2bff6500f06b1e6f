package settings

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/orrlabs/prefstore/lib/schema"
)

// --------------------------------------------------------------------------
// Redirect Stats
// --------------------------------------------------------------------------

// GetStats returns the redirect counters, zero-valued when none were
// recorded yet. A stored day that has since finished is rolled into the
// weekly history before the counters are returned, so a read after
// midnight never reports yesterday's counter as today's.
func (s *Store) GetStats() Stats {
	stats := Stats{PerSubreddit: map[string]int{}}
	s.Get(schema.KeyStats, &stats)
	if stats.PerSubreddit == nil {
		stats.PerSubreddit = map[string]int{}
	}
	rolloverDay(&stats, s.currentDate())
	return stats
}

// RecordRedirect counts one redirect for the given subreddit. The daily
// counter resets lazily: when the stored day no longer matches the current
// date the finished day is rolled into the weekly history (capped at the
// last 7 days, oldest first) before counting continues.
func (s *Store) RecordRedirect(subreddit string) error {
	return s.Update(schema.KeyStats, func(raw json.RawMessage) (interface{}, error) {
		stats := Stats{PerSubreddit: map[string]int{}}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &stats); err != nil {
				s.log.Warningf("discarding malformed stats: %v", err)
				stats = Stats{PerSubreddit: map[string]int{}}
			}
		}
		if stats.PerSubreddit == nil {
			stats.PerSubreddit = map[string]int{}
		}

		rolloverDay(&stats, s.currentDate())

		stats.TotalRedirects++
		stats.TodayRedirects++
		if subreddit != "" {
			stats.PerSubreddit[subreddit]++
			trimPerSubreddit(stats.PerSubreddit, schema.StatsPerSubredditCap)
		}

		return stats, nil
	})
}

// TrimStats caps the per-subreddit counters to the given size, keeping the
// highest counts. Maintenance calls this with the tighter trim cap.
func (s *Store) TrimStats(cap int) error {
	return s.Update(schema.KeyStats, func(raw json.RawMessage) (interface{}, error) {
		stats := Stats{PerSubreddit: map[string]int{}}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &stats)
		}
		if stats.PerSubreddit != nil {
			trimPerSubreddit(stats.PerSubreddit, cap)
		}
		return stats, nil
	})
}

// currentDate formats the clock's idea of today as YYYY-MM-DD in UTC.
func (s *Store) currentDate() string {
	return time.UnixMilli(s.clock()).UTC().Format("2006-01-02")
}

// rolloverDay folds a finished day into the weekly history (capped at the
// last 7 days, oldest first) and resets the daily counter. Both reads and
// writes apply it, so the reset happens on whichever comes first after the
// stored day ends.
func rolloverDay(stats *Stats, today string) {
	if stats.TodayDate == today {
		return
	}
	if stats.TodayDate != "" {
		stats.WeeklyHistory = append(stats.WeeklyHistory, DayCount{
			Date:  stats.TodayDate,
			Count: stats.TodayRedirects,
		})
		if len(stats.WeeklyHistory) > schema.StatsWeeklyHistoryCap {
			stats.WeeklyHistory = stats.WeeklyHistory[len(stats.WeeklyHistory)-schema.StatsWeeklyHistoryCap:]
		}
	}
	stats.TodayDate = today
	stats.TodayRedirects = 0
}

// trimPerSubreddit keeps only the top entries by count. Ties at the
// boundary break by subreddit name so the trim is deterministic.
func trimPerSubreddit(counts map[string]int, keep int) {
	if len(counts) <= keep {
		return
	}

	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	for _, doomed := range entries[keep:] {
		delete(counts, doomed.name)
	}
}
