package settings

import (
	"fmt"
	"testing"
)

const statsDayMillis = 24 * 60 * 60 * 1000

// TestRecordRedirectCounts tests the basic counters
func TestRecordRedirectCounts(t *testing.T) {
	store, _ := capTestStore(t)

	for i := 0; i < 3; i++ {
		if err := store.RecordRedirect("golang"); err != nil {
			t.Fatalf("RecordRedirect failed: %v", err)
		}
	}
	if err := store.RecordRedirect("rust"); err != nil {
		t.Fatalf("RecordRedirect failed: %v", err)
	}

	stats := store.GetStats()
	if stats.TotalRedirects != 4 {
		t.Errorf("Expected 4 total redirects, got %d", stats.TotalRedirects)
	}
	if stats.TodayRedirects != 4 {
		t.Errorf("Expected 4 redirects today, got %d", stats.TodayRedirects)
	}
	if stats.PerSubreddit["golang"] != 3 {
		t.Errorf("Expected 3 golang redirects, got %d", stats.PerSubreddit["golang"])
	}
}

// TestDailyRollover tests the lazy daily counter reset
func TestDailyRollover(t *testing.T) {
	store, now := capTestStore(t)

	if err := store.RecordRedirect("golang"); err != nil {
		t.Fatalf("RecordRedirect failed: %v", err)
	}
	if err := store.RecordRedirect("golang"); err != nil {
		t.Fatalf("RecordRedirect failed: %v", err)
	}

	*now += statsDayMillis
	if err := store.RecordRedirect("golang"); err != nil {
		t.Fatalf("RecordRedirect failed: %v", err)
	}

	stats := store.GetStats()
	if stats.TodayRedirects != 1 {
		t.Errorf("Expected today's counter to reset, got %d", stats.TodayRedirects)
	}
	if stats.TotalRedirects != 3 {
		t.Errorf("Total must survive the rollover, got %d", stats.TotalRedirects)
	}
	if len(stats.WeeklyHistory) != 1 {
		t.Fatalf("Expected 1 history day, got %d", len(stats.WeeklyHistory))
	}
	if stats.WeeklyHistory[0].Count != 2 {
		t.Errorf("Expected the finished day to carry 2 redirects, got %d", stats.WeeklyHistory[0].Count)
	}
}

// TestStaleDayResetsOnRead tests that a plain read after the stored day
// ended returns a reset counter instead of yesterday's
func TestStaleDayResetsOnRead(t *testing.T) {
	store, now := capTestStore(t)

	for i := 0; i < 5; i++ {
		if err := store.RecordRedirect("golang"); err != nil {
			t.Fatalf("RecordRedirect failed: %v", err)
		}
	}

	*now += statsDayMillis

	stats := store.GetStats()
	if stats.TodayRedirects != 0 {
		t.Errorf("Expected 0 redirects today after the day ended, got %d", stats.TodayRedirects)
	}
	if stats.TodayDate != store.currentDate() {
		t.Errorf("Expected today's date %s, got %s", store.currentDate(), stats.TodayDate)
	}
	if stats.TotalRedirects != 5 {
		t.Errorf("Total must survive the rollover, got %d", stats.TotalRedirects)
	}
	if len(stats.WeeklyHistory) != 1 {
		t.Fatalf("Expected the finished day in history, got %d entries", len(stats.WeeklyHistory))
	}
	if stats.WeeklyHistory[0].Count != 5 {
		t.Errorf("Expected the finished day to carry 5 redirects, got %d", stats.WeeklyHistory[0].Count)
	}
}

// TestWeeklyHistoryCap tests that ten active days leave exactly the last
// seven in history, oldest first
func TestWeeklyHistoryCap(t *testing.T) {
	store, now := capTestStore(t)

	for day := 0; day < 10; day++ {
		if err := store.RecordRedirect("golang"); err != nil {
			t.Fatalf("RecordRedirect failed: %v", err)
		}
		*now += statsDayMillis
	}

	stats := store.GetStats()
	// 10 days of activity: 9 finished days rolled over, capped at 7
	if len(stats.WeeklyHistory) != 7 {
		t.Fatalf("Expected 7 history days, got %d", len(stats.WeeklyHistory))
	}
	for i := 1; i < len(stats.WeeklyHistory); i++ {
		if stats.WeeklyHistory[i-1].Date >= stats.WeeklyHistory[i].Date {
			t.Errorf("History must be oldest first, got %s before %s",
				stats.WeeklyHistory[i-1].Date, stats.WeeklyHistory[i].Date)
		}
	}
}

// TestPerSubredditCap tests the live cap on the per-subreddit map
func TestPerSubredditCap(t *testing.T) {
	store, _ := capTestStore(t)

	for i := 0; i < 60; i++ {
		subreddit := fmt.Sprintf("subreddit%02d", i)
		// give each subreddit a distinct count so the trim is predictable
		for j := 0; j <= i%5; j++ {
			if err := store.RecordRedirect(subreddit); err != nil {
				t.Fatalf("RecordRedirect failed: %v", err)
			}
		}
	}

	stats := store.GetStats()
	if len(stats.PerSubreddit) > 50 {
		t.Errorf("Per-subreddit map must hold at most 50 entries, got %d", len(stats.PerSubreddit))
	}
}
