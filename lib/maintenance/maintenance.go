package maintenance

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/logger"
	"github.com/orrlabs/prefstore/lib/quota"
	"github.com/orrlabs/prefstore/lib/schema"
	"github.com/orrlabs/prefstore/lib/settings"
)

// --------------------------------------------------------------------------
// Result types
// --------------------------------------------------------------------------

// StepError records a failure of one maintenance step. Later steps still
// run; the run as a whole never aborts on a single step.
type StepError struct {
	Step string `json:"step"`
	Err  string `json:"error"`
}

// Result summarizes one maintenance run.
type Result struct {
	Expired      map[string]int     `json:"expired"` // removed entries per collection
	FreedBytes   int                `json:"freed_bytes"`
	Compacted    int                `json:"compacted"` // keys rewritten during compaction
	Report       quota.HealthReport `json:"report"`
	Errors       []StepError        `json:"errors,omitempty"`
	DurationMsec int64              `json:"duration_msec"`
}

// --------------------------------------------------------------------------
// Runner
// --------------------------------------------------------------------------

// Runner executes the periodic maintenance pass: expire aged entries, trim
// statistics, compact stored values and regenerate the health report.
type Runner struct {
	store   *settings.Store
	monitor *quota.Monitor
	clock   settings.Clock
	log     *logger.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock settings.Clock) Option {
	return func(r *Runner) { r.clock = clock }
}

// NewRunner creates a maintenance runner over the given store and monitor.
func NewRunner(store *settings.Store, monitor *quota.Monitor, opts ...Option) *Runner {
	r := &Runner{
		store:   store,
		monitor: monitor,
		clock:   settings.SystemClock,
		log:     logger.GetLogger("maintenance"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one maintenance pass. Each step's failure is captured in the
// result and the remaining steps still execute, so a broken collection can
// not starve the health report.
func (r *Runner) Run() Result {
	start := time.Now()
	result := Result{Expired: make(map[string]int)}

	before := r.store.AreaInfo(kv.AreaLocal).SizeBytes

	r.expire(&result)
	r.trimStats(&result)

	result.FreedBytes = before - r.store.AreaInfo(kv.AreaLocal).SizeBytes
	if result.FreedBytes < 0 {
		result.FreedBytes = 0
	}

	// Compaction only pays off after a substantial expire/trim pass; a run
	// that barely freed anything leaves the stored encodings alone.
	if result.FreedBytes > schema.CompactionThresholdBytes {
		r.compact(&result)
	}

	report, err := r.monitor.Report()
	if err != nil {
		result.Errors = append(result.Errors, StepError{Step: "report", Err: err.Error()})
	} else {
		result.Report = report
	}

	result.DurationMsec = time.Since(start).Milliseconds()
	metrics.GetOrCreateCounter(`prefstore_maintenance_runs_total`).Inc()
	r.log.Infof("maintenance run finished in %dms, freed %d bytes, %d error(s)",
		result.DurationMsec, result.FreedBytes, len(result.Errors))
	return result
}

// expire removes collection entries older than their retention window.
func (r *Runner) expire(result *Result) {
	now := r.clock()
	for _, coll := range schema.Collections() {
		retention := schema.RetentionMillis(coll)
		if retention <= 0 {
			continue
		}
		removed, err := r.store.RemoveOlderThan(coll, now-retention)
		if err != nil {
			result.Errors = append(result.Errors,
				StepError{Step: fmt.Sprintf("expire %s", coll), Err: err.Error()})
			continue
		}
		if removed > 0 {
			result.Expired[string(coll)] = removed
			metrics.GetOrCreateCounter(
				fmt.Sprintf(`prefstore_maintenance_expired_total{collection=%q}`, coll)).Add(removed)
			r.log.Debugf("expired %d entries from %s", removed, coll)
		}
	}
}

// trimStats tightens the per-subreddit counter map to the maintenance cap.
func (r *Runner) trimStats(result *Result) {
	if err := r.store.TrimStats(schema.StatsPerSubredditTrim); err != nil {
		result.Errors = append(result.Errors, StepError{Step: "trim stats", Err: err.Error()})
	}
}
