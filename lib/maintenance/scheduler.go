package maintenance

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// DefaultInterval is how often the scheduler runs maintenance when no
// interval is given.
const DefaultInterval = time.Hour

// Scheduler wraps a gocron scheduler that runs maintenance periodically.
type Scheduler struct {
	scheduler gocron.Scheduler
	runner    *Runner
}

// NewScheduler creates a scheduler around an existing runner. The scheduler
// is idle until Start is called.
func NewScheduler(runner *Runner) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, runner: runner}, nil
}

// Start schedules maintenance at the given interval and begins running.
// An interval of 0 uses DefaultInterval.
func (s *Scheduler) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.execute),
		gocron.WithName("maintenance"),
	)
	if err != nil {
		return fmt.Errorf("failed to create maintenance job: %w", err)
	}
	s.runner.log.Infof("scheduling maintenance every %s", interval)
	s.scheduler.Start()
	return nil
}

// Stop gracefully shuts the scheduler down. Pending runs finish first.
func (s *Scheduler) Stop() error {
	s.runner.log.Infof("stopping maintenance scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) execute() {
	result := s.runner.Run()
	if len(result.Errors) > 0 {
		for _, stepErr := range result.Errors {
			s.runner.log.Errorf("maintenance step %q failed: %s", stepErr.Step, stepErr.Err)
		}
	}
}
