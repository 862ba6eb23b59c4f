package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/curator/pkg/telemetry/logging"
)

// DefaultSchedule runs retention daily at 3 AM.
const DefaultSchedule = "0 3 * * *"

// SchedulerConfig configures the retention scheduler.
type SchedulerConfig struct {
	// Schedule is a standard 5-field cron expression.
	// Empty disables scheduled runs.
	Schedule string

	// RunOnStart triggers one run as soon as the scheduler starts.
	RunOnStart bool
}

// Scheduler runs a Job on a cron schedule (e.g., daily at 3 AM).
// A tick that fires while the previous run is still going is skipped.
type Scheduler struct {
	job     *Job
	config  SchedulerConfig
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
	startup sync.WaitGroup
}

// NewScheduler creates a new retention scheduler.
func NewScheduler(job *Job, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		job:    job,
		config: cfg,
		logger: slog.Default().With("component", "retention.scheduler"),
	}
}

// Start registers the job with cron and begins scheduling.
// If the schedule is empty, the scheduler does nothing.
// The scheduler stops by itself when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("retention scheduler already running")
	}
	if s.config.Schedule == "" {
		s.logger.Info("retention schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}

	logger := cronLogger{s.logger}
	s.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.run(ctx, TriggerSchedule)
	}); err != nil {
		return fmt.Errorf("failed to schedule retention: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", s.config.Schedule,
		"run_on_start", s.config.RunOnStart,
	)

	if s.config.RunOnStart {
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			s.run(ctx, TriggerStartup)
		}()
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) run(ctx context.Context, trigger string) {
	if _, err := s.job.Run(WithTrigger(ctx, trigger)); err != nil {
		s.logger.Error("scheduled retention run failed", "trigger", trigger, "error", err)
	}
}

// Trigger runs the job immediately, outside the schedule.
// Runs already in progress are waited for.
func (s *Scheduler) Trigger(ctx context.Context) (*RunResult, error) {
	if logging.GetTrigger(ctx) == "" {
		ctx = WithTrigger(ctx, TriggerManual)
	}
	return s.job.Run(ctx)
}

// Job returns the scheduled job.
func (s *Scheduler) Job() *Job {
	return s.job
}

// Stop stops the scheduler and waits for any running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.startup.Wait()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled run time, or nil when not scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil || !s.running {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
