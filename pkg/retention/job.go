package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/curator/pkg/project"
	"mercator-hq/curator/pkg/settings"
	"mercator-hq/curator/pkg/telemetry/logging"
	"mercator-hq/curator/pkg/telemetry/tracing"
)

// Trigger names recorded on results, logs and metrics.
const (
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
	TriggerAPI      = "api"
	TriggerCLI      = "cli"
	TriggerSignal   = "signal"
	TriggerManual   = "manual"
)

// Run outcomes used as the metrics "outcome" label.
const (
	OutcomeDisabled    = "disabled"
	OutcomeSuccess     = "success"
	OutcomePartial     = "partial"
	OutcomeFailed      = "failed"
	OutcomeConfigError = "config_error"
	OutcomeError       = "error"
)

// WithTrigger records which source started a run.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return logging.WithTrigger(ctx, trigger)
}

// Projects is the part of the project store a retention run needs.
type Projects interface {
	ListTopLevel(ctx context.Context) ([]project.Candidate, error)
	Deactivate(ctx context.Context, id string) error
	CascadeDelete(ctx context.Context, id string) error
}

// Recorder receives run and action observations.
type Recorder interface {
	RecordRun(trigger, outcome string, duration time.Duration, evaluated, candidates int, finished time.Time)
	RecordAction(action, status string)
}

// SpanStarter starts trace spans. Both trace.Tracer and *tracing.Tracer satisfy it.
type SpanStarter interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

// RunResult describes one completed run.
type RunResult struct {
	RunID      string         `json:"run_id"`
	Trigger    string         `json:"trigger"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Outcome    string         `json:"outcome"`
	Disabled   bool           `json:"disabled"`
	Action     Action         `json:"action,omitempty"`
	Cutoff     time.Time      `json:"cutoff,omitempty"`
	Evaluated  int            `json:"evaluated"`
	Candidates int            `json:"candidates"`
	Actioned   int            `json:"actioned"`
	Failed     int            `json:"failed"`
	Failures   []*ActionError `json:"failures,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Plan is the outcome of a dry run: what Run would act on right now.
type Plan struct {
	Policy     *Policy             `json:"policy"`
	Cutoff     time.Time           `json:"cutoff,omitempty"`
	Evaluated  int                 `json:"evaluated"`
	Candidates []project.Candidate `json:"candidates"`
}

// Job applies the retention policy to the project store.
//
// Runs are serialized: a call to Run or Plan waits for any run in progress.
// Separate processes sharing one database are not coordinated; both stores
// tolerate repeated deactivation and deletion of the same project.
type Job struct {
	projects Projects
	settings settings.Getter
	logger   *slog.Logger
	recorder Recorder
	tracer   SpanStarter
	now      func() time.Time
	timeout  time.Duration

	runMu sync.Mutex

	mu   sync.RWMutex
	last *RunResult
}

// Option configures a Job.
type Option func(*Job)

// WithLogger sets the job logger.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Job) { j.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(j *Job) { j.recorder = r }
}

// WithTracer sets the span starter used for run tracing.
func WithTracer(t SpanStarter) Option {
	return func(j *Job) { j.tracer = t }
}

// WithClock replaces time.Now. The cutoff is computed from it.
func WithClock(now func() time.Time) Option {
	return func(j *Job) { j.now = now }
}

// WithRunTimeout bounds each run. Zero means no limit.
func WithRunTimeout(d time.Duration) Option {
	return func(j *Job) { j.timeout = d }
}

// NewJob creates a retention job reading its policy from props.
func NewJob(projects Projects, props settings.Getter, opts ...Option) *Job {
	j := &Job{
		projects: projects,
		settings: props,
		logger:   slog.Default().With("component", "retention"),
		recorder: nopRecorder{},
		tracer:   noop.NewTracerProvider().Tracer("curator/retention"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run executes one retention pass: load the policy, select stale projects
// and apply the configured action to each of them.
//
// A disabled policy returns a result with Disabled set and a nil error.
// Configuration and listing errors abort before any project is touched.
// A failed action is recorded in the result and the remaining candidates are
// still attempted; Run only returns an error for actions when every one of
// them failed, in which case the error wraps ErrAllActionsFailed.
func (j *Job) Run(ctx context.Context) (*RunResult, error) {
	j.runMu.Lock()
	defer j.runMu.Unlock()

	trigger := logging.GetTrigger(ctx)
	if trigger == "" {
		trigger = TriggerManual
	}
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	runID := uuid.NewString()
	ctx = logging.WithRunID(logging.WithTrigger(ctx, trigger), runID)
	logger := j.logger.With("run_id", runID, "trigger", trigger)

	ctx, span := j.tracer.Start(ctx, "retention.run", trace.WithAttributes(tracing.RunAttributes(runID, trigger)...))
	defer span.End()

	result := &RunResult{
		RunID:     runID,
		Trigger:   trigger,
		StartedAt: j.now(),
	}

	logger.Info("retention run started")
	err := j.run(ctx, logger, result)
	result.FinishedAt = j.now()
	result.Outcome = outcome(result, err)
	if err != nil {
		result.Error = err.Error()
	}

	tracing.SetOutcomeAttribute(span, result.Outcome)
	tracing.SetSelectionAttributes(span, result.Evaluated, result.Candidates)
	tracing.SetActionAttributes(span, result.Actioned, result.Failed)
	tracing.RecordResult(span, err)

	j.recorder.RecordRun(trigger, result.Outcome, result.Duration(), result.Evaluated, result.Candidates, result.FinishedAt)

	j.mu.Lock()
	j.last = result
	j.mu.Unlock()

	if err != nil {
		logger.Error("retention run failed",
			"outcome", result.Outcome,
			"candidates", result.Candidates,
			"actioned", result.Actioned,
			"failed", result.Failed,
			"error", err,
		)
		return result, err
	}

	logger.Info("retention run completed",
		"outcome", result.Outcome,
		"evaluated", result.Evaluated,
		"candidates", result.Candidates,
		"actioned", result.Actioned,
		"failed", result.Failed,
		"duration_ms", result.Duration().Milliseconds(),
	)
	return result, nil
}

func (j *Job) run(ctx context.Context, logger *slog.Logger, result *RunResult) error {
	policy, err := j.loadPolicy(ctx)
	if err != nil {
		return err
	}
	if !policy.Enabled {
		result.Disabled = true
		logger.Debug("retention disabled, nothing to do")
		return nil
	}
	result.Action = policy.Action

	cutoff := policy.Cutoff(result.StartedAt)
	result.Cutoff = cutoff

	candidates, evaluated, err := j.selectCandidates(ctx, policy, cutoff)
	if err != nil {
		return err
	}
	result.Evaluated = evaluated
	result.Candidates = len(candidates)

	logger.Info("retention candidates selected",
		"action", policy.Action,
		"cutoff", cutoff,
		"version_pattern", policy.VersionPattern,
		"evaluated", evaluated,
		"candidates", len(candidates),
	)

	return j.apply(ctx, logger, policy.Action, candidates, result)
}

func (j *Job) loadPolicy(ctx context.Context) (*Policy, error) {
	ctx, span := j.tracer.Start(ctx, "retention.load_policy")
	defer span.End()

	policy, err := LoadPolicy(ctx, j.settings)
	if err != nil {
		tracing.RecordResult(span, err)
		return nil, err
	}
	tracing.SetPolicyAttributes(span, policy.Enabled, policy.Action.String(), policy.VersionPattern, policy.MaxAgeDays)
	return policy, nil
}

// selectCandidates lists top-level projects once and keeps the stale ones.
// It returns the candidates and the number of projects evaluated.
func (j *Job) selectCandidates(ctx context.Context, policy *Policy, cutoff time.Time) ([]project.Candidate, int, error) {
	ctx, span := j.tracer.Start(ctx, "retention.select")
	defer span.End()

	projects, err := j.projects.ListTopLevel(ctx)
	if err != nil {
		err = fmt.Errorf("failed to list projects: %w", err)
		tracing.RecordResult(span, err)
		return nil, 0, err
	}

	var candidates []project.Candidate
	for _, p := range projects {
		if policy.Selects(p, cutoff) {
			candidates = append(candidates, p)
		}
	}

	tracing.SetSelectionAttributes(span, len(projects), len(candidates))
	return candidates, len(projects), nil
}

func (j *Job) apply(ctx context.Context, logger *slog.Logger, action Action, candidates []project.Candidate, result *RunResult) error {
	ctx, span := j.tracer.Start(ctx, "retention.apply", trace.WithAttributes(
		attribute.String(tracing.AttrAction, action.String()),
	))
	defer span.End()

	var errs []error
	for _, c := range candidates {
		pctx := logging.WithProjectID(ctx, c.ID)

		// Once the run is cancelled the remaining candidates fail without a store call.
		err := ctx.Err()
		if err == nil {
			switch action {
			case ActionCascadeDelete:
				err = j.projects.CascadeDelete(pctx, c.ID)
			default:
				err = j.projects.Deactivate(pctx, c.ID)
			}
		}

		if err != nil {
			ae := NewActionError(c.ID, action, err)
			result.Failures = append(result.Failures, ae)
			result.Failed++
			errs = append(errs, ae)
			j.recorder.RecordAction(action.String(), "failure")
			tracing.AddProjectEvent(span, "retention.action_failed", c.ID, c.Name, c.Version, err)
			logger.Error("retention action failed",
				"project_id", c.ID,
				"project", c.Name,
				"version", c.Version,
				"action", action,
				"error", err,
			)
			continue
		}

		result.Actioned++
		j.recorder.RecordAction(action.String(), "success")
		tracing.AddProjectEvent(span, "retention.action_applied", c.ID, c.Name, c.Version, nil)
		logger.Info("retention action applied",
			"project_id", c.ID,
			"project", c.Name,
			"version", c.Version,
			"action", action,
		)
	}

	tracing.SetActionAttributes(span, result.Actioned, result.Failed)

	if len(candidates) > 0 && result.Actioned == 0 {
		return fmt.Errorf("%w: %w", ErrAllActionsFailed, errors.Join(errs...))
	}
	return nil
}

// Plan reports what Run would do without touching any project.
// A disabled policy yields a plan with no candidates.
func (j *Job) Plan(ctx context.Context) (*Plan, error) {
	j.runMu.Lock()
	defer j.runMu.Unlock()

	ctx, span := j.tracer.Start(ctx, "retention.plan")
	defer span.End()

	policy, err := j.loadPolicy(ctx)
	if err != nil {
		return nil, err
	}
	plan := &Plan{Policy: policy, Candidates: []project.Candidate{}}
	if !policy.Enabled {
		return plan, nil
	}

	plan.Cutoff = policy.Cutoff(j.now())
	candidates, evaluated, err := j.selectCandidates(ctx, policy, plan.Cutoff)
	if err != nil {
		return nil, err
	}
	plan.Evaluated = evaluated
	if candidates != nil {
		plan.Candidates = candidates
	}
	return plan, nil
}

// LastResult returns the most recently completed run, or nil.
func (j *Job) LastResult() *RunResult {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}

func outcome(r *RunResult, err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return OutcomeConfigError
	case errors.Is(err, ErrAllActionsFailed):
		return OutcomeFailed
	case err != nil:
		return OutcomeError
	case r.Disabled:
		return OutcomeDisabled
	case r.Failed > 0:
		return OutcomePartial
	default:
		return OutcomeSuccess
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordRun(string, string, time.Duration, int, int, time.Time) {}
func (nopRecorder) RecordAction(string, string)                                   {}
