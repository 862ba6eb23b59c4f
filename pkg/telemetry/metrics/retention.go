package metrics

import (
	"time"

	"mercator-hq/curator/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RetentionMetrics tracks retention runs.
//
// Metrics:
//   - curator_retention_runs_total: runs by trigger and outcome
//   - curator_retention_run_duration_seconds: run duration histogram
//   - curator_retention_projects_evaluated: projects inspected by the last run
//   - curator_retention_candidates: projects selected by the last run
//   - curator_retention_actions_total: per-project actions by action and status
//   - curator_retention_last_run_timestamp_seconds: completion time of the last run
type RetentionMetrics struct {
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	evaluated    prometheus.Gauge
	candidates   prometheus.Gauge
	actionsTotal *prometheus.CounterVec
	lastRun      prometheus.Gauge
}

// NewRetentionMetrics creates and registers retention metrics with the provided registry.
func NewRetentionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RetentionMetrics {
	const subsystem = "retention"

	rm := &RetentionMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "runs_total",
				Help:      "Total number of retention runs",
			},
			[]string{"trigger", "outcome"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of retention runs in seconds",
				Buckets:   cfg.RunDurationBuckets,
			},
			[]string{"trigger"},
		),

		evaluated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: subsystem,
			Name:      "projects_evaluated",
			Help:      "Number of top-level projects evaluated by the last run",
		}),

		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: subsystem,
			Name:      "candidates",
			Help:      "Number of projects selected for action by the last run",
		}),

		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "actions_total",
				Help:      "Total number of per-project retention actions",
			},
			[]string{"action", "status"},
		),

		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: subsystem,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last retention run finished",
		}),
	}

	registry.MustRegister(
		rm.runsTotal,
		rm.runDuration,
		rm.evaluated,
		rm.candidates,
		rm.actionsTotal,
		rm.lastRun,
	)

	return rm
}

// RecordRun records a finished run.
func (rm *RetentionMetrics) RecordRun(trigger, outcome string, duration time.Duration, evaluated, candidates int, finished time.Time) {
	rm.runsTotal.WithLabelValues(trigger, outcome).Inc()
	rm.runDuration.WithLabelValues(trigger).Observe(duration.Seconds())
	rm.evaluated.Set(float64(evaluated))
	rm.candidates.Set(float64(candidates))
	rm.lastRun.Set(float64(finished.Unix()))
}

// RecordAction records one project action.
func (rm *RetentionMetrics) RecordAction(action, status string) {
	rm.actionsTotal.WithLabelValues(action, status).Inc()
}
