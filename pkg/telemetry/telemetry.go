package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mercator-hq/curator/pkg/config"
	"mercator-hq/curator/pkg/telemetry/health"
	"mercator-hq/curator/pkg/telemetry/logging"
	"mercator-hq/curator/pkg/telemetry/metrics"
	"mercator-hq/curator/pkg/telemetry/tracing"
)

// Telemetry bundles the logger, metrics collector, tracer and health checker
// built from one TelemetryConfig.
type Telemetry struct {
	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	health  *health.Checker
	version health.VersionInfo
}

// New builds every telemetry component. Logs go to w, or stderr when w is nil.
func New(cfg *config.TelemetryConfig, info health.VersionInfo, w io.Writer) (*Telemetry, error) {
	logger, err := logging.New(logging.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
		Writer:    w,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tracer, err := tracing.New(&cfg.Tracing, info.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	return &Telemetry{
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Metrics, nil),
		tracer:  tracer,
		health:  health.New(cfg.Health.CheckTimeout),
		version: info,
	}, nil
}

// Logger returns the structured logger.
func (t *Telemetry) Logger() *slog.Logger { return t.logger }

// Metrics returns the Prometheus collector.
func (t *Telemetry) Metrics() *metrics.Collector { return t.metrics }

// Tracer returns the tracer.
func (t *Telemetry) Tracer() *tracing.Tracer { return t.tracer }

// Health returns the health checker.
func (t *Telemetry) Health() *health.Checker { return t.health }

// Version returns the build information served on the version endpoint.
func (t *Telemetry) Version() health.VersionInfo { return t.version }

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.tracer.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to shut down tracer: %w", err)
	}
	return nil
}
