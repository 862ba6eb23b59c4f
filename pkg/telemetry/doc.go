// Package telemetry wires curator's observability together.
//
// # Components
//
//   - logging: structured slog logging with run and request context fields
//   - metrics: Prometheus metrics for retention runs and the admin API
//   - tracing: OpenTelemetry tracing exported over OTLP
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry, health.NewVersionInfo(version, commit, date), nil)
//	if err != nil {
//		return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	job := retention.NewJob(projects, props,
//		retention.WithLogger(tel.Logger()),
//		retention.WithRecorder(tel.Metrics()),
//		retention.WithTracer(tel.Tracer()),
//	)
package telemetry
