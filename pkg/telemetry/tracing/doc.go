// Package tracing provides OpenTelemetry tracing for curator.
//
// A retention run produces one trace:
//
//	retention.run
//	├── retention.load_policy
//	├── retention.select
//	└── retention.apply   (one event per project action)
//
// Admin API requests are wrapped by HTTPMiddleware, which continues any W3C
// trace context sent by the caller, so a run triggered through the API is a
// child of the caller's trace.
//
// # Configuration
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: "localhost:4317"
//	    sampler: ratio
//	    sample_ratio: 0.1
//
// Spans are exported over OTLP gRPC. When tracing is disabled New returns
// a tracer backed by the noop provider.
package tracing
