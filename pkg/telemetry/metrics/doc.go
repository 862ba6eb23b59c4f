// Package metrics provides Prometheus metrics for curator.
//
// # Metrics Categories
//
//   - Retention metrics: runs by trigger and outcome, run duration, evaluated
//     and candidate counts, per-project actions, last run time
//   - HTTP metrics: admin API request count and duration by route
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	job := retention.NewJob(projects, props, retention.WithRecorder(collector))
//
//	router.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// # Cardinality
//
// Retention labels come from small fixed sets. HTTP metrics are labelled by
// route pattern rather than raw path. Past a fixed number of distinct routes
// further ones are counted under RouteOther.
//
// # Textfile
//
// One-shot cleanup runs are never scraped. WriteTextfile dumps the registry
// for the node_exporter textfile collector instead.
package metrics
