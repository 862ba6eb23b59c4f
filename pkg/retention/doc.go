// Package retention removes or deactivates stale projects.
//
// # Retention Policy
//
// The policy is read from the "maintenance" property group at the start of
// every run:
//
//   - cleanup.enabled: anything other than "true" (any case) turns the job off
//   - cleanup.version.match: regular expression a version must match in full
//   - cleanup.older.than.days: age in days since the last import
//   - cleanup.delete.project: "true" deletes, anything else deactivates
//
// A top-level project is a candidate when it has been imported at least once,
// its last import is strictly before now minus the configured age, and its
// version matches the pattern. Projects that were never imported are kept.
//
// # Basic Usage
//
//	job := retention.NewJob(projectStore, settingsStore,
//	    retention.WithRecorder(collector),
//	    retention.WithTracer(tracer),
//	)
//
//	result, err := job.Run(ctx)
//	if errors.Is(err, retention.ErrConfiguration) {
//	    // nothing was touched
//	}
//	log.Printf("actioned %d of %d candidates", result.Actioned, result.Candidates)
//
// # Failures
//
// Configuration errors and project listing errors abort a run before any
// project is modified. A failed deactivate or delete is recorded as an
// *ActionError in RunResult.Failures and the run moves on to the next
// candidate. Run returns an error wrapping ErrAllActionsFailed only when
// there were candidates and none of the actions succeeded.
//
// # Scheduling
//
// Scheduler runs the job on a cron expression:
//
//   - "0 3 * * *": Daily at 3 AM (default)
//   - "0 0 * * 0": Weekly on Sunday at midnight
//   - "0 */6 * * *": Every 6 hours
//
// Ticks that fire while a run is still in progress are skipped, and manual
// triggers wait for the current run to finish. If no schedule is configured,
// Start returns immediately without error.
package retention
