// Curator removes stale projects from a dependency-tracking project store.
//
// A project is stale when its version fully matches the configured pattern
// and its last import is older than the configured number of days. Stale
// top-level projects are deactivated, or deleted together with their
// children and analysis data when cleanup.delete.project is true.
//
// Usage:
//
//	# Start the scheduler and admin API
//	curator run --config /etc/curator/config.yaml
//
//	# Preview what a retention run would do
//	curator cleanup --dry-run
//
//	# Run retention once and exit
//	curator cleanup --output json
//
//	# Inspect and edit the retention properties
//	curator settings list
//	curator settings set cleanup.older.than.days 14
//
//	# Undo a deactivation
//	curator projects reactivate <id>
package main

func main() {
	Execute()
}
