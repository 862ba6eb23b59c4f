// Package health provides liveness, readiness and version endpoints.
//
// Readiness aggregates registered checks. The daemon registers:
//
//   - project_store (critical): pings the project database
//   - settings_store (critical): pings the settings backend
//   - retention (optional): fails when the last run ended in error
//
// Liveness never runs checks; it only reports that the process is serving.
package health
