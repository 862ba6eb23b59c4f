// Package server provides the curator admin HTTP API.
//
// Routes:
//
//	GET  /health                           liveness
//	GET  /ready                            readiness (store pings)
//	GET  /version                          build information
//	GET  /metrics                          Prometheus metrics
//	POST /api/v1/retention/run             run retention now
//	GET  /api/v1/retention/plan            dry run
//	GET  /api/v1/retention/status          last run and next scheduled run
//	GET  /api/v1/projects                  list projects (?active=&top_level=&name=&limit=&offset=)
//	GET  /api/v1/projects/{id}             get one project
//	POST /api/v1/projects/{id}/reactivate  undo a deactivation
//
// The health and metrics paths come from the telemetry configuration. The
// server binds to loopback by default and has no authentication; put it
// behind a proxy before exposing it.
package server
