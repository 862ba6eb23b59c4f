// Package config provides configuration management for curator.
//
// Configuration is loaded from a YAML file with environment variable
// overrides, validated, and optionally held as a process-wide singleton.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("curator.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("curator.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CURATOR_SECTION_FIELD:
//
//   - CURATOR_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - CURATOR_PROJECTS_SQLITE_PATH overrides projects.sqlite.path
//   - CURATOR_RETENTION_SCHEDULE overrides retention.schedule
//   - CURATOR_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// The retention policy itself (enabled flag, version pattern, age and
// action) is not part of this file. It lives in the settings store so that
// it can change without a restart.
//
// # Singleton Pattern
//
//	if err := config.Initialize("curator.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
package config
