// Package settings provides the configuration-property store read by the
// retention job.
//
// Properties are string values keyed by group and name. Three backends are
// available:
//
//   - MemoryStore: map-backed, for tests
//   - SQLiteStore: config_properties table, writable through the CLI and API
//   - FileStore: read-only YAML file, reloaded on change via fsnotify
//
// The retention properties live in the "maintenance" group; see
// CleanupEnabled, CleanupVersionMatch, CleanupOlderThanDays and
// CleanupDeleteProject. Seed writes their defaults into an empty store.
package settings
