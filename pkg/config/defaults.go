package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultServerEnabled   = true
	DefaultListenAddress   = "127.0.0.1:8090"
	MinAPIKeyLength        = 16
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Project store defaults
	DefaultProjectsBackend    = "sqlite"
	DefaultProjectsSQLitePath = "data/projects.db"
	DefaultSQLiteMaxOpenConns = 10
	DefaultSQLiteMaxIdleConns = 5
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = 5 * time.Second

	// Settings defaults
	DefaultSettingsBackend       = "sqlite"
	DefaultSettingsSQLitePath    = "data/settings.db"
	DefaultSettingsFilePath      = "settings.yaml"
	DefaultSettingsWatch         = true
	DefaultSettingsWatchDebounce = 100 * time.Millisecond
	DefaultSettingsSeed          = true

	// Retention defaults
	DefaultRetentionSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "curator"
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "curator"
	DefaultOTLPInsecure       = true
	DefaultOTLPTimeout        = 10 * time.Second
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultVersionPath        = "/version"
	DefaultHealthCheckTimeout = 5 * time.Second
)

// Default histogram buckets.
var (
	DefaultRunDurationBuckets     = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300}
	DefaultRequestDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
)

// Default returns a configuration with every field set to its default,
// including boolean fields that default to true. LoadConfig decodes the
// YAML file on top of it, so keys absent from the file keep these values.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Enabled = DefaultServerEnabled
	cfg.Projects.SQLite.WALMode = DefaultSQLiteWALMode
	cfg.Settings.Watch = DefaultSettingsWatch
	cfg.Settings.SeedDefaults = DefaultSettingsSeed
	cfg.Retention.Schedule = DefaultRetentionSchedule
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Enabled = DefaultTracingEnabled
	cfg.Telemetry.Tracing.OTLP.Insecure = DefaultOTLPInsecure
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// Boolean fields are left alone; use Default for those.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Project store defaults
	if cfg.Projects.Backend == "" {
		cfg.Projects.Backend = DefaultProjectsBackend
	}
	if cfg.Projects.SQLite.Path == "" {
		cfg.Projects.SQLite.Path = DefaultProjectsSQLitePath
	}
	if cfg.Projects.SQLite.MaxOpenConns == 0 {
		cfg.Projects.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Projects.SQLite.MaxIdleConns == 0 {
		cfg.Projects.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Projects.SQLite.BusyTimeout == 0 {
		cfg.Projects.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Settings defaults
	if cfg.Settings.Backend == "" {
		cfg.Settings.Backend = DefaultSettingsBackend
	}
	if cfg.Settings.SQLitePath == "" {
		cfg.Settings.SQLitePath = DefaultSettingsSQLitePath
	}
	if cfg.Settings.FilePath == "" {
		cfg.Settings.FilePath = DefaultSettingsFilePath
	}
	if cfg.Settings.WatchDebounce == 0 {
		cfg.Settings.WatchDebounce = DefaultSettingsWatchDebounce
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.RunDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RunDurationBuckets = append([]float64(nil), DefaultRunDurationBuckets...)
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.VersionPath == "" {
		cfg.Telemetry.Health.VersionPath = DefaultVersionPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
