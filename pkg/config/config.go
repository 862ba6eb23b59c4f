package config

import "time"

// Config is the root configuration structure for curator.
// It contains the admin server, the project and settings stores, the
// retention schedule and telemetry.
type Config struct {
	// Server contains the admin HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Projects selects and configures the project store.
	Projects ProjectsConfig `yaml:"projects"`

	// Settings selects and configures the property store holding the
	// retention policy.
	Settings SettingsConfig `yaml:"settings"`

	// Retention contains the retention scheduler configuration. The policy
	// itself lives in the settings store.
	Retention RetentionConfig `yaml:"retention"`

	// Telemetry contains configuration for logging, metrics, tracing and
	// health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the admin HTTP server.
type ServerConfig struct {
	// Enabled controls whether the daemon serves the admin API.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Retention runs triggered over HTTP must finish within it.
	// Default: 5m
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// Auth protects the /api/v1 routes. Probes and metrics stay open.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig configures API key authentication for the admin API.
type AuthConfig struct {
	// Enabled requires a valid key on every /api/v1 request.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Keys lists the accepted keys.
	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeyConfig is one accepted API key.
type APIKeyConfig struct {
	// Name identifies the key holder in logs.
	Name string `yaml:"name"`

	// Key is sent as "Authorization: Bearer <key>" or in X-API-Key.
	Key string `yaml:"key"`

	// Disabled rejects the key without removing it from the file.
	Disabled bool `yaml:"disabled"`
}

// ProjectsConfig configures the project store.
type ProjectsConfig struct {
	// Backend is the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite project store configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/projects.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait for a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// SettingsConfig configures the property store.
type SettingsConfig struct {
	// Backend is the property backend.
	// Options: "sqlite", "file", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	// Default: "data/settings.db"
	SQLitePath string `yaml:"sqlite_path"`

	// FilePath is the YAML file for the file backend.
	// Default: "settings.yaml"
	FilePath string `yaml:"file_path"`

	// Watch reloads the file backend when the file changes.
	// Default: true
	Watch bool `yaml:"watch"`

	// WatchDebounce coalesces bursts of file events.
	// Default: 100ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// SeedDefaults writes the default value of every unset retention
	// property at startup. Existing values are never overwritten.
	// Default: true
	SeedDefaults bool `yaml:"seed_defaults"`
}

// RetentionConfig configures when the retention job runs.
type RetentionConfig struct {
	// Schedule is a 5-field cron expression. Empty disables scheduled runs.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`

	// RunOnStart triggers one run when the daemon starts.
	// Default: false
	RunOnStart bool `yaml:"run_on_start"`

	// RunTimeout bounds a single run. Zero means no timeout.
	// Default: 0
	RunTimeout time.Duration `yaml:"run_timeout"`
}

// TelemetryConfig groups the observability settings shared by the daemon and
// the one-shot commands.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Health  HealthConfig  `yaml:"health"`
}

// LoggingConfig configures the slog handler. Commands log to stderr so that
// their tables stay clean on stdout.
type LoggingConfig struct {
	Level     string `yaml:"level"`      // debug, info (default), warn, error
	Format    string `yaml:"format"`     // json (default), text, console
	AddSource bool   `yaml:"add_source"` // file:line on every record
}

// MetricsConfig configures the Prometheus collector and its scrape path.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`   // default true
	Path      string `yaml:"path"`      // default /metrics
	Namespace string `yaml:"namespace"` // default curator

	// Bucket bounds in seconds. Retention runs walk every top-level project
	// so their buckets reach further than the admin API's.
	RunDurationBuckets     []float64 `yaml:"run_duration_buckets"`
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig configures span export over OTLP gRPC. Tracing is off by
// default.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampler is always (default), never or ratio. SampleRatio in [0, 1]
	// applies to ratio only.
	Sampler     string  `yaml:"sampler"`
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the collector's host:port, required when enabled.
	Endpoint    string     `yaml:"endpoint"`
	ServiceName string     `yaml:"service_name"` // default curator
	OTLP        OTLPConfig `yaml:"otlp"`
}

// OTLPConfig tunes the exporter connection.
type OTLPConfig struct {
	Insecure bool          `yaml:"insecure"` // plaintext gRPC, default true
	Timeout  time.Duration `yaml:"timeout"`  // per export, default 10s
}

// HealthConfig sets the probe paths served next to the admin API and the
// per-check timeout.
type HealthConfig struct {
	LivenessPath  string        `yaml:"liveness_path"`  // default /health
	ReadinessPath string        `yaml:"readiness_path"` // default /ready
	VersionPath   string        `yaml:"version_path"`   // default /version
	CheckTimeout  time.Duration `yaml:"check_timeout"`  // default 5s
}
