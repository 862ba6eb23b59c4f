package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "CURATOR_"

// EnvAPIKeyName names the admin API key taken from CURATOR_SERVER_AUTH_KEY.
const EnvAPIKeyName = "env"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of Default(), defaults are applied to any
// remaining zero values and the result is validated.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
//
// An empty path yields the default configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CURATOR_SECTION_FIELD (e.g., CURATOR_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file on top of defaults
// 2. Apply environment variable overrides
// 3. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envBool("SERVER_ENABLED", &cfg.Server.Enabled)
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envInt("SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	envBool("SERVER_AUTH_ENABLED", &cfg.Server.Auth.Enabled)
	envAPIKey("SERVER_AUTH_KEY", &cfg.Server.Auth)

	// Project store overrides
	envString("PROJECTS_BACKEND", &cfg.Projects.Backend)
	envString("PROJECTS_SQLITE_PATH", &cfg.Projects.SQLite.Path)
	envInt("PROJECTS_SQLITE_MAX_OPEN_CONNS", &cfg.Projects.SQLite.MaxOpenConns)
	envInt("PROJECTS_SQLITE_MAX_IDLE_CONNS", &cfg.Projects.SQLite.MaxIdleConns)
	envBool("PROJECTS_SQLITE_WAL_MODE", &cfg.Projects.SQLite.WALMode)
	envDuration("PROJECTS_SQLITE_BUSY_TIMEOUT", &cfg.Projects.SQLite.BusyTimeout)

	// Settings overrides
	envString("SETTINGS_BACKEND", &cfg.Settings.Backend)
	envString("SETTINGS_SQLITE_PATH", &cfg.Settings.SQLitePath)
	envString("SETTINGS_FILE_PATH", &cfg.Settings.FilePath)
	envBool("SETTINGS_WATCH", &cfg.Settings.Watch)
	envDuration("SETTINGS_WATCH_DEBOUNCE", &cfg.Settings.WatchDebounce)
	envBool("SETTINGS_SEED_DEFAULTS", &cfg.Settings.SeedDefaults)

	// Retention overrides. An explicitly empty schedule disables the scheduler.
	if val, ok := os.LookupEnv(EnvPrefix + "RETENTION_SCHEDULE"); ok {
		cfg.Retention.Schedule = val
	}
	envBool("RETENTION_RUN_ON_START", &cfg.Retention.RunOnStart)
	envDuration("RETENTION_RUN_TIMEOUT", &cfg.Retention.RunTimeout)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envString("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	envString("TELEMETRY_TRACING_SERVICE_NAME", &cfg.Telemetry.Tracing.ServiceName)
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(name string, dst *float64) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// envAPIKey adds the key in the variable as a key named "env", replacing
// any configured key of that name.
func envAPIKey(name string, dst *AuthConfig) {
	val := os.Getenv(EnvPrefix + name)
	if val == "" {
		return
	}
	keys := dst.Keys[:0:0]
	for _, k := range dst.Keys {
		if k.Name != EnvAPIKeyName {
			keys = append(keys, k)
		}
	}
	dst.Keys = append(keys, APIKeyConfig{Name: EnvAPIKeyName, Key: val})
}
