package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{
			name:   "defaults are valid",
			modify: func(c *Config) {},
		},
		{
			name:      "listen address without port",
			modify:    func(c *Config) { c.Server.ListenAddress = "localhost" },
			wantField: "server.listen_address",
		},
		{
			name: "listen address ignored when server disabled",
			modify: func(c *Config) {
				c.Server.Enabled = false
				c.Server.ListenAddress = "localhost"
			},
		},
		{
			name:      "auth without keys",
			modify:    func(c *Config) { c.Server.Auth.Enabled = true },
			wantField: "server.auth.keys",
		},
		{
			name: "auth key too short",
			modify: func(c *Config) {
				c.Server.Auth = AuthConfig{Enabled: true, Keys: []APIKeyConfig{{Name: "ops", Key: "short"}}}
			},
			wantField: "server.auth.keys[0].key",
		},
		{
			name: "duplicate auth key names",
			modify: func(c *Config) {
				c.Server.Auth = AuthConfig{Enabled: true, Keys: []APIKeyConfig{
					{Name: "ops", Key: "0123456789abcdef"},
					{Name: "ops", Key: "fedcba9876543210"},
				}}
			},
			wantField: "server.auth.keys[1].name",
		},
		{
			name: "keys ignored when auth disabled",
			modify: func(c *Config) {
				c.Server.Auth.Keys = []APIKeyConfig{{Key: "x"}}
			},
		},
		{
			name:      "unknown project backend",
			modify:    func(c *Config) { c.Projects.Backend = "postgres" },
			wantField: "projects.backend",
		},
		{
			name:      "sqlite without path",
			modify:    func(c *Config) { c.Projects.SQLite.Path = "" },
			wantField: "projects.sqlite.path",
		},
		{
			name: "idle conns above open conns",
			modify: func(c *Config) {
				c.Projects.SQLite.MaxOpenConns = 2
				c.Projects.SQLite.MaxIdleConns = 3
			},
			wantField: "projects.sqlite.max_idle_conns",
		},
		{
			name: "memory backend needs no path",
			modify: func(c *Config) {
				c.Projects.Backend = "memory"
				c.Projects.SQLite.Path = ""
			},
		},
		{
			name:      "unknown settings backend",
			modify:    func(c *Config) { c.Settings.Backend = "etcd" },
			wantField: "settings.backend",
		},
		{
			name: "file settings without path",
			modify: func(c *Config) {
				c.Settings.Backend = "file"
				c.Settings.FilePath = ""
			},
			wantField: "settings.file_path",
		},
		{
			name:      "invalid cron schedule",
			modify:    func(c *Config) { c.Retention.Schedule = "61 * * * *" },
			wantField: "retention.schedule",
		},
		{
			name:   "empty schedule disables scheduling",
			modify: func(c *Config) { c.Retention.Schedule = "" },
		},
		{
			name:      "negative run timeout",
			modify:    func(c *Config) { c.Retention.RunTimeout = -1 },
			wantField: "retention.run_timeout",
		},
		{
			name:      "invalid log level",
			modify:    func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "metrics path without slash",
			modify:    func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			wantField: "telemetry.metrics.path",
		},
		{
			name:      "tracing without endpoint",
			modify:    func(c *Config) { c.Telemetry.Tracing.Enabled = true },
			wantField: "telemetry.tracing.endpoint",
		},
		{
			name:      "sample ratio out of range",
			modify:    func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			wantField: "telemetry.tracing.sample_ratio",
		},
		{
			name:      "health path without slash",
			modify:    func(c *Config) { c.Telemetry.Health.ReadinessPath = "ready" },
			wantField: "telemetry.health.readiness_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors = %v, want one for %s", verr.Errors, tt.wantField)
			}
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.Projects.Backend = "postgres"
	cfg.Settings.Backend = "etcd"
	cfg.Telemetry.Logging.Format = "xml"

	var verr ValidationError
	if !errors.As(Validate(cfg), &verr) {
		t.Fatal("Validate() should fail")
	}
	if len(verr.Errors) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(verr.Errors), verr.Errors)
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  ValidationError
		want string
	}{
		{"empty", ValidationError{}, "configuration validation failed"},
		{
			"single",
			ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}},
			"configuration validation failed: a: bad",
		},
		{
			"multiple",
			ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}},
			"configuration validation failed with 2 errors:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); !strings.HasPrefix(got, tt.want) {
				t.Errorf("Error() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}
