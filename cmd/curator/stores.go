package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"mercator-hq/curator/pkg/cli"
	"mercator-hq/curator/pkg/config"
	"mercator-hq/curator/pkg/project"
	"mercator-hq/curator/pkg/project/storage"
	"mercator-hq/curator/pkg/settings"
	"mercator-hq/curator/pkg/telemetry/logging"
)

// loadConfig reads the --config file with environment overrides and makes
// it the process-wide configuration.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	return config.GetConfig(), nil
}

// newCommandLogger builds the logger used by one-shot commands. Output goes
// to w so that it never mixes with command results on stdout.
func newCommandLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Level:     level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    w,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}

func openProjectStore(cfg *config.ProjectsConfig) (project.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		if err := ensureDir(cfg.SQLite.Path); err != nil {
			return nil, err
		}
		return storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, cli.NewConfigError("projects.backend", fmt.Sprintf("unsupported project backend: %s", cfg.Backend))
	}
}

// openSettingsStore opens the property backend and, unless it is a file,
// seeds the default retention properties when cfg.SeedDefaults is set.
func openSettingsStore(ctx context.Context, cfg *config.SettingsConfig) (settings.Store, error) {
	var store settings.Store
	switch cfg.Backend {
	case "sqlite":
		if err := ensureDir(cfg.SQLitePath); err != nil {
			return nil, err
		}
		s, err := settings.NewSQLiteStore(settings.SQLiteStoreConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			return nil, err
		}
		store = s
	case "file":
		// The file is the source of truth and is never written back.
		return settings.NewFileStore(cfg.FilePath, cfg.WatchDebounce)
	case "memory":
		store = settings.NewMemoryStore()
	default:
		return nil, cli.NewConfigError("settings.backend", fmt.Sprintf("unsupported settings backend: %s", cfg.Backend))
	}

	if cfg.SeedDefaults {
		if _, err := settings.Seed(ctx, store, settings.Definitions()); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
