package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/curator/pkg/cli"
	"mercator-hq/curator/pkg/config"
	"mercator-hq/curator/pkg/retention"
	"mercator-hq/curator/pkg/security/auth"
	"mercator-hq/curator/pkg/server"
	"mercator-hq/curator/pkg/settings"
	"mercator-hq/curator/pkg/telemetry"
	"mercator-hq/curator/pkg/telemetry/health"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the retention scheduler and admin API",
	Long: `Start the curator daemon with the specified configuration.

The daemon runs the retention job on the configured cron schedule and serves
the admin API (manual runs, plans, project reactivation), health probes and
Prometheus metrics.

Examples:
  # Start with default config
  curator run

  # Start with custom config
  curator run --config /etc/curator/config.yaml

  # Override listen address
  curator run --listen 0.0.0.0:8090

  # Validate config without starting
  curator run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	} else if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	tel, err := telemetry.New(&cfg.Telemetry, versionInfo(), os.Stderr)
	if err != nil {
		return cli.NewConfigError("telemetry", err.Error())
	}
	logger := tel.Logger()
	slog.SetDefault(logger)

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	projects, err := openProjectStore(&cfg.Projects)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer projects.Close()

	props, err := openSettingsStore(ctx, &cfg.Settings)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer props.Close()

	job := retention.NewJob(projects, props,
		retention.WithLogger(logger.With("component", "retention")),
		retention.WithRecorder(tel.Metrics()),
		retention.WithTracer(tel.Tracer()),
		retention.WithRunTimeout(cfg.Retention.RunTimeout),
	)
	scheduler := retention.NewScheduler(job, retention.SchedulerConfig{
		Schedule:   cfg.Retention.Schedule,
		RunOnStart: cfg.Retention.RunOnStart,
	})

	checker := tel.Health()
	checker.RegisterCheck("project_store", health.PingCheck(projects))
	checker.RegisterCheck("settings_store", health.PingCheck(props))
	checker.RegisterOptionalCheck("retention", lastRunCheck(job))

	logger.Info("curator starting",
		"version", Version,
		"config", config.LoadedPath(),
		"projects_backend", cfg.Projects.Backend,
		"settings_backend", cfg.Settings.Backend,
		"schedule", cfg.Retention.Schedule,
		"health_checks", checker.ListChecks(),
	)

	g, gctx := errgroup.WithContext(ctx)

	if err := scheduler.Start(gctx); err != nil {
		return cli.NewConfigError("retention.schedule", err.Error())
	}
	defer scheduler.Stop()

	runRequests := cli.RunRequests(gctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-runRequests:
				logger.Info("retention run requested by signal")
				if _, err := scheduler.Trigger(retention.WithTrigger(gctx, retention.TriggerSignal)); err != nil {
					logger.Error("signalled retention run failed", "error", err)
				}
			}
		}
	})

	if fs, ok := props.(*settings.FileStore); ok && cfg.Settings.Watch {
		g.Go(func() error { return fs.Watch(gctx) })
	}

	if cfg.Server.Enabled {
		var keys auth.KeyStore
		if cfg.Server.Auth.Enabled {
			v := apiKeys(&cfg.Server.Auth)
			keys = v
			logger.Info("admin API authentication enabled", "keys", v.Names())
		} else {
			logger.Warn("admin API authentication disabled", "listen_address", cfg.Server.ListenAddress)
		}

		srv, err := server.New(server.Options{
			Config:    &cfg.Server,
			Telemetry: &cfg.Telemetry,
			Job:       job,
			Scheduler: scheduler,
			Projects:  projects,
			Auth:      keys,
			Health:    checker,
			Version:   tel.Version(),
			Metrics:   tel.Metrics(),
			Tracer:    tel.Tracer(),
			Logger:    logger,
		})
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		g.Go(func() error { return srv.Start(gctx) })
	}

	<-gctx.Done()
	logger.Info("shutting down")

	runErr := g.Wait()
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown failed", "error", err)
	}

	if runErr != nil {
		return cli.NewCommandError("run", runErr)
	}
	logger.Info("curator stopped")
	return nil
}

func apiKeys(cfg *config.AuthConfig) *auth.Validator {
	keys := make([]auth.Key, 0, len(cfg.Keys))
	for _, k := range cfg.Keys {
		keys = append(keys, auth.Key{Name: k.Name, Token: k.Key, Enabled: !k.Disabled})
	}
	return auth.NewValidator(keys)
}

// lastRunCheck degrades readiness while the most recent run has failed.
func lastRunCheck(job *retention.Job) health.CheckFunc {
	return func(ctx context.Context) error {
		last := job.LastResult()
		if last == nil {
			return nil
		}
		switch last.Outcome {
		case retention.OutcomeFailed, retention.OutcomeConfigError, retention.OutcomeError:
			return fmt.Errorf("last retention run %s at %s: %s", last.Outcome, last.FinishedAt.Format(time.RFC3339), last.Error)
		}
		return nil
	}
}
