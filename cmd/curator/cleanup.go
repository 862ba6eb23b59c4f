package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mercator-hq/curator/pkg/cli"
	"mercator-hq/curator/pkg/retention"
	"mercator-hq/curator/pkg/telemetry/metrics"
)

var cleanupFlags struct {
	dryRun      bool
	output      string
	metricsFile string
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run the retention job once",
	Long: `Run the retention job once against the configured stores and exit.

Exit codes:
  0  the run succeeded, was disabled or found nothing to do
  1  listing failed or every action failed
  2  the configuration or retention policy is invalid
  3  some actions failed

Examples:
  # Show which projects would be affected
  curator cleanup --dry-run

  # Run and print the result as JSON
  curator cleanup --output json

  # Run from cron and leave metrics for the node_exporter textfile collector
  curator cleanup --metrics-textfile /var/lib/node_exporter/curator.prom`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().BoolVar(&cleanupFlags.dryRun, "dry-run", false, "list candidates without changing anything")
	cleanupCmd.Flags().StringVarP(&cleanupFlags.output, "output", "o", "text", "output format (text, json, csv)")
	cleanupCmd.Flags().StringVar(&cleanupFlags.metricsFile, "metrics-textfile", "", "write run metrics to this file in Prometheus text format")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(cleanupFlags.output))
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newCommandLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	projects, err := openProjectStore(&cfg.Projects)
	if err != nil {
		return cli.NewCommandError("cleanup", err)
	}
	defer projects.Close()

	props, err := openSettingsStore(ctx, &cfg.Settings)
	if err != nil {
		return cli.NewCommandError("cleanup", err)
	}
	defer props.Close()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	job := retention.NewJob(projects, props,
		retention.WithLogger(logger.With("component", "retention")),
		retention.WithRecorder(collector),
		retention.WithRunTimeout(cfg.Retention.RunTimeout),
	)

	out := cmd.OutOrStdout()
	if cleanupFlags.dryRun {
		plan, err := job.Plan(ctx)
		if err != nil {
			return cleanupExitError(nil, err)
		}
		if !plan.Policy.Enabled {
			fmt.Fprintln(cmd.ErrOrStderr(), "retention is disabled (maintenance/cleanup.enabled)")
		}
		return formatter.FormatTo(out, planTable{plan})
	}

	result, runErr := job.Run(retention.WithTrigger(ctx, retention.TriggerCLI))
	if result != nil {
		if err := formatter.FormatTo(out, runTable{result}); err != nil {
			return err
		}
	}
	if cleanupFlags.metricsFile != "" {
		if err := collector.WriteTextfile(cleanupFlags.metricsFile); err != nil {
			logger.Error("failed to write metrics textfile", "path", cleanupFlags.metricsFile, "error", err)
		}
	}
	return cleanupExitError(result, runErr)
}

// cleanupExitError maps a run outcome to the process exit status.
func cleanupExitError(result *retention.RunResult, err error) error {
	switch {
	case errors.Is(err, retention.ErrConfiguration):
		return cli.NewExitError(cli.ExitConfig, err)
	case err != nil:
		return cli.NewExitError(cli.ExitFailure, err)
	case result != nil && result.Outcome == retention.OutcomePartial:
		return cli.NewExitError(cli.ExitPartial,
			fmt.Errorf("%d of %d retention actions failed", result.Failed, result.Candidates))
	default:
		return nil
	}
}
