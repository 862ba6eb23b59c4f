package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/curator/pkg/cli"
	"mercator-hq/curator/pkg/project"
)

var projectsFlags struct {
	active   bool
	topLevel bool
	name     string
	limit    int
	offset   int
	output   string
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Inspect projects and undo deactivations",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Long: `List projects in the configured project store.

Examples:
  # Projects retention has deactivated
  curator projects list --active=false

  # Top-level projects the next run will evaluate
  curator projects list --active --top-level`,
	Args: cobra.NoArgs,
	RunE: runProjectsList,
}

var projectsReactivateCmd = &cobra.Command{
	Use:   "reactivate <project-id>",
	Short: "Set a deactivated project active again",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsReactivate,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd, projectsReactivateCmd)

	f := projectsListCmd.Flags()
	f.BoolVar(&projectsFlags.active, "active", false, "filter by active flag (only applied when set)")
	f.BoolVar(&projectsFlags.topLevel, "top-level", false, "only projects without a parent")
	f.StringVar(&projectsFlags.name, "name", "", "filter by exact project name")
	f.IntVar(&projectsFlags.limit, "limit", 0, "maximum number of projects (0 for all)")
	f.IntVar(&projectsFlags.offset, "offset", 0, "number of projects to skip")
	f.StringVarP(&projectsFlags.output, "output", "o", "text", "output format (text, json, csv)")
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(projectsFlags.output))
	if err != nil {
		return err
	}
	if projectsFlags.limit < 0 || projectsFlags.offset < 0 {
		return cli.NewConfigError("limit", "limit and offset must not be negative")
	}

	filter := &project.Filter{
		TopLevel: projectsFlags.topLevel,
		Name:     projectsFlags.name,
		Limit:    projectsFlags.limit,
		Offset:   projectsFlags.offset,
	}
	if cmd.Flags().Changed("active") {
		active := projectsFlags.active
		filter.Active = &active
	}

	return withProjectStore(func(store project.Store) error {
		projects, err := store.List(commandContext(cmd), filter)
		if err != nil {
			return cli.NewCommandError("projects list", err)
		}
		return formatter.FormatTo(cmd.OutOrStdout(), projectTable(projects))
	})
}

func runProjectsReactivate(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withProjectStore(func(store project.Store) error {
		if err := store.Reactivate(commandContext(cmd), id); err != nil {
			if errors.Is(err, project.ErrNotFound) {
				return cli.NewCommandError("projects reactivate", fmt.Errorf("project %s not found", id))
			}
			return cli.NewCommandError("projects reactivate", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Project %s reactivated\n", id)
		return nil
	})
}

func withProjectStore(fn func(store project.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openProjectStore(&cfg.Projects)
	if err != nil {
		return cli.NewCommandError("projects", err)
	}
	defer store.Close()
	return fn(store)
}

// commandContext returns cmd's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
