package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/curator/pkg/cli"
	"mercator-hq/curator/pkg/settings"
)

var settingsFlags struct {
	group  string
	output string
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write retention properties",
	Long: `Read and write properties in the configured settings store.

Retention reads these properties from the "maintenance" group at the start
of every run:
  cleanup.enabled          true to enable retention
  cleanup.version.match    regular expression the whole version must match
  cleanup.older.than.days  days since the last import
  cleanup.delete.project   true to delete instead of deactivate`,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List properties",
	Args:  cobra.NoArgs,
	RunE:  runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a property value",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Create or replace a property",
	Long: `Create or replace a property. Values of known retention properties are
checked against their type before they are written.

Examples:
  curator settings set cleanup.enabled true
  curator settings set cleanup.version.match '.*-(SNAPSHOT|rc[0-9]+)'
  curator settings set cleanup.older.than.days 14`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write default values for unset retention properties",
	Args:  cobra.NoArgs,
	RunE:  runSettingsSeed,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsListCmd, settingsGetCmd, settingsSetCmd, settingsSeedCmd)

	settingsCmd.PersistentFlags().StringVarP(&settingsFlags.group, "group", "g", settings.GroupMaintenance, "property group")
	settingsListCmd.Flags().StringVarP(&settingsFlags.output, "output", "o", "text", "output format (text, json, csv)")
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(settingsFlags.output))
	if err != nil {
		return err
	}
	return withSettingsStore(cmd, func(store settings.Store) error {
		props, err := store.List(commandContext(cmd), settingsFlags.group)
		if err != nil {
			return cli.NewCommandError("settings list", err)
		}
		return formatter.FormatTo(cmd.OutOrStdout(), propertyTable(props))
	})
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	return withSettingsStore(cmd, func(store settings.Store) error {
		p, ok, err := store.Lookup(commandContext(cmd), settingsFlags.group, args[0])
		if err != nil {
			return cli.NewCommandError("settings get", err)
		}
		if !ok {
			return cli.NewCommandError("settings get", fmt.Errorf("property %s/%s is not set", settingsFlags.group, args[0]))
		}
		fmt.Fprintln(cmd.OutOrStdout(), p.Value)
		return nil
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	p, err := newProperty(settingsFlags.group, args[0], args[1])
	if err != nil {
		return err
	}
	return withSettingsStore(cmd, func(store settings.Store) error {
		if err := store.Set(commandContext(cmd), p); err != nil {
			return cli.NewCommandError("settings set", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s\n", p.Key(), p.Value)
		return nil
	})
}

func runSettingsSeed(cmd *cobra.Command, args []string) error {
	return withSettingsStore(cmd, func(store settings.Store) error {
		created, err := settings.Seed(commandContext(cmd), store, settings.Definitions())
		if err != nil {
			return cli.NewCommandError("settings seed", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %d properties seeded\n", created)
		return nil
	})
}

// newProperty builds a property, taking type and description from the
// matching definition when there is one.
func newProperty(group, name, value string) (settings.Property, error) {
	for _, def := range settings.Definitions() {
		if def.Group != group || def.Name != name {
			continue
		}
		p := def.Property()
		p.Value = value
		switch def.Type {
		case settings.TypeBoolean:
			if !strings.EqualFold(value, "true") && !strings.EqualFold(value, "false") {
				return p, cli.NewConfigError(name, "value must be true or false")
			}
		case settings.TypeInteger:
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err != nil || n < 0 {
				return p, cli.NewConfigError(name, "value must be a non-negative integer")
			}
		}
		return p, nil
	}
	return settings.Property{Group: group, Name: name, Value: value, Type: settings.TypeString}, nil
}

// withSettingsStore opens the settings store without seeding, so that
// reads show exactly what is stored.
func withSettingsStore(cmd *cobra.Command, fn func(store settings.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sc := cfg.Settings
	sc.SeedDefaults = false
	store, err := openSettingsStore(commandContext(cmd), &sc)
	if err != nil {
		return cli.NewCommandError("settings", err)
	}
	defer store.Close()
	return fn(store)
}
