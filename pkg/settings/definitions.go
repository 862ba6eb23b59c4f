package settings

import (
	"context"
	"fmt"
	"log/slog"
)

// GroupMaintenance holds the retention properties.
const GroupMaintenance = "maintenance"

// Retention properties.
var (
	CleanupEnabled = Definition{
		Group:        GroupMaintenance,
		Name:         "cleanup.enabled",
		Type:         TypeBoolean,
		DefaultValue: "false",
		Description:  "Enables the periodic project retention job",
	}
	CleanupVersionMatch = Definition{
		Group:        GroupMaintenance,
		Name:         "cleanup.version.match",
		Type:         TypeString,
		DefaultValue: ".*-SNAPSHOT",
		Description:  "Regular expression a project version must fully match to be retained",
	}
	CleanupOlderThanDays = Definition{
		Group:        GroupMaintenance,
		Name:         "cleanup.older.than.days",
		Type:         TypeInteger,
		DefaultValue: "30",
		Description:  "Days since the last import after which a project is stale",
	}
	CleanupDeleteProject = Definition{
		Group:        GroupMaintenance,
		Name:         "cleanup.delete.project",
		Type:         TypeBoolean,
		DefaultValue: "false",
		Description:  "Delete stale projects instead of deactivating them",
	}
)

// Definitions lists every known property.
func Definitions() []Definition {
	return []Definition{
		CleanupEnabled,
		CleanupVersionMatch,
		CleanupOlderThanDays,
		CleanupDeleteProject,
	}
}

// Seed writes the default value of every definition whose property is unset.
// Existing values are never overwritten. Returns the number of properties created.
func Seed(ctx context.Context, store Store, defs []Definition) (int, error) {
	created := 0
	for _, def := range defs {
		_, ok, err := def.Lookup(ctx, store)
		if err != nil {
			return created, fmt.Errorf("seed %s/%s: %w", def.Group, def.Name, err)
		}
		if ok {
			continue
		}
		if err := store.Set(ctx, def.Property()); err != nil {
			return created, fmt.Errorf("seed %s/%s: %w", def.Group, def.Name, err)
		}
		created++
	}

	if created > 0 {
		slog.Default().Info("seeded default properties", "component", "settings", "created", created)
	}
	return created, nil
}
