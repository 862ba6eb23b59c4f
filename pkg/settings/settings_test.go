package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(SQLiteStoreConfig{DBPath: filepath.Join(t.TempDir(), "settings.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_SetLookup(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := store.Lookup(ctx, GroupMaintenance, "cleanup.enabled")
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if ok {
				t.Fatal("Lookup() on empty store reported ok")
			}

			want := CleanupEnabled.Property()
			want.Value = "true"
			if err := store.Set(ctx, want); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, ok, err := store.Lookup(ctx, GroupMaintenance, "cleanup.enabled")
			if err != nil || !ok {
				t.Fatalf("Lookup() = _, %v, %v", ok, err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Lookup() mismatch (-want +got):\n%s", diff)
			}

			// Overwrite keeps a single row.
			want.Value = "false"
			if err := store.Set(ctx, want); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			props, err := store.List(ctx, GroupMaintenance)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(props) != 1 || props[0].Value != "false" {
				t.Errorf("List() = %+v, want one property with value false", props)
			}
		})
	}
}

func TestStore_SetValidation(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Set(context.Background(), Property{Name: "x"})
			var se *StorageError
			if !errors.As(err, &se) {
				t.Errorf("Set() without group error = %v, want *StorageError", err)
			}
		})
	}
}

func TestStore_ListOrdering(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, p := range []Property{
				{Group: "b", Name: "z", Value: "1", Type: TypeString},
				{Group: "a", Name: "y", Value: "2", Type: TypeString},
				{Group: "a", Name: "x", Value: "3", Type: TypeString},
			} {
				if err := store.Set(ctx, p); err != nil {
					t.Fatalf("Set() error = %v", err)
				}
			}

			all, err := store.List(ctx, "")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			var keys []string
			for _, p := range all {
				keys = append(keys, p.Key())
			}
			if diff := cmp.Diff([]string{"a/x", "a/y", "b/z"}, keys); diff != "" {
				t.Errorf("List() order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSeed(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			custom := CleanupOlderThanDays.Property()
			custom.Value = "7"
			if err := store.Set(ctx, custom); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			created, err := Seed(ctx, store, Definitions())
			if err != nil {
				t.Fatalf("Seed() error = %v", err)
			}
			if created != 3 {
				t.Errorf("Seed() created %d, want 3", created)
			}

			got, _, _ := CleanupOlderThanDays.Lookup(ctx, store)
			if got.Value != "7" {
				t.Errorf("Seed() overwrote existing value: got %q, want %q", got.Value, "7")
			}
			got, _, _ = CleanupVersionMatch.Lookup(ctx, store)
			if got.Value != ".*-SNAPSHOT" {
				t.Errorf("seeded version match = %q, want %q", got.Value, ".*-SNAPSHOT")
			}

			created, err = Seed(ctx, store, Definitions())
			if err != nil || created != 0 {
				t.Errorf("second Seed() = %d, %v; want 0, nil", created, err)
			}
		})
	}
}

func writeSettings(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestFileStore_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, `
maintenance:
  cleanup.enabled: true
  cleanup.version.match: ".*-SNAPSHOT"
  cleanup.older.than.days: 30
custom:
  anything: value
`)

	fs, err := NewFileStore(path, 0)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	got, ok, err := fs.Lookup(ctx, GroupMaintenance, "cleanup.enabled")
	if err != nil || !ok {
		t.Fatalf("Lookup() = _, %v, %v", ok, err)
	}
	if got.Value != "true" || got.Type != TypeBoolean {
		t.Errorf("Lookup() = %+v, want value true of type BOOLEAN", got)
	}

	got, _, _ = fs.Lookup(ctx, GroupMaintenance, "cleanup.older.than.days")
	if got.Value != "30" {
		t.Errorf("older than days = %q, want %q", got.Value, "30")
	}

	got, _, _ = fs.Lookup(ctx, "custom", "anything")
	if got.Type != TypeString {
		t.Errorf("unknown property type = %q, want STRING", got.Type)
	}

	if _, ok, _ := fs.Lookup(ctx, GroupMaintenance, "cleanup.delete.project"); ok {
		t.Error("absent property reported as present")
	}

	if err := fs.Set(ctx, CleanupEnabled.Property()); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Set() error = %v, want ErrReadOnly", err)
	}
}

func TestFileStore_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, "maintenance: [not, a, map]\n")

	if _, err := NewFileStore(path, 0); err == nil {
		t.Error("NewFileStore() with malformed YAML should fail")
	}
	if _, err := NewFileStore(filepath.Join(t.TempDir(), "missing.yaml"), 0); err == nil {
		t.Error("NewFileStore() with missing file should fail")
	}
}

func TestFileStore_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, "maintenance:\n  cleanup.enabled: false\n")

	fs, err := NewFileStore(path, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fs.Watch(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	}()

	// Give the watcher time to register.
	time.Sleep(50 * time.Millisecond)
	writeSettings(t, path, "maintenance:\n  cleanup.enabled: true\n")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p, _, _ := fs.Lookup(context.Background(), GroupMaintenance, "cleanup.enabled")
		if p.Value == "true" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("settings were not reloaded after the file changed")
}

func TestFileStore_FailedReloadKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, "maintenance:\n  cleanup.enabled: true\n")

	fs, err := NewFileStore(path, 0)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	writeSettings(t, path, "maintenance: [broken\n")
	if err := fs.Reload(); err == nil {
		t.Fatal("Reload() of malformed file should fail")
	}

	p, ok, _ := fs.Lookup(context.Background(), GroupMaintenance, "cleanup.enabled")
	if !ok || p.Value != "true" {
		t.Errorf("Lookup() after failed reload = %+v, %v; want previous value", p, ok)
	}
	if fs.Reloads() != 1 {
		t.Errorf("Reloads() = %d, want 1", fs.Reloads())
	}
}
