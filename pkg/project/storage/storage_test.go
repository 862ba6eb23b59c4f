package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/curator/pkg/project"
)

// backends returns a fresh instance of every storage backend.
func backends(t *testing.T) map[string]project.Store {
	t.Helper()

	sqlite, err := NewSQLiteStorage(&SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "projects.db"),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]project.Store{
		"memory": NewMemoryStorage(),
		"sqlite": sqlite,
	}
}

// seedTree creates root -> child -> grandchild, each with one component,
// one analysis and one comment.
func seedTree(t *testing.T, ctx context.Context, store project.Store) (root, child, grandchild *project.Project) {
	t.Helper()

	root = &project.Project{Name: "root", Version: "1.0.0-SNAPSHOT", Active: true}
	if err := store.Create(ctx, root); err != nil {
		t.Fatalf("Create(root) failed: %v", err)
	}
	child = &project.Project{Name: "child", Version: "1.0.0", ParentID: root.ID, Active: true}
	if err := store.Create(ctx, child); err != nil {
		t.Fatalf("Create(child) failed: %v", err)
	}
	grandchild = &project.Project{Name: "grandchild", Version: "1.0.0", ParentID: child.ID, Active: true}
	if err := store.Create(ctx, grandchild); err != nil {
		t.Fatalf("Create(grandchild) failed: %v", err)
	}

	for _, p := range []*project.Project{root, child, grandchild} {
		c := &project.Component{ProjectID: p.ID, Name: "log4j-core", Version: "2.14.1"}
		if err := store.AddComponent(ctx, c); err != nil {
			t.Fatalf("AddComponent() failed: %v", err)
		}
		a := &project.Analysis{
			ProjectID:       p.ID,
			ComponentID:     c.ID,
			VulnerabilityID: "CVE-2021-44228",
			State:           project.StateExploitable,
		}
		if err := store.AddAnalysis(ctx, a); err != nil {
			t.Fatalf("AddAnalysis() failed: %v", err)
		}
		if err := store.AddAnalysisComment(ctx, &project.AnalysisComment{
			AnalysisID: a.ID,
			Commenter:  "alice",
			Comment:    "confirmed",
		}); err != nil {
			t.Fatalf("AddAnalysisComment() failed: %v", err)
		}
	}

	return root, child, grandchild
}

func TestStore_CreateAndGet(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			imported := time.Now().Add(-48 * time.Hour).Truncate(time.Microsecond)

			p := &project.Project{
				Name:         "billing",
				Version:      "2.3.1",
				Active:       true,
				LastImportAt: &imported,
			}
			if err := store.Create(ctx, p); err != nil {
				t.Fatalf("Create() failed: %v", err)
			}
			if p.ID == "" {
				t.Fatal("Create() did not assign an ID")
			}

			got, err := store.Get(ctx, p.ID)
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}

			opts := cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })
			if diff := cmp.Diff(p, got, opts); diff != "" {
				t.Errorf("Get() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_GetNotFound(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(context.Background(), "missing")
			if !errors.Is(err, project.ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_CreateValidation(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.Create(ctx, &project.Project{Version: "1.0"}); err == nil {
				t.Error("Create() without name should fail")
			}

			err := store.Create(ctx, &project.Project{Name: "orphan", ParentID: "nope"})
			if !errors.Is(err, project.ErrNotFound) {
				t.Errorf("Create() with unknown parent error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_ListTopLevel(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			root, _, _ := seedTree(t, ctx, store)

			inactive := &project.Project{Name: "retired", Version: "0.1", Active: false}
			if err := store.Create(ctx, inactive); err != nil {
				t.Fatalf("Create() failed: %v", err)
			}

			candidates, err := store.ListTopLevel(ctx)
			if err != nil {
				t.Fatalf("ListTopLevel() failed: %v", err)
			}
			if len(candidates) != 1 {
				t.Fatalf("ListTopLevel() returned %d candidates, want 1", len(candidates))
			}
			if candidates[0].ID != root.ID {
				t.Errorf("ListTopLevel()[0].ID = %s, want %s", candidates[0].ID, root.ID)
			}
			if candidates[0].LastImportAt != nil {
				t.Error("never-imported project should have nil LastImportAt")
			}
		})
	}
}

func TestStore_ListFilter(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedTree(t, ctx, store)

			all, err := store.List(ctx, nil)
			if err != nil {
				t.Fatalf("List() failed: %v", err)
			}
			var names []string
			for _, p := range all {
				names = append(names, p.Name)
			}
			want := []string{"child", "grandchild", "root"}
			if diff := cmp.Diff(want, names); diff != "" {
				t.Errorf("List() order mismatch (-want +got):\n%s", diff)
			}

			page, err := store.List(ctx, &project.Filter{Limit: 1, Offset: 1})
			if err != nil {
				t.Fatalf("List() failed: %v", err)
			}
			if len(page) != 1 || page[0].Name != "grandchild" {
				t.Errorf("List(limit=1, offset=1) = %v, want [grandchild]", page)
			}

			byName, err := store.List(ctx, &project.Filter{Name: "root"})
			if err != nil {
				t.Fatalf("List() failed: %v", err)
			}
			if len(byName) != 1 {
				t.Errorf("List(name=root) returned %d projects, want 1", len(byName))
			}
		})
	}
}

func TestStore_DeactivateReactivate(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := &project.Project{Name: "api", Version: "1.0", Active: true}
			if err := store.Create(ctx, p); err != nil {
				t.Fatalf("Create() failed: %v", err)
			}

			// Deactivation is idempotent.
			for i := 0; i < 2; i++ {
				if err := store.Deactivate(ctx, p.ID); err != nil {
					t.Fatalf("Deactivate() #%d failed: %v", i+1, err)
				}
			}
			got, err := store.Get(ctx, p.ID)
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			if got.Active {
				t.Error("project should be inactive after Deactivate()")
			}

			if err := store.Reactivate(ctx, p.ID); err != nil {
				t.Fatalf("Reactivate() failed: %v", err)
			}
			got, _ = store.Get(ctx, p.ID)
			if !got.Active {
				t.Error("project should be active after Reactivate()")
			}

			if err := store.Deactivate(ctx, "missing"); !errors.Is(err, project.ErrNotFound) {
				t.Errorf("Deactivate(missing) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_RecordImport(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := &project.Project{Name: "api", Version: "1.0", Active: true}
			if err := store.Create(ctx, p); err != nil {
				t.Fatalf("Create() failed: %v", err)
			}

			at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			if err := store.RecordImport(ctx, p.ID, at); err != nil {
				t.Fatalf("RecordImport() failed: %v", err)
			}

			got, _ := store.Get(ctx, p.ID)
			if got.LastImportAt == nil || !got.LastImportAt.Equal(at) {
				t.Errorf("LastImportAt = %v, want %v", got.LastImportAt, at)
			}
		})
	}
}

func TestStore_CascadeDelete(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			root, child, grandchild := seedTree(t, ctx, store)

			other := &project.Project{Name: "other", Version: "1.0", Active: true}
			if err := store.Create(ctx, other); err != nil {
				t.Fatalf("Create() failed: %v", err)
			}
			if err := store.AddComponent(ctx, &project.Component{ProjectID: other.ID, Name: "guava"}); err != nil {
				t.Fatalf("AddComponent() failed: %v", err)
			}

			deps, err := store.CountDependents(ctx, root.ID)
			if err != nil {
				t.Fatalf("CountDependents() failed: %v", err)
			}
			want := project.Dependents{Children: 1, Components: 1, Analyses: 1, Comments: 1}
			if deps != want {
				t.Errorf("CountDependents() = %+v, want %+v", deps, want)
			}
			if got := deps.Total(); got != 4 {
				t.Errorf("Total() = %d, want 4", got)
			}

			if err := store.CascadeDelete(ctx, root.ID); err != nil {
				t.Fatalf("CascadeDelete() failed: %v", err)
			}

			for _, id := range []string{root.ID, child.ID, grandchild.ID} {
				if _, err := store.Get(ctx, id); !errors.Is(err, project.ErrNotFound) {
					t.Errorf("Get(%s) after CascadeDelete error = %v, want ErrNotFound", id, err)
				}
			}

			// Unrelated projects keep their dependents.
			deps, err = store.CountDependents(ctx, other.ID)
			if err != nil {
				t.Fatalf("CountDependents(other) failed: %v", err)
			}
			if deps.Components != 1 {
				t.Errorf("other project components = %d, want 1", deps.Components)
			}

			// Deleting an absent project is not an error.
			if err := store.CascadeDelete(ctx, root.ID); err != nil {
				t.Errorf("second CascadeDelete() error = %v, want nil", err)
			}
		})
	}
}

func TestStore_CascadeDeleteDeepChain(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var chain []*project.Project
			parent := ""
			for i := 0; i < 6; i++ {
				p := &project.Project{Name: fmt.Sprintf("level-%d", i), Version: "1.0", ParentID: parent, Active: true}
				if err := store.Create(ctx, p); err != nil {
					t.Fatalf("Create(level-%d) failed: %v", i, err)
				}
				if err := store.AddComponent(ctx, &project.Component{ProjectID: p.ID, Name: "commons-text"}); err != nil {
					t.Fatalf("AddComponent() failed: %v", err)
				}
				chain = append(chain, p)
				parent = p.ID
			}

			// Remove from the middle: levels 2..5 go, 0 and 1 stay.
			if err := store.CascadeDelete(ctx, chain[2].ID); err != nil {
				t.Fatalf("CascadeDelete() failed: %v", err)
			}

			for i, p := range chain {
				_, err := store.Get(ctx, p.ID)
				if i < 2 && err != nil {
					t.Errorf("Get(level-%d) error = %v, want nil", i, err)
				}
				if i >= 2 && !errors.Is(err, project.ErrNotFound) {
					t.Errorf("Get(level-%d) error = %v, want ErrNotFound", i, err)
				}
			}

			deps, err := store.CountDependents(ctx, chain[1].ID)
			if err != nil {
				t.Fatalf("CountDependents() failed: %v", err)
			}
			if want := (project.Dependents{Components: 1}); deps != want {
				t.Errorf("CountDependents(level-1) = %+v, want %+v", deps, want)
			}
		})
	}
}

func TestStore_Ping(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Ping(context.Background()); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}
