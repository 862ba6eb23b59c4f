// Package project defines the project entity, its dependents, and the
// storage contract used by retention and the admin API.
//
// A project is top-level when it has no parent. Components, analyses and
// analysis comments exist only because of their project and are removed
// together with it by CascadeDelete. Child projects are removed as well.
//
// Two backends live in the storage subpackage:
//
//   - MemoryStorage: map-backed, for tests and ephemeral runs
//   - SQLiteStorage: durable, foreign keys with ON DELETE CASCADE
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{Path: "data/projects.db"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	p := &project.Project{Name: "billing", Version: "1.0.0-SNAPSHOT", Active: true}
//	if err := store.Create(ctx, p); err != nil {
//	    return err
//	}
package project
