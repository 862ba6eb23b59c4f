// Package storage provides storage backends for projects.
//
// # Storage Backends
//
//   - SQLite: embedded database for single-node deployments
//   - Memory: in-memory storage for tests and dry runs
//
// # SQLite Backend
//
// The SQLite backend provides durable storage with:
//
//   - WAL mode for concurrent reads/writes
//   - Foreign keys with ON DELETE CASCADE for dependents
//   - Recursive deletion of child projects in a single transaction
//   - Busy timeout for handling locks
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:    "data/projects.db",
//	    WALMode: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	candidates, err := store.ListTopLevel(ctx)
package storage
