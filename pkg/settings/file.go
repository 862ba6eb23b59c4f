package settings

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileStore serves properties from a YAML file and reloads them when the
// file changes. The file maps groups to property names to values:
//
//	maintenance:
//	  cleanup.enabled: true
//	  cleanup.version.match: ".*-SNAPSHOT"
//	  cleanup.older.than.days: 30
//	  cleanup.delete.project: false
//
// A failed reload keeps the previous properties.
type FileStore struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	mem      *MemoryStore

	mu      sync.Mutex
	reloads int
}

var _ Store = (*FileStore)(nil)

// NewFileStore loads path and returns a store serving its properties.
func NewFileStore(path string, debounce time.Duration) (*FileStore, error) {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	fs := &FileStore{
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   slog.Default().With("component", "settings.file", "path", path),
		mem:      NewMemoryStore(),
	}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Reload re-reads the file.
func (fs *FileStore) Reload() error {
	props, err := parseFile(fs.path)
	if err != nil {
		return NewStorageError("file", "load", "", err)
	}

	fs.mem.replace(props)

	fs.mu.Lock()
	fs.reloads++
	fs.mu.Unlock()

	fs.logger.Debug("settings loaded", "properties", len(props))
	return nil
}

// Reloads returns how many times the file has been loaded successfully.
func (fs *FileStore) Reloads() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.reloads
}

// Watch reloads the file on change until ctx is cancelled. The parent
// directory is watched so that editors replacing the file are noticed.
func (fs *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(fs.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(fs.path), err)
	}

	fs.logger.Info("settings watcher started", "debounce_ms", fs.debounce.Milliseconds())

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fs.logger.Info("settings watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != fs.path || event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(fs.debounce, func() {
				if err := fs.Reload(); err != nil {
					fs.logger.Error("settings reload failed, keeping previous values", "error", err)
					return
				}
				fs.logger.Info("settings reloaded", "op", event.Op.String(), "reloads", fs.Reloads())
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			fs.logger.Error("settings watcher error", "error", err)
		}
	}
}

// Lookup returns the property for group and name.
func (fs *FileStore) Lookup(ctx context.Context, group, name string) (Property, bool, error) {
	return fs.mem.Lookup(ctx, group, name)
}

// Set is not supported; edit the file instead.
func (fs *FileStore) Set(ctx context.Context, p Property) error {
	return NewStorageError("file", "set", p.Key(), ErrReadOnly)
}

// List returns the properties of a group, or all of them when group is empty.
func (fs *FileStore) List(ctx context.Context, group string) ([]Property, error) {
	return fs.mem.List(ctx, group)
}

// Ping checks that the file is still readable.
func (fs *FileStore) Ping(ctx context.Context) error {
	_, err := os.Stat(fs.path)
	return err
}

// Close is a no-op; cancel the Watch context to stop watching.
func (fs *FileStore) Close() error {
	return nil
}

func parseFile(path string) ([]Property, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %q: %w", path, err)
	}

	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %q: %w", path, err)
	}

	known := make(map[propertyKey]Definition)
	for _, def := range Definitions() {
		known[propertyKey{def.Group, def.Name}] = def
	}

	var props []Property
	for group, values := range raw {
		for name, value := range values {
			p := Property{Group: group, Name: name, Value: value, Type: TypeString}
			if def, ok := known[propertyKey{group, name}]; ok {
				p.Type = def.Type
				p.Description = def.Description
			}
			props = append(props, p)
		}
	}
	return props, nil
}
