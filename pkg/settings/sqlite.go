package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists properties in a config_properties table.
type SQLiteStore struct {
	db        *sql.DB
	dbPath    string
	logger    *slog.Logger
	closeOnce sync.Once

	lookupStmt *sql.Stmt
	upsertStmt *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite property store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and if needed creates) a property database.
func NewSQLiteStore(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cfg.DBPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
		logger: slog.Default().With("component", "settings.sqlite"),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	s.logger.Debug("settings store opened", "path", cfg.DBPath)
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS config_properties (
		group_name TEXT NOT NULL,
		property_name TEXT NOT NULL,
		property_value TEXT,
		property_type TEXT NOT NULL,
		description TEXT,
		PRIMARY KEY (group_name, property_name)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.lookupStmt, err = s.db.Prepare(`
		SELECT group_name, property_name, property_value, property_type, description
		FROM config_properties
		WHERE group_name = ? AND property_name = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare lookup statement: %w", err)
	}

	s.upsertStmt, err = s.db.Prepare(`
		INSERT INTO config_properties (group_name, property_name, property_value, property_type, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (group_name, property_name) DO UPDATE SET
			property_value = excluded.property_value,
			property_type = excluded.property_type,
			description = excluded.description
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert statement: %w", err)
	}

	return nil
}

// Lookup returns the property for group and name.
func (s *SQLiteStore) Lookup(ctx context.Context, group, name string) (Property, bool, error) {
	p, err := scanProperty(s.lookupStmt.QueryRowContext(ctx, group, name))
	if errors.Is(err, sql.ErrNoRows) {
		return Property{}, false, nil
	}
	if err != nil {
		return Property{}, false, NewStorageError("sqlite", "lookup", group+"/"+name, err)
	}
	return p, true, nil
}

// Set creates or replaces a property.
func (s *SQLiteStore) Set(ctx context.Context, p Property) error {
	if err := validate(p); err != nil {
		return NewStorageError("sqlite", "set", p.Key(), err)
	}
	if _, err := s.upsertStmt.ExecContext(ctx, p.Group, p.Name, p.Value, string(p.Type), p.Description); err != nil {
		return NewStorageError("sqlite", "set", p.Key(), err)
	}
	return nil
}

// List returns the properties of a group, or all of them when group is empty.
func (s *SQLiteStore) List(ctx context.Context, group string) ([]Property, error) {
	query := `SELECT group_name, property_name, property_value, property_type, description FROM config_properties`
	var args []interface{}
	if group != "" {
		query += ` WHERE group_name = ?`
		args = append(args, group)
	}
	query += ` ORDER BY group_name, property_name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "list", "", err)
	}
	defer rows.Close()

	props := []Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "list", "", err)
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes prepared statements and the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.lookupStmt != nil {
			s.lookupStmt.Close()
		}
		if s.upsertStmt != nil {
			s.upsertStmt.Close()
		}
		err = s.db.Close()
	})
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProperty(row rowScanner) (Property, error) {
	var (
		p           Property
		value, desc sql.NullString
		typ         string
	)
	if err := row.Scan(&p.Group, &p.Name, &value, &typ, &desc); err != nil {
		return Property{}, err
	}
	p.Value = value.String
	p.Type = PropertyType(typ)
	p.Description = desc.String
	return p, nil
}
