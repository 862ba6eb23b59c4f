package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/curator/pkg/project"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/projects.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the project.Store interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
	now    func() time.Time
}

var _ project.Store = (*SQLiteStorage)(nil)

// NewSQLiteStorage creates a new SQLite storage backend.
// It initializes the database schema and enables foreign keys so that
// dependents are removed together with their project.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Path == "" {
		return nil, project.NewStorageError("sqlite", "open", "", errors.New("db path cannot be empty"))
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 10
	}
	if config.MaxIdleConns <= 0 {
		config.MaxIdleConns = 5
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}

	logger := slog.Default().With("component", "project.storage.sqlite")

	// Foreign keys are a per-connection setting, so they go in the DSN.
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=%d",
		config.Path, config.BusyTimeout.Milliseconds())
	if config.WALMode {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, project.NewStorageError("sqlite", "open", "", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
		now:    time.Now,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite project storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize creates the schema and verifies its version.
func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return project.NewStorageError("sqlite", "create_schema", "", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return project.NewStorageError("sqlite", "insert_schema_version", "", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return project.NewStorageError("sqlite", "get_schema_version", "", err)
	}
	if version != SchemaVersion {
		return project.NewStorageError("sqlite", "schema_version_mismatch", "",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Create persists a new project.
func (s *SQLiteStorage) Create(ctx context.Context, p *project.Project) error {
	if err := p.Validate(); err != nil {
		return project.NewStorageError("sqlite", "create", p.ID, err)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if p.ParentID != "" {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, p.ParentID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return project.NewStorageError("sqlite", "create", p.ID,
				fmt.Errorf("parent %s: %w", p.ParentID, project.ErrNotFound))
		}
		if err != nil {
			return project.NewStorageError("sqlite", "create", p.ID, err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, version, parent_id, active, last_import_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Version, nullString(p.ParentID), p.Active,
		nullTime(p.LastImportAt), p.CreatedAt.UnixNano(), p.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return project.NewStorageError("sqlite", "create", p.ID, err)
	}
	return nil
}

const projectColumns = `id, name, version, parent_id, active, last_import_at, created_at, updated_at`

// Get returns the project with the given ID.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*project.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, project.ErrNotFound
	}
	if err != nil {
		return nil, project.NewStorageError("sqlite", "get", id, err)
	}
	return p, nil
}

// List returns projects matching the filter, ordered by name then version.
func (s *SQLiteStorage) List(ctx context.Context, filter *project.Filter) ([]*project.Project, error) {
	if filter == nil {
		filter = &project.Filter{}
	}

	var conditions []string
	var args []interface{}
	if filter.Active != nil {
		conditions = append(conditions, "active = ?")
		args = append(args, *filter.Active)
	}
	if filter.TopLevel {
		conditions = append(conditions, "parent_id IS NULL")
	}
	if filter.Name != "" {
		conditions = append(conditions, "name = ?")
		args = append(args, filter.Name)
	}

	query := `SELECT ` + projectColumns + ` FROM projects`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name ASC, version ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	} else if filter.Offset > 0 {
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, project.NewStorageError("sqlite", "list", "", err)
	}
	defer rows.Close()

	projects := []*project.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, project.NewStorageError("sqlite", "scan", "", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, project.NewStorageError("sqlite", "list", "", err)
	}

	return projects, nil
}

// ListTopLevel returns the retention view of active projects without a parent.
func (s *SQLiteStorage) ListTopLevel(ctx context.Context) ([]project.Candidate, error) {
	active := true
	projects, err := s.List(ctx, &project.Filter{Active: &active, TopLevel: true})
	if err != nil {
		return nil, err
	}

	candidates := make([]project.Candidate, 0, len(projects))
	for _, p := range projects {
		candidates = append(candidates, p.Candidate())
	}
	return candidates, nil
}

// RecordImport sets the last-import timestamp of a project.
func (s *SQLiteStorage) RecordImport(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, "record_import", id,
		`UPDATE projects SET last_import_at = ?, updated_at = ? WHERE id = ?`,
		at.UnixNano(), s.now().UnixNano(), id)
}

// Deactivate sets active=false on a project.
func (s *SQLiteStorage) Deactivate(ctx context.Context, id string) error {
	return s.update(ctx, "deactivate", id,
		`UPDATE projects SET active = 0, updated_at = ? WHERE id = ?`,
		s.now().UnixNano(), id)
}

// Reactivate sets active=true on a project.
func (s *SQLiteStorage) Reactivate(ctx context.Context, id string) error {
	return s.update(ctx, "reactivate", id,
		`UPDATE projects SET active = 1, updated_at = ? WHERE id = ?`,
		s.now().UnixNano(), id)
}

func (s *SQLiteStorage) update(ctx context.Context, operation, id, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return project.NewStorageError("sqlite", operation, id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return project.NewStorageError("sqlite", operation, id, err)
	}
	if n == 0 {
		return project.NewStorageError("sqlite", operation, id, project.ErrNotFound)
	}
	return nil
}

// CascadeDelete removes a project and all of its descendants in one
// transaction. Deleting the root row is enough: child projects, components,
// analyses and comments follow through ON DELETE CASCADE.
func (s *SQLiteStorage) CascadeDelete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return project.NewStorageError("sqlite", "cascade_delete", id, err)
	}
	defer tx.Rollback()

	var removed int
	if err := tx.QueryRowContext(ctx, descendantCountQuery, id).Scan(&removed); err != nil {
		return project.NewStorageError("sqlite", "cascade_delete", id, err)
	}

	// Already gone, e.g. removed by a concurrent run.
	if removed == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return project.NewStorageError("sqlite", "cascade_delete", id, err)
	}

	if err := tx.Commit(); err != nil {
		return project.NewStorageError("sqlite", "cascade_delete", id, err)
	}

	s.logger.Debug("project deleted", "project_id", id, "projects_removed", removed)
	return nil
}

// AddComponent attaches a component to a project.
func (s *SQLiteStorage) AddComponent(ctx context.Context, c *project.Component) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO components (id, project_id, name, version, purl) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.Name, c.Version, nullString(c.PURL))
	if err != nil {
		return project.NewStorageError("sqlite", "add_component", c.ProjectID, err)
	}
	return nil
}

// AddAnalysis records an analysis for a project component.
func (s *SQLiteStorage) AddAnalysis(ctx context.Context, a *project.Analysis) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.State == "" {
		a.State = project.StateNotSet
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, project_id, component_id, vulnerability_id, state, suppressed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.ComponentID, a.VulnerabilityID, string(a.State), a.Suppressed)
	if err != nil {
		return project.NewStorageError("sqlite", "add_analysis", a.ProjectID, err)
	}
	return nil
}

// AddAnalysisComment appends a comment to an analysis.
func (s *SQLiteStorage) AddAnalysisComment(ctx context.Context, c *project.AnalysisComment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_comments (id, analysis_id, commenter, comment, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.AnalysisID, nullString(c.Commenter), c.Comment, c.CreatedAt.UnixNano())
	if err != nil {
		return project.NewStorageError("sqlite", "add_analysis_comment", "", err)
	}
	return nil
}

// CountDependents reports the rows owned by a project.
func (s *SQLiteStorage) CountDependents(ctx context.Context, id string) (project.Dependents, error) {
	var d project.Dependents

	if _, err := s.Get(ctx, id); err != nil {
		return d, err
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM projects WHERE parent_id = ?),
			(SELECT COUNT(*) FROM components WHERE project_id = ?),
			(SELECT COUNT(*) FROM analyses WHERE project_id = ?),
			(SELECT COUNT(*) FROM analysis_comments c
				JOIN analyses a ON a.id = c.analysis_id WHERE a.project_id = ?)`,
		id, id, id, id,
	).Scan(&d.Children, &d.Components, &d.Analyses, &d.Comments)
	if err != nil {
		return d, project.NewStorageError("sqlite", "count_dependents", id, err)
	}
	return d, nil
}

// Ping verifies the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return project.NewStorageError("sqlite", "close", "", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var (
		p          project.Project
		parentID   sql.NullString
		lastImport sql.NullInt64
		createdAt  int64
		updatedAt  int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Version, &parentID, &p.Active,
		&lastImport, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p.ParentID = parentID.String
	if lastImport.Valid {
		t := time.Unix(0, lastImport.Int64)
		p.LastImportAt = &t
	}
	p.CreatedAt = time.Unix(0, createdAt)
	p.UpdatedAt = time.Unix(0, updatedAt)
	return &p, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}
