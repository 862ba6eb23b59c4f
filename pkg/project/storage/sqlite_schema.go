package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the project database schema.
// Timestamps are stored as Unix nanoseconds.
const Schema = `
-- Projects table
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    version TEXT NOT NULL DEFAULT '',
    parent_id TEXT REFERENCES projects(id) ON DELETE CASCADE,
    active BOOLEAN NOT NULL DEFAULT 1,
    last_import_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Components owned by a project
CREATE TABLE IF NOT EXISTS components (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    version TEXT NOT NULL DEFAULT '',
    purl TEXT
);

-- Analyses of findings on a project component
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    component_id TEXT NOT NULL REFERENCES components(id) ON DELETE CASCADE,
    vulnerability_id TEXT NOT NULL,
    state TEXT NOT NULL,
    suppressed BOOLEAN NOT NULL DEFAULT 0
);

-- Analysis audit comments
CREATE TABLE IF NOT EXISTS analysis_comments (
    id TEXT PRIMARY KEY,
    analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
    commenter TEXT,
    comment TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_parent_id ON projects(parent_id);
CREATE INDEX IF NOT EXISTS idx_projects_active ON projects(active);
CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name);
CREATE INDEX IF NOT EXISTS idx_components_project_id ON components(project_id);
CREATE INDEX IF NOT EXISTS idx_analyses_project_id ON analyses(project_id);
CREATE INDEX IF NOT EXISTS idx_analyses_component_id ON analyses(component_id);
CREATE INDEX IF NOT EXISTS idx_analysis_comments_analysis_id ON analysis_comments(analysis_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// descendantCountQuery counts a project and every project below it.
const descendantCountQuery = `
WITH RECURSIVE tree(id) AS (
    SELECT id FROM projects WHERE id = ?
    UNION ALL
    SELECT p.id FROM projects p JOIN tree t ON p.parent_id = t.id
)
SELECT COUNT(*) FROM tree;
`
