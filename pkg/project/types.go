package project

import (
	"context"
	"time"
)

// Project is a long-lived tracked unit subject to retention.
type Project struct {
	// Identity
	ID      string `json:"id"`      // UUID v4
	Name    string `json:"name"`    // Display name
	Version string `json:"version"` // Free-form version string

	// ParentID links a sub-project to its parent. Empty for top-level projects.
	ParentID string `json:"parent_id,omitempty"`

	// Active is false once a project has been soft-disabled.
	Active bool `json:"active"`

	// LastImportAt is the last time external data (e.g. a BOM) was imported.
	// Nil means the project was never imported.
	LastImportAt *time.Time `json:"last_import_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Candidate returns the read-only projection of p used by retention.
func (p *Project) Candidate() Candidate {
	c := Candidate{
		ID:      p.ID,
		Name:    p.Name,
		Version: p.Version,
		Active:  p.Active,
	}
	if p.LastImportAt != nil {
		t := *p.LastImportAt
		c.LastImportAt = &t
	}
	return c
}

// Candidate is the projection of a project evaluated by retention.
type Candidate struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Version      string     `json:"version"`
	LastImportAt *time.Time `json:"last_import_at,omitempty"`
	Active       bool       `json:"active"`
}

// Component is a dependency of a project. It exists only because of its project.
type Component struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	PURL      string `json:"purl,omitempty"`
}

// AnalysisState is the triage state of a finding.
type AnalysisState string

const (
	StateNotSet        AnalysisState = "NOT_SET"
	StateExploitable   AnalysisState = "EXPLOITABLE"
	StateInTriage      AnalysisState = "IN_TRIAGE"
	StateFalsePositive AnalysisState = "FALSE_POSITIVE"
	StateNotAffected   AnalysisState = "NOT_AFFECTED"
	StateResolved      AnalysisState = "RESOLVED"
)

// Analysis records the triage of one vulnerability on one component of a project.
type Analysis struct {
	ID              string        `json:"id"`
	ProjectID       string        `json:"project_id"`
	ComponentID     string        `json:"component_id"`
	VulnerabilityID string        `json:"vulnerability_id"`
	State           AnalysisState `json:"state"`
	Suppressed      bool          `json:"suppressed"`
}

// AnalysisComment is an entry in the audit history of an analysis.
type AnalysisComment struct {
	ID         string    `json:"id"`
	AnalysisID string    `json:"analysis_id"`
	Commenter  string    `json:"commenter"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// Dependents counts the rows that exist only because of a project.
type Dependents struct {
	Children   int `json:"children"`
	Components int `json:"components"`
	Analyses   int `json:"analyses"`
	Comments   int `json:"comments"`
}

// Total returns the sum of all dependent rows.
func (d Dependents) Total() int {
	return d.Children + d.Components + d.Analyses + d.Comments
}

// Filter narrows a project listing.
type Filter struct {
	// Active filters by active flag when non-nil.
	Active *bool `json:"active,omitempty"`

	// TopLevel restricts the listing to projects without a parent.
	TopLevel bool `json:"top_level,omitempty"`

	// Name filters by exact name when non-empty.
	Name string `json:"name,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Store defines the interface for project storage backends.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// Create persists a new project. An empty ID is replaced by a fresh UUID.
	Create(ctx context.Context, p *Project) error

	// Get returns the project with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Project, error)

	// List returns projects matching the filter, ordered by name then version.
	List(ctx context.Context, filter *Filter) ([]*Project, error)

	// ListTopLevel returns the retention view of every active project that is
	// not a child of another project. No team scoping is applied.
	ListTopLevel(ctx context.Context) ([]Candidate, error)

	// RecordImport sets the last-import timestamp of a project.
	RecordImport(ctx context.Context, id string, at time.Time) error

	// Deactivate sets active=false. Deactivating an inactive project is a no-op.
	Deactivate(ctx context.Context, id string) error

	// Reactivate sets active=true.
	Reactivate(ctx context.Context, id string) error

	// CascadeDelete removes a project, its child projects and every row that
	// exists only because of them. A missing project is not an error.
	CascadeDelete(ctx context.Context, id string) error

	// AddComponent attaches a component to a project.
	AddComponent(ctx context.Context, c *Component) error

	// AddAnalysis records an analysis for a project component.
	AddAnalysis(ctx context.Context, a *Analysis) error

	// AddAnalysisComment appends a comment to an analysis.
	AddAnalysisComment(ctx context.Context, c *AnalysisComment) error

	// CountDependents reports the rows owned by a project.
	CountDependents(ctx context.Context, id string) (Dependents, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the storage backend.
	Close() error
}
