package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/curator/pkg/project"
)

// MemoryStorage implements the project.Store interface using in-memory maps.
// This implementation is intended for testing and dry runs, not production.
type MemoryStorage struct {
	projects   map[string]*project.Project
	components map[string]*project.Component
	analyses   map[string]*project.Analysis
	comments   map[string]*project.AnalysisComment
	mu         sync.RWMutex
	now        func() time.Time
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		projects:   make(map[string]*project.Project),
		components: make(map[string]*project.Component),
		analyses:   make(map[string]*project.Analysis),
		comments:   make(map[string]*project.AnalysisComment),
		now:        time.Now,
	}
}

var _ project.Store = (*MemoryStorage)(nil)

// Create persists a new project.
func (s *MemoryStorage) Create(ctx context.Context, p *project.Project) error {
	if err := p.Validate(); err != nil {
		return project.NewStorageError("memory", "create", p.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if _, exists := s.projects[p.ID]; exists {
		return project.NewStorageError("memory", "create", p.ID, fmt.Errorf("duplicate id"))
	}
	if p.ParentID != "" {
		if _, ok := s.projects[p.ParentID]; !ok {
			return project.NewStorageError("memory", "create", p.ID,
				fmt.Errorf("parent %s: %w", p.ParentID, project.ErrNotFound))
		}
	}

	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	s.projects[p.ID] = copyProject(p)
	return nil
}

// Get returns a copy of the project with the given ID.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, project.ErrNotFound
	}
	return copyProject(p), nil
}

// List returns projects matching the filter, ordered by name then version.
func (s *MemoryStorage) List(ctx context.Context, filter *project.Filter) ([]*project.Project, error) {
	if filter == nil {
		filter = &project.Filter{}
	}

	s.mu.RLock()
	results := make([]*project.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if matchesFilter(p, filter) {
			results = append(results, copyProject(p))
		}
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		return results[i].Version < results[j].Version
	})

	start := filter.Offset
	if start > len(results) {
		return []*project.Project{}, nil
	}
	results = results[start:]
	if filter.Limit > 0 && filter.Limit < len(results) {
		results = results[:filter.Limit]
	}

	return results, nil
}

// ListTopLevel returns the retention view of active projects without a parent.
func (s *MemoryStorage) ListTopLevel(ctx context.Context) ([]project.Candidate, error) {
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
func (s *MemoryStorage) RecordImport(ctx context.Context, id string, at time.Time) error {
	return s.update("record_import", id, func(p *project.Project) {
		t := at
		p.LastImportAt = &t
	})
}

// Deactivate sets active=false on a project.
func (s *MemoryStorage) Deactivate(ctx context.Context, id string) error {
	return s.update("deactivate", id, func(p *project.Project) {
		p.Active = false
	})
}

// Reactivate sets active=true on a project.
func (s *MemoryStorage) Reactivate(ctx context.Context, id string) error {
	return s.update("reactivate", id, func(p *project.Project) {
		p.Active = true
	})
}

func (s *MemoryStorage) update(operation, id string, fn func(p *project.Project)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return project.NewStorageError("memory", operation, id, project.ErrNotFound)
	}
	fn(p)
	p.UpdatedAt = s.now()
	return nil
}

// CascadeDelete removes a project, its descendants and all their dependents.
func (s *MemoryStorage) CascadeDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return nil
	}

	for _, pid := range s.descendants(id) {
		s.deleteOne(pid)
	}
	return nil
}

// descendants returns id and the IDs of every project below it. Caller holds the lock.
func (s *MemoryStorage) descendants(id string) []string {
	ids := []string{id}
	for i := 0; i < len(ids); i++ {
		for _, p := range s.projects {
			if p.ParentID == ids[i] {
				ids = append(ids, p.ID)
			}
		}
	}
	return ids
}

// deleteOne removes a single project and its dependents. Caller holds the lock.
func (s *MemoryStorage) deleteOne(id string) {
	for aid, a := range s.analyses {
		if a.ProjectID != id {
			continue
		}
		for cid, c := range s.comments {
			if c.AnalysisID == aid {
				delete(s.comments, cid)
			}
		}
		delete(s.analyses, aid)
	}
	for cid, c := range s.components {
		if c.ProjectID == id {
			delete(s.components, cid)
		}
	}
	delete(s.projects, id)
}

// AddComponent attaches a component to a project.
func (s *MemoryStorage) AddComponent(ctx context.Context, c *project.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[c.ProjectID]; !ok {
		return project.NewStorageError("memory", "add_component", c.ProjectID, project.ErrNotFound)
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	cp := *c
	s.components[c.ID] = &cp
	return nil
}

// AddAnalysis records an analysis for a project component.
func (s *MemoryStorage) AddAnalysis(ctx context.Context, a *project.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[a.ProjectID]; !ok {
		return project.NewStorageError("memory", "add_analysis", a.ProjectID, project.ErrNotFound)
	}
	if c, ok := s.components[a.ComponentID]; !ok || c.ProjectID != a.ProjectID {
		return project.NewStorageError("memory", "add_analysis", a.ProjectID,
			fmt.Errorf("component %s not in project", a.ComponentID))
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.State == "" {
		a.State = project.StateNotSet
	}
	cp := *a
	s.analyses[a.ID] = &cp
	return nil
}

// AddAnalysisComment appends a comment to an analysis.
func (s *MemoryStorage) AddAnalysisComment(ctx context.Context, c *project.AnalysisComment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.analyses[c.AnalysisID]; !ok {
		return project.NewStorageError("memory", "add_analysis_comment", "",
			fmt.Errorf("analysis %s not found", c.AnalysisID))
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

// CountDependents reports the rows owned by a project.
func (s *MemoryStorage) CountDependents(ctx context.Context, id string) (project.Dependents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var d project.Dependents
	if _, ok := s.projects[id]; !ok {
		return d, project.ErrNotFound
	}

	for _, p := range s.projects {
		if p.ParentID == id {
			d.Children++
		}
	}
	for _, c := range s.components {
		if c.ProjectID == id {
			d.Components++
		}
	}
	for aid, a := range s.analyses {
		if a.ProjectID != id {
			continue
		}
		d.Analyses++
		for _, c := range s.comments {
			if c.AnalysisID == aid {
				d.Comments++
			}
		}
	}
	return d, nil
}

// Ping always succeeds for the memory backend.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for memory storage.
func (s *MemoryStorage) Close() error {
	return nil
}

func matchesFilter(p *project.Project, filter *project.Filter) bool {
	if filter.Active != nil && p.Active != *filter.Active {
		return false
	}
	if filter.TopLevel && p.ParentID != "" {
		return false
	}
	if filter.Name != "" && p.Name != filter.Name {
		return false
	}
	return true
}

func copyProject(p *project.Project) *project.Project {
	cp := *p
	if p.LastImportAt != nil {
		t := *p.LastImportAt
		cp.LastImportAt = &t
	}
	return &cp
}
