package project

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a project (or its parent) does not exist.
var ErrNotFound = errors.New("project not found")

// StorageError represents an error from the storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory")
	Operation string // Operation that failed ("create", "deactivate", "cascade_delete", ...)
	ProjectID string // Project the operation targeted, if any
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.ProjectID != "" {
		return fmt.Sprintf("storage error [backend=%s, operation=%s, project=%s]: %v",
			e.Backend, e.Operation, e.ProjectID, e.Cause)
	}
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation, projectID string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		ProjectID: projectID,
		Cause:     cause,
	}
}

// ValidationError reports an invalid project or dependent.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks the fields required to persist a project.
func (p *Project) Validate() error {
	if p == nil {
		return &ValidationError{Field: "project", Message: "must not be nil"}
	}
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if p.ParentID != "" && p.ParentID == p.ID {
		return &ValidationError{Field: "parent_id", Message: "project cannot be its own parent"}
	}
	return nil
}
