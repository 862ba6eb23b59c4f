package settings

import (
	"errors"
	"fmt"
)

// ErrReadOnly is returned by backends that cannot be written through the API.
var ErrReadOnly = errors.New("settings backend is read-only")

// StorageError represents an error from a settings backend.
type StorageError struct {
	Backend   string // "memory", "sqlite", "file"
	Operation string // "lookup", "set", "list", "load", ...
	Key       string // group/name, if any
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("settings error [backend=%s, operation=%s, key=%s]: %v",
			e.Backend, e.Operation, e.Key, e.Cause)
	}
	return fmt.Sprintf("settings error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation, key string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Key:       key,
		Cause:     cause,
	}
}

func validate(p Property) error {
	if p.Group == "" {
		return errors.New("group must not be empty")
	}
	if p.Name == "" {
		return errors.New("name must not be empty")
	}
	return nil
}
