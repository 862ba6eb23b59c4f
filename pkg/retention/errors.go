package retention

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every ConfigurationError through errors.Is.
	ErrConfiguration = errors.New("retention policy is misconfigured")

	// ErrAllActionsFailed is returned by Run when candidates were found but
	// no action against them succeeded.
	ErrAllActionsFailed = errors.New("all retention actions failed")
)

// ConfigurationError represents a required policy property that is missing
// or malformed. A run that fails with it has not touched any project.
type ConfigurationError struct {
	Field   string // property name, e.g. "cleanup.version.match"
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("retention configuration error [field=%s]: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("retention configuration error [field=%s]: %s", e.Field, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(field, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// ActionError represents a failed deactivate or delete of a single project.
type ActionError struct {
	ProjectID string
	Action    Action
	Cause     error
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	return fmt.Sprintf("retention action failed [project=%s, action=%s]: %v", e.ProjectID, e.Action, e.Cause)
}

// Unwrap returns the underlying store error.
func (e *ActionError) Unwrap() error {
	return e.Cause
}

// MarshalJSON renders the cause as a string so failures survive encoding.
func (e *ActionError) MarshalJSON() ([]byte, error) {
	var cause string
	if e.Cause != nil {
		cause = e.Cause.Error()
	}
	return json.Marshal(struct {
		ProjectID string `json:"project_id"`
		Action    Action `json:"action"`
		Error     string `json:"error"`
	}{e.ProjectID, e.Action, cause})
}

// NewActionError creates a new ActionError.
func NewActionError(projectID string, action Action, cause error) *ActionError {
	return &ActionError{
		ProjectID: projectID,
		Action:    action,
		Cause:     cause,
	}
}
