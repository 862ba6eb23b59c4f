package settings

import (
	"context"
)

// PropertyType is the declared type of a property value.
type PropertyType string

const (
	TypeBoolean PropertyType = "BOOLEAN"
	TypeInteger PropertyType = "INTEGER"
	TypeString  PropertyType = "STRING"
)

// Property is a single configuration value keyed by group and name.
// Values are always stored as strings; interpretation belongs to the reader.
type Property struct {
	Group       string       `json:"group" yaml:"group"`
	Name        string       `json:"name" yaml:"name"`
	Value       string       `json:"value" yaml:"value"`
	Type        PropertyType `json:"type" yaml:"type"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// Key returns the "group/name" form used in logs and errors.
func (p Property) Key() string {
	return p.Group + "/" + p.Name
}

// Getter reads properties. Lookup reports ok=false when the property is unset.
type Getter interface {
	Lookup(ctx context.Context, group, name string) (Property, bool, error)
}

// Store is a readable and writable property backend.
// Implementations must be thread-safe.
type Store interface {
	Getter

	// Set creates or replaces a property.
	Set(ctx context.Context, p Property) error

	// List returns every property of a group, or of all groups when group is empty,
	// ordered by group then name.
	List(ctx context.Context, group string) ([]Property, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error
}

// Definition describes a known property and its seed value.
type Definition struct {
	Group        string
	Name         string
	Type         PropertyType
	DefaultValue string
	Description  string
}

// Property returns the definition as a property holding its default value.
func (d Definition) Property() Property {
	return Property{
		Group:       d.Group,
		Name:        d.Name,
		Value:       d.DefaultValue,
		Type:        d.Type,
		Description: d.Description,
	}
}

// Lookup reads the property described by d from g.
func (d Definition) Lookup(ctx context.Context, g Getter) (Property, bool, error) {
	return g.Lookup(ctx, d.Group, d.Name)
}
