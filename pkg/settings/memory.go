package settings

import (
	"context"
	"sort"
	"sync"
)

type propertyKey struct {
	group string
	name  string
}

// MemoryStore keeps properties in a map.
type MemoryStore struct {
	mu    sync.RWMutex
	props map[propertyKey]Property
}

// NewMemoryStore creates an empty in-memory property store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{props: make(map[propertyKey]Property)}
}

var _ Store = (*MemoryStore)(nil)

// Lookup returns the property for group and name.
func (s *MemoryStore) Lookup(ctx context.Context, group, name string) (Property, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.props[propertyKey{group, name}]
	return p, ok, nil
}

// Set creates or replaces a property.
func (s *MemoryStore) Set(ctx context.Context, p Property) error {
	if err := validate(p); err != nil {
		return NewStorageError("memory", "set", p.Key(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.props[propertyKey{p.Group, p.Name}] = p
	return nil
}

// List returns the properties of a group, or all of them when group is empty.
func (s *MemoryStore) List(ctx context.Context, group string) ([]Property, error) {
	s.mu.RLock()
	out := make([]Property, 0, len(s.props))
	for k, p := range s.props {
		if group == "" || k.group == group {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sortProperties(out)
	return out, nil
}

// replace swaps the whole property set atomically.
func (s *MemoryStore) replace(props []Property) {
	next := make(map[propertyKey]Property, len(props))
	for _, p := range props {
		next[propertyKey{p.Group, p.Name}] = p
	}

	s.mu.Lock()
	s.props = next
	s.mu.Unlock()
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

func sortProperties(props []Property) {
	sort.Slice(props, func(i, j int) bool {
		if props[i].Group != props[j].Group {
			return props[i].Group < props[j].Group
		}
		return props[i].Name < props[j].Name
	})
}
