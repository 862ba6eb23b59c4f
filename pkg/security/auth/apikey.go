package auth

import (
	"crypto/sha256"
	"sort"
	"sync"
)

type storedKey struct {
	name    string
	enabled bool
}

// Validator checks tokens against a fixed set of keys. Tokens are looked up
// by digest so the secrets themselves are not retained.
type Validator struct {
	mu   sync.RWMutex
	keys map[[sha256.Size]byte]*storedKey
}

var _ KeyStore = (*Validator)(nil)

// NewValidator creates a validator for keys. Later keys with the same
// token replace earlier ones.
func NewValidator(keys []Key) *Validator {
	v := &Validator{keys: make(map[[sha256.Size]byte]*storedKey, len(keys))}
	for _, k := range keys {
		v.add(k)
	}
	return v
}

func (v *Validator) add(k Key) {
	digest := sha256.Sum256([]byte(k.Token))
	v.keys[digest] = &storedKey{name: k.Name, enabled: k.Enabled}
}

// Validate returns the identity of token.
func (v *Validator) Validate(token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingKey
	}
	digest := sha256.Sum256([]byte(token))

	v.mu.RLock()
	k, ok := v.keys[digest]
	v.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidKey
	}
	if !k.enabled {
		return nil, ErrKeyDisabled
	}
	return &Identity{Name: k.name}, nil
}

// Names returns the names of all configured keys, sorted.
func (v *Validator) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	names := make([]string, 0, len(v.keys))
	for _, k := range v.keys {
		names = append(names, k.name)
	}
	sort.Strings(names)
	return names
}
