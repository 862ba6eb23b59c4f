package auth

import "errors"

var (
	// ErrMissingKey is returned when a request carries no key in any source.
	ErrMissingKey = errors.New("no API key found")

	// ErrInvalidKey is returned for keys that are not configured.
	ErrInvalidKey = errors.New("invalid API key")

	// ErrKeyDisabled is returned for configured keys that are disabled.
	ErrKeyDisabled = errors.New("API key disabled")
)

// Key is an accepted API key. Token is the secret itself.
type Key struct {
	Name    string
	Token   string
	Enabled bool
}

// Identity is what the middleware stores in the request context. It never
// contains the secret.
type Identity struct {
	Name string
}

// KeyStore validates presented tokens.
type KeyStore interface {
	Validate(token string) (*Identity, error)
}
