package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Source says where to look for a key.
type Source struct {
	Type   string // header, query
	Name   string // header name or query parameter
	Scheme string // optional prefix such as "Bearer"
}

// DefaultSources accepts a bearer token or an X-API-Key header.
var DefaultSources = []Source{
	{Type: "header", Name: "Authorization", Scheme: "Bearer"},
	{Type: "header", Name: "X-API-Key"},
}

// ErrorHandler writes the response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, status int, message string)

// Middleware rejects requests without a valid key.
type Middleware struct {
	store   KeyStore
	sources []Source
	logger  *slog.Logger
	onError ErrorHandler
}

// NewMiddleware creates the authentication middleware. A nil logger uses
// slog.Default.
func NewMiddleware(store KeyStore, sources []Source, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	if len(sources) == 0 {
		sources = DefaultSources
	}
	return &Middleware{
		store:   store,
		sources: sources,
		logger:  logger.With("component", "auth"),
		onError: func(w http.ResponseWriter, r *http.Request, status int, message string) {
			http.Error(w, message, status)
		},
	}
}

// WithErrorHandler replaces the plain-text 401 response.
func (m *Middleware) WithErrorHandler(h ErrorHandler) *Middleware {
	m.onError = h
	return m
}

// Handle wraps next with API key authentication.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.store.Validate(m.extract(r))
		if err != nil {
			m.logger.WarnContext(r.Context(), "admin API request rejected",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"method", r.Method,
				"path", r.URL.Path,
			)
			msg := "invalid API key"
			if errors.Is(err, ErrMissingKey) {
				msg = "missing API key"
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="curator"`)
			m.onError(w, r, http.StatusUnauthorized, msg)
			return
		}

		m.logger.DebugContext(r.Context(), "API key authenticated", "key", identity.Name, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// extract returns the first key found in the configured sources.
func (m *Middleware) extract(r *http.Request) string {
	for _, source := range m.sources {
		var value string
		switch source.Type {
		case "header":
			value = r.Header.Get(source.Name)
		case "query":
			value = r.URL.Query().Get(source.Name)
		}
		if value == "" {
			continue
		}
		if source.Scheme == "" {
			return value
		}
		if prefix := source.Scheme + " "; len(value) > len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
			return strings.TrimSpace(value[len(prefix):])
		}
	}
	return ""
}

type contextKey string

const identityKey contextKey = "auth_identity"

// WithIdentity stores the authenticated identity in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity stored by the middleware.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}
