package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mercator-hq/curator/pkg/security/auth"
	"mercator-hq/curator/pkg/telemetry/health"
	"mercator-hq/curator/pkg/telemetry/tracing"
)

// routes constructs the chi mux with all routes wired.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// Outermost first.
	r.Use(requestIDMiddleware)
	r.Use(s.recoveryMiddleware)
	if s.opts.Tracer != nil {
		r.Use(tracing.HTTPMiddleware(s.opts.Tracer))
	}
	r.Use(s.loggingMiddleware)
	if s.opts.Metrics != nil {
		r.Use(s.metricsMiddleware)
	}

	hc := s.opts.Telemetry.Health
	r.Get(hc.LivenessPath, s.opts.Health.LivenessHandler())
	r.Get(hc.ReadinessPath, s.opts.Health.ReadinessHandler())
	r.Get(hc.VersionPath, health.VersionHandler(s.opts.Version))

	if s.opts.Metrics != nil && s.opts.Telemetry.Metrics.Enabled {
		r.Handle(s.opts.Telemetry.Metrics.Path, s.opts.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.opts.Auth != nil {
			r.Use(auth.NewMiddleware(s.opts.Auth, auth.DefaultSources, s.logger).WithErrorHandler(writeError).Handle)
		}
		r.Route("/retention", func(r chi.Router) {
			r.Post("/run", s.handleRun())
			r.Get("/plan", s.handlePlan())
			r.Get("/status", s.handleStatus())
		})
		r.Get("/projects", s.handleListProjects())
		r.Get("/projects/{id}", s.handleGetProject())
		r.Post("/projects/{id}/reactivate", s.handleReactivate())
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
