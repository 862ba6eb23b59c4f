package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mercator-hq/curator/pkg/project"
	"mercator-hq/curator/pkg/retention"
	"mercator-hq/curator/pkg/security/auth"
	"mercator-hq/curator/pkg/telemetry/logging"
)

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// runResponse wraps a RunResult. Error carries the run error, if any.
type runResponse struct {
	Result *retention.RunResult `json:"result"`
	Error  string               `json:"error,omitempty"`
}

// statusResponse reports the last run and the scheduler state.
type statusResponse struct {
	LastRun   *retention.RunResult `json:"last_run"`
	Scheduled bool                 `json:"scheduled"`
	NextRun   *time.Time           `json:"next_run,omitempty"`
}

// projectResponse is a project plus the rows a cascade delete would remove.
type projectResponse struct {
	*project.Project
	Dependents    project.Dependents `json:"dependents"`
	DependentRows int                `json:"dependent_rows"`
}

// handleRun triggers a retention run.
//
// Returns:
//   - 200 OK: the run completed, possibly with some failed actions
//   - 422 Unprocessable Entity: the retention settings are invalid
//   - 500 Internal Server Error: listing failed or every action failed
func (s *Server) handleRun() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The run outlives a disconnecting client but keeps its request ID and trace.
		ctx := retention.WithTrigger(context.WithoutCancel(r.Context()), retention.TriggerAPI)
		s.logger.InfoContext(ctx, "retention run requested", "requested_by", requester(r))

		result, err := s.opts.Job.Run(ctx)
		if err == nil {
			writeJSON(w, http.StatusOK, runResponse{Result: result})
			return
		}

		code := http.StatusInternalServerError
		if errors.Is(err, retention.ErrConfiguration) {
			code = http.StatusUnprocessableEntity
		}
		writeJSON(w, code, runResponse{Result: result, Error: err.Error()})
	}
}

// handlePlan returns what a run would do now.
func (s *Server) handlePlan() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, err := s.opts.Job.Plan(r.Context())
		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, retention.ErrConfiguration) {
				code = http.StatusUnprocessableEntity
			}
			writeError(w, r, code, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, plan)
	}
}

// handleStatus reports the last completed run and the next scheduled one.
func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statusResponse{LastRun: s.opts.Job.LastResult()}
		if s.opts.Scheduler != nil && s.opts.Scheduler.IsRunning() {
			resp.Scheduled = true
			resp.NextRun = s.opts.Scheduler.NextRun()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleListProjects lists projects. Query parameters:
//   - active: "true" or "false"
//   - top_level: "true" to exclude child projects
//   - name: exact name match
//   - limit, offset: pagination
func (s *Server) handleListProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		projects, err := s.opts.Projects.List(r.Context(), filter)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "failed to list projects", "error", err)
			writeError(w, r, http.StatusInternalServerError, "failed to list projects")
			return
		}
		if projects == nil {
			projects = []*project.Project{}
		}
		writeJSON(w, http.StatusOK, projects)
	}
}

// handleGetProject returns one project with its dependent row counts.
func (s *Server) handleGetProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := s.opts.Projects.Get(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, r, id, err)
			return
		}
		deps, err := s.opts.Projects.CountDependents(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, r, id, err)
			return
		}
		writeJSON(w, http.StatusOK, projectResponse{
			Project:       p,
			Dependents:    deps,
			DependentRows: deps.Total(),
		})
	}
}

// handleReactivate undoes a soft retention action.
func (s *Server) handleReactivate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ctx := logging.WithProjectID(r.Context(), id)

		if err := s.opts.Projects.Reactivate(ctx, id); err != nil {
			s.writeStoreError(w, r, id, err)
			return
		}

		p, err := s.opts.Projects.Get(ctx, id)
		if err != nil {
			s.writeStoreError(w, r, id, err)
			return
		}
		s.logger.InfoContext(ctx, "project reactivated",
			"project_id", id,
			"project", p.Name,
			"version", p.Version,
			"requested_by", requester(r),
		)
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, id string, err error) {
	if errors.Is(err, project.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "project "+id+" not found")
		return
	}
	s.logger.ErrorContext(r.Context(), "project store error", "project_id", id, "error", err)
	writeError(w, r, http.StatusInternalServerError, "project store error")
}

func parseFilter(r *http.Request) (*project.Filter, error) {
	q := r.URL.Query()
	filter := &project.Filter{Name: q.Get("name")}

	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid active parameter: must be true or false")
		}
		filter.Active = &active
	}
	if v := q.Get("top_level"); v != "" {
		topLevel, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid top_level parameter: must be true or false")
		}
		filter.TopLevel = topLevel
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errors.New("invalid " + name + " parameter: must be a non-negative integer")
		}
		*dst = n
	}
	return filter, nil
}

// requester names the API key behind r, or "anonymous" without auth.
func requester(r *http.Request) string {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		return id.Name
	}
	return "anonymous"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg, RequestID: logging.GetRequestID(r.Context())})
}
