package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/curator/pkg/config"
	"mercator-hq/curator/pkg/project"
	"mercator-hq/curator/pkg/project/storage"
	"mercator-hq/curator/pkg/retention"
	"mercator-hq/curator/pkg/security/auth"
	"mercator-hq/curator/pkg/settings"
	"mercator-hq/curator/pkg/telemetry/health"
	"mercator-hq/curator/pkg/telemetry/metrics"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	projects *storage.MemoryStorage
	props    *settings.MemoryStore
	job      *retention.Job
	metrics  *metrics.Collector
	server   *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		projects: storage.NewMemoryStorage(),
		props:    settings.NewMemoryStore(),
	}
	f.job = retention.NewJob(f.projects, f.props, retention.WithClock(func() time.Time { return testNow }))

	cfg := config.Default()
	f.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())

	checker := health.New(time.Second)
	checker.RegisterCheck("project_store", health.PingCheck(f.projects))

	srv, err := New(Options{
		Config:    &cfg.Server,
		Telemetry: &cfg.Telemetry,
		Job:       f.job,
		Projects:  f.projects,
		Health:    checker,
		Version:   health.NewVersionInfo("1.0.0", "abc", "today"),
		Metrics:   f.metrics,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.server = srv
	return f
}

func (f *fixture) setPolicy(t *testing.T, values map[settings.Definition]string) {
	t.Helper()
	for def, v := range values {
		p := def.Property()
		p.Value = v
		if err := f.props.Set(context.Background(), p); err != nil {
			t.Fatalf("Set(%s) error = %v", p.Key(), err)
		}
	}
}

func (f *fixture) addProject(t *testing.T, name, version string, importedDaysAgo int) *project.Project {
	t.Helper()
	ctx := context.Background()
	p := &project.Project{Name: name, Version: version, Active: true}
	if err := f.projects.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if importedDaysAgo >= 0 {
		if err := f.projects.RecordImport(ctx, p.ID, testNow.AddDate(0, 0, -importedDaysAgo)); err != nil {
			t.Fatalf("RecordImport() error = %v", err)
		}
	}
	return p
}

func (f *fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestNew_RequiresDependencies(t *testing.T) {
	cfg := config.Default()
	if _, err := New(Options{}); err == nil {
		t.Error("New() without config should fail")
	}
	if _, err := New(Options{Config: &cfg.Server}); err == nil {
		t.Error("New() without job and projects should fail")
	}
}

func TestRetentionRun(t *testing.T) {
	f := newFixture(t)
	f.setPolicy(t, map[settings.Definition]string{
		settings.CleanupEnabled:       "true",
		settings.CleanupVersionMatch:  ".*-SNAPSHOT",
		settings.CleanupOlderThanDays: "30",
	})
	stale := f.addProject(t, "storefront", "1.0-SNAPSHOT", 45)
	fresh := f.addProject(t, "storefront", "1.1-SNAPSHOT", 5)

	rec := f.do(t, http.MethodPost, "/api/v1/retention/run")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decode[runResponse](t, rec)
	if resp.Result.Trigger != retention.TriggerAPI {
		t.Errorf("trigger = %q, want api", resp.Result.Trigger)
	}
	if resp.Result.Candidates != 1 || resp.Result.Actioned != 1 {
		t.Errorf("result = %+v", resp.Result)
	}

	got, _ := f.projects.Get(context.Background(), stale.ID)
	if got.Active {
		t.Error("stale project still active")
	}
	got, _ = f.projects.Get(context.Background(), fresh.ID)
	if !got.Active {
		t.Error("fresh project deactivated")
	}

	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request ID header")
	}
}

func TestRetentionRun_ConfigurationError(t *testing.T) {
	f := newFixture(t)
	f.setPolicy(t, map[settings.Definition]string{
		settings.CleanupEnabled:       "true",
		settings.CleanupVersionMatch:  "(",
		settings.CleanupOlderThanDays: "30",
	})

	rec := f.do(t, http.MethodPost, "/api/v1/retention/run")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	resp := decode[runResponse](t, rec)
	if !strings.Contains(resp.Error, "invalid version pattern") {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.Result == nil || resp.Result.Outcome != retention.OutcomeConfigError {
		t.Errorf("result = %+v", resp.Result)
	}
}

func TestRetentionRun_Disabled(t *testing.T) {
	f := newFixture(t)
	f.addProject(t, "storefront", "1.0-SNAPSHOT", 400)

	rec := f.do(t, http.MethodPost, "/api/v1/retention/run")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decode[runResponse](t, rec); !resp.Result.Disabled {
		t.Errorf("result = %+v, want disabled", resp.Result)
	}
}

func TestRetentionRun_MethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, http.MethodGet, "/api/v1/retention/run"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestRetentionPlan(t *testing.T) {
	f := newFixture(t)
	f.setPolicy(t, map[settings.Definition]string{
		settings.CleanupEnabled:       "true",
		settings.CleanupVersionMatch:  ".*",
		settings.CleanupOlderThanDays: "10",
		settings.CleanupDeleteProject: "true",
	})
	p := f.addProject(t, "api", "2.0", 11)

	rec := f.do(t, http.MethodGet, "/api/v1/retention/plan")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	plan := decode[retention.Plan](t, rec)
	if len(plan.Candidates) != 1 || plan.Candidates[0].ID != p.ID {
		t.Errorf("candidates = %+v", plan.Candidates)
	}
	if plan.Policy.Action != retention.ActionCascadeDelete {
		t.Errorf("action = %q", plan.Policy.Action)
	}

	if _, err := f.projects.Get(context.Background(), p.ID); err != nil {
		t.Error("plan must not delete anything")
	}
}

func TestRetentionPlan_ConfigurationError(t *testing.T) {
	f := newFixture(t)
	f.setPolicy(t, map[settings.Definition]string{
		settings.CleanupEnabled:       "true",
		settings.CleanupVersionMatch:  ".*",
		settings.CleanupOlderThanDays: "-1",
	})

	if rec := f.do(t, http.MethodGet, "/api/v1/retention/plan"); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

type fakeSchedule struct{ next time.Time }

func (s fakeSchedule) IsRunning() bool     { return true }
func (s fakeSchedule) NextRun() *time.Time { return &s.next }

func TestRetentionStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/retention/status")
	status := decode[statusResponse](t, rec)
	if status.LastRun != nil || status.Scheduled {
		t.Errorf("status before any run = %+v", status)
	}

	f.do(t, http.MethodPost, "/api/v1/retention/run")
	next := testNow.Add(15 * time.Hour)
	f.server.opts.Scheduler = fakeSchedule{next: next}

	rec = f.do(t, http.MethodGet, "/api/v1/retention/status")
	status = decode[statusResponse](t, rec)
	if status.LastRun == nil || status.LastRun.Trigger != retention.TriggerAPI {
		t.Errorf("last run = %+v", status.LastRun)
	}
	if !status.Scheduled || status.NextRun == nil || !status.NextRun.Equal(next) {
		t.Errorf("schedule = %v %v", status.Scheduled, status.NextRun)
	}
}

func TestListProjects(t *testing.T) {
	f := newFixture(t)
	a := f.addProject(t, "a", "1", 1)
	b := f.addProject(t, "b", "1", 1)
	child := &project.Project{Name: "c", Version: "1", Active: true, ParentID: a.ID}
	if err := f.projects.Create(context.Background(), child); err != nil {
		t.Fatal(err)
	}
	if err := f.projects.Deactivate(context.Background(), b.ID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query    string
		wantCode int
		wantIDs  []string
	}{
		{query: "", wantCode: http.StatusOK, wantIDs: []string{a.ID, b.ID, child.ID}},
		{query: "?active=true", wantCode: http.StatusOK, wantIDs: []string{a.ID, child.ID}},
		{query: "?active=true&top_level=true", wantCode: http.StatusOK, wantIDs: []string{a.ID}},
		{query: "?active=false", wantCode: http.StatusOK, wantIDs: []string{b.ID}},
		{query: "?limit=1&offset=1", wantCode: http.StatusOK, wantIDs: []string{b.ID}},
		{query: "?name=zzz", wantCode: http.StatusOK, wantIDs: []string{}},
		{query: "?active=maybe", wantCode: http.StatusBadRequest},
		{query: "?limit=-1", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/v1/projects"+tt.query)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			projects := decode[[]project.Project](t, rec)
			if len(projects) != len(tt.wantIDs) {
				t.Fatalf("got %d projects, want %d", len(projects), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if projects[i].ID != id {
					t.Errorf("projects[%d] = %s, want %s", i, projects[i].ID, id)
				}
			}
		})
	}
}

func TestReactivateProject(t *testing.T) {
	f := newFixture(t)
	p := f.addProject(t, "storefront", "1.0", 1)
	if err := f.projects.Deactivate(context.Background(), p.ID); err != nil {
		t.Fatal(err)
	}

	rec := f.do(t, http.MethodPost, "/api/v1/projects/"+p.ID+"/reactivate")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decode[project.Project](t, rec); !got.Active {
		t.Error("response project not active")
	}

	rec = f.do(t, http.MethodPost, "/api/v1/projects/missing/reactivate")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing project status = %d, want 404", rec.Code)
	}
	body := decode[errorResponse](t, rec)
	if body.RequestID == "" {
		t.Error("error response missing request_id")
	}
}

func TestGetProject(t *testing.T) {
	f := newFixture(t)
	p := f.addProject(t, "storefront", "1.0", 1)
	ctx := context.Background()
	if err := f.projects.AddComponent(ctx, &project.Component{ProjectID: p.ID, Name: "jackson-databind"}); err != nil {
		t.Fatalf("AddComponent() error = %v", err)
	}
	sub := &project.Project{Name: "storefront-api", Version: "1.0", ParentID: p.ID, Active: true}
	if err := f.projects.Create(ctx, sub); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/projects/"+p.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[projectResponse](t, rec)
	if body.Project == nil || body.ID != p.ID || body.Name != "storefront" {
		t.Errorf("project = %+v, want %s", body.Project, p.ID)
	}
	if want := (project.Dependents{Children: 1, Components: 1}); body.Dependents != want {
		t.Errorf("dependents = %+v, want %+v", body.Dependents, want)
	}
	if body.DependentRows != 2 {
		t.Errorf("dependent_rows = %d, want 2", body.DependentRows)
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/projects/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

type brokenProjects struct{ *storage.MemoryStorage }

func (brokenProjects) List(context.Context, *project.Filter) ([]*project.Project, error) {
	return nil, errors.New("disk I/O error")
}

func TestListProjects_StoreError(t *testing.T) {
	f := newFixture(t)
	f.server.opts.Projects = brokenProjects{f.projects}

	rec := f.do(t, http.MethodGet, "/api/v1/projects")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk I/O") {
		t.Error("store error details leaked to the client")
	}
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/health", "/ready", "/version"} {
		if rec := f.do(t, http.MethodGet, path); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
	}
}

func TestMetricsEndpointAndMiddleware(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/v1/retention/status")
	f.do(t, http.MethodGet, "/does/not/exist")

	rec := f.do(t, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "curator_http_requests_total") {
		t.Error("metrics output missing http counter")
	}

	expected := `
# HELP curator_http_requests_total Total number of admin API requests
# TYPE curator_http_requests_total counter
curator_http_requests_total{code="200",method="GET",route="/api/v1/retention/status"} 1
curator_http_requests_total{code="200",method="GET",route="/metrics"} 1
curator_http_requests_total{code="404",method="GET",route="unmatched"} 1
`
	if err := testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "curator_http_requests_total"); err != nil {
		t.Error(err)
	}
}

func TestRecovery(t *testing.T) {
	f := newFixture(t)
	f.server.opts.Projects = panickingProjects{f.projects}

	rec := f.do(t, http.MethodGet, "/api/v1/projects")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

type panickingProjects struct{ *storage.MemoryStorage }

func (panickingProjects) List(context.Context, *project.Filter) ([]*project.Project, error) {
	panic("boom")
}

func TestStartShutdown(t *testing.T) {
	f := newFixture(t)
	f.server.opts.Config.ListenAddress = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for f.server.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if f.server.Addr() == nil {
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + f.server.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	if err := f.server.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if f.server.IsRunning() {
		t.Error("IsRunning() after shutdown")
	}
}

func TestAPIAuth(t *testing.T) {
	f := newFixture(t)
	f.server.opts.Auth = auth.NewValidator([]auth.Key{{Name: "ops", Token: "ops-token-0123456789", Enabled: true}})
	f.server.handler = f.server.routes()

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{name: "api without key", path: "/api/v1/retention/status", wantStatus: http.StatusUnauthorized},
		{name: "api with wrong key", path: "/api/v1/retention/status", token: "guess", wantStatus: http.StatusUnauthorized},
		{name: "api with key", path: "/api/v1/retention/status", token: "ops-token-0123456789", wantStatus: http.StatusOK},
		{name: "health stays open", path: "/health", wantStatus: http.StatusOK},
		{name: "metrics stay open", path: "/metrics", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			f.server.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Code == http.StatusUnauthorized {
				if body := decode[errorResponse](t, rec); body.RequestID == "" {
					t.Error("401 body missing request_id")
				}
			}
		})
	}
}
