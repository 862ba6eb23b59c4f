package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"mercator-hq/curator/pkg/config"
	"mercator-hq/curator/pkg/project"
	"mercator-hq/curator/pkg/retention"
	"mercator-hq/curator/pkg/security/auth"
	"mercator-hq/curator/pkg/telemetry/health"
	"mercator-hq/curator/pkg/telemetry/metrics"
	"mercator-hq/curator/pkg/telemetry/tracing"
)

// RetentionRunner runs and plans retention. *retention.Job implements it.
type RetentionRunner interface {
	Run(ctx context.Context) (*retention.RunResult, error)
	Plan(ctx context.Context) (*retention.Plan, error)
	LastResult() *retention.RunResult
}

// Schedule reports the state of the retention scheduler. *retention.Scheduler implements it.
type Schedule interface {
	IsRunning() bool
	NextRun() *time.Time
}

// Projects is the subset of project.Store served by the API.
type Projects interface {
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context, filter *project.Filter) ([]*project.Project, error)
	Reactivate(ctx context.Context, id string) error
	CountDependents(ctx context.Context, id string) (project.Dependents, error)
}

// Options wires the server to the rest of the process. Config, Job and
// Projects are required; the rest may be nil.
type Options struct {
	Config    *config.ServerConfig
	Telemetry *config.TelemetryConfig

	Job       RetentionRunner
	Scheduler Schedule
	Projects  Projects

	// Auth, when set, guards every /api/v1 route.
	Auth auth.KeyStore

	Health  *health.Checker
	Version health.VersionInfo
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Logger  *slog.Logger
}

// Server is the curator admin HTTP server.
type Server struct {
	opts       Options
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger

	mu        sync.RWMutex
	isRunning bool
	addr      net.Addr
}

// New creates the admin server and builds its routes.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("server config is nil")
	}
	if opts.Job == nil || opts.Projects == nil {
		return nil, errors.New("server requires a retention job and a project store")
	}
	if opts.Telemetry == nil {
		opts.Telemetry = &config.Default().Telemetry
	}
	if opts.Health == nil {
		opts.Health = health.New(opts.Telemetry.Health.CheckTimeout)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:   opts,
		logger: logger.With("component", "server"),
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound listen address once Start has begun serving.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Start listens on the configured address and serves until ctx is
// canceled, then shuts down gracefully within ShutdownTimeout.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.opts.Config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Config.ListenAddress, err)
	}

	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.opts.Config.ReadTimeout,
		WriteTimeout:   s.opts.Config.WriteTimeout,
		IdleTimeout:    s.opts.Config.IdleTimeout,
		MaxHeaderBytes: s.opts.Config.MaxHeaderBytes,
	}
	s.addr = ln.Addr()
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting admin server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		s.setStopped()
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown gracefully stops the server. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	running, srv := s.isRunning, s.httpServer
	s.mu.RUnlock()
	if !running || srv == nil {
		return nil
	}

	s.logger.Info("initiating graceful shutdown", "timeout", s.opts.Config.ShutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, s.opts.Config.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		shutdownErr = fmt.Errorf("server shutdown error: %w", err)
	}

	s.setStopped()
	s.logger.Info("admin server stopped")
	return shutdownErr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Server) setStopped() {
	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
}
