// Package api exposes the studio application services over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	coachApp "github.com/felixgeelhaar/studio/internal/coaches/application"
	memberApp "github.com/felixgeelhaar/studio/internal/members/application"
	planApp "github.com/felixgeelhaar/studio/internal/plans/application"
	sharedApplication "github.com/felixgeelhaar/studio/internal/shared/application"
	"github.com/felixgeelhaar/studio/pkg/observability"
)

// Services are the collaborators the handlers call into.
type Services struct {
	Members    *memberApp.Service
	Coaches    *coachApp.Service
	Plans      *planApp.Service
	UnitOfWork sharedApplication.UnitOfWork
	Health     *observability.HealthRegistry
	// Metrics defaults to observability.NoopMetrics.
	Metrics observability.Metrics
}

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	metrics observability.Metrics

	members *memberApp.Service
	coaches *coachApp.Service
	plans   *planApp.Service
	uow     sharedApplication.UnitOfWork
	health  *observability.HealthRegistry
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, svc Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if svc.Metrics == nil {
		svc.Metrics = observability.NoopMetrics{}
	}
	if svc.Health == nil {
		svc.Health = observability.NewHealthRegistry(0)
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		metrics: svc.Metrics,
		members: svc.Members,
		coaches: svc.Coaches,
		plans:   svc.Plans,
		uow:     svc.UnitOfWork,
		health:  svc.Health,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	s.mux.Handle("GET /health", s.instrument("GET /health", s.health.Handler()))

	// Members
	s.handle("POST /members", s.registerMember)
	s.handle("GET /members", s.listMembers)
	s.handle("GET /members/{id}", s.getMember)
	s.handle("DELETE /members/{id}", s.deleteMember)
	s.handle("POST /members/{id}/goals", s.addGoal)
	s.handle("POST /members/{id}/goals/{goalID}/achieve", s.achieveGoal)
	s.handle("POST /members/{id}/membership", s.upgradeMembership)

	// Coaches
	s.handle("POST /coaches", s.registerCoach)
	s.handle("GET /coaches", s.listAvailableCoaches)
	s.handle("GET /coaches/match", s.matchCoach)
	s.handle("GET /coaches/{id}", s.getCoach)
	s.handle("DELETE /coaches/{id}", s.deleteCoach)
	s.handle("POST /coaches/{id}/certifications", s.addCertification)
	s.handle("POST /coaches/{id}/availability", s.addAvailability)

	// Plans
	s.handle("POST /plans", s.createPlan)
	s.handle("GET /plans", s.listPlans)
	s.handle("GET /plans/{id}", s.getPlan)
	s.handle("POST /plans/{id}/activate", s.activatePlan)
	s.handle("POST /plans/{id}/cancel", s.cancelPlan)
	s.handle("GET /plans/{id}/progress", s.getProgress)
	s.handleOwnTx("POST /plans/{id}/sessions", s.addSession)
	s.handle("POST /plans/{id}/sessions/{sid}/complete", s.completeSession)
	s.handle("POST /plans/{id}/sessions/{sid}/skip", s.skipSession)
}

// handle registers a transactional endpoint.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(pattern, s.transactional(h)))
}

// handleOwnTx registers an endpoint that does part of its work before
// opening the request transaction itself.
func (s *Server) handleOwnTx(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(pattern, h))
}

// Handler returns the routed handler with request ids attached.
func (s *Server) Handler() http.Handler {
	return withRequestIDs(s.mux)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting studio API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down studio API server")
	return s.server.Shutdown(ctx)
}
