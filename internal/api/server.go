// Package api is the HTTP surface of the orchestrator. All instance routes
// are scoped to the authenticated API key's user.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/openclaw/clawhost/internal/api/handler"
	mw "github.com/openclaw/clawhost/internal/api/middleware"
	"github.com/openclaw/clawhost/internal/config"
	"github.com/openclaw/clawhost/internal/core"
	"github.com/openclaw/clawhost/internal/pairing"
)

type Server struct {
	router       chi.Router
	logger       zerolog.Logger
	instances    *core.InstanceService
	logs         *core.DeploymentLogService
	orchestrator *core.Orchestrator
	resolver     *pairing.Resolver
	corePool     *pgxpool.Pool
	cfg          *config.Config
}

func NewServer(logger zerolog.Logger, corePool *pgxpool.Pool, instances *core.InstanceService, logs *core.DeploymentLogService, orchestrator *core.Orchestrator, resolver *pairing.Resolver, cfg *config.Config) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		logger:       logger,
		instances:    instances,
		logs:         logs,
		orchestrator: orchestrator,
		resolver:     resolver,
		corePool:     corePool,
		cfg:          cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.corePool))

		instance := handler.NewInstance(s.instances, s.logs, s.orchestrator)
		r.Post("/instance/deploy", instance.Deploy)
		r.Get("/instance", instance.Get)
		r.Post("/instance/start", instance.Start)
		r.Post("/instance/stop", instance.Stop)
		r.Post("/instance/restart", instance.Restart)
		r.Get("/instance/health", instance.Health)
		r.Get("/instance/logs", instance.Logs)
		r.Get("/instance/deployments", instance.Deployments)

		pair := handler.NewPairing(s.instances, s.resolver)
		r.Post("/instance/pair", pair.Approve)
		r.Get("/instance/pair/list", pair.List)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.corePool.Ping(ctx); err != nil {
		checks["core_db"] = err.Error()
		healthy = false
	} else {
		checks["core_db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
