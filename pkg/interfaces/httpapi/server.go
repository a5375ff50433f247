// Package httpapi exposes problem instances and planning runs over HTTP.
//
//	GET  /health
//	GET  /api/v1/instances
//	PUT  /api/v1/instances/:id         stage a dataset (writable stores only)
//	POST /api/v1/instances/:id/solve   run the planner
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vsinha/clsp/pkg/application/services"
	"github.com/vsinha/clsp/pkg/domain/repositories"
	"github.com/vsinha/clsp/pkg/infrastructure/config"
	"github.com/vsinha/clsp/pkg/mip"
)

// shutdownTimeout bounds the wait for in-flight requests on shutdown
const shutdownTimeout = 10 * time.Second

// Provider is the data source served by the API
type Provider interface {
	repositories.DataProvider
	repositories.InstanceLister
}

// Server routes API requests to a provider and a solver
type Server struct {
	provider Provider
	solver   mip.Solver
	engine   services.EngineConfig
	limiter  *rate.Limiter
	logger   *slog.Logger
	router   *gin.Engine
}

// NewServer builds the router. The solve endpoint is limited to
// cfg.RequestsPerSecond with bursts of cfg.Burst.
func NewServer(provider Provider, solver mip.Solver, engine services.EngineConfig, cfg config.Server, logger *slog.Logger) *Server {
	s := &Server{
		provider: provider,
		solver:   solver,
		engine:   engine,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), withBaseLogger(s), requestLogger())

	r.GET("/health", s.health)

	api := r.Group("/api/v1")
	api.GET("/instances", s.listInstances)
	api.PUT("/instances/:id", s.saveInstance)
	api.POST("/instances/:id/solve", rateLimit(s.limiter), s.solve)
	return r
}

// Handler returns the HTTP handler of the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on address until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening.", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
