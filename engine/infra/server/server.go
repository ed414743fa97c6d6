// Package server exposes the task catalog over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dataworks/dataworks/engine/infra/monitoring"
	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/config"
	"github.com/dataworks/dataworks/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	httpReadTimeout       = 15 * time.Second
	httpIdleTimeout       = 60 * time.Second
	serverShutdownTimeout = 5 * time.Second
)

// Server wires the invoker and monitoring service into a gin router.
type Server struct {
	config     *config.Config
	invoker    *task.Invoker
	monitoring *monitoring.Service
	router     *gin.Engine
}

// New builds the router. A nil monitoring service disables /metrics.
func New(ctx context.Context, cfg *config.Config, invoker *task.Invoker, mon *monitoring.Service) *Server {
	s := &Server{config: cfg, invoker: invoker, monitoring: mon}
	s.router = s.buildRouter(ctx)
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Address() string {
	return net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
}

func (s *Server) buildRouter(ctx context.Context) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger.FromContext(ctx)))
	if s.monitoring != nil {
		router.Use(s.monitoring.GinMiddleware(ctx))
		if s.monitoring.IsInitialized() {
			router.GET(s.monitoring.Path(), gin.WrapH(s.monitoring.ExporterHandler()))
		}
	}
	router.NoRoute(func(c *gin.Context) {
		RespondProblemWithCode(c, http.StatusNotFound, "NotFound", "route not found")
	})
	registerRoutes(router, s.invoker, s.monitoring)
	return router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	srv := &http.Server{
		Addr:        s.Address(),
		Handler:     s.router,
		ReadTimeout: httpReadTimeout,
		IdleTimeout: httpIdleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("Starting HTTP server", "address", fmt.Sprintf("http://%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Debug("Initiating graceful shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if s.monitoring != nil {
			if err := s.monitoring.Shutdown(shutdownCtx); err != nil {
				log.Warn("Failed to shut down monitoring", "error", err)
			}
		}
		log.Info("Server shutdown completed")
		return nil
	})
	return group.Wait()
}
