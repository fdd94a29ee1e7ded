// Package api exposes the pipeline over HTTP: kick off analysis runs,
// poll their progress, and read back per-client results.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/fleetlens/fleetlens/internal/config"
	"github.com/fleetlens/fleetlens/internal/resultcache"
	"github.com/fleetlens/fleetlens/pkg/models"
)

// Runner is the slice of the orchestrator the API needs; the indirection
// keeps handlers testable with a stub.
type Runner interface {
	CollectOnly(ctx context.Context, clientNames []string) []models.ClientLogCollection
	StartRun(ctx context.Context, clientNames []string) string
}

// Server is the REST API server
type Server struct {
	cfg       *config.Config
	runner    Runner
	cache     *resultcache.Cache
	echo      *echo.Echo
	startedAt time.Time
}

// NewServer creates the API server and registers its routes
func NewServer(cfg *config.Config, runner Runner, cache *resultcache.Cache) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{
		cfg:       cfg,
		runner:    runner,
		cache:     cache,
		echo:      e,
		startedAt: time.Now(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/api/clients", s.handleListClients)
	s.echo.POST("/api/analysis", s.handleStartAnalysis)
	s.echo.GET("/api/analysis/:id", s.handleGetAnalysis)
	s.echo.GET("/api/clients/:name/analysis", s.handleGetClientAnalysis)
	s.echo.POST("/api/clients/:name/collect", s.handleCollectClient)
}

// Start blocks serving HTTP until the listener fails or is shut down
func (s *Server) Start(addr string) error {
	log.Info().Str("addr", addr).Msg("API server listening")
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying http.Handler for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Debug().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("elapsed", time.Since(start)).
				Msg("request")
			return err
		}
	}
}
