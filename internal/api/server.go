package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jellysearch/jellysearch/internal/api/handlers"
	jsmiddleware "github.com/jellysearch/jellysearch/internal/api/middleware"
	"github.com/jellysearch/jellysearch/internal/config"
	"github.com/jellysearch/jellysearch/internal/jellyfin"
)

// Deps are the services the HTTP surface exposes.
type Deps struct {
	Search    handlers.SearchService
	Scheduler handlers.TaskScheduler
	Runs      handlers.RunStore
	Health    handlers.HealthSource
	// Engine names the active search backend for the health endpoint.
	Engine string
	// Syncing reports whether an index sync is in progress.
	Syncing func() bool
}

// Server handles HTTP requests for the proxy and its admin API.
type Server struct {
	echo   *echo.Echo
	cfg    config.ServerConfig
	deps   Deps
	logger zerolog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg config.ServerConfig, deps Deps, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		cfg:    cfg,
		deps:   deps,
		logger: logger.With().Str("component", "http").Logger(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Pre(jsmiddleware.CanonicalPaths())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(jsmiddleware.Metrics())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization,
			jellyfin.HeaderLegacyAuthorization, jellyfin.HeaderToken, jellyfin.HeaderEmbyToken,
			jsmiddleware.HeaderAPIKey,
		},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			// Path only: query strings can carry api keys.
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("path", v.URIPath).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("path", v.URIPath).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	if s.cfg.DebugRequests {
		s.echo.Use(jsmiddleware.RequestDump(s.logger))
	}

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/jellysearch/metrics"
		},
	}))
}

// setupRoutes configures the intercepted endpoints and the admin API.
func (s *Server) setupRoutes() {
	handlers.NewSearchHandler(s.deps.Search).RegisterRoutes(s.echo)

	system := handlers.NewSystemHandler(s.deps.Engine, s.deps.Health, s.deps.Syncing)
	s.echo.GET("/jellysearch/health", system.Health)

	adminKey := jsmiddleware.AdminKey(s.cfg.AdminKey)
	s.echo.GET("/jellysearch/metrics", echo.WrapHandler(promhttp.Handler()), adminKey)

	api := s.echo.Group("/jellysearch/api/v1", adminKey)
	if s.deps.Scheduler != nil {
		handlers.NewSchedulerHandler(s.deps.Scheduler).RegisterRoutes(api.Group("/tasks"))
	}
	if s.deps.Runs != nil {
		handlers.NewSyncHandler(s.deps.Runs).RegisterRoutes(api.Group("/sync"))
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
