// Package http provides the HTTP server, router assembly, and shared
// middleware.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	accountHTTP "github.com/parlorchat/parlor/internal/account/http"
	"github.com/parlorchat/parlor/internal/metrics"
	sessionHTTP "github.com/parlorchat/parlor/internal/session/http"
)

// RouterConfig carries everything the router assembly needs.
type RouterConfig struct {
	Logger         *slog.Logger
	AccountHandler *accountHTTP.AccountHandler
	SessionHandler *sessionHTTP.SessionHandler

	// AccessGuard authenticates requests on the protected group.
	AccessGuard gin.HandlerFunc

	// ReadinessCheck probes backing services for the /ready endpoint.
	ReadinessCheck func(c *gin.Context) error

	// LoginRateLimitRPS and LoginRateLimitBurst bound login attempts per IP.
	// A non-positive RPS disables the limiter.
	LoginRateLimitRPS   float64
	LoginRateLimitBurst int

	// CORSEnabled and CORSAllowOrigins configure browser access.
	CORSEnabled      bool
	CORSAllowOrigins string

	// MetricsProvider, when set, enables per-request HTTP metrics.
	MetricsProvider  *metrics.Provider
	MetricsNamespace string
}

// NewRouter assembles the Gin engine: shared middleware, public endpoints,
// and the guarded group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(requestid.New())
	router.Use(RecoveryMiddleware(cfg.Logger))
	router.Use(CustomLoggerMiddleware(cfg.Logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, cfg.Logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MetricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(
			cfg.MetricsProvider.MeterProvider(),
			cfg.MetricsNamespace,
		))
	}

	router.GET("/health", HealthHandler)
	router.GET("/ready", ReadinessHandler(cfg.ReadinessCheck))

	v1 := router.Group("/v1")
	{
		v1.POST("/accounts", cfg.AccountHandler.RegisterHandler)

		loginHandlers := []gin.HandlerFunc{cfg.SessionHandler.LoginHandler}
		if cfg.LoginRateLimitRPS > 0 {
			loginHandlers = append(
				[]gin.HandlerFunc{sessionHTTP.LoginRateLimitMiddleware(cfg.LoginRateLimitRPS, cfg.LoginRateLimitBurst, cfg.Logger)},
				loginHandlers...,
			)
		}
		v1.POST("/login", loginHandlers...)

		guarded := v1.Group("", cfg.AccessGuard)
		{
			guarded.POST("/logout", cfg.SessionHandler.LogoutHandler)
			guarded.GET("/profile", cfg.AccountHandler.GetProfileHandler)
			guarded.PUT("/profile", cfg.AccountHandler.UpdateProfileHandler)
			guarded.GET("/sessions", cfg.SessionHandler.ListHandler)
			guarded.POST("/sessions/refresh", cfg.SessionHandler.RefreshHandler)
		}
	}

	return router
}

// Server represents the main HTTP server
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server serving the given handler
func NewServer(
	host string,
	port int,
	handler http.Handler,
	logger *slog.Logger,
) *Server {
	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
