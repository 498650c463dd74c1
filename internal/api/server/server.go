// Package server wires the admin HTTP server: gin router, middleware, and the
// ledger-backed REST handlers.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sourcecred/sourcecred-go/internal/api/middleware"
	"github.com/sourcecred/sourcecred-go/internal/api/rest"
	"github.com/sourcecred/sourcecred-go/internal/clock"
	"github.com/sourcecred/sourcecred-go/internal/ledger"
	"github.com/sourcecred/sourcecred-go/internal/logger"
)

// Config holds the server configuration.
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server wraps the HTTP server.
type Server struct {
	config     Config
	storage    ledger.DiskStorage
	clk        clock.Clock
	httpServer *http.Server
}

// New creates a new admin server serving the given ledger storage.
func New(cfg Config, storage ledger.DiskStorage, clk clock.Clock) *Server {
	return &Server{
		config:  cfg,
		storage: storage,
		clk:     clk,
	}
}

// Router builds the gin engine with middleware and routes. Exposed separately
// so tests can drive it without a listening socket.
func (s *Server) Router() *gin.Engine {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	handler := rest.NewHandler(s.storage, s.clk)
	rest.SetupRoutes(router, handler)
	return router
}

// Start initializes and starts the HTTP server, blocking until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting admin server",
		zap.String("address", addr),
		zap.String("ledger", s.storage.Path()),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down admin server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	return nil
}
