package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Davincible/gemini-code-gateway/internal/config"
	"github.com/Davincible/gemini-code-gateway/internal/handlers"
	"github.com/Davincible/gemini-code-gateway/internal/middleware"
)

type Server struct {
	config  *config.Manager
	logger  *slog.Logger
	version string
	server  *http.Server
}

func New(configManager *config.Manager, logger *slog.Logger, version string) *Server {
	return &Server{
		config:  configManager,
		logger:  logger,
		version: version,
	}
}

func (s *Server) Start() error {
	cfg := s.config.Get()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	mux := s.setupRoutes()

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	s.logger.Info("Starting server", "address", addr, "upstream", cfg.Upstream)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server error", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	s.logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("Server exited")
	return nil
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	gatewayHandler := handlers.NewGatewayHandler(s.config, s.logger)
	healthHandler := handlers.NewHealthHandler(s.version)

	middlewareSet := middleware.NewSet(s.logger)

	mux.Handle("/health", middlewareSet.HealthChain().Handler(healthHandler))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", middlewareSet.GatewayChain().Handler(gatewayHandler))

	return mux
}
