// Package server runs the record API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/phdtrack/internal/bootstrap"
	"github.com/yigit/phdtrack/internal/config"
	"github.com/yigit/phdtrack/internal/db"
)

const shutdownGrace = 10 * time.Second

// Server owns the store connection and the router built on top of it.
type Server struct {
	port     string
	router   *gin.Engine
	database *db.Database
	logger   zerolog.Logger
}

// NewServer opens the store, ensures its schema and wires the handlers.
func NewServer(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Server, error) {
	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(cfg, database, lgr)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	return &Server{
		port:     cfg.Server.Port,
		router:   bootstrap.SetupRouter(cfg, deps, lgr),
		database: database,
		logger:   lgr,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled or the process receives SIGINT/SIGTERM,
// then drains in-flight requests and closes the store.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// uploads and downloads of attachments can be slow
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	listenErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", httpServer.Addr).Msg("Serving student records")
		listenErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		s.closeDatabase()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	var errs []error
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("HTTP server did not drain in time")
		errs = append(errs, err)
	}
	if err := s.closeDatabase(); err != nil {
		errs = append(errs, err)
	}
	s.logger.Info().Msg("Server stopped")
	return errors.Join(errs...)
}

func (s *Server) closeDatabase() error {
	if s.database == nil {
		return nil
	}
	err := s.database.Close()
	if err != nil {
		s.logger.Error().Err(err).Msg("Database close error")
	}
	s.database = nil
	return err
}
