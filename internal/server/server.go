package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopql/shopql/internal/config"
	"github.com/shopql/shopql/internal/middleware"
	"github.com/shopql/shopql/internal/pipeline"
	"github.com/shopql/shopql/internal/service"
)

// Server owns the HTTP listener and the store; both are released on shutdown
type Server struct {
	cfg      *config.Config
	http     *http.Server
	store    service.Store
	pipeline *pipeline.Pipeline
	limiter  *middleware.RateLimiter
}

// New assembles the router around an opened store and a ready pipeline
func New(cfg *config.Config, store service.Store, p *pipeline.Pipeline) *Server {
	s := &Server{cfg: cfg, store: store, pipeline: p}

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.setupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.PipelineTimeout+10) * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped router
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)
		s.Close()
		return err
	case err := <-errCh:
		s.Close()
		return err
	}
}

// Close releases the rate limiter and the store
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Close()
		s.limiter = nil
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Warn().Err(err).Str("store", s.store.Name()).Msg("error closing store")
		} else {
			log.Info().Str("store", s.store.Name()).Msg("store closed")
		}
		s.store = nil
	}
}
