package api

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/aleister1102/downtime/internal/config"
	"github.com/rs/zerolog"
)

// Server wraps the http.Server to provide graceful shutdown.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServer creates and configures a new API server.
func NewServer(cfg config.ServerConfig, service SiteService, logger zerolog.Logger) *Server {
	router := NewRouter(NewHandlers(service, nil), cfg, logger)
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address(),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout(),
			WriteTimeout: cfg.WriteTimeout(),
		},
		logger: logger.With().Str("component", "APIServer").Logger(),
	}
}

// Start binds the listener and serves in a new goroutine. Errors after a
// successful bind are delivered on the returned channel.
func (s *Server) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting HTTP server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh, nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
