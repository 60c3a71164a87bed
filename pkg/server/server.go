// Package server exposes the dispatcher over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jdgilhuly/just_prompt/pkg/dispatch"
	"github.com/jdgilhuly/just_prompt/pkg/registry"
)

const shutdownTimeout = 15 * time.Second

// Dispatcher is the subset of *dispatch.Dispatcher the server calls.
type Dispatcher interface {
	ListProviders() []registry.Descriptor
	ListModels(ctx context.Context, token string) ([]string, error)
	SendPrompt(ctx context.Context, token, text, model string) (string, error)
	ParseModelRefs(refs []string) ([]dispatch.ModelRef, error)
	Prompt(ctx context.Context, text string, refs []string) ([]string, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server serves the justprompt HTTP API.
type Server struct {
	d      Dispatcher
	logger *slog.Logger
	router *gin.Engine
}

// New builds a Server and registers its routes.
func New(d Dispatcher, opts ...Option) *Server {
	s := &Server{d: d, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(RecoveryMiddleware(s.logger))
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(s.logger))

	r.GET("/health", s.handleHealth)
	r.GET("/providers", s.handleProviders)
	r.GET("/providers/:provider/models", s.handleModels)
	r.POST("/prompt", s.handlePrompt)
	r.POST("/prompt/batch", s.handleBatch)

	s.router = r
	return s
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
