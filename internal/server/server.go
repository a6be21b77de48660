// Package server exposes the dashboards as a JSON API for browser front
// ends and other tools.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultShutdownTimeout bounds how long in-flight requests may take to
// finish on shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Config configures the API server.
type Config struct {
	// TLS enables HTTPS when set.
	TLS             *tls.Config
	Addr            string
	ShutdownTimeout time.Duration
}

// WebAPI is the HTTP front of the registry.
type WebAPI struct {
	router  *chi.Mux
	logger  *slog.Logger
	server  *http.Server
	timeout time.Duration
}

// NewWebAPI wires the routes for handler.
func NewWebAPI(logger *slog.Logger, cfg Config, handler *Handler) *WebAPI {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(RequestLogger(logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", handler.Health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboards", handler.ListDashboards)
		r.Get("/dashboards/{name}/summary", handler.GetSummary)
		r.Get("/dashboards/{name}/options/{field}", handler.GetOptions)
	})

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	return &WebAPI{
		router:  router,
		logger:  logger,
		timeout: timeout,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			TLSConfig:         cfg.TLS,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the routed handler, mainly for tests.
func (w *WebAPI) Handler() http.Handler {
	return w.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		if w.server.TLSConfig != nil {
			w.logger.Info("starting server", "addr", w.server.Addr, "tls", true)
			serverErrors <- w.server.ListenAndServeTLS("", "")
			return
		}
		w.logger.Info("starting server", "addr", w.server.Addr)
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		w.logger.Info("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()

		if err := w.server.Shutdown(shutdownCtx); err != nil {
			w.logger.Error("graceful shutdown failed", "error", err)
			if closeErr := w.server.Close(); closeErr != nil {
				return fmt.Errorf("failed to close server: %w", closeErr)
			}
		}
	}
	return nil
}
