// Package api serves the optional debug endpoint: Prometheus metrics and a
// JSON status view of the running race.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ssargent/shredrace/pkg/race"
)

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Listen string
}

// Server exposes one race over HTTP. It only reads from the race, so it can
// start and stop independently of the measurement itself.
type Server struct {
	cfg      ServerConfig
	race     *race.Race
	gatherer prometheus.Gatherer
}

// NewServer wires a race and its metrics registry to an HTTP config.
func NewServer(cfg ServerConfig, r *race.Race, gatherer prometheus.Gatherer) *Server {
	return &Server{
		cfg:      cfg,
		race:     r,
		gatherer: gatherer,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, "not found", http.StatusNotFound)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully. Errors
// from a dead listener are returned as-is so the caller can decide whether
// a broken debug endpoint matters.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.cfg.Listen).Info("debug endpoint listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
