// Package web serves the ingest API, the report pages and metrics.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/sheetrow/internal/config"
	"github.com/JonMunkholm/sheetrow/internal/core"
	"github.com/JonMunkholm/sheetrow/internal/ingest"
	mw "github.com/JonMunkholm/sheetrow/internal/web/middleware"
)

// Server is the HTTP server.
type Server struct {
	cfg      *config.Config
	registry *core.Registry
	ingest   *ingest.Service
	router   *chi.Mux
	server   *http.Server
	done     chan struct{}
}

// NewServer creates a server for the registry's templates and the ingest
// service.
func NewServer(cfg *config.Config, registry *core.Registry, svc *ingest.Service) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		ingest:   svc,
		router:   chi.NewRouter(),
		done:     make(chan struct{}),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute)
		go limiter.run(s.done)
		s.router.Use(limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.ingest.Metrics().Registry(), promhttp.HandlerOpts{}))

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
		r.Get("/", s.handleReportsPage)
		r.Get("/ingests/{id}", s.handleReportPage)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

			// Templates
			r.Get("/templates", s.handleListTemplates)
			r.Post("/templates", s.handleRegisterTemplate)
			r.Post("/templates/infer", s.handleInferTemplate)
			r.Get("/templates/{name}", s.handleGetTemplate)
			r.Delete("/templates/{name}", s.handleDeleteTemplate)

			// Ingests
			r.Get("/ingests", s.handleListIngests)
			r.Get("/ingests/{id}", s.handleGetIngest)
			r.Get("/ingests/{id}/failed.csv", s.handleExportFailed)
			r.Post("/ingests/{id}/cancel", s.handleCancelIngest)
			r.Post("/ingests/{id}/rollback", s.handleRollbackIngest)
		})

		// Uploads and event streams outlive the request timeout.
		ingestRoute := r.With()
		if s.cfg.Rate.Enabled {
			limiter := newRateLimiter(s.cfg.Rate.IngestLimit)
			go limiter.run(s.done)
			ingestRoute = r.With(limiter.middleware)
		}
		ingestRoute.Post("/ingests", s.handleIngest)
		r.Get("/ingests/{id}/events", s.handleIngestEvents)
	})
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr, "database", s.ingest.CanWrite(), "templates", s.registry.Len())
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, then waits for running ingests.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.ingest.Shutdown(ctx)
}

// Router returns the router, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"templates": s.registry.Len(),
		"database":  s.ingest.CanWrite(),
		"ingests":   s.ingest.Limiter().Status(),
		"time":      time.Now().UTC(),
	})
}

// securityHeaders adds hardening headers to every response.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
			}
			next.ServeHTTP(w, r)
		})
	}
}
