// Package server provides the HTTP server for the evolution API
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/infrastructure/config"
	"github.com/alchemorsel/evolver/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/evolver/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/evolver/internal/infrastructure/monitoring"
)

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	logger  *zap.Logger
	router  *chi.Mux
	server  *http.Server
	api     *handlers.EvolutionAPIHandlers
	health  *handlers.HealthHandlers
	metrics *monitoring.MetricsCollector
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	api *handlers.EvolutionAPIHandlers,
	health *handlers.HealthHandlers,
	metrics *monitoring.MetricsCollector,
) *Server {
	s := &Server{
		config:  cfg,
		logger:  logger.Named("http"),
		api:     api,
		health:  health,
		metrics: metrics,
	}

	s.router = s.setupRouter()

	var handler http.Handler = s.router
	if cfg.Monitoring.EnableTracing {
		handler = otelhttp.NewHandler(handler, "evolver.http",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}

	s.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s
}

// setupRouter configures all routes
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	cfg := s.config

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Logger(s.logger, cfg.Monitoring.HealthCheckPath, cfg.Monitoring.MetricsPath))
	if s.metrics != nil && cfg.Monitoring.EnableMetrics {
		r.Use(s.metrics.HTTPMiddleware)
	}
	r.Use(middleware.Security())
	r.Use(middleware.CORS(cfg.Server))

	r.Get(cfg.Monitoring.HealthCheckPath, s.health.HealthCheck)
	if s.metrics != nil && cfg.Monitoring.EnableMetrics {
		r.Handle(cfg.Monitoring.MetricsPath, s.metrics.Handler())
	}

	// Backend-bound routes share one limiter per client
	expensive := func(r chi.Router) {}
	if cfg.RateLimit.Enable {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, s.logger)
		expensive = func(r chi.Router) { r.Use(limiter.Middleware) }
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", s.api.State)

		r.Route("/params", func(r chi.Router) {
			r.Get("/", s.api.GetParams)
			r.Put("/", s.api.ReplaceParams)
			r.Post("/ingredients", s.api.AddIngredient)
			r.Delete("/ingredients/{index}", s.api.RemoveIngredient)
			r.Put("/language", s.api.SetLanguage)
		})

		r.Get("/notebook", s.api.Notebook)
		r.Delete("/selection", s.api.ClearSelection)

		r.Route("/recipes/{id}", func(r chi.Router) {
			r.Delete("/", s.api.Remove)
			r.Post("/save", s.api.Save)
			r.Post("/remix", s.api.Remix)
			r.Put("/name", s.api.Rename)
			r.Post("/select", s.api.Select)

			r.Group(func(r chi.Router) {
				expensive(r)
				r.Post("/image", s.api.RequestImage)
				r.Post("/safety", s.api.RequestSafetyTips)
			})
		})

		r.Group(func(r chi.Router) {
			expensive(r)
			r.Post("/generate", s.api.Generate)
		})
	})

	return r
}

// Handler exposes the routed handler for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving; it blocks until the server stops
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
