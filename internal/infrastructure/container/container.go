// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/application/collection"
	"github.com/alchemorsel/evolver/internal/application/enrichment"
	"github.com/alchemorsel/evolver/internal/application/evolution"
	"github.com/alchemorsel/evolver/internal/application/generator"
	"github.com/alchemorsel/evolver/internal/application/prompt"
	"github.com/alchemorsel/evolver/internal/application/schema"
	"github.com/alchemorsel/evolver/internal/infrastructure/ai"
	"github.com/alchemorsel/evolver/internal/infrastructure/config"
	"github.com/alchemorsel/evolver/internal/infrastructure/events"
	"github.com/alchemorsel/evolver/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/evolver/internal/infrastructure/http/server"
	"github.com/alchemorsel/evolver/internal/infrastructure/monitoring"
	"github.com/alchemorsel/evolver/internal/infrastructure/persistence"
	"github.com/alchemorsel/evolver/internal/infrastructure/persistence/file"
	"github.com/alchemorsel/evolver/internal/ports/inbound"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
	"github.com/alchemorsel/evolver/pkg/logger"
)

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	StorageModule,
	BackendModule,
	EventModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// CoreModule is Module without the HTTP server, for command line tools
var CoreModule = fx.Options(
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	StorageModule,
	BackendModule,
	EventModule,
	ServiceModule,
	fx.Invoke(registerStorageHooks),
)

// ConfigPath is read by ConfigModule. Empty means search the default
// locations.
type ConfigPath string

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MonitoringModule provides metrics, tracing and health checks
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(m *monitoring.MetricsCollector) outbound.MetricsRecorder {
		return m
	},
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
	NewHealthChecks,
)

// StorageModule opens the configured key-value store
var StorageModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*persistence.Store, error) {
		ctx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
		defer cancel()
		return persistence.Open(ctx, cfg, log)
	},
	func(s *persistence.Store) outbound.KeyValueStore {
		return s.KeyValueStore
	},
)

// BackendModule provides the generative backend and the typed client
var BackendModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.GenerativeBackend, error) {
		return ai.NewBackend(cfg.AI, log)
	},
	schema.NewValidator,
	generator.NewClient,
	func(cfg *config.Config) *prompt.Builder {
		return prompt.NewBuilder(cfg.AI.Temperature)
	},
)

// EventModule provides the domain event dispatcher
var EventModule = fx.Provide(
	func(log *zap.Logger) *events.Dispatcher {
		d := events.NewDispatcher(log)
		d.Register(events.Wildcard, events.LoggingHandler(log))
		return d
	},
	func(d *events.Dispatcher) outbound.EventPublisher {
		return d
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(cfg *config.Config, kv outbound.KeyValueStore, metrics outbound.MetricsRecorder, log *zap.Logger) *collection.Store {
		return collection.NewStore(kv, cfg.Storage.Key, metrics, log)
	},
	func(
		builder *prompt.Builder,
		client *generator.Client,
		store *collection.Store,
		publisher outbound.EventPublisher,
		log *zap.Logger,
	) *evolution.Facade {
		ctx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
		defer cancel()
		return evolution.NewFacade(ctx, builder, client, store, publisher, log)
	},
	func(f *evolution.Facade) inbound.EvolutionService {
		return f
	},
	func(
		cfg *config.Config,
		client *generator.Client,
		builder *prompt.Builder,
		facade *evolution.Facade,
		publisher outbound.EventPublisher,
		metrics outbound.MetricsRecorder,
		log *zap.Logger,
	) *enrichment.Coordinator {
		return enrichment.NewCoordinator(client, builder, facade, publisher, metrics, log,
			enrichment.Options{Timeout: cfg.Enrichment.Timeout})
	},
	func(c *enrichment.Coordinator, facade *evolution.Facade) inbound.EnrichmentService {
		return enrichment.NewService(c, facade)
	},
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	handlers.NewEvolutionAPIHandlers,
	func(checks *monitoring.HealthCheckManager, cfg *config.Config, log *zap.Logger) *handlers.HealthHandlers {
		return handlers.NewHealthHandlers(checks, cfg.App.Version, log)
	},
	server.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
	RegisterNotebookWatcher,
)

// healthFunc adapts a probe function to outbound.HealthChecker
type healthFunc func(ctx context.Context) error

func (f healthFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// NewHealthChecks registers the storage and backend probes
func NewHealthChecks(store *persistence.Store, backend outbound.GenerativeBackend, log *zap.Logger) *monitoring.HealthCheckManager {
	checks := monitoring.NewHealthCheckManager(0, log)
	checks.RegisterCheck("storage", store)
	checks.RegisterCheck("backend", healthFunc(func(ctx context.Context) error {
		status := ai.CheckHealth(ctx, backend)
		if !status.Healthy {
			return errors.New(status.Details)
		}
		return nil
	}))
	return checks
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	srv *server.Server,
	store *persistence.Store,
	tracing *monitoring.TracingProvider,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting recipe evolver",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("provider", cfg.AI.Provider),
				zap.String("storage", cfg.Storage.Driver),
			)

			go func() {
				if err := srv.Start(); err != nil {
					log.Fatal("Failed to start HTTP server", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down recipe evolver")

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}
			if err := tracing.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown tracing", zap.Error(err))
			}
			if err := store.Close(); err != nil {
				log.Error("Failed to close storage", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}

// RegisterNotebookWatcher reloads the notebook when the file driver's
// document changes underneath the server
func RegisterNotebookWatcher(
	lc fx.Lifecycle,
	cfg *config.Config,
	store *persistence.Store,
	notebook *collection.Store,
	log *zap.Logger,
) error {
	fileStore, ok := store.KeyValueStore.(*file.KVStore)
	if !ok || !cfg.Storage.Watch {
		return nil
	}

	w, err := fileStore.NewWatcher(cfg.Storage.Key, file.DefaultDebounce, func(ctx context.Context) {
		saved := notebook.Reload(ctx)
		log.Info("Reloaded saved recipes", zap.Int("count", len(saved)))
	})
	if err != nil {
		return err
	}
	lc.Append(fx.StartStopHook(w.Start, w.Stop))
	return nil
}

func registerStorageHooks(lc fx.Lifecycle, store *persistence.Store, log *zap.Logger) {
	lc.Append(fx.StopHook(func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close storage", zap.Error(err))
		}
	}))
}
