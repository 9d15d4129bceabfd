package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"engageboard/internal/archive"
	"engageboard/internal/config"
	apierrors "engageboard/internal/errors"
	"engageboard/internal/infrastructure"
	customMiddleware "engageboard/internal/middleware"
	"engageboard/internal/services"
	handlers "engageboard/internal/transport/http"
	"engageboard/pkg/contracts"
)

const (
	AppName = "EngageBoard"
	// memoryRuns is how many runs are kept when the sqlite archive is disabled
	memoryRuns = 20
)

// archiveStore is what the application needs from either archive backend
type archiveStore interface {
	services.RunStore
	Close() error
}

// Application represents the main application container
type Application struct {
	Config             *config.Config
	Paths              *config.Paths
	Router             *chi.Mux
	Server             *http.Server
	Logger             *slog.Logger
	OTelProviders      *infrastructure.OTelProviders
	Metrics            *infrastructure.BusinessMetrics
	Archive            archiveStore
	LeaderboardService *services.LeaderboardService
	HealthService      *services.HealthService
	ErrorHandler       *apierrors.ErrorHandler
}

// NewApplication loads configuration and builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return New(cfg, logger)
}

// New wires every component from an explicit configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if !cfg.Archive.Enabled {
		paths.ArchiveFile = ""
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	logger.Info("Application paths",
		slog.String("base_dir", paths.BaseDir),
		slog.String("data_dir", paths.DataDir),
		slog.String("reports_dir", paths.ReportsDir),
		slog.String("archive_file", paths.ArchiveFile))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices opens the archive and builds the services on top of it
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	if err := infrastructure.RegisterRuntimeMetrics(a.OTelProviders.Meter, time.Now()); err != nil {
		return fmt.Errorf("failed to register runtime metrics: %w", err)
	}
	a.Metrics = metrics

	if a.Config.Archive.Enabled {
		store, err := archive.Open(context.Background(), a.Paths.ArchiveFile, a.Logger)
		if err != nil {
			return err
		}
		a.Archive = store
	} else {
		a.Logger.Warn("Archive disabled, runs are kept in memory only",
			slog.Int("capacity", memoryRuns))
		a.Archive = archive.NewMemoryStore(memoryRuns)
	}

	a.LeaderboardService = services.NewLeaderboardService(a.Archive, a.Logger,
		services.WithMetrics(metrics),
		services.WithTracer(a.OTelProviders.Tracer),
		services.WithExport(a.Config.Export.BOM, a.Config.Export.SheetName),
	)

	var pinger services.Pinger
	if a.Config.Archive.Enabled {
		pinger = a.Archive
	}
	a.HealthService = services.NewHealthService(contracts.Version, contracts.BuildTime, a.Paths.ReportsDir, pinger, a.Logger)
	return nil
}

// setupRouter builds the middleware chain and routes.
// Order: RequestID → RealIP → OTel → Logger → Recoverer → RateLimit → Timeout
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.NewErrorMiddleware(a.ErrorHandler, a.Logger).Handler)
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r)
	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/version", healthHandler.Version)

		metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler)
		r.Get("/metrics", metricsHandler.GetMetrics)

		leaderboardHandler := handlers.NewLeaderboardHandler(a.LeaderboardService, a.Logger, a.ErrorHandler)
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.MaxBodySize(a.Config.Server.MaxUploadBytes))
			r.Use(customMiddleware.Compress(5))

			r.With(customMiddleware.ContentTypeValidator(a.ErrorHandler, "multipart/form-data")).
				Post("/columns/detect", leaderboardHandler.DetectColumns)
			r.Mount("/leaderboards", leaderboardHandler.Routes())
		})
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving in the background. A listener failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.Archive != nil {
		if err := a.Archive.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing archive", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	infrastructure.CloseLogFile()
	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck reports dependencies that are not ready yet
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	status := a.HealthService.ReadinessCheck(ctx)
	if status.Status == "ready" {
		return nil
	}
	var errs []error
	for name, svc := range status.Services {
		if svc.Status != "ready" {
			errs = append(errs, fmt.Errorf("%s: %s", name, svc.Message))
		}
	}
	return errors.Join(errs...)
}
