package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	gorillaws "github.com/gorilla/websocket"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/config"
	apierrors "github.com/smperez989-stack/IWA-SMDashboard/internal/errors"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/files"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/infrastructure"
	customMiddleware "github.com/smperez989-stack/IWA-SMDashboard/internal/middleware"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/services"
	httpHandlers "github.com/smperez989-stack/IWA-SMDashboard/internal/transport/http"
	ws "github.com/smperez989-stack/IWA-SMDashboard/internal/websocket"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts"
)

// Application represents the dashboard server and its wired components
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Services      *ServiceContainer
	WebSocketHub  *ws.Hub
	ErrorHandler  *apierrors.ErrorHandler

	upgrader  *gorillaws.Upgrader
	startTime time.Time
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Cache     *services.DatasetCache
	Dashboard *services.DashboardService
	Health    *services.HealthService
}

// NewApplication loads configuration, initializes logging and builds the
// application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Relative log files live in the resolved logs directory.
	if logFile := cfg.Logging.FilePath; logFile != "" && !filepath.IsAbs(logFile) {
		paths, err := cfg.ResolvePaths()
		if err != nil {
			return nil, err
		}
		if err := paths.EnsureDirectories(); err != nil {
			return nil, err
		}
		cfg.Logging.FilePath = paths.GetLogPath(filepath.Base(logFile))
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New builds the application from an already loaded config and logger.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	app := &Application{
		Config:       cfg,
		Logger:       logger,
		ErrorHandler: apierrors.NewErrorHandler(logger, false),
		startTime:    time.Now(),
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	paths.LogPathResolution(logger)
	app.Paths = paths

	if err := app.initializeTelemetry(); err != nil {
		return nil, err
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeTelemetry() error {
	otelCfg := infrastructure.OTelConfigFromTelemetry(a.Config.Telemetry, contracts.Version)
	providers, err := infrastructure.InitializeOTel(otelCfg, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	meter := providers.MeterOrNoop()
	metrics, err := infrastructure.CreateBusinessMetrics(meter)
	if err != nil {
		a.Logger.Warn("Failed to create business metrics", slog.String("error", err.Error()))
	} else {
		a.Metrics = metrics
	}

	if err := infrastructure.RegisterSystemMetrics(meter, a.startTime); err != nil {
		a.Logger.Warn("Failed to register system metrics", slog.String("error", err.Error()))
	}
	return nil
}

func (a *Application) initializeServices() {
	a.WebSocketHub = ws.NewHub(a.Metrics, a.Logger)
	a.upgrader = ws.NewUpgrader(a.Config.WebSocket, a.Config.Security.AllowedOrigins)

	cache := services.NewDatasetCache(a.Logger)
	a.Services = &ServiceContainer{
		Cache:     cache,
		Dashboard: services.NewDashboardService(a.Config.Dashboard, cache, a.WebSocketHub, a.Metrics, a.Logger),
		Health:    services.NewHealthService(a.Paths.DataDir, cache, a.WebSocketHub, a.Logger),
	}
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// Websocket upgrades bypass timeouts and response wrappers.
	r.Get(config.WebSocketEndpoint, a.handleWebSocket)

	if a.OTelProviders != nil && a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	validator := customMiddleware.NewValidator(a.Logger)
	healthHandler := httpHandlers.NewHealthHandler(a.Services.Health, a.Logger)
	clientLogHandler := httpHandlers.NewClientLogHandler(validator, a.ErrorHandler, a.Logger)
	dashboardHandler := httpHandlers.NewDashboardHandler(
		a.Services.Dashboard,
		validator,
		a.Config.Dashboard.MaxUploadBytes(),
		a.Logger,
		a.ErrorHandler,
	)

	r.Group(func(r chi.Router) {
		if a.OTelProviders != nil {
			otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
			if err != nil {
				a.Logger.Warn("Failed to create OTel middleware", slog.String("error", err.Error()))
			} else {
				r.Use(otelMiddleware.Handler)
			}
		}
		r.Use(customMiddleware.BusinessMetricsMiddleware(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			limiter := customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			)
			r.Use(limiter.Handler)
		}

		if a.Config.Server.WriteTimeout > 0 {
			r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout))
		}

		r.Route(config.APIBasePath, func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)

			r.With(customMiddleware.ContentTypeValidator("application/json")).
				Post("/client-log", clientLogHandler.Handle)

			dashboardHandler.RegisterRoutes(r)
		})
	})

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// LoadDefaultWorkbook loads the configured workbook when LoadOnStart is
// set, falling back to the newest workbook in the data directory. Failures
// are logged and leave the server waiting for an upload.
func (a *Application) LoadDefaultWorkbook(ctx context.Context) {
	if !a.Config.Dashboard.LoadOnStart {
		return
	}

	path := a.Paths.DefaultWorkbook
	if !config.FileExists(path) {
		latest, ok, err := files.NewDiscovery(a.Paths.BaseDir).LatestWorkbook(a.Paths.DataDir)
		if err != nil || !ok {
			a.Logger.InfoContext(ctx, "Default workbook not found, waiting for upload",
				slog.String("path", path),
				slog.String("data_dir", a.Paths.DataDir))
			return
		}
		a.Logger.InfoContext(ctx, "Default workbook not found, using latest workbook in data directory",
			slog.String("path", latest.Path),
			slog.Time("modified", latest.ModTime))
		path = latest.Path
	}

	validator := files.NewWorkbookValidator(a.Config.Dashboard.MaxUploadBytes(), a.Logger)
	if err := validator.ValidateWorkbook(path); err != nil {
		a.Logger.WarnContext(ctx, "Default workbook rejected",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	ds, err := a.Services.Dashboard.LoadFile(ctx, path)
	if err != nil {
		a.Logger.WarnContext(ctx, "Failed to load default workbook",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	a.Logger.InfoContext(ctx, "Default workbook loaded",
		slog.String("path", path),
		slog.Int("networks", len(ds.Networks)))
}

// Start starts the application. Server failures call cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("address", a.Server.Addr),
		slog.String("version", contracts.Version),
		slog.String("data_dir", a.Paths.DataDir))

	a.WebSocketHub.Start()
	a.LoadDefaultWorkbook(ctx)

	go func() {
		a.Logger.InfoContext(ctx, "HTTP server listening", slog.String("address", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server failed", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		a.Logger.ErrorContext(ctx, "Shutdown completed with errors", slog.String("error", err.Error()))
		return err
	}

	a.Logger.InfoContext(ctx, "Application stopped", slog.Duration("uptime", time.Since(a.startTime)))
	return nil
}

// Run starts the application and blocks until SIGINT or SIGTERM
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	<-ctx.Done()
	a.Logger.Info("Shutdown signal received")

	return a.Stop(context.Background())
}

func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := ws.ServeWS(a.WebSocketHub, a.upgrader, a.Config.WebSocket, w, r, a.Logger); err != nil {
		a.Logger.WarnContext(r.Context(), "WebSocket upgrade failed",
			slog.String("remote_addr", customMiddleware.GetRealIP(r)),
			slog.String("error", err.Error()))
	}
}
