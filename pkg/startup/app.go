package startup

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/internal/repositories/memstore"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/health"
	"github.com/Ramsey-B/fern/pkg/identity"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/routes"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

// App is a started fern instance: its infrastructure, the identity engine and health checks
type App struct {
	Config *config.Config
	Logger ectologger.Logger
	Engine *identity.Engine
	Health *health.Checker

	startup         *Startup
	shutdownTracing func(context.Context) error
}

// NewLogger builds the zap-backed logger, console formatted when PRETTY_LOGS is set
func NewLogger(cfg *config.Config) (ectologger.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapConfig.Level = level
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build logger")
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

// New starts the configured infrastructure and wires the identity engine on top of it
func New(ctx context.Context, cfg *config.Config, logger ectologger.Logger) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Health:  health.NewChecker(cfg.Version),
		startup: NewStartup(logger, cfg.StartupMaxAttempts),
	}

	tc := TracingConfig(cfg)
	tc.Logger = logger
	shutdown, err := tracing.Init(ctx, tc)
	if err != nil {
		return nil, err
	}
	app.shutdownTracing = shutdown

	deps := identity.Dependencies{Logger: logger}

	var db *DatabaseDependency
	if cfg.StoreDriver == config.StoreDriverPostgres {
		db = NewDatabaseDependency(cfg, logger)
		app.startup.AddDependency(db)
		if cfg.DatabaseMigrateOnStart {
			app.startup.AddDependency(NewMigrationDependency(cfg, logger, db))
		}
	}

	var cache *RedisDependency
	if cfg.CacheEnabled() {
		cache = NewRedisDependency(cfg, logger)
		app.startup.AddDependency(cache)
	}

	var producer *KafkaDependency
	if cfg.KafkaEnabled {
		producer = NewKafkaDependency(cfg, logger)
		app.startup.AddDependency(producer)
	}

	if err := app.startup.Start(ctx); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	if db != nil {
		deps.Masters = repositories.NewMasterExerciseRepository(db.DB, logger)
		deps.Entries = repositories.NewTemplateExerciseRepository(db.DB, logger)
		deps.Links = repositories.NewExerciseLinkRepository(db.DB, logger)
		app.Health.AddCritical(DependencyDatabase, db.DB.PingContext)
	} else {
		logger.Warn("Using the in-memory store; data is lost on restart")
		store := memstore.New()
		deps.Masters = store.Masters()
		deps.Entries = store.Entries()
		deps.Links = store.Links()
	}

	if cache != nil {
		deps.Cache = redis.NewMasterCache(cache.Client, cfg.RedisMasterCacheTTL, logger)
		app.Health.AddOptional(DependencyRedis, cache.Client.Ping)
	}

	if producer != nil {
		deps.Events = events.NewEmitter(producer.Producer, logger)
	}

	app.Engine = identity.New(deps)
	return app, nil
}

// TracingConfig selects the OTLP exporter when enabled and logs spans otherwise
func TracingConfig(cfg *config.Config) tracing.Config {
	tc := tracing.Config{ServiceName: cfg.AppName, Exporter: "log"}
	if cfg.OTLPEnabled {
		tc.Exporter = "otlp"
		tc.OTLP = exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
			Timeout:  10 * time.Second,
		}
	}
	return tc
}

// Server builds the echo server with the full middleware stack and every route mounted
func (a *App) Server(ctx context.Context) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(a.Logger)

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.Config.AllowOrigins,
		AllowMethods: a.Config.AllowMethods,
	}))
	e.Use(otelecho.Middleware(a.Config.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(a.Logger))

	a.Health.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	if a.Config.AuthEnabled {
		verify, err := middleware.OIDCVerifier(ctx, a.Config.AuthIssuerURL, a.Config.AuthClientID)
		if err != nil {
			return nil, err
		}
		api.Use(middleware.Authentication(a.Logger, verify))
	} else {
		a.Logger.Warn("Authentication is disabled; the owner is read from the X-User-ID header")
		api.Use(middleware.HeaderAuth())
	}
	routes.Register(api, a.Engine, a.Logger)

	return e, nil
}

// Run serves HTTP until ctx is cancelled, then shuts the server down gracefully
func (a *App) Run(ctx context.Context) error {
	e, err := a.Server(ctx)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Port),
		Handler:           e,
		ReadTimeout:       time.Duration(a.Config.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(a.Config.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(a.Config.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(a.Config.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    a.Config.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.WithField("port", a.Config.Port).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	a.Health.SetReady(true)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Logger.Info("Shutting down HTTP server")
	return server.Shutdown(shutdownCtx)
}

// Close stops the infrastructure and flushes pending spans
func (a *App) Close(ctx context.Context) error {
	err := a.startup.Stop(ctx)
	if a.shutdownTracing != nil {
		if terr := a.shutdownTracing(ctx); terr != nil && err == nil {
			err = terr
		}
	}
	return err
}
