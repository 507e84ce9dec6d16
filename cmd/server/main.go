package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	documentapp "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/application/document"
	integrationapp "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/application/integration"
	reportapp "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/application/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/auth"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/cache"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/github"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/logger"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/mail"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/persistence"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/rendering"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/scheduler"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/storage"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/telemetry"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/interfaces/http/handler"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/interfaces/http/middleware"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			BFSE Reports API
//	@version		1.0
//	@description	Document generation, report summaries, scheduled delivery and GitHub proxy functions

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	telemetry.ServiceVersion = version
	provider, err := telemetry.NewProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := provider.BridgeLogger(baseLog)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting BFSE reports service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatal("Invalid timezone", zap.Error(err))
	}
	clock := shared.SystemClock(loc)

	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewMetrics()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Cache and delivery locks. Only a single-instance development setup may
	// fall back to memory.
	backend, err := cache.NewBackend(ctx, cfg.Redis, cfg.App.Env != "production", log)
	if err != nil {
		log.Fatal("Failed to initialize cache backend", zap.Error(err))
	}
	defer func() {
		_ = backend.Close()
	}()

	// Renderers
	registry, closeRenderers, err := rendering.NewDefaultRegistry(cfg.Document, log)
	if err != nil {
		log.Fatal("Failed to initialize renderers", zap.Error(err))
	}
	defer func() {
		_ = closeRenderers()
	}()

	// Repositories
	records := persistence.NewGormRecordStore(db.DB)
	savedReports := persistence.NewGormSavedReportRepository(db.DB)
	runs := persistence.NewGormScheduleRunRepository(db.DB)

	// Application services
	org := document.Organisation{
		Name:    cfg.Document.OrganisationName,
		Address: cfg.Document.Address,
		Phone:   cfg.Document.Phone,
		Email:   cfg.Document.Email,
	}
	formatter := document.NewFormatter(cfg.Document.Currency)

	documentOpts := []documentapp.Option{}
	deliveryOpts := []reportapp.DeliveryOption{}
	githubOpts := []integrationapp.GitHubOption{}
	summaryOpts := []reportapp.SummaryOption{}
	if metrics != nil {
		documentOpts = append(documentOpts, documentapp.WithMetrics(metrics))
		deliveryOpts = append(deliveryOpts, reportapp.WithDeliveryMetrics(metrics))
		githubOpts = append(githubOpts, integrationapp.WithUpstreamMetrics(metrics))
	}
	if cfg.Cache.Enabled {
		summaryOpts = append(summaryOpts, reportapp.WithSummaryCache(backend.Cache, cfg.Cache.SummaryTTL))
	}

	if cfg.Storage.Enabled {
		archive, err := storage.NewS3Archive(ctx, cfg.Storage,
			storage.WithLogger(log),
			storage.WithLinkTTL(cfg.Storage.LinkTTL),
		)
		if err != nil {
			log.Fatal("Failed to initialize document archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Warn("Document archive bucket check failed", zap.Error(err))
		}
		documentOpts = append(documentOpts, documentapp.WithArchive(archive))
		deliveryOpts = append(deliveryOpts, reportapp.WithDeliveryArchive(archive, cfg.Storage.LinkTTL))
		log.Info("Document archive enabled", zap.String("bucket", archive.Bucket()))
	}

	documentService := documentapp.NewService(
		documentapp.NewBuilder(org, formatter, cfg.Document.Footer),
		registry, clock, log, documentOpts...,
	)
	summaryService := reportapp.NewSummaryService(
		records,
		reportapp.NewDocumentBuilder(org, formatter, cfg.Document.Footer),
		registry, clock, log, summaryOpts...,
	)
	savedReportService := reportapp.NewSavedReportService(savedReports, runs, clock, log)
	deliveryService := reportapp.NewDeliveryService(
		savedReports, runs, summaryService, registry,
		mail.NewClient(cfg.Mail, log),
		clock, log, deliveryOpts...,
	)
	githubService := integrationapp.NewGitHubService(github.NewClient(cfg.GitHub, log), log, githubOpts...)

	// Schedule dispatcher
	var schedulerStatus handler.SchedulerStatusProvider
	if cfg.Scheduler.Enabled {
		dispatcher, err := scheduler.NewDispatcher(scheduler.DispatcherConfig{
			Enabled:      true,
			PollInterval: cfg.Scheduler.PollInterval,
			BatchSize:    cfg.Scheduler.BatchSize,
			LockTTL:      cfg.Scheduler.LockTTL,
			Pool: scheduler.SchedulerConfig{
				MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
				QueueSize:         cfg.Scheduler.QueueSize,
				JobTimeout:        cfg.Scheduler.JobTimeout,
				RetryAttempts:     cfg.Scheduler.RetryAttempts,
				RetryDelay:        cfg.Scheduler.RetryDelay,
			},
		}, savedReports, backend.Locker, deliveryService, clock, log)
		if err != nil {
			log.Fatal("Failed to create schedule dispatcher", zap.Error(err))
		}
		if err := dispatcher.Start(ctx); err != nil {
			log.Fatal("Failed to start schedule dispatcher", zap.Error(err))
		}
		defer func() {
			if err := dispatcher.Stop(context.Background()); err != nil {
				log.Error("Error stopping schedule dispatcher", zap.Error(err))
			}
		}()
		schedulerStatus = dispatcher
		log.Info("Schedule dispatcher started",
			zap.Duration("poll_interval", cfg.Scheduler.PollInterval),
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.String("lock_backend", backend.Kind),
		)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Close()
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine := router.NewEngine(router.Dependencies{
		HTTP:        cfg.HTTP,
		Tracing:     middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: cfg.Telemetry.Enabled},
		Logger:      log,
		Validator:   auth.NewJWTService(cfg.JWT),
		Metrics:     metrics,
		RateLimiter: rateLimiter,
		System: handler.NewSystemHandler(version, map[string]handler.HealthCheck{
			"database": db.Ping,
		}),
		Functions: handler.NewFunctionHandler(documentService, githubService, deliveryService),
		Reports:   handler.NewReportHandler(summaryService, savedReportService, schedulerStatus),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
