package main

//go:generate swag init --v3.1 -g main.go -d ./,../../internal/interfaces/http/handler,../../internal/application -o ../../docs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/retailpos/backend/docs"
	appbilling "github.com/retailpos/backend/internal/application/billing"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
	identityapp "github.com/retailpos/backend/internal/application/identity"
	"github.com/retailpos/backend/internal/application/jobs"
	partnerapp "github.com/retailpos/backend/internal/application/partner"
	printingapp "github.com/retailpos/backend/internal/application/printing"
	reportapp "github.com/retailpos/backend/internal/application/report"
	salesapp "github.com/retailpos/backend/internal/application/sales"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"github.com/retailpos/backend/internal/infrastructure/cache"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/event"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"github.com/retailpos/backend/internal/infrastructure/pix"
	"github.com/retailpos/backend/internal/infrastructure/printing"
	"github.com/retailpos/backend/internal/infrastructure/scheduler"
	"github.com/retailpos/backend/internal/infrastructure/storage"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"github.com/retailpos/backend/internal/interfaces/http/handler"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
	"github.com/retailpos/backend/internal/interfaces/http/router"
)

//	@title			Retail POS API
//	@version		1.0
//	@description	Multi-tenant point of sale and installment billing backend: sales, carnê installments, payments and receivables reports.

//	@contact.name	API Support
//	@contact.url	https://github.com/retailpos/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// Version is stamped at build time with -ldflags "-X main.Version=..."
var Version = "dev"

const metricsCollectionInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logConfig := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logConfig)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// Telemetry comes first so the final logger can tee into the OTLP log pipeline
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log, err := logger.New(logConfig, providers.LogCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()
	defer func() { _ = providers.Shutdown(context.Background()) }()

	log.Info("Starting Retail POS backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeURL,
		ApplicationName: cfg.Telemetry.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env, "version": Version},
	}, log)
	if err != nil {
		log.Warn("Profiler disabled", zap.Error(err))
	} else {
		if profiler.IsEnabled() {
			providers.EnableSpanProfiles()
		}
		defer func() { _ = profiler.Stop() }()
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:             cfg.Database.DBName,
		SlowQueryThreshold: cfg.Database.SlowQuery,
	}, log); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	// PostgreSQL schemas are managed by cmd/migrate; sqlite is for local runs
	if !db.IsPostgres() {
		if err := db.DB.AutoMigrate(append(models.All(), &scheduler.JobRunRecord{})...); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully", zap.String("driver", db.DB.Dialector.Name()))

	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory stores", zap.Error(err))
		} else {
			redisClient = client
			defer func() { _ = client.Close() }()
		}
	}

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}
	cacheFactory := cache.NewFactory(redisClient, cache.WithLogger(log))
	idempotencyStore := cacheFactory.IdempotencyStore()
	if closer, ok := idempotencyStore.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}
	reportCache := cacheFactory.ReportCache()

	// Repositories
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	installmentRepo := persistence.NewGormInstallmentRepository(db.DB)
	reportRepo := persistence.NewGormReportRepository(db.DB)
	snapshotRepo := persistence.NewGormSnapshotRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Domain events are delivered synchronously after commit
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(reportapp.NewCacheInvalidationHandler(reportCache, log))

	var meter = providers.Meter(cfg.Telemetry.ServiceName)
	if providers.MetricsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:  meter,
			Logger: log,
			Source: reportRepo,
		})
		if err != nil {
			log.Warn("Business metrics disabled", zap.Error(err))
		} else {
			eventBus.Subscribe(businessMetrics)
			businessMetrics.StartPeriodicCollection(ctx, companyRepo, metricsCollectionInterval)
			defer businessMetrics.Stop()
		}
	} else {
		meter = nil
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(companyRepo, userRepo, persistence.NewGormRegistrationScope(db.DB), jwtService, blacklist, log)
	companyService := identityapp.NewCompanyService(companyRepo, log)
	userService := identityapp.NewUserService(userRepo, jwtService, blacklist, log)
	productService := catalogapp.NewProductService(productRepo, log)
	locations := appshared.NewCompanyLocations(companyRepo)
	customerService := partnerapp.NewCustomerService(customerRepo, installmentRepo, log)
	customerService.SetLocations(locations)

	saleService := salesapp.NewSaleService(saleRepo, installmentRepo, txScope, log)
	saleService.SetEventPublisher(eventBus)
	saleService.SetLocations(locations)

	installmentService := appbilling.NewInstallmentService(installmentRepo, customerRepo, txScope, log)
	installmentService.SetEventPublisher(eventBus)
	installmentService.SetIdempotencyStore(idempotencyStore, cfg.Billing.IdempotencyTTL)
	installmentService.SetLocations(locations)

	reportService := reportapp.NewReportService(reportRepo, snapshotRepo, companyRepo, reportCache, log)
	reportService.SetCacheTTL(cfg.Report.CacheTTL)

	objectStorage := setupStorage(ctx, cfg, log)

	var pixService *appbilling.PixChargeService
	if cfg.Pix.Enabled {
		generator, err := pix.NewGenerator(cfg.Pix.NodeID, cfg.Pix.QRSize)
		if err != nil {
			log.Fatal("Failed to initialize PIX generator", zap.Error(err))
		}
		pixService = appbilling.NewPixChargeService(installmentRepo, companyRepo, generator, objectStorage, log)
	}

	var renderer printing.PDFRenderer
	if cfg.Printing.Enabled {
		chrome := printing.NewChromedpRenderer(printing.ChromedpConfig{
			DefaultTimeout: cfg.Printing.Timeout,
			RemoteURL:      cfg.Printing.RemoteURL,
			NoSandbox:      cfg.Printing.NoSandbox,
			Logger:         log,
		})
		defer func() { _ = chrome.Close() }()
		renderer = chrome
	}
	documentService := printingapp.NewDocumentService(
		saleRepo, installmentRepo, customerRepo, companyRepo,
		printing.NewTemplateEngine(), renderer, objectStorage, log,
	)

	if cfg.Scheduler.Enabled {
		stopJobs, err := startMaintenance(ctx, cfg, db, installmentService, companyRepo, reportService, log)
		if err != nil {
			log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
		}
		defer stopJobs()
	}

	middleware.SetupValidator()

	healthChecks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, Version, healthChecks)
	systemHandler.SetDatabaseStats(func() (handler.DatabaseStats, error) {
		stats, err := db.Stats()
		if err != nil {
			return handler.DatabaseStats{}, err
		}
		return handler.DatabaseStats{
			MaxOpenConnections: stats.MaxOpenConnections,
			OpenConnections:    stats.OpenConnections,
			InUse:              stats.InUse,
			Idle:               stats.Idle,
			WaitCount:          stats.WaitCount,
			WaitDuration:       stats.WaitDuration.String(),
		}, nil
	})

	engine := router.NewEngine(router.EngineConfig{
		Config:        cfg,
		Logger:        log,
		JWTService:    jwtService,
		Blacklist:     blacklist,
		TenantChecker: companyService,
		Meter:         meter,
	}, router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Company:     handler.NewCompanyHandler(companyService),
		User:        handler.NewUserHandler(userService),
		Product:     handler.NewProductHandler(productService),
		Customer:    handler.NewCustomerHandler(customerService, installmentService),
		Sale:        handler.NewSaleHandler(saleService, documentService),
		Installment: handler.NewInstallmentHandler(installmentService, pixService),
		Report:      handler.NewReportHandler(reportService),
		System:      systemHandler,
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

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// setupStorage returns the S3 store, or nil when object storage is disabled.
// Without storage PIX charges carry no QR link and documents are HTML only.
func setupStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) appshared.ObjectStorage {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled")
		return nil
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
	)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Fatal("Failed to prepare storage bucket", zap.Error(err), zap.String("bucket", s3.Bucket()))
	}
	return s3
}

// startMaintenance runs the overdue and snapshot jobs for every active
// company on the configured interval. The returned func stops both loops.
func startMaintenance(
	ctx context.Context,
	cfg *config.Config,
	db *persistence.Database,
	overdue jobs.OverdueMarker,
	tenants scheduler.TenantProvider,
	reports jobs.SnapshotRefresher,
	log *zap.Logger,
) (func(), error) {
	executor := jobs.NewMaintenanceExecutor(overdue, reports, log)
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		RetryAttempts:     cfg.Scheduler.RetryAttempts,
		RetryDelay:        cfg.Scheduler.RetryDelay,
	}, executor, log, scheduler.WithRecorder(scheduler.NewJobHistoryRepository(db.DB)))
	if err := sched.Start(ctx); err != nil {
		return nil, err
	}

	trigger := scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
		Interval:   cfg.Scheduler.RefreshInterval,
		RunOnStart: cfg.Scheduler.RunOnStart,
	}, sched, tenants, log)
	trigger.SetBeforeRun(executor.BeforeRun)
	if err := trigger.Start(ctx); err != nil {
		_ = sched.Stop(context.Background())
		return nil, err
	}
	log.Info("Maintenance scheduler started",
		zap.Duration("interval", cfg.Scheduler.RefreshInterval),
		zap.Int("workers", cfg.Scheduler.MaxConcurrentJobs))

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := trigger.Stop(stopCtx); err != nil {
			log.Error("Error stopping cron trigger", zap.Error(err))
		}
		if err := sched.Stop(stopCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}, nil
}
