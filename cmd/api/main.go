package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/config"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/aggregation"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/ai/agents"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/ai/llm"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/api/handlers"
	custommw "github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/api/middleware"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/cache"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/database"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/export"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/jobs"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/logger"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/metrics"
	custommiddleware "github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/middleware"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/pdf"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/reports"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/storage"
	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	appLogger := logger.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 0.2,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// Initialize database with SSL configuration
	sslCfg := &database.SSLConfig{
		Mode:         cfg.DBSSLMode,
		CertPath:     cfg.DBSSLCertPath,
		KeyPath:      cfg.DBSSLKeyPath,
		RootCertPath: cfg.DBSSLRootCertPath,
	}
	db, err := database.Open(startCtx, cfg.DatabaseURL, database.DefaultPoolConfig(), sslCfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Repositories
	reportRepo := database.NewReportRepository(db)
	aiRequestRepo := database.NewAIRequestRepository(db)
	metricRepo := database.NewMetricRepository(db)
	membership := database.NewMembershipChecker(db)
	var businesses domain.BusinessRepository = database.NewBusinessRepository(db)

	// Redis is optional: it adds generation locks and the business cache
	var locker domain.Locker
	var redisClient *cache.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		locker = cache.NewLocker(redisClient)
		businesses = cache.NewBusinessCache(businesses, redisClient, cfg.BusinessCacheTTL, prometheusMetrics, appLogger)
		log.Printf("✅ Redis locks and business cache enabled (ttl: %s)", cfg.BusinessCacheTTL)
	} else {
		log.Printf("ℹ️  Redis disabled, overlapping generations are last-write-wins")
	}

	// Object storage
	var objects domain.ObjectStorage
	var localStorage *storage.LocalStorage
	switch cfg.StorageType {
	case "s3":
		objects, err = storage.NewS3Storage(startCtx, storage.S3Config{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			PublicBaseURL:   cfg.StoragePublicBaseURL,
		})
		if err != nil {
			log.Fatalf("❌ Failed to initialize S3 storage: %v", err)
		}
		log.Printf("✅ S3 storage initialized (bucket: %s)", cfg.S3Bucket)
	default:
		localStorage, err = storage.NewLocalStorage(cfg.StorageLocalPath, cfg.StoragePublicBaseURL)
		if err != nil {
			log.Fatalf("❌ Failed to initialize local storage: %v", err)
		}
		objects = localStorage
		log.Printf("✅ Local storage initialized (path: %s)", cfg.StorageLocalPath)
	}

	// LLM outline agent
	var outliner reports.Outliner
	if cfg.OpenAIAPIKey != "" || cfg.OpenAIBaseURL != "" {
		client := llm.NewOpenAIClient(llm.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.LLMTimeout,
		}, appLogger)
		outliner = agents.NewOutlineAgent(client, appLogger)
		log.Printf("✅ AI outline agent initialized (model: %s)", cfg.OpenAIModel)
	} else {
		log.Printf("ℹ️  AI drafting disabled (no OPENAI_API_KEY configured)")
	}

	// Services
	aggregator := aggregation.NewService(metricRepo)
	reportService := reports.NewService(reports.Dependencies{
		Reports:    reportRepo,
		AIRequests: aiRequestRepo,
		Businesses: businesses,
		Aggregator: aggregator,
		Outliner:   outliner,
		Renderer:   pdf.NewRenderer("GreenLedger"),
		Storage:    objects,
		Locker:     locker,
		Metrics:    prometheusMetrics,
		Logger:     appLogger,
		LockTTL:    cfg.ReportLockTTL,
	})
	exportService := export.NewService(aggregator)

	// Stale report sweeper
	sweeper := jobs.NewStaleSweeper(reportService, locker, cfg.StaleReportAfter, log.Default())
	cronManager := jobs.NewCronManager(sweeper, cfg.SweepSchedule, log.Default())
	if err := cronManager.SetupJobs(); err != nil {
		log.Fatalf("❌ Failed to schedule jobs: %v", err)
	}
	cronManager.Start()

	// Keep the pool gauge current
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			prometheusMetrics.UpdateDBConnections(float64(db.Stats().OpenConnections))
		}
	}()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			appLogger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	// Prometheus metrics middleware
	e.Use(prometheusMetrics.Middleware())

	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.CORSAllowedOrigins)))
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))

	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	defer globalRateLimiter.Stop()
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Health check endpoints (public)
	checks := map[string]handlers.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	healthHandler := handlers.NewHealthHandler(checks)
	e.GET("/health", healthHandler.Health)

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Local storage serves rendered reports under the same public prefix as the platform
	if localStorage != nil {
		e.GET("/storage/v1/object/public/*", echo.WrapHandler(localStorage.Handler()))
	}

	functionsHandler := handlers.NewFunctionsHandler(reportService, membership)
	reportHandler := handlers.NewReportHandler(reportService, membership)
	exportHandler := handlers.NewExportHandler(exportService, membership)

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Health)

	protected := v1.Group("", custommw.JWTMiddleware(cfg.JWTSecret))

	functions := protected.Group("/functions")
	functions.POST("/generate-report", functionsHandler.GenerateReport)
	functions.POST("/generate-ai-report", functionsHandler.GenerateAIReport)
	functions.POST("/download-report", functionsHandler.DownloadReport)

	business := protected.Group("/businesses/:business_id")
	business.POST("/report-templates", reportHandler.CreateTemplate)
	business.POST("/reports", reportHandler.CreateReport)
	business.GET("/reports", reportHandler.ListReports)
	business.GET("/metrics/export", exportHandler.MetricsWorkbook)

	protected.GET("/report-templates/:id", reportHandler.GetTemplate)
	protected.GET("/reports/:id", reportHandler.GetReport)
	protected.POST("/reports/:id/retry", reportHandler.RetryReport)
	protected.GET("/reports/:id/preview", reportHandler.PreviewReport)

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 Report API starting on %s", address)
	log.Printf("📝 Log level: %s, Log format: %s", cfg.LogLevel, cfg.LogFormat)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("⏰ Cron jobs: stale report sweep (%s, threshold %s)", cfg.SweepSchedule, cfg.StaleReportAfter)

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	// Stop cron jobs
	cronManager.Stop()
	log.Println("✅ Cron jobs stopped")

	// Gracefully shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
