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

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sjperalta/fintera-rentals/docs" // Swagger docs
	"github.com/sjperalta/fintera-rentals/internal/config"
	"github.com/sjperalta/fintera-rentals/internal/database"
	"github.com/sjperalta/fintera-rentals/internal/handlers"
	"github.com/sjperalta/fintera-rentals/internal/jobs"
	"github.com/sjperalta/fintera-rentals/internal/locking"
	"github.com/sjperalta/fintera-rentals/internal/metrics"
	"github.com/sjperalta/fintera-rentals/internal/middleware"
	"github.com/sjperalta/fintera-rentals/internal/repository"
	"github.com/sjperalta/fintera-rentals/internal/services"
	"github.com/sjperalta/fintera-rentals/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Fintera Rentals API
// @version 1.0
// @description Daily revenue and VAT recognition for car-rental contracts
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @securityDefinitions.apikey APIKeyAuth
// @in header
// @name X-API-Key
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment, cfg.LogLevel)

	// Initialize Sentry (GlitchTip) when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Contract locks: Redis when configured, otherwise in-process only
	locker, rdb := newLocker(cfg)

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Metrics
	registry := metrics.NewRegistry()
	recognitionMetrics := metrics.NewRecognition(registry)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "max_concurrent", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, locker, recognitionMetrics, cfg)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, worker, db, cfg.Location)

	// Setup router
	router := setupRouter(h, cfg, registry)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // synchronous recognition runs
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker; a running recognition finishes its current contract
	worker.Shutdown()
	logger.Info("Background worker stopped")

	if rdb != nil {
		_ = rdb.Close()
	}
	if err := database.Close(db); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func newLocker(cfg *config.Config) (locking.Locker, *redis.Client) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set: contract locks only cover this process")
		return locking.NewMemoryLocker(), nil
	}

	rdb, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to redis")
	return locking.NewRedisLocker(rdb), rdb
}

func setupRouter(h *handlers.Handlers, cfg *config.Config, registry *prometheus.Registry) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(metrics.Handler(registry)))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// External schedulers (API key)
		internal := v1.Group("/internal")
		internal.Use(middleware.APIKey(cfg.APIKeyHash))
		{
			internal.POST("/recognition/runs", h.Recognition.Trigger)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Finance staff
			staff := protected.Group("")
			staff.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAccountant))
			{
				staff.POST("/recognition/runs", h.Recognition.Run)

				staff.GET("/contracts", h.Contract.Index)
				staff.GET("/contracts/:contract_id", h.Contract.Show)
				staff.GET("/contracts/:contract_id/recognition", h.Contract.Recognition)
				staff.GET("/contracts/:contract_id/recognition/export", h.Contract.Export)

				staff.GET("/jobs/status", h.Job.Status)
			}

			// Contract status changes (admin only)
			admin := protected.Group("")
			admin.Use(middleware.RequireRole(middleware.RoleAdmin))
			{
				admin.POST("/contracts/:contract_id/activate", h.Contract.Activate)
				admin.POST("/contracts/:contract_id/complete", h.Contract.Complete)
				admin.POST("/contracts/:contract_id/void", h.Contract.Void)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	// Daily revenue and VAT recognition for active contracts
	worker.ScheduleEvery("revenue-recognition", cfg.RecognitionInterval, cfg.RecognitionRunOnStart, func(ctx context.Context) error {
		logger.Info("[Job] Recognizing contract revenue...")
		summary, err := svcs.RecognitionJob.Run(ctx, services.RunOptions{Actor: "scheduler"})
		if err != nil {
			return err
		}
		if summary.Errors > 0 {
			return fmt.Errorf("%d contract(s) failed recognition", summary.Errors)
		}
		return nil
	})

	logger.Info("Scheduled recurring jobs", "recognition_interval", cfg.RecognitionInterval.String())
}
