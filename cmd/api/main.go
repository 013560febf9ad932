package main

import (
	"context"
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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/usamapuri/frontbench-api/docs" // Swagger docs
	"github.com/usamapuri/frontbench-api/internal/config"
	"github.com/usamapuri/frontbench-api/internal/database"
	"github.com/usamapuri/frontbench-api/internal/handlers"
	"github.com/usamapuri/frontbench-api/internal/jobs"
	"github.com/usamapuri/frontbench-api/internal/middleware"
	"github.com/usamapuri/frontbench-api/internal/models"
	"github.com/usamapuri/frontbench-api/internal/repository"
	"github.com/usamapuri/frontbench-api/internal/services"
	"github.com/usamapuri/frontbench-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Frontbench Billing API
// @version 1.0
// @description Multi-tenant billing and ledger API for school management: invoicing, payments, allocations and student ledgers.

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
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
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Run schema migrations
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("Database schema up to date")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, worker)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
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

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication + tenant resolution)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		protected.Use(middleware.Tenant())
		{
			// Billing mutations (admin and bursar)
			billing := protected.Group("/billing")
			billing.Use(middleware.RequireRole(models.RoleAdmin, models.RoleBursar))
			{
				billing.POST("/invoices/generate", h.Invoice.Generate)
				billing.POST("/invoices/prorated", h.Invoice.Prorated)
				billing.POST("/invoices/:invoice_id/payments", h.Payment.Partial)
				billing.POST("/invoices/:invoice_id/adjustments", h.Invoice.Adjust)
				billing.POST("/payments/advance", h.Payment.Advance)
				billing.POST("/payments/:payment_id/reverse", h.Payment.Reverse)
			}

			// Read access (any authenticated role)
			readers := protected.Group("")
			readers.Use(middleware.RequireRole(models.RoleAdmin, models.RoleBursar, models.RoleViewer))
			{
				readers.GET("/billing/invoices", h.Invoice.Index)
				readers.GET("/billing/invoices/:invoice_id", h.Invoice.Show)
				readers.GET("/billing/payments", h.Payment.Index)
				readers.GET("/billing/payments/:payment_id", h.Payment.Show)

				readers.GET("/students/:student_id/ledger", h.Ledger.Show)
				readers.GET("/students/:student_id/credit", h.Ledger.Credit)

				readers.GET("/reports/student_ledger_xlsx", h.Report.StudentLedgerXLSX)
				readers.GET("/reports/collections_xlsx", h.Report.CollectionsXLSX)
				readers.GET("/reports/collections_csv", h.Report.CollectionsCSV)
			}

			// Audits (admin only)
			protected.GET("/audits", middleware.RequireRole(models.RoleAdmin), h.Audit.Index)
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Flip unpaid invoices past due date to overdue every hour
	worker.ScheduleEveryImmediate(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Refreshing overdue invoices...")
		flipped, err := svcs.Billing.RefreshOverdueInvoices(ctx)
		if err != nil {
			return err
		}
		if flipped > 0 {
			logger.Info("[Job] Invoices marked overdue", "count", flipped)
		}
		return nil
	})

	// Generate invoices for due billing schedules once a day
	worker.ScheduleDaily(2, func(ctx context.Context) error {
		logger.Info("[Job] Running due billing schedules...")
		billed, err := svcs.Billing.RunDueSchedules(ctx, time.Now())
		if err != nil {
			return err
		}
		logger.Info("[Job] Billing schedules processed", "billed", billed)
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
