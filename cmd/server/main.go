package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/rentalworks/backend/internal/application/billing"
	catalogapp "github.com/rentalworks/backend/internal/application/catalog"
	financeapp "github.com/rentalworks/backend/internal/application/finance"
	"github.com/rentalworks/backend/internal/domain/billing"
	"github.com/rentalworks/backend/internal/domain/finance"
	"github.com/rentalworks/backend/internal/infrastructure/cache"
	"github.com/rentalworks/backend/internal/infrastructure/config"
	"github.com/rentalworks/backend/internal/infrastructure/logger"
	"github.com/rentalworks/backend/internal/infrastructure/persistence"
	"github.com/rentalworks/backend/internal/interfaces/http/handler"
	"github.com/rentalworks/backend/internal/interfaces/http/middleware"
	"github.com/rentalworks/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting RentalWorks Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	productRepo := persistence.NewGormRentalProductRepository(db.DB)
	invoiceRepo := persistence.NewGormRentalInvoiceRepository(db.DB)

	// Per-company reconciliation lock. Redis is authoritative when reachable;
	// a single-process in-memory locker keeps local development working
	// without one.
	var locker financeapp.CompanyLocker
	redisLocker, err := cache.NewRedisCompanyLocker(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Billing.ReconcileLockTTL)
	if err != nil {
		if cfg.App.Env == "production" {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Warn("Redis unavailable, using in-process reconciliation locks", zap.Error(err))
		locker = cache.NewInMemoryCompanyLocker()
	} else {
		defer func() {
			if err := redisLocker.Close(); err != nil {
				log.Error("Error closing Redis connection", zap.Error(err))
			}
		}()
		locker = redisLocker
		log.Info("Redis connected successfully")
	}

	// Resolve the configured invoice tax rate policy
	ratePolicy, err := billing.NewRatePolicy(billing.RatePolicyName(cfg.Billing.RatePolicy))
	if err != nil {
		log.Fatal("Invalid billing configuration", zap.Error(err))
	}
	log.Info("Billing rate policy resolved", zap.String("policy", cfg.Billing.RatePolicy))

	// Initialize application services
	productService := catalogapp.NewRentalProductService(productRepo)
	invoiceService := billingapp.NewInvoiceService(productRepo, invoiceRepo, ratePolicy)
	paymentService := financeapp.NewPaymentService(invoiceRepo, finance.NewReconciliationService(), locker)

	// Initialize handlers
	productHandler := handler.NewRentalProductHandler(productService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID first so every later stage can log it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(productHandler).
		Register(invoiceHandler).
		Register(paymentHandler).
		Setup()

	// Simple ping for basic liveness probes
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports process health including database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
