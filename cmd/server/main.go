// cmd/server/main.go
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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"session-cache/internal/cache"
	"session-cache/internal/config"
	"session-cache/internal/handler"
	"session-cache/internal/observe"
	"session-cache/internal/ratelimit"
	"session-cache/internal/session"
	customLogger "session-cache/pkg/logger"
)

// gormWriter wraps our custom logger to implement gorm's logger.Writer interface
type gormWriter struct {
	logger *customLogger.Logger
}

// Printf implements the logger.Writer interface
func (w *gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Info(fmt.Sprintf(format, args...))
}

func main() {
	// Load environment variables from .env file (development only)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Initialize structured logger
	appLogger := customLogger.NewLogger()
	appLogger.Info("Starting Session Cache Service")

	// Load application configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Fatal("Failed to load configuration", "error", err)
	}

	// Select the cache backend; a failure here degrades rather than crashes
	store := buildStore(cfg, appLogger)

	// Outcome reporting: structured logs plus Prometheus counters
	observer := observe.Multi{
		observe.NewLogObserver(appLogger),
		observe.NewMetrics(),
	}

	// Fail-open cache client shared by the session store and rate limiter
	cacheClient := cache.NewClient(store,
		cache.WithObserver(observer),
		cache.WithTimeout(cfg.OperationTimeout),
	)
	if cacheClient.Degraded() {
		appLogger.Warn("Cache client is degraded, all operations will no-op")
	}

	// Admission control on top of the shared cache
	limiter := ratelimit.NewLimiter(cacheClient, appLogger, observer)

	// Conversation session store
	sessionStore := session.NewStore(cacheClient, appLogger, cfg.SessionTTL)

	// Initialize HTTP handler
	sessionHandler := handler.NewSessionHandler(sessionStore, cacheClient, appLogger)

	// Setup HTTP router with middleware
	router := setupRouter(sessionHandler, limiter, cfg, appLogger)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Start server in a goroutine for graceful shutdown
	go func() {
		appLogger.Info("Server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with 30 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}

	// Close cache connection
	if err := cacheClient.Close(); err != nil {
		appLogger.Error("Error closing cache connection", "error", err)
	}

	appLogger.Info("Server exited successfully")
}

// buildStore creates the configured cache backend. Returns nil on any
// failure so the service starts with a degraded client instead of crashing;
// cache outages degrade functionality, they never take the service down.
func buildStore(cfg *config.Config, log *customLogger.Logger) cache.Store {
	switch cfg.CacheBackend {
	case config.BackendMemory:
		log.Info("Using in-process cache store")
		return cache.NewMemoryStore(nil)

	case config.BackendPostgres:
		db, err := initDatabase(cfg, log)
		if err != nil {
			log.Warn("Failed to initialize database cache store, continuing without cache", "error", err)
			return nil
		}

		store, err := cache.NewDatabaseStore(db)
		if err != nil {
			log.Warn("Failed to migrate database cache store, continuing without cache", "error", err)
			return nil
		}

		log.Info("Using database cache store")
		return store

	default:
		store, err := cache.NewRedisStore(cache.RedisOptions{
			Addr:        cfg.RedisAddr(),
			Password:    cfg.RedisAuthToken,
			DB:          cfg.RedisDB,
			TLS:         cfg.RedisTLS,
			KeyPrefix:   cfg.CacheKeyPrefix,
			DialTimeout: cfg.ConnectTimeout,
			OpTimeout:   cfg.OperationTimeout,
		})
		if err != nil {
			log.Warn("Failed to connect to Redis, continuing without cache", "error", err)
			return nil
		}

		log.Info("Redis connection established")
		return store
	}
}

// initDatabase initializes the PostgreSQL connection with connection pooling
func initDatabase(cfg *config.Config, log *customLogger.Logger) (*gorm.DB, error) {
	writer := &gormWriter{logger: log}

	gormLogger := logger.New(
		writer, // Use our custom writer
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	// Connect to PostgreSQL with retry logic
	var db *gorm.DB
	var err error

	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		)

		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:                 gormLogger,
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
		})

		if err == nil {
			break
		}

		log.Warn("Failed to connect to database, retrying...", "attempt", i+1, "error", err)
		time.Sleep(5 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	// Get underlying SQL DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool for optimal performance
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Verify database connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection established successfully")
	return db, nil
}

// setupRouter configures the Gin router with middleware and routes
func setupRouter(sessionHandler *handler.SessionHandler, limiter *ratelimit.Limiter, cfg *config.Config, log *customLogger.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Apply global middleware
	router.Use(gin.Recovery()) // Panic recovery
	router.Use(handler.LoggerMiddleware(log))
	router.Use(handler.TimeoutMiddleware(15 * time.Second))
	router.Use(handler.LocalRateLimitMiddleware(cfg.RateLimitPerMinute))
	router.Use(handler.RateLimitMiddleware(limiter, cfg.RateLimitMaxRequests, cfg.RateLimitWindow))

	// Health and metrics endpoints (no authentication required)
	router.GET("/health", sessionHandler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(handler.AuthMiddleware(cfg))
	{
		// Conversation session endpoints
		v1.POST("/conversations", sessionHandler.CreateConversation)
		v1.GET("/conversations/:conversationID", sessionHandler.GetConversation)
		v1.POST("/conversations/:conversationID/messages", sessionHandler.AppendMessage)
		v1.DELETE("/conversations/:conversationID", sessionHandler.DeleteConversation)
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "endpoint not found",
		})
	})

	return router
}
