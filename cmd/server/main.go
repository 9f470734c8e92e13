package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/carttalk/carttalk-server/internal/adapter/ai/gemini"
	"github.com/carttalk/carttalk-server/internal/adapter/cache"
	"github.com/carttalk/carttalk-server/internal/adapter/http/fiber/handlers"
	"github.com/carttalk/carttalk-server/internal/adapter/http/fiber/middleware"
	"github.com/carttalk/carttalk-server/internal/adapter/queue"
	"github.com/carttalk/carttalk-server/internal/adapter/storage/postgres"
	wsAdapter "github.com/carttalk/carttalk-server/internal/adapter/websocket"
	"github.com/carttalk/carttalk-server/internal/observability/telemetry"
	"github.com/carttalk/carttalk-server/internal/service/auth"
	"github.com/carttalk/carttalk-server/internal/service/conversation"
	"github.com/carttalk/carttalk-server/internal/service/inventory"
	"github.com/carttalk/carttalk-server/internal/service/notification"
	"github.com/carttalk/carttalk-server/internal/service/order"
	"github.com/carttalk/carttalk-server/pkg/config"
)

const (
	serviceName    = "carttalk-server"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Initialize Logger
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting CartTalk",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, serviceVersion, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Initialize PostgreSQL Connection Pool
	db, err := postgres.NewConnection(cfg.Database.URL, postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer postgres.Close(db)

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// 5. Initialize Redis Cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL, cache.Options{
		PoolSize:    cfg.Redis.PoolSize,
		MaxRetries:  cfg.Redis.MaxRetries,
		DialTimeout: cfg.Redis.DialTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	// 6. Initialize Message Queue
	messageQueue, err := queue.New(cfg.Queue.Provider, cfg.Queue.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer messageQueue.Close()

	// 7. Initialize Repositories
	productRepo := postgres.NewProductRepository(db, logger)
	orderRepo := postgres.NewOrderRepository(db, logger)
	userRepo := postgres.NewUserRepository(db, logger)

	// 8. Initialize Services (Business Logic Layer)
	authService := auth.NewService(userRepo, cfg.JWT.Secret, cfg.JWT.AccessTokenDuration, logger)
	inventoryService := inventory.NewService(productRepo, redisCache, cfg.Inventory.ContextTTL, logger)
	orderService := order.NewService(productRepo, orderRepo, messageQueue, logger)

	if cfg.Database.SeedProducts {
		if err := inventoryService.Seed(context.Background()); err != nil {
			logger.Fatal("Failed to seed product catalogue", zap.Error(err))
		}
	}

	// 9. Initialize Call Session Manager
	sessions := conversation.NewSessionManager(cfg.Session.TTL, cfg.Session.SweepInterval, logger)
	defer sessions.Stop()

	// 10. Initialize Gemini Client and Conversation Service
	geminiClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
	conversationService := conversation.NewService(geminiClient, inventoryService, orderService, sessions, logger)

	// 11. Start Order Notification Worker
	if cfg.Notification.Email.APIKey != "" && cfg.Notification.Email.OwnerTo != "" {
		emailProvider := notification.NewSendGridProvider(
			cfg.Notification.Email.APIKey,
			cfg.Notification.Email.From,
			cfg.Notification.Email.FromName,
		)
		notifier := notification.NewService(emailProvider, cfg.Notification.Email.OwnerTo, logger)
		if err := messageQueue.Subscribe(order.SubjectOrderConfirmed, notifier.HandleOrderConfirmed); err != nil {
			logger.Error("Failed to subscribe order notification worker", zap.Error(err))
		}
	}

	// 12. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	app.Use(middleware.CircuitBreaker(logger))

	// Health Check Endpoints
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
	}
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		if err := sqlDB.Ping(); err != nil {
			return c.Status(503).SendString("Database not ready")
		}
		if err := redisCache.Ping(); err != nil {
			return c.Status(503).SendString("Cache not ready")
		}
		return c.SendString("Ready")
	})

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		path := cfg.Prometheus.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, func(c *fiber.Ctx) error {
			handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
			handler(c.Context())
			return nil
		})
	}

	// API Routes
	api := app.Group("/api")

	// Auth routes (public)
	authHandler := handlers.NewAuthHandler(authService, logger)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/register", authHandler.Register)

	// Call routes (public, the voice path is anonymous)
	callHandler := handlers.NewCallHandler(logger)
	api.Post("/call/start", callHandler.Start)

	// Product catalogue (public read)
	productHandler := handlers.NewProductHandler(inventoryService, logger)
	api.Get("/products", productHandler.List)

	// Protected admin routes
	protected := api.Group("", middleware.AuthRequired(authService))
	protected.Patch("/products/:id/stock", productHandler.Restock)

	orderHandler := handlers.NewOrderHandler(orderService, logger)
	protected.Post("/orders/confirm", orderHandler.Confirm)
	protected.Get("/orders", orderHandler.List)
	protected.Patch("/orders/:id/status", orderHandler.UpdateStatus)

	api.Get("/auth/me", middleware.AuthRequired(authService), authHandler.Me)

	// Call streaming WebSocket
	callStreamHandler := wsAdapter.NewCallStreamHandler(conversationService, logger)
	wsAdapter.SetupCallRoutes(app, callStreamHandler)

	// 13. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 14. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zapCfg.Build()
}
