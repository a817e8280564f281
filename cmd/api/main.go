package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sales-assistant/internal/api/http"
	"github.com/spec-kit/sales-assistant/internal/api/http/handlers"
	"github.com/spec-kit/sales-assistant/internal/assistant"
	"github.com/spec-kit/sales-assistant/internal/auth"
	"github.com/spec-kit/sales-assistant/internal/config"
	"github.com/spec-kit/sales-assistant/internal/events"
	"github.com/spec-kit/sales-assistant/internal/llm"
	"github.com/spec-kit/sales-assistant/internal/observability"
	"github.com/spec-kit/sales-assistant/internal/persistence"
	"github.com/spec-kit/sales-assistant/internal/ratelimit"
	"github.com/spec-kit/sales-assistant/internal/repository"
	"github.com/spec-kit/sales-assistant/internal/service"
	"github.com/spec-kit/sales-assistant/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification), logger)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	knowledgeRepo := repository.NewKnowledgeRepository(pool)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err := authService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}
	adminService := service.NewAdminService(userRepo, dispatcher, logger)
	customerService := service.NewCustomerService(service.CustomerDependencies{
		CustomerRepo:    customerRepo,
		Dispatcher:      dispatcher,
		Logger:          logger,
		FollowUpHorizon: cfg.Assistant.FollowUpHorizon,
		ListLimit:       cfg.Assistant.ListLimit,
	})
	knowledgeService := service.NewKnowledgeService(knowledgeRepo, dispatcher, logger, cfg.Assistant.ListLimit)

	model, err := llm.NewChatModel(cfg.OpenAI, logger)
	if err != nil {
		logger.Fatal("failed to configure language model", zap.Error(err))
	}
	registry, err := assistant.NewRegistry(logger, metrics,
		assistant.NewSalesTools(customerService, knowledgeService, cfg.Assistant.ListLimit)...)
	if err != nil {
		logger.Fatal("failed to build tool registry", zap.Error(err))
	}
	orchestrator := assistant.NewOrchestrator(model, registry, assistant.Options{
		MaxIterations: cfg.Assistant.MaxIterations,
		Logger:        logger,
		Observer:      metrics,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Users:          handlers.NewUsersHandler(authService),
		Admin:          handlers.NewAdminHandler(adminService, metrics),
		Customers:      handlers.NewCustomersHandler(customerService),
		Knowledge:      handlers.NewKnowledgeHandler(knowledgeService),
		Chat:           handlers.NewChatHandler(orchestrator),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
		ChatLimiter:    ratelimit.NewRedisLimiter(redis.Client, cfg.RateLimit.Limit, cfg.RateLimit.Window, logger),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("graceful shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
