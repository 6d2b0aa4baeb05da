package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/grievance-desk/internal/api/http"
	"github.com/spec-kit/grievance-desk/internal/api/http/handlers"
	"github.com/spec-kit/grievance-desk/internal/auth"
	"github.com/spec-kit/grievance-desk/internal/config"
	"github.com/spec-kit/grievance-desk/internal/events"
	"github.com/spec-kit/grievance-desk/internal/observability"
	"github.com/spec-kit/grievance-desk/internal/persistence"
	"github.com/spec-kit/grievance-desk/internal/repository"
	"github.com/spec-kit/grievance-desk/internal/routing"
	"github.com/spec-kit/grievance-desk/internal/service"
	"github.com/spec-kit/grievance-desk/internal/worker"
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

	routes, err := routing.Load(cfg.Routing.Path)
	if err != nil {
		logger.Fatal("failed to load routing table", zap.String("path", cfg.Routing.Path), zap.Error(err))
	}
	logger.Info("routing table loaded", zap.Int("routes", routes.Len()))

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redis.Close()

	ticketRepo := repository.NewMemoryTicketRepository()
	historyRepo := repository.NewMemoryTicketHistoryRepository()
	if pg.Enabled() {
		ticketRepo = repository.NewTicketRepository(pg.PoolHandle())
		historyRepo = repository.NewTicketHistoryRepository(pg.PoolHandle())
	}
	ids := repository.NewRandomKeys()
	if redis.Enabled() {
		ids = repository.NewRedisSequence(redis.Client, cfg.Redis.SequenceKey)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	escalationService := service.NewEscalationService(routes)
	queryService := service.NewQueryService(ticketRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Assigner: service.NewAssignmentService(service.AssignmentDependencies{
			Routes: routes,
			IDs:    ids,
		}),
		Escalation: escalationService,
		Queries:    queryService,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	authService, err := service.NewAuthService(cfg.Auth)
	if err != nil {
		logger.Fatal("failed to init auth", zap.Error(err))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, routes.Len(), map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Dashboard:      handlers.NewDashboardHandler(ticketService, queryService, routes),
		Metrics:        metrics,
		AuthMiddleware: authMiddleware,
	})

	sweep := worker.NewEscalationSweep(worker.SweepDependencies{
		Tickets:    ticketService,
		Routes:     routes,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	scheduler, err := worker.StartEscalationSweep(ctx, cfg.Escalation.SweepSchedule, sweep)
	if err != nil {
		logger.Fatal("failed to start escalation sweep", zap.Error(err))
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
