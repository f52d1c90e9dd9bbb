package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/helpdesk-kit/lifecycle-service/internal/api/http"
	"github.com/helpdesk-kit/lifecycle-service/internal/api/http/handlers"
	"github.com/helpdesk-kit/lifecycle-service/internal/auth"
	"github.com/helpdesk-kit/lifecycle-service/internal/config"
	"github.com/helpdesk-kit/lifecycle-service/internal/events"
	"github.com/helpdesk-kit/lifecycle-service/internal/observability"
	"github.com/helpdesk-kit/lifecycle-service/internal/persistence"
	"github.com/helpdesk-kit/lifecycle-service/internal/repository"
	"github.com/helpdesk-kit/lifecycle-service/internal/service"
	"github.com/helpdesk-kit/lifecycle-service/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	stream := events.NewStream()
	defer stream.Close()
	broadcaster := events.NewRedisBroadcaster(redis.Client, stream, logger)
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketFieldsEdited,
		events.EventTicketCommentAdded,
		events.EventTicketPurged,
		events.EventTicketSLABreached,
	} {
		dispatcher.Subscribe(eventType, broadcaster.Publish)
	}
	go broadcaster.Run(ctx)

	identityService := service.NewIdentityService(userRepo, staffRepo, redis.Client, cfg.Auth.RoleCacheTTLSeconds, logger)
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		CommentRepo: commentRepo,
		Resolver:    identityService,
		Dispatcher:  dispatcher,
	})
	commentService := service.NewCommentService(ticketRepo, commentRepo, identityService, dispatcher)
	statsService := service.NewStatsService(ticketRepo, cfg.SLA.ScanLimit)
	assistService := service.NewAssistService(cfg.Assist, logger)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, staffRepo, resetRepo, tokenManager, identityService, cfg.Auth, logger)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo, identityService)

	notificationService := service.NewNotificationService(cfg.Notification, logger)
	worker.StartNotificationWorker(notificationService, dispatcher)

	slaMonitor := worker.NewSLAMonitor(ticketRepo, dispatcher, cfg.SLA, logger)
	go slaMonitor.Run(ctx)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.CORSOrigins)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService),
		Tickets:        handlers.NewTicketsHandler(lifecycleService, commentService),
		StaffTickets:   handlers.NewStaffTicketsHandler(lifecycleService, statsService),
		Admin:          handlers.NewAdminHandler(lifecycleService, authService, userRepo, staffRepo, metrics),
		Assist:         handlers.NewAssistHandler(assistService),
		Events:         handlers.NewEventsHandler(stream),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
