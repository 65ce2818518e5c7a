package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/review-feed/internal/api/http"
	"github.com/spec-kit/review-feed/internal/api/http/handlers"
	"github.com/spec-kit/review-feed/internal/auth"
	"github.com/spec-kit/review-feed/internal/config"
	"github.com/spec-kit/review-feed/internal/events"
	"github.com/spec-kit/review-feed/internal/media"
	"github.com/spec-kit/review-feed/internal/observability"
	"github.com/spec-kit/review-feed/internal/persistence"
	"github.com/spec-kit/review-feed/internal/repository"
	"github.com/spec-kit/review-feed/internal/service"
	"github.com/spec-kit/review-feed/internal/worker"
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
	userRepo := repository.NewUserRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	mediaStore := media.NewLocalStore(cfg.Media.UploadDir, cfg.Media.MaxUploadBytes)
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
	})
	socialService := service.NewSocialService(service.SocialDependencies{
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		Dispatcher:  dispatcher,
	})
	postService := service.NewPostService(service.PostDependencies{
		TicketRepo: ticketRepo,
		ReviewRepo: reviewRepo,
		MediaStore: mediaStore,
		Dispatcher: dispatcher,
	})
	feedService := service.NewFeedService(service.FeedDependencies{
		ProfileRepo: profileRepo,
		TicketRepo:  ticketRepo,
		ReviewRepo:  reviewRepo,
	})
	notificationService := service.NewNotificationService(dispatcher, redis.Client, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Feed:           handlers.NewFeedHandler(feedService, postService),
		Tickets:        handlers.NewTicketsHandler(postService),
		Reviews:        handlers.NewReviewsHandler(postService),
		Social:         handlers.NewSocialHandler(socialService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
