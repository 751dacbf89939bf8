package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/kursadbilgin/vaccination-engine/internal/config"
	"github.com/kursadbilgin/vaccination-engine/internal/handler"
	"github.com/kursadbilgin/vaccination-engine/internal/infra/postgresql"
	"github.com/kursadbilgin/vaccination-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/vaccination-engine/internal/infra/redis"
	"github.com/kursadbilgin/vaccination-engine/internal/lock"
	"github.com/kursadbilgin/vaccination-engine/internal/observability"
	"github.com/kursadbilgin/vaccination-engine/internal/provider"
	"github.com/kursadbilgin/vaccination-engine/internal/queue"
	"github.com/kursadbilgin/vaccination-engine/internal/ratelimit"
	"github.com/kursadbilgin/vaccination-engine/internal/repository"
	"github.com/kursadbilgin/vaccination-engine/internal/service"
	"github.com/kursadbilgin/vaccination-engine/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("clinic timezone invalid", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	checks := map[string]handler.HealthCheck{}

	var (
		animals      repository.AnimalRepository
		vaccinations repository.VaccinationRepository
	)
	if cfg.DatabaseDSN != "" {
		db, err := postgresql.NewPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("postgres initialization failed", zap.Error(err))
		}
		if err := migrations.Migrate(db); err != nil {
			logger.Fatal("database migrations failed", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("postgres underlying db init failed", zap.Error(err))
		}
		defer sqlDB.Close()

		animals = repository.NewGormAnimalRepo(db)
		vaccinations = repository.NewGormVaccinationRepo(db)
		checks["postgres"] = handler.SQLPingCheck(sqlDB)
	} else {
		logger.Warn("DATABASE_DSN not set, using in-memory store")
		store := repository.NewMemoryStore()
		animals = store.Animals()
		vaccinations = store.Vaccinations()
	}

	var (
		locker  lock.Locker
		limiter ratelimit.RateLimiter
	)
	if cfg.RedisURL != "" {
		rdb, err := infraredis.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis initialization failed", zap.Error(err))
		}
		defer rdb.Close()

		redisLocker, err := infraredis.NewRedisLocker(rdb)
		if err != nil {
			logger.Fatal("redis locker initialization failed", zap.Error(err))
		}
		redisLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.ReminderRatePerSec)
		if err != nil {
			logger.Fatal("redis rate limiter initialization failed", zap.Error(err))
		}
		locker = redisLocker
		limiter = redisLimiter
		checks["redis"] = handler.RedisPingCheck(rdb)
	}

	var publisher queue.Publisher = queue.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		rmq, err := queue.NewRabbitMQ(ctx, cfg.RabbitMQURL)
		if err != nil {
			logger.Fatal("rabbitmq initialization failed", zap.Error(err))
		}
		publisher = queue.NewRabbitMQPublisher(rmq)
		checks["rabbitmq"] = handler.ConnectionCheck(rmq.Healthy)
	}
	defer publisher.Close() //nolint:errcheck

	reminderProvider, err := provider.New(ctx, provider.Settings{
		Channel:    cfg.ReminderProvider,
		WebhookURL: cfg.ReminderWebhookURL,
		FromEmail:  cfg.ReminderFromEmail,
		AWSRegion:  cfg.AWSRegion,
	}, logger)
	if err != nil {
		logger.Fatal("reminder provider initialization failed", zap.Error(err))
	}

	opts := []service.Option{
		service.WithLocation(loc),
		service.WithStoreTimeout(cfg.StoreTimeout()),
		service.WithPublishTimeout(cfg.PublishTimeout()),
		service.WithPublisher(publisher),
		service.WithMetrics(metrics),
		service.WithLogger(logger),
	}

	animalService, err := service.NewAnimalService(animals, opts...)
	if err != nil {
		logger.Fatal("animal service initialization failed", zap.Error(err))
	}
	vaccinationService, err := service.NewVaccinationService(vaccinations, animals, opts...)
	if err != nil {
		logger.Fatal("vaccination service initialization failed", zap.Error(err))
	}
	reminderService, err := service.NewReminderService(vaccinations, animals, reminderProvider, limiter, opts...)
	if err != nil {
		logger.Fatal("reminder service initialization failed", zap.Error(err))
	}
	cleanupJob, err := service.NewCleanupJob(vaccinations, cfg.CleanupRetentionDays, opts...)
	if err != nil {
		logger.Fatal("cleanup job initialization failed", zap.Error(err))
	}
	scheduler, err := service.NewCleanupScheduler(cleanupJob, locker, cfg.CleanupSchedule, cfg.CleanupLockTTL(), opts...)
	if err != nil {
		logger.Fatal("cleanup scheduler initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:               "vaccination-engine",
		DisableStartupMessage: true,
		ErrorHandler:          transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, checks)
	if err := handler.RegisterAnimalRoutes(app, animalService); err != nil {
		logger.Fatal("animal routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterVaccinationRoutes(app, vaccinationService, reminderService); err != nil {
		logger.Fatal("vaccination routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterCleanupRoutes(app, cleanupJob); err != nil {
		logger.Fatal("cleanup routes registration failed", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Start(gctx)
	})
	g.Go(func() error {
		logger.Info("vaccination-engine api started",
			zap.Int("port", cfg.APIPort),
			zap.String("cleanupSchedule", cfg.CleanupSchedule),
			zap.String("reminderProvider", reminderProvider.Channel()),
		)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("vaccination-engine stopped with error", zap.Error(err))
	}
}
