package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"archivePortal/internal/config"
	"archivePortal/internal/database"
	handlers "archivePortal/internal/handler"
	"archivePortal/internal/notification"
	"archivePortal/internal/repository"
	"archivePortal/internal/service"
	"archivePortal/internal/storage"
)

// App holds everything the server and the CLI commands share.
type App struct {
	DB         *database.DB
	Repo       *repository.Repository
	Services   *service.Service
	Handlers   *handlers.Handlers
	dispatcher *notification.Dispatcher
	redis      *redis.Client
	logger     *zap.Logger
}

// New connects the backing stores and wires repositories, services and handlers.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	var health handlers.HealthChecker
	if cfg.DB.InMemory {
		logger.Warn("using in-memory repositories, data will not survive a restart")
		a.Repo = repository.NewMemoryRepository()
	} else {
		db, err := database.ConnectDB(ctx, cfg.DB, logger)
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.Repo = repository.NewRepository(db.DB)
		health = db
	}

	minioClient, err := storage.NewMinIOClient(ctx, cfg.MinIO, cfg.MaxUploadSize)
	if err != nil {
		a.closeStores()
		return nil, fmt.Errorf("failed to initialize MinIO: %w", err)
	}

	var notifier notification.Notifier = notification.NewLogNotifier(logger)
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.closeStores()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		notifier = notification.NewRedisNotifier(a.redis, cfg.Redis.Channel)
	}
	a.dispatcher = notification.NewDispatcher(notifier, cfg.NotificationBuffer, logger)

	a.Services = service.NewService(a.Repo, cfg, minioClient, a.dispatcher, logger)
	a.Handlers = handlers.NewHandlers(a.Services, health, cfg, logger)
	return a, nil
}

func (a *App) closeStores() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.CloseDB())
	}
	return errors.Join(errs...)
}

// Close drains pending notifications, then releases Redis and the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.dispatcher != nil {
		errs = append(errs, a.dispatcher.Close(ctx))
	}
	errs = append(errs, a.closeStores())
	return errors.Join(errs...)
}
