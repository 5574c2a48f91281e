// Package carrental собирает приложение: хранилище, кеш, сервисы,
// планировщик сроков и HTTP-сервер.
package carrental

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/car-rental/internal/cache"
	"github.com/magabrotheeeer/car-rental/internal/config"
	"github.com/magabrotheeeer/car-rental/internal/lib/jwt"
	"github.com/magabrotheeeer/car-rental/internal/migrations"
	"github.com/magabrotheeeer/car-rental/internal/rabbitmq"
	"github.com/magabrotheeeer/car-rental/internal/services/auth"
	"github.com/magabrotheeeer/car-rental/internal/services/registry"
	"github.com/magabrotheeeer/car-rental/internal/services/rental"
	"github.com/magabrotheeeer/car-rental/internal/services/scheduler"
	"github.com/magabrotheeeer/car-rental/internal/storage/repository"
)

// App инкапсулирует запущенные компоненты приложения.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	scheduler *scheduler.Scheduler
	rabbit    *amqp.Connection
}

// New создает приложение: подключает зависимости и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	channel, err := rabbitmq.SetupChannel(rabbitConn)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := auth.New(db, jwtMaker)
	registryService := registry.New(db, cacheRedis, logger)

	publisher := rabbitmq.NewBookingPublisher(channel)
	expiryScheduler := scheduler.New(nil, logger)
	// Движок работает с автомобилями через сервис каталога: каждое
	// переключение доступности сбрасывает кешированную карточку.
	rentalEngine := rental.New(registryService, db, db, expiryScheduler, publisher, logger)
	expiryScheduler.SetReleaser(rentalEngine)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, authService, registryService, rentalEngine)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		scheduler: expiryScheduler,
		rabbit:    rabbitConn,
	}, nil
}

// Run запускает планировщик и HTTP-сервер и блокируется до отмены контекста.
// Перед стартом планировщик восстанавливает очередь сроков из активных аренд.
func (a *App) Run(ctx context.Context) error {
	if err := a.scheduler.Rearm(ctx, a.db); err != nil {
		return err
	}
	go a.scheduler.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.rabbit.Close(); closeErr != nil {
			a.logger.Error("failed to close rabbitmq connection", slog.Any("err", closeErr))
		}
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", closeErr))
		}
		return err
	}
}
