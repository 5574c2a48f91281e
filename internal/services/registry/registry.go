// Package registry содержит бизнес-логику для управления каталогом автомобилей и кешированием.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/car-rental/internal/models"
)

// CarRepository определяет методы для работы с автомобилями в хранилище.
type CarRepository interface {
	// CreateCar добавляет новый автомобиль и возвращает его ID.
	CreateCar(ctx context.Context, car models.Car) (string, error)
	// GetCar возвращает автомобиль по ID.
	GetCar(ctx context.Context, carID string) (*models.Car, error)
	// ListAvailableCars возвращает все доступные автомобили.
	ListAvailableCars(ctx context.Context) ([]*models.Car, error)
	// UpdateCar обновляет данные автомобиля по ID.
	UpdateCar(ctx context.Context, carID string, req models.DummyCar) error
	// DeleteCar удаляет автомобиль, если у него нет активной аренды.
	DeleteCar(ctx context.Context, carID string) error
	// SetCarAvailability выставляет флаг доступности автомобиля.
	SetCarAvailability(ctx context.Context, carID string, available bool) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// Service реализует бизнес-логику каталога автомобилей, включая кеширование.
type Service struct {
	repo  CarRepository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo CarRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func carCacheKey(id string) string {
	return fmt.Sprintf("car:%s", id)
}

// Create добавляет автомобиль в каталог, кеширует его и возвращает ID.
func (s *Service) Create(ctx context.Context, req models.DummyCar) (string, error) {
	car := models.Car{
		Make:       req.Make,
		Model:      req.Model,
		Year:       req.Year,
		RatePerDay: req.RatePerDay,
		Available:  true,
	}

	id, err := s.repo.CreateCar(ctx, car)
	if err != nil {
		return "", err
	}

	s.log.Info("created new car", slog.String("id", id))

	car.ID = id
	if err := s.cache.Set(carCacheKey(id), car, time.Hour); err != nil {
		s.log.Warn("failed to cache car", slog.String("key", carCacheKey(id)), slog.Any("err", err))
	}

	return id, nil
}

// Get возвращает автомобиль по ID, используя кеш или репозиторий.
func (s *Service) Get(ctx context.Context, carID string) (*models.Car, error) {
	var result *models.Car
	cacheKey := carCacheKey(carID)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}
	result, err = s.repo.GetCar(ctx, carID)
	if err != nil {
		return nil, err
	}

	if result != nil {
		if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
			s.log.Warn("failed to add to cache", slog.String("key", cacheKey),
				slog.Any("err", err))
		}
	}
	return result, nil
}

// GetCar возвращает автомобиль напрямую из хранилища, минуя кеш.
// Движок аренды читает автомобиль под пер-автомобильной блокировкой,
// и кешированный снимок там использовать нельзя.
func (s *Service) GetCar(ctx context.Context, carID string) (*models.Car, error) {
	return s.repo.GetCar(ctx, carID)
}

// SetCarAvailability переключает флаг доступности и сбрасывает кеш
// автомобиля, чтобы Get не отдавал устаревший флаг до истечения TTL.
// Вызывается только движком аренды.
func (s *Service) SetCarAvailability(ctx context.Context, carID string, available bool) error {
	if err := s.repo.SetCarAvailability(ctx, carID, available); err != nil {
		return err
	}

	cacheKey := carCacheKey(carID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return nil
}

// ListAvailable возвращает все автомобили, доступные для аренды на данный момент.
func (s *Service) ListAvailable(ctx context.Context) ([]*models.Car, error) {
	return s.repo.ListAvailableCars(ctx)
}

// Update обновляет данные автомобиля и обновляет кеш.
func (s *Service) Update(ctx context.Context, carID string, req models.DummyCar) error {
	if err := s.repo.UpdateCar(ctx, carID, req); err != nil {
		return err
	}
	s.log.Info("updated car in storage", slog.String("id", carID))

	cacheKey := carCacheKey(carID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return nil
}

// Remove удаляет автомобиль из каталога и инвалидирует кеш. Автомобиль
// с активной арендой удалить нельзя.
func (s *Service) Remove(ctx context.Context, carID string) error {
	if err := s.repo.DeleteCar(ctx, carID); err != nil {
		return err
	}

	cacheKey := carCacheKey(carID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return nil
}
