package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/car-rental/internal/cache"
	"github.com/magabrotheeeer/car-rental/internal/config"
	"github.com/magabrotheeeer/car-rental/internal/models"
)

type CarRepoMock struct{ mock.Mock }

func (m *CarRepoMock) CreateCar(ctx context.Context, car models.Car) (string, error) {
	args := m.Called(ctx, car)
	return args.String(0), args.Error(1)
}
func (m *CarRepoMock) GetCar(ctx context.Context, carID string) (*models.Car, error) {
	args := m.Called(ctx, carID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Car), args.Error(1)
}
func (m *CarRepoMock) ListAvailableCars(ctx context.Context) ([]*models.Car, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Car), args.Error(1)
}
func (m *CarRepoMock) UpdateCar(ctx context.Context, carID string, req models.DummyCar) error {
	return m.Called(ctx, carID, req).Error(0)
}
func (m *CarRepoMock) DeleteCar(ctx context.Context, carID string) error {
	return m.Called(ctx, carID).Error(0)
}
func (m *CarRepoMock) SetCarAvailability(ctx context.Context, carID string, available bool) error {
	return m.Called(ctx, carID, available).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistryService_Create(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummyCar
		setupMocks func(r *CarRepoMock, c *CacheMock)
		wantID     string
		wantErr    bool
	}{
		{
			name: "successful create",
			req:  models.DummyCar{Make: "Toyota", Model: "Corolla", Year: 2021, RatePerDay: 45.5},
			setupMocks: func(r *CarRepoMock, c *CacheMock) {
				r.On("CreateCar", mock.Anything, mock.MatchedBy(func(car models.Car) bool {
					return car.Make == "Toyota" && car.Available
				})).Return("car-1", nil).Once()
				c.On("Set", "car:car-1", mock.Anything, time.Hour).Return(nil).Once()
			},
			wantID: "car-1",
		},
		{
			name: "repository error",
			req:  models.DummyCar{Make: "Toyota", Model: "Corolla", Year: 2021, RatePerDay: 45.5},
			setupMocks: func(r *CarRepoMock, _ *CacheMock) {
				r.On("CreateCar", mock.Anything, mock.Anything).Return("", errors.New("db error")).Once()
			},
			wantErr: true,
		},
		{
			name: "cache error is not fatal",
			req:  models.DummyCar{Make: "Toyota", Model: "Corolla", Year: 2021, RatePerDay: 45.5},
			setupMocks: func(r *CarRepoMock, c *CacheMock) {
				r.On("CreateCar", mock.Anything, mock.Anything).Return("car-1", nil).Once()
				c.On("Set", "car:car-1", mock.Anything, time.Hour).Return(errors.New("redis down")).Once()
			},
			wantID: "car-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(CarRepoMock)
			cache := new(CacheMock)
			svc := New(repo, cache, discardLogger())

			tt.setupMocks(repo, cache)

			id, err := svc.Create(context.Background(), tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestRegistryService_Get(t *testing.T) {
	car := &models.Car{ID: "car-1", Make: "Toyota", Model: "Corolla", Year: 2021, RatePerDay: 45.5, Available: true}

	t.Run("cache miss reads repository and fills cache", func(t *testing.T) {
		repo := new(CarRepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, discardLogger())

		cache.On("Get", "car:car-1", mock.Anything).Return(false, nil).Once()
		repo.On("GetCar", mock.Anything, "car-1").Return(car, nil).Once()
		cache.On("Set", "car:car-1", car, time.Hour).Return(nil).Once()

		got, err := svc.Get(context.Background(), "car-1")
		assert.NoError(t, err)
		assert.Equal(t, car, got)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(CarRepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, discardLogger())

		cache.On("Get", "car:missing", mock.Anything).Return(false, nil).Once()
		repo.On("GetCar", mock.Anything, "missing").Return(nil, models.ErrCarNotFound).Once()

		_, err := svc.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, models.ErrCarNotFound)
	})
}

func TestRegistryService_Remove(t *testing.T) {
	t.Run("successful remove invalidates cache", func(t *testing.T) {
		repo := new(CarRepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, discardLogger())

		repo.On("DeleteCar", mock.Anything, "car-1").Return(nil).Once()
		cache.On("Invalidate", "car:car-1").Return(nil).Once()

		assert.NoError(t, svc.Remove(context.Background(), "car-1"))
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("car with active lease is not removed", func(t *testing.T) {
		repo := new(CarRepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, discardLogger())

		repo.On("DeleteCar", mock.Anything, "car-1").Return(models.ErrCarInUse).Once()

		err := svc.Remove(context.Background(), "car-1")
		assert.ErrorIs(t, err, models.ErrCarInUse)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything)
	})
}

func TestRegistryService_Update(t *testing.T) {
	req := models.DummyCar{Make: "Toyota", Model: "Camry", Year: 2022, RatePerDay: 60}

	t.Run("successful update invalidates cache", func(t *testing.T) {
		repo := new(CarRepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, discardLogger())

		repo.On("UpdateCar", mock.Anything, "car-1", req).Return(nil).Once()
		cache.On("Invalidate", "car:car-1").Return(nil).Once()

		assert.NoError(t, svc.Update(context.Background(), "car-1", req))
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("unknown car", func(t *testing.T) {
		repo := new(CarRepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, discardLogger())

		repo.On("UpdateCar", mock.Anything, "missing", req).Return(models.ErrCarNotFound).Once()

		err := svc.Update(context.Background(), "missing", req)
		assert.ErrorIs(t, err, models.ErrCarNotFound)
	})
}

func TestRegistryService_GetCar(t *testing.T) {
	t.Run("reads repository without touching cache", func(t *testing.T) {
		repo := new(CarRepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, discardLogger())

		car := &models.Car{ID: "car-1", Make: "Toyota", Model: "Corolla", Year: 2021, RatePerDay: 45.5, Available: true}
		repo.On("GetCar", mock.Anything, "car-1").Return(car, nil).Once()

		got, err := svc.GetCar(context.Background(), "car-1")
		assert.NoError(t, err)
		assert.Equal(t, car, got)

		repo.AssertExpectations(t)
		cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRegistryService_SetCarAvailability(t *testing.T) {
	t.Run("flip invalidates cache", func(t *testing.T) {
		repo := new(CarRepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, discardLogger())

		repo.On("SetCarAvailability", mock.Anything, "car-1", false).Return(nil).Once()
		cache.On("Invalidate", "car:car-1").Return(nil).Once()

		assert.NoError(t, svc.SetCarAvailability(context.Background(), "car-1", false))
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("repository error leaves cache untouched", func(t *testing.T) {
		repo := new(CarRepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, discardLogger())

		repo.On("SetCarAvailability", mock.Anything, "car-1", true).Return(errors.New("db error")).Once()

		err := svc.SetCarAvailability(context.Background(), "car-1", true)
		assert.Error(t, err)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything)
	})

	t.Run("invalidate error is not fatal", func(t *testing.T) {
		repo := new(CarRepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, discardLogger())

		repo.On("SetCarAvailability", mock.Anything, "car-1", false).Return(nil).Once()
		cache.On("Invalidate", "car:car-1").Return(errors.New("redis down")).Once()

		assert.NoError(t, svc.SetCarAvailability(context.Background(), "car-1", false))
	})

	// Закешированная карточка не должна пережить переключение доступности:
	// после флипа Get обязан перечитать автомобиль из хранилища, а не
	// отдавать available=true до истечения TTL.
	t.Run("cached car does not survive the flip", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)

		redisCache, err := cache.InitServer(context.Background(),
			config.RedisConnection{AddressRedis: mr.Addr()})
		require.NoError(t, err)

		repo := new(CarRepoMock)
		svc := New(repo, redisCache, discardLogger())

		available := &models.Car{ID: "car-1", Make: "Toyota", Model: "Corolla", Year: 2021, RatePerDay: 45.5, Available: true}
		taken := &models.Car{ID: "car-1", Make: "Toyota", Model: "Corolla", Year: 2021, RatePerDay: 45.5, Available: false}

		repo.On("GetCar", mock.Anything, "car-1").Return(available, nil).Once()
		got, err := svc.Get(context.Background(), "car-1")
		require.NoError(t, err)
		assert.True(t, got.Available)

		// повторный Get обслуживается из кеша, хранилище не трогается
		got, err = svc.Get(context.Background(), "car-1")
		require.NoError(t, err)
		assert.True(t, got.Available)

		repo.On("SetCarAvailability", mock.Anything, "car-1", false).Return(nil).Once()
		require.NoError(t, svc.SetCarAvailability(context.Background(), "car-1", false))

		repo.On("GetCar", mock.Anything, "car-1").Return(taken, nil).Once()
		got, err = svc.Get(context.Background(), "car-1")
		require.NoError(t, err)
		assert.False(t, got.Available)

		repo.AssertExpectations(t)
	})
}
