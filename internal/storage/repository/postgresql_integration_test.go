package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/car-rental/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_CreateCar(t *testing.T) {
	type args struct {
		ctx context.Context
		car models.Car
	}

	tests := []struct {
		name string
		args args
	}{
		{
			name: "successful create car",
			args: args{
				ctx: context.Background(),
				car: models.Car{
					Make:       "Toyota",
					Model:      "Corolla",
					Year:       2021,
					RatePerDay: 50,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			gotID, err := storage.CreateCar(tt.args.ctx, tt.args.car)
			require.NoError(t, err)
			require.NotEmpty(t, gotID)

			// Новый автомобиль всегда доступен для аренды
			verification := NewTestVerification(storage)
			verification.VerifyCarExists(t, gotID)
			verification.VerifyCarAvailability(t, gotID, true)
		})
	}
}

func TestStorage_GetCar(t *testing.T) {
	type args struct {
		ctx   context.Context
		carID string
	}

	tests := []struct {
		name    string
		args    args
		want    *models.Car
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name: "successful get existing car",
			args: args{
				ctx:   context.Background(),
				carID: "", // будет установлен в setup
			},
			want: &models.Car{
				Make:       "Honda",
				Model:      "Civic",
				Year:       2022,
				RatePerDay: 65,
				Available:  true,
			},
			wantErr: nil,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				return factory.CreateCar(t, "Honda", "Civic", 2022, 65, true)
			},
		},
		{
			name: "get non-existing car",
			args: args{
				ctx:   context.Background(),
				carID: uuid.New().String(),
			},
			want:    nil,
			wantErr: models.ErrCarNotFound,
			setup:   func(_ *testing.T, _ *TestDataFactory) string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			if carID := tt.setup(t, factory); carID != "" {
				tt.args.carID = carID
			}

			got, err := storage.GetCar(tt.args.ctx, tt.args.carID)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.args.carID, got.ID)
			assert.Equal(t, tt.want.Make, got.Make)
			assert.Equal(t, tt.want.Model, got.Model)
			assert.Equal(t, tt.want.Year, got.Year)
			assert.InDelta(t, tt.want.RatePerDay, got.RatePerDay, 0.001)
			assert.Equal(t, tt.want.Available, got.Available)
		})
	}
}

func TestStorage_ListAvailableCars(t *testing.T) {
	tests := []struct {
		name      string
		wantCount int
		setup     func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name:      "returns only available cars in catalog order",
			wantCount: 2,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateCar(t, "Toyota", "Corolla", 2021, 50, true)
				factory.CreateCar(t, "Honda", "Civic", 2022, 65, false)
				factory.CreateCar(t, "Kia", "Rio", 2020, 40, true)
			},
		},
		{
			name:      "empty catalog",
			wantCount: 0,
			setup:     func(_ *testing.T, _ *TestDataFactory) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			got, err := storage.ListAvailableCars(context.Background())
			require.NoError(t, err)
			assert.Len(t, got, tt.wantCount)

			if tt.wantCount == 2 {
				assert.Equal(t, "Toyota", got[0].Make)
				assert.Equal(t, "Kia", got[1].Make)
			}
		})
	}
}

func TestStorage_UpdateCar(t *testing.T) {
	type args struct {
		ctx   context.Context
		carID string
		req   models.DummyCar
	}

	tests := []struct {
		name    string
		args    args
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name: "successful update car",
			args: args{
				ctx:   context.Background(),
				carID: "", // будет установлен в setup
				req: models.DummyCar{
					Make:       "Toyota",
					Model:      "Camry",
					Year:       2023,
					RatePerDay: 80,
				},
			},
			wantErr: nil,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				return factory.CreateCar(t, "Toyota", "Corolla", 2021, 50, true)
			},
		},
		{
			name: "update non-existing car",
			args: args{
				ctx:   context.Background(),
				carID: uuid.New().String(),
				req: models.DummyCar{
					Make:       "Toyota",
					Model:      "Camry",
					Year:       2023,
					RatePerDay: 80,
				},
			},
			wantErr: models.ErrCarNotFound,
			setup:   func(_ *testing.T, _ *TestDataFactory) string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			if carID := tt.setup(t, factory); carID != "" {
				tt.args.carID = carID
			}

			err := storage.UpdateCar(tt.args.ctx, tt.args.carID, tt.args.req)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			got, err := storage.GetCar(tt.args.ctx, tt.args.carID)
			require.NoError(t, err)
			assert.Equal(t, "Camry", got.Model)
			assert.Equal(t, 2023, got.Year)
			assert.InDelta(t, 80.0, got.RatePerDay, 0.001)
		})
	}
}

func TestStorage_DeleteCar(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name:    "successful delete car without leases",
			wantErr: nil,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				return factory.CreateCar(t, "Toyota", "Corolla", 2021, 50, true)
			},
		},
		{
			name:    "delete car with active lease is rejected",
			wantErr: models.ErrCarInUse,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := uuid.New().String()
				factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
				carID := factory.CreateCar(t, "Honda", "Civic", 2022, 65, false)
				factory.CreateLease(t, carID, userUID, now, now.Add(72*time.Hour), 195, models.LeaseStatusActive)
				return carID
			},
		},
		{
			name:    "delete car with returned lease succeeds",
			wantErr: nil,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := uuid.New().String()
				factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
				carID := factory.CreateCar(t, "Kia", "Rio", 2020, 40, true)
				factory.CreateLease(t, carID, userUID, now.Add(-72*time.Hour), now.Add(-time.Hour), 120, models.LeaseStatusReturned)
				return carID
			},
		},
		{
			name:    "delete non-existing car",
			wantErr: models.ErrCarNotFound,
			setup:   func(_ *testing.T, _ *TestDataFactory) string { return uuid.New().String() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			carID := tt.setup(t, factory)

			err := storage.DeleteCar(context.Background(), carID)

			verification := NewTestVerification(storage)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantErr == models.ErrCarInUse {
					verification.VerifyCarExists(t, carID)
				}
				return
			}
			require.NoError(t, err)
			verification.VerifyCarDeleted(t, carID)
		})
	}
}

func TestStorage_SetCarAvailability(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		wantErr   error
		setup     func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name:      "mark car unavailable",
			available: false,
			wantErr:   nil,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				return factory.CreateCar(t, "Toyota", "Corolla", 2021, 50, true)
			},
		},
		{
			name:      "mark car available again",
			available: true,
			wantErr:   nil,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				return factory.CreateCar(t, "Honda", "Civic", 2022, 65, false)
			},
		},
		{
			name:      "non-existing car",
			available: false,
			wantErr:   models.ErrCarNotFound,
			setup:     func(_ *testing.T, _ *TestDataFactory) string { return uuid.New().String() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			carID := tt.setup(t, factory)

			err := storage.SetCarAvailability(context.Background(), carID, tt.available)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			verification := NewTestVerification(storage)
			verification.VerifyCarAvailability(t, carID, tt.available)
		})
	}
}

func TestStorage_CreateLease(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
	carID := factory.CreateCar(t, "Toyota", "Corolla", 2021, 50, false)

	ctx := context.Background()
	startedAt := time.Now().UTC().Truncate(time.Second)
	expiresAt := startedAt.Add(72 * time.Hour)

	leaseID, err := storage.CreateLease(ctx, models.Lease{
		CarID:     carID,
		UserUID:   userUID,
		StartedAt: startedAt,
		ExpiresAt: expiresAt,
		Price:     150,
		Status:    models.LeaseStatusActive,
	})
	require.NoError(t, err)
	require.NotEmpty(t, leaseID)

	got, err := storage.GetLease(ctx, leaseID)
	require.NoError(t, err)
	assert.Equal(t, carID, got.CarID)
	assert.Equal(t, userUID, got.UserUID)
	assert.True(t, got.StartedAt.Equal(startedAt))
	assert.True(t, got.ExpiresAt.Equal(expiresAt))
	assert.InDelta(t, 150.0, got.Price, 0.001)
	assert.Equal(t, models.LeaseStatusActive, got.Status)
	assert.Nil(t, got.ReturnedAt)

	// Вторая активная аренда на тот же автомобиль нарушает частичный
	// уникальный индекс leases_one_active_per_car и возвращается как
	// бизнес-ошибка, а не как сырая ошибка драйвера
	_, err = storage.CreateLease(ctx, models.Lease{
		CarID:     carID,
		UserUID:   userUID,
		StartedAt: startedAt,
		ExpiresAt: expiresAt,
		Price:     150,
		Status:    models.LeaseStatusActive,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrCarAlreadyLeased)
}

func TestStorage_GetLease_NotFound(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	got, err := storage.GetLease(context.Background(), uuid.New().String())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrLeaseNotFound)
	assert.Nil(t, got)
}

func TestStorage_MarkLeaseReturned(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
	carID := factory.CreateCar(t, "Toyota", "Corolla", 2021, 50, false)

	now := time.Now().UTC()
	leaseID := factory.CreateLease(t, carID, userUID, now.Add(-time.Hour), now.Add(time.Hour), 50, models.LeaseStatusActive)

	ctx := context.Background()
	returnedAt := time.Now().UTC().Truncate(time.Second)

	rowsAffected, err := storage.MarkLeaseReturned(ctx, leaseID, returnedAt)
	require.NoError(t, err)
	assert.Equal(t, 1, rowsAffected)

	verification := NewTestVerification(storage)
	verification.VerifyLeaseStatus(t, leaseID, models.LeaseStatusReturned)

	got, err := storage.GetLease(ctx, leaseID)
	require.NoError(t, err)
	require.NotNil(t, got.ReturnedAt)
	assert.True(t, got.ReturnedAt.Equal(returnedAt))

	// Повторный возврат не трогает ни одной строки
	rowsAffected, err = storage.MarkLeaseReturned(ctx, leaseID, returnedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, rowsAffected)

	// Возврат несуществующей аренды тоже no-op
	rowsAffected, err = storage.MarkLeaseReturned(ctx, uuid.New().String(), returnedAt)
	require.NoError(t, err)
	assert.Equal(t, 0, rowsAffected)
}

func TestStorage_FindActiveLeaseByCar(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory) (string, string)
	}{
		{
			name:    "car with active lease",
			wantErr: nil,
			setup: func(t *testing.T, factory *TestDataFactory) (string, string) {
				userUID := uuid.New().String()
				factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
				carID := factory.CreateCar(t, "Toyota", "Corolla", 2021, 50, false)
				leaseID := factory.CreateLease(t, carID, userUID, now, now.Add(72*time.Hour), 150, models.LeaseStatusActive)
				return carID, leaseID
			},
		},
		{
			name:    "car with only returned lease",
			wantErr: models.ErrLeaseNotFound,
			setup: func(t *testing.T, factory *TestDataFactory) (string, string) {
				userUID := uuid.New().String()
				factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
				carID := factory.CreateCar(t, "Honda", "Civic", 2022, 65, true)
				factory.CreateLease(t, carID, userUID, now.Add(-72*time.Hour), now.Add(-time.Hour), 195, models.LeaseStatusReturned)
				return carID, ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			carID, leaseID := tt.setup(t, factory)

			got, err := storage.FindActiveLeaseByCar(context.Background(), carID)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, leaseID, got.ID)
			assert.Equal(t, models.LeaseStatusActive, got.Status)
		})
	}
}

func TestStorage_ListActiveLeases(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")

	now := time.Now().UTC()
	carA := factory.CreateCar(t, "Toyota", "Corolla", 2021, 50, false)
	carB := factory.CreateCar(t, "Honda", "Civic", 2022, 65, false)
	carC := factory.CreateCar(t, "Kia", "Rio", 2020, 40, true)

	// Вставляем не по порядку истечения, возвращённая аренда не попадает в выборку
	lateLease := factory.CreateLease(t, carA, userUID, now, now.Add(96*time.Hour), 200, models.LeaseStatusActive)
	earlyLease := factory.CreateLease(t, carB, userUID, now, now.Add(24*time.Hour), 65, models.LeaseStatusActive)
	factory.CreateLease(t, carC, userUID, now.Add(-72*time.Hour), now.Add(-time.Hour), 120, models.LeaseStatusReturned)

	got, err := storage.ListActiveLeases(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, earlyLease, got[0].ID)
	assert.Equal(t, lateLease, got[1].ID)
}

func TestStorage_ListLeasesByUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	firstUser := uuid.New().String()
	secondUser := uuid.New().String()
	factory.CreateUser(t, firstUser, "firstuser", "first@example.com", "hashedpassword", "user")
	factory.CreateUser(t, secondUser, "seconduser", "second@example.com", "hashedpassword", "user")

	now := time.Now().UTC()
	carA := factory.CreateCar(t, "Toyota", "Corolla", 2021, 50, true)
	carB := factory.CreateCar(t, "Honda", "Civic", 2022, 65, false)
	carC := factory.CreateCar(t, "Kia", "Rio", 2020, 40, true)

	oldLease := factory.CreateLease(t, carA, firstUser, now.Add(-96*time.Hour), now.Add(-24*time.Hour), 150, models.LeaseStatusReturned)
	newLease := factory.CreateLease(t, carB, firstUser, now, now.Add(72*time.Hour), 195, models.LeaseStatusActive)
	factory.CreateLease(t, carC, secondUser, now, now.Add(24*time.Hour), 40, models.LeaseStatusActive)

	ctx := context.Background()

	// История пользователя: свежие аренды первыми
	got, err := storage.ListLeasesByUser(ctx, firstUser, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newLease, got[0].ID)
	assert.Equal(t, oldLease, got[1].ID)

	// Пагинация
	got, err = storage.ListLeasesByUser(ctx, firstUser, 1, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, oldLease, got[0].ID)

	// Чужие аренды не видны
	got, err = storage.ListLeasesByUser(ctx, secondUser, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestStorage_RegisterUser(t *testing.T) {
	type args struct {
		ctx  context.Context
		user models.User
	}

	tests := []struct {
		name    string
		args    args
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name: "successful register user",
			args: args{
				ctx: context.Background(),
				user: models.User{
					Email:        "test@example.com",
					Username:     "testuser",
					PasswordHash: "hashedpassword",
					Role:         "user",
				},
			},
			wantErr: nil,
			setup:   func(_ *testing.T, _ *TestDataFactory) {},
		},
		{
			name: "register user with duplicate email",
			args: args{
				ctx: context.Background(),
				user: models.User{
					Email:        "test@example.com", // duplicate email
					Username:     "anotheruser",
					PasswordHash: "hashedpassword2",
					Role:         "user",
				},
			},
			wantErr: models.ErrUserExists,
			setup: func(t *testing.T, factory *TestDataFactory) {
				userUID := uuid.New().String()
				factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			gotUID, err := storage.RegisterUser(tt.args.ctx, tt.args.user)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, gotUID)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, gotUID)
		})
	}
}

func TestStorage_GetUserByEmail(t *testing.T) {
	type args struct {
		ctx   context.Context
		email string
	}

	tests := []struct {
		name    string
		args    args
		want    *models.User
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name: "successful get user by email",
			args: args{
				ctx:   context.Background(),
				email: "test@example.com",
			},
			want: &models.User{
				Email:        "test@example.com",
				Username:     "testuser",
				PasswordHash: "hashedpassword",
				Role:         "user",
			},
			wantErr: nil,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := uuid.New().String()
				factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
				return userUID
			},
		},
		{
			name: "get non-existing user",
			args: args{
				ctx:   context.Background(),
				email: "nonexistent@example.com",
			},
			want:    nil,
			wantErr: models.ErrInvalidCredentials,
			setup:   func(_ *testing.T, _ *TestDataFactory) string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			userUID := tt.setup(t, factory)

			got, err := storage.GetUserByEmail(tt.args.ctx, tt.args.email)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, userUID, got.UID)
			assert.Equal(t, tt.want.Email, got.Email)
			assert.Equal(t, tt.want.Username, got.Username)
			assert.Equal(t, tt.want.PasswordHash, got.PasswordHash)
			assert.Equal(t, tt.want.Role, got.Role)
		})
	}
}

func TestStorage_CheckDatabaseReady(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(t *testing.T, storage *Storage)
		wantError    bool
		errorContain string
	}{
		{
			name: "tables exist",
			setup: func(_ *testing.T, _ *Storage) {
				// Таблицы уже создаются в setupTestDatabase
			},
			wantError: false,
		},
		{
			name: "tables missing",
			setup: func(t *testing.T, storage *Storage) {
				_, err := storage.DB.Exec(`DROP TABLE IF EXISTS leases CASCADE`)
				require.NoError(t, err)
				_, err = storage.DB.Exec(`DROP TABLE IF EXISTS cars CASCADE`)
				require.NoError(t, err)
			},
			wantError:    true,
			errorContain: "missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()
			tt.setup(t, storage)

			err := storage.CheckDatabaseReady(context.Background())
			if tt.wantError {
				require.Error(t, err)
				if tt.errorContain != "" {
					assert.Contains(t, err.Error(), tt.errorContain)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}
