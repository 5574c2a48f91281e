// Package rental содержит движок аренды: бронирование, возврат и проверку
// доступности автомобилей. Сквозная инварианта движка — не больше одной
// активной аренды на автомобиль в любой момент времени.
package rental

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/car-rental/internal/lib/period"
	"github.com/magabrotheeeer/car-rental/internal/lib/sl"
	"github.com/magabrotheeeer/car-rental/internal/models"
)

// CarRepository определяет методы движка для работы с автомобилями.
type CarRepository interface {
	// GetCar возвращает автомобиль по ID.
	GetCar(ctx context.Context, carID string) (*models.Car, error)
	// SetCarAvailability выставляет флаг доступности автомобиля.
	SetCarAvailability(ctx context.Context, carID string, available bool) error
}

// LeaseRepository определяет методы движка для работы с арендами.
type LeaseRepository interface {
	// CreateLease сохраняет новую активную аренду и возвращает её ID.
	CreateLease(ctx context.Context, lease models.Lease) (string, error)
	// GetLease возвращает аренду по ID.
	GetLease(ctx context.Context, leaseID string) (*models.Lease, error)
	// MarkLeaseReturned переводит активную аренду в returned,
	// возвращает число изменённых строк.
	MarkLeaseReturned(ctx context.Context, leaseID string, returnedAt time.Time) (int, error)
	// ListLeasesByUser возвращает историю аренд пользователя с пагинацией.
	ListLeasesByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Lease, error)
}

// UserRepository определяет методы движка для работы с пользователями.
type UserRepository interface {
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// ExpiryScheduler принимает аренды на отслеживание срока истечения.
type ExpiryScheduler interface {
	Add(leaseID string, expiresAt time.Time)
}

// Notifier отправляет событие о бронировании в очередь уведомлений.
type Notifier interface {
	PublishBooking(info models.BookingInfo) error
}

// Engine реализует бизнес-логику аренды автомобилей.
type Engine struct {
	cars      CarRepository
	leases    LeaseRepository
	users     UserRepository
	scheduler ExpiryScheduler
	notifier  Notifier
	locks     *carLocks
	log       *slog.Logger
}

// New создает новый экземпляр Engine.
func New(cars CarRepository, leases LeaseRepository, users UserRepository,
	scheduler ExpiryScheduler, notifier Notifier, log *slog.Logger) *Engine {
	return &Engine{
		cars:      cars,
		leases:    leases,
		users:     users,
		scheduler: scheduler,
		notifier:  notifier,
		locks:     newCarLocks(),
		log:       log,
	}
}

// Book бронирует автомобиль на заданное число суток. Проверка доступности
// и создание аренды выполняются под мьютексом автомобиля, поэтому из
// конкурентных бронирований одного автомобиля выигрывает ровно одно,
// остальные получают ErrCarAlreadyLeased. Уведомление публикуется уже
// после освобождения мьютекса и не влияет на результат бронирования.
func (e *Engine) Book(ctx context.Context, ident models.Identity, req models.DummyBooking) (*models.BookingResult, error) {
	lock := e.locks.get(req.CarID)
	lock.Lock()
	car, result, err := e.bookLocked(ctx, ident, req)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	e.notifyBooking(ctx, ident, car, req.RentalDays, result)
	return result, nil
}

func (e *Engine) bookLocked(ctx context.Context, ident models.Identity, req models.DummyBooking) (*models.Car, *models.BookingResult, error) {
	car, err := e.cars.GetCar(ctx, req.CarID)
	if err != nil {
		return nil, nil, err
	}
	if !car.Available {
		return nil, nil, models.ErrCarAlreadyLeased
	}

	now := time.Now().UTC()
	expiresAt := period.Expiry(now, req.RentalDays)
	price := period.Price(car.RatePerDay, time.Duration(req.RentalDays)*period.Day)

	lease := models.Lease{
		CarID:     req.CarID,
		UserUID:   ident.UserUID,
		StartedAt: now,
		ExpiresAt: expiresAt,
		Price:     price,
		Status:    models.LeaseStatusActive,
	}
	leaseID, err := e.leases.CreateLease(ctx, lease)
	if err != nil {
		return nil, nil, err
	}

	if err := e.cars.SetCarAvailability(ctx, req.CarID, false); err != nil {
		// Аренда создана, а флаг не переключился: откатываем аренду,
		// чтобы автомобиль не остался одновременно свободным и занятым.
		if _, rbErr := e.leases.MarkLeaseReturned(ctx, leaseID, now); rbErr != nil {
			e.log.Error("failed to roll back lease", slog.String("lease_id", leaseID), sl.Err(rbErr))
		}
		return nil, nil, err
	}

	e.scheduler.Add(leaseID, expiresAt)
	e.log.Info("booked car",
		slog.String("car_id", req.CarID),
		slog.String("lease_id", leaseID),
		slog.Time("expires_at", expiresAt))

	return car, &models.BookingResult{
		LeaseID:   leaseID,
		Price:     price,
		ExpiresAt: expiresAt,
	}, nil
}

func (e *Engine) notifyBooking(ctx context.Context, ident models.Identity, car *models.Car, rentalDays int, result *models.BookingResult) {
	user, err := e.users.GetUser(ctx, ident.UserUID)
	if err != nil {
		e.log.Warn("failed to load user for notification", sl.Err(err))
		return
	}
	info := models.BookingInfo{
		Email:      user.Email,
		Username:   user.Username,
		CarDetails: car.Description(),
		RentalDays: rentalDays,
		Price:      result.Price,
		ExpiresAt:  result.ExpiresAt,
	}
	if err := e.notifier.PublishBooking(info); err != nil {
		e.log.Warn("failed to publish booking notification", sl.Err(err))
	}
}

// Release завершает аренду и возвращает автомобиль в доступные. Операция
// идемпотентна: повторный вызов для уже возвращённой аренды — no-op.
// Так планировщик и досрочный возврат могут сработать по одной аренде
// в любом порядке без двойного освобождения.
func (e *Engine) Release(ctx context.Context, leaseID string) error {
	lease, err := e.leases.GetLease(ctx, leaseID)
	if err != nil {
		return err
	}

	lock := e.locks.get(lease.CarID)
	lock.Lock()
	defer lock.Unlock()

	affected, err := e.leases.MarkLeaseReturned(ctx, leaseID, time.Now().UTC())
	if err != nil {
		return err
	}
	if affected == 0 {
		e.log.Info("lease already returned", slog.String("lease_id", leaseID))
		return nil
	}

	if err := e.cars.SetCarAvailability(ctx, lease.CarID, true); err != nil {
		return err
	}
	e.log.Info("released car",
		slog.String("car_id", lease.CarID),
		slog.String("lease_id", leaseID))
	return nil
}

// ReturnEarly досрочно завершает аренду. Разрешено самому арендатору
// и администратору, остальным возвращается ErrForbidden.
func (e *Engine) ReturnEarly(ctx context.Context, ident models.Identity, leaseID string) error {
	lease, err := e.leases.GetLease(ctx, leaseID)
	if err != nil {
		return err
	}
	if lease.UserUID != ident.UserUID && !ident.IsAdmin() {
		return models.ErrForbidden
	}
	return e.Release(ctx, leaseID)
}

// CheckAvailability возвращает текущую доступность автомобиля. Это
// снимок на момент чтения: к моменту бронирования он может устареть,
// последнее слово остаётся за Book.
func (e *Engine) CheckAvailability(ctx context.Context, carID string) (bool, error) {
	car, err := e.cars.GetCar(ctx, carID)
	if err != nil {
		return false, err
	}
	return car.Available, nil
}

// ListLeases возвращает историю аренд пользователя с пагинацией.
func (e *Engine) ListLeases(ctx context.Context, ident models.Identity, limit, offset int) ([]*models.Lease, error) {
	return e.leases.ListLeasesByUser(ctx, ident.UserUID, limit, offset)
}
