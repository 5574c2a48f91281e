package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/car-rental/internal/models"
)

// CreateCar вставляет новый автомобиль и возвращает его ID.
// Новый автомобиль всегда доступен для аренды.
func (s *Storage) CreateCar(ctx context.Context, car models.Car) (string, error) {
	const op = "storage.CreateCar"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO cars (make, model, year, rate_per_day, available)
			  VALUES ($1, $2, $3, $4, true)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		car.Make, car.Model, car.Year, car.RatePerDay).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetCar возвращает данные автомобиля по его ID.
func (s *Storage) GetCar(ctx context.Context, carID string) (*models.Car, error) {
	const op = "storage.GetCar"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, make, model, year, rate_per_day, available
			  FROM cars WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, carID)

	var result models.Car
	if err := row.Scan(&result.ID, &result.Make, &result.Model, &result.Year,
		&result.RatePerDay, &result.Available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrCarNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListAvailableCars возвращает доступные автомобили в порядке добавления в каталог.
func (s *Storage) ListAvailableCars(ctx context.Context) ([]*models.Car, error) {
	const op = "storage.ListAvailableCars"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, make, model, year, rate_per_day, available
			  FROM cars
			  WHERE available = true
			  ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Car
	for rows.Next() {
		var item models.Car
		if err := rows.Scan(&item.ID, &item.Make, &item.Model, &item.Year,
			&item.RatePerDay, &item.Available); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateCar обновляет описание и ставку автомобиля по его ID.
func (s *Storage) UpdateCar(ctx context.Context, carID string, req models.DummyCar) error {
	const op = "storage.UpdateCar"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE cars
			  SET make = $1, model = $2, year = $3, rate_per_day = $4
			  WHERE id = $5`
	result, err := s.DB.ExecContext(ctx, query,
		req.Make, req.Model, req.Year, req.RatePerDay, carID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrCarNotFound)
	}
	return nil
}

// DeleteCar удаляет автомобиль. Удаление отклоняется, пока на автомобиль
// есть активная аренда — защита выражена в самом операторе DELETE.
func (s *Storage) DeleteCar(ctx context.Context, carID string) error {
	const op = "storage.DeleteCar"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM cars
			  WHERE id = $1
			    AND NOT EXISTS (
			      SELECT 1 FROM leases
			      WHERE leases.car_id = cars.id AND leases.status = 'active'
			    )`
	result, err := s.DB.ExecContext(ctx, query, carID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		var exists bool
		if err := s.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM cars WHERE id = $1)`, carID).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if exists {
			return fmt.Errorf("%s: %w", op, models.ErrCarInUse)
		}
		return fmt.Errorf("%s: %w", op, models.ErrCarNotFound)
	}
	return nil
}

// SetCarAvailability выставляет флаг доступности. Идемпотентна; вызывается
// только движком аренды под пер-автомобильной блокировкой.
func (s *Storage) SetCarAvailability(ctx context.Context, carID string, available bool) error {
	const op = "storage.SetCarAvailability"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE cars
			  SET available = $1
			  WHERE id = $2`
	result, err := s.DB.ExecContext(ctx, query, available, carID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrCarNotFound)
	}
	return nil
}
