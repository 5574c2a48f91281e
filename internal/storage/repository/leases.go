package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/car-rental/internal/models"
)

// CreateLease вставляет новую активную аренду и возвращает её ID.
// Частичный уникальный индекс leases_one_active_per_car пропускает не больше
// одной активной аренды на автомобиль: проигравшая вставка получает
// models.ErrCarAlreadyLeased.
func (s *Storage) CreateLease(ctx context.Context, lease models.Lease) (string, error) {
	const op = "storage.CreateLease"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO leases (car_id, user_uid, started_at, expires_at, price, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		lease.CarID, lease.UserUID, lease.StartedAt, lease.ExpiresAt,
		lease.Price, lease.Status).Scan(&newID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, models.ErrCarAlreadyLeased)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetLease возвращает аренду по её ID.
func (s *Storage) GetLease(ctx context.Context, leaseID string) (*models.Lease, error) {
	const op = "storage.GetLease"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, car_id, user_uid, started_at, expires_at, price, status, returned_at
			  FROM leases WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, leaseID)

	lease, err := scanLease(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lease, nil
}

// MarkLeaseReturned переводит активную аренду в returned и возвращает число
// изменённых строк. Ноль означает, что аренда уже возвращена (или не
// существует) — вызывающие трактуют это как no-op, а не как ошибку,
// чтобы переживать повторные срабатывания планировщика.
func (s *Storage) MarkLeaseReturned(ctx context.Context, leaseID string, returnedAt time.Time) (int, error) {
	const op = "storage.MarkLeaseReturned"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE leases
			  SET status = $1, returned_at = $2
			  WHERE id = $3 AND status = $4`
	result, err := s.DB.ExecContext(ctx, query,
		models.LeaseStatusReturned, returnedAt, leaseID, models.LeaseStatusActive)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// FindActiveLeaseByCar возвращает активную аренду автомобиля, если она есть.
func (s *Storage) FindActiveLeaseByCar(ctx context.Context, carID string) (*models.Lease, error) {
	const op = "storage.FindActiveLeaseByCar"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, car_id, user_uid, started_at, expires_at, price, status, returned_at
			  FROM leases
			  WHERE car_id = $1 AND status = $2`
	row := s.DB.QueryRowContext(ctx, query, carID, models.LeaseStatusActive)

	lease, err := scanLease(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lease, nil
}

// ListActiveLeases возвращает все активные аренды. Используется планировщиком
// для восстановления таймеров после перезапуска процесса.
func (s *Storage) ListActiveLeases(ctx context.Context) ([]*models.Lease, error) {
	const op = "storage.ListActiveLeases"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, car_id, user_uid, started_at, expires_at, price, status, returned_at
			  FROM leases
			  WHERE status = $1
			  ORDER BY expires_at`
	rows, err := s.DB.QueryContext(ctx, query, models.LeaseStatusActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Lease
	for rows.Next() {
		item, err := scanLeaseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListLeasesByUser возвращает историю аренд пользователя с пагинацией.
func (s *Storage) ListLeasesByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Lease, error) {
	const op = "storage.ListLeasesByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, car_id, user_uid, started_at, expires_at, price, status, returned_at
			  FROM leases
			  WHERE user_uid = $1
			  ORDER BY started_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Lease
	for rows.Next() {
		item, err := scanLeaseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanLease(row *sql.Row) (*models.Lease, error) {
	var item models.Lease
	var returnedAt sql.NullTime
	if err := row.Scan(&item.ID, &item.CarID, &item.UserUID, &item.StartedAt,
		&item.ExpiresAt, &item.Price, &item.Status, &returnedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrLeaseNotFound
		}
		return nil, err
	}
	if returnedAt.Valid {
		item.ReturnedAt = &returnedAt.Time
	}
	return &item, nil
}

func scanLeaseRow(rows *sql.Rows) (*models.Lease, error) {
	var item models.Lease
	var returnedAt sql.NullTime
	if err := rows.Scan(&item.ID, &item.CarID, &item.UserUID, &item.StartedAt,
		&item.ExpiresAt, &item.Price, &item.Status, &returnedAt); err != nil {
		return nil, err
	}
	if returnedAt.Valid {
		item.ReturnedAt = &returnedAt.Time
	}
	return &item, nil
}
