package models

import "time"

// Статусы аренды. Аренда переходит из active в returned ровно один раз —
// либо по срабатыванию планировщика, либо при досрочном возврате.
const (
	LeaseStatusActive   = "active"
	LeaseStatusReturned = "returned"
)

// Lease представляет срочную аренду автомобиля пользователем.
// Записи аренды никогда не удаляются и хранятся как история.
type Lease struct {
	ID         string     // Уникальный идентификатор аренды (uuid)
	CarID      string     // Идентификатор автомобиля
	UserUID    string     // Идентификатор арендатора
	StartedAt  time.Time  // Начало аренды
	ExpiresAt  time.Time  // Момент истечения срока (строго позже StartedAt)
	Price      float64    // Итоговая стоимость: ставка за сутки * число суток
	Status     string     // active или returned
	ReturnedAt *time.Time // Фактический момент возврата, nil для активной аренды
}

// DummyBooking используется для приёма запроса на бронирование из JSON.
// Срок аренды задаётся целым числом суток.
type DummyBooking struct {
	CarID      string `json:"car_id" validate:"required,uuid"`              // Идентификатор автомобиля
	RentalDays int    `json:"rental_days" validate:"required,gt=0,lte=365"` // Срок аренды в сутках
}

// BookingResult возвращается движком аренды при успешном бронировании.
type BookingResult struct {
	LeaseID   string    `json:"lease_id"`
	Price     float64   `json:"price"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BookingInfo — сообщение для очереди уведомлений о новом бронировании.
type BookingInfo struct {
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	CarDetails string    `json:"car_details"`
	RentalDays int       `json:"rental_days"`
	Price      float64   `json:"price"`
	ExpiresAt  time.Time `json:"expires_at"`
}
