// Package models содержит доменные структуры автомобилей, аренд и пользователей,
// а также вспомогательные типы для приёма данных из внешних источников (JSON-запросы).
package models

import "fmt"

// Car представляет единицу арендуемого автопарка.
// Поле Available изменяется только движком аренды (services/rental) —
// оно false тогда и только тогда, когда на автомобиль есть активная аренда.
type Car struct {
	ID         string  // Уникальный идентификатор автомобиля (uuid)
	Make       string  // Марка
	Model      string  // Модель
	Year       int     // Год выпуска
	RatePerDay float64 // Стоимость аренды за сутки
	Available  bool    // Доступен ли автомобиль для аренды
}

// DummyCar используется для приёма данных автомобиля из JSON-запроса,
// прежде чем конвертировать их в Car.
type DummyCar struct {
	Make       string  `json:"make" validate:"required,max=50"`            // Марка
	Model      string  `json:"model" validate:"required,max=50"`           // Модель
	Year       int     `json:"year" validate:"required,gte=1900,lte=2100"` // Год выпуска
	RatePerDay float64 `json:"rate_per_day" validate:"required,gt=0"`      // Цена за сутки (>0)
}

// Description возвращает человеко-читаемое описание автомобиля для уведомлений.
func (c *Car) Description() string {
	return fmt.Sprintf("%s %s (%d)", c.Make, c.Model, c.Year)
}
