package models

import "errors"

// Доменные ошибки. Обработчики HTTP сопоставляют их со статус-кодами
// через errors.Is; слои хранилища и сервисов возвращают их, оборачивая
// причину через fmt.Errorf("%s: %w", ...).
var (
	// ErrCarNotFound — автомобиль с указанным ID не существует.
	ErrCarNotFound = errors.New("car not found")
	// ErrCarAlreadyLeased — автомобиль уже арендован; легитимный бизнес-исход
	// при конкурентном бронировании, не повторяется автоматически.
	ErrCarAlreadyLeased = errors.New("car already leased")
	// ErrCarInUse — попытка удалить автомобиль с активной арендой.
	ErrCarInUse = errors.New("car has active lease")
	// ErrLeaseNotFound — аренда с указанным ID не существует.
	ErrLeaseNotFound = errors.New("lease not found")
	// ErrUserExists — пользователь с такой почтой уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials — неверная пара почта/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden — у вызывающего нет прав на операцию.
	ErrForbidden = errors.New("forbidden")
)
