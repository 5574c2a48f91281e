package models

import "time"

// Роли пользователей. Роль admin открывает операции управления автопарком.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта (уникальная)
	Username     string    // Имя пользователя
	PasswordHash string    // Хэш пароля пользователя
	Role         string    // Роль пользователя, admin или user
	CreatedAt    time.Time // Дата регистрации
}

// Identity — проверенная личность вызывающего в рамках одного запроса.
// Формируется из JWT и не сохраняется в хранилище.
type Identity struct {
	Username string
	Role     string
	UserUID  string
}

// IsAdmin сообщает, обладает ли вызывающий правами администратора.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
