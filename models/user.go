package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RolePlayer UserRole = "player"
)

type User struct {
	ID           int       `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Rating       int       `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdminContext - аутентифицированный админ, явно передаётся в операции сервисов
// вместо чтения из request-scoped состояния.
type AdminContext struct {
	ID   int
	Role UserRole
}
