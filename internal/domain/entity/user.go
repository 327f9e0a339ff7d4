package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User operador del sistema.
type User struct {
	ID               string
	Username         string
	PasswordHash     string // bcrypt hash, nunca plano en dominio después de persistir
	FirstName        string
	LastName         string
	Phone            string
	Email            string
	Role             string // admin, user
	IsActive         bool
	TwoFactorEnabled bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullName nombre y apellido.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
