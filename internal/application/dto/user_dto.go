package dto

import "time"

// CreateUserRequest entrada para crear un operador (password en texto, se hashea en use case).
type CreateUserRequest struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	Role             string `json:"role"` // admin | user
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
}

// UpdateUserRequest campos opcionales; nil = sin cambio. Password no vacío se vuelve a hashear.
type UpdateUserRequest struct {
	Username  *string `json:"username,omitempty"`
	Password  *string `json:"password,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Role      *string `json:"role,omitempty"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	IsActive         bool      `json:"is_active"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse token JWT o, si el usuario tiene 2FA, el desafío SMS pendiente.
type LoginResponse struct {
	Token       string        `json:"token,omitempty"`
	User        *UserResponse `json:"user,omitempty"`
	RequiresSMS bool          `json:"requires_sms"`
	ChallengeID string        `json:"challenge_id,omitempty"`
	PhoneHint   string        `json:"phone_hint,omitempty"` // últimos dígitos del teléfono
	ExpiresIn   int           `json:"expires_in,omitempty"` // segundos de validez del código
}

// VerifySMSRequest código recibido por SMS.
type VerifySMSRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

// ResendSMSRequest reenvío de código.
type ResendSMSRequest struct {
	ChallengeID string `json:"challenge_id"`
}
