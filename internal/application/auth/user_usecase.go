package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// UserUseCase gestión de operadores (solo administradores).
type UserUseCase struct {
	repo repository.UserRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository, log *logger.Logger) *UserUseCase {
	return &UserUseCase{repo: repo, log: log.Component("users"), now: time.Now}
}

// List todos los usuarios en orden de creación.
func (uc *UserUseCase) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, *toUserResponse(u))
	}
	return out, nil
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	u, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(u), nil
}

// Create valida, hashea el password con bcrypt y persiste. Username duplicado -> ErrDuplicate.
func (uc *UserUseCase) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Role == "" {
		in.Role = entity.RoleUser
	}
	if err := validateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validateRole(in.Role); err != nil {
		return nil, err
	}
	if in.TwoFactorEnabled && strings.TrimSpace(in.Phone) == "" {
		return nil, domain.NewValidationError("phone", "obligatorio con verificación SMS")
	}
	existing, err := uc.repo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	user := &entity.User{
		ID:               uuid.New().String(),
		Username:         in.Username,
		PasswordHash:     string(hash),
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		Phone:            strings.TrimSpace(in.Phone),
		Email:            in.Email,
		Role:             in.Role,
		IsActive:         true,
		TwoFactorEnabled: in.TwoFactorEnabled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info().Str("user", user.Username).Str("role", user.Role).Msg("usuario creado")
	return toUserResponse(user), nil
}

// Update aplica los campos presentes. Quitar el rol admin al último admin activo -> ErrLastAdmin.
func (uc *UserUseCase) Update(ctx context.Context, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	u, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if err := validateUsername(name); err != nil {
			return nil, err
		}
		other, err := uc.repo.GetByUsername(ctx, name)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != u.ID {
			return nil, domain.ErrDuplicate
		}
		u.Username = name
	}
	if in.Password != nil && *in.Password != "" {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		u.Email = email
	}
	if in.Role != nil && *in.Role != u.Role {
		if err := validateRole(*in.Role); err != nil {
			return nil, err
		}
		if u.Role == entity.RoleAdmin && u.IsActive {
			if err := uc.ensureAnotherActiveAdmin(ctx, u.ID); err != nil {
				return nil, err
			}
		}
		u.Role = *in.Role
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
		if u.TwoFactorEnabled && u.Phone == "" {
			return nil, domain.NewValidationError("phone", "obligatorio con verificación SMS")
		}
	}
	u.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return toUserResponse(u), nil
}

// Delete elimina un usuario. Borrar el último admin -> ErrLastAdmin.
func (uc *UserUseCase) Delete(ctx context.Context, id string) error {
	u, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == entity.RoleAdmin {
		admins, err := uc.countAdmins(ctx, u.ID, false)
		if err != nil {
			return err
		}
		if admins == 0 {
			return domain.ErrLastAdmin
		}
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info().Str("user", u.Username).Msg("usuario eliminado")
	return nil
}

// ToggleActive activa/desactiva. Desactivar el último admin activo -> ErrLastAdmin.
func (uc *UserUseCase) ToggleActive(ctx context.Context, id string) (*dto.UserResponse, error) {
	u, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsActive && u.Role == entity.RoleAdmin {
		if err := uc.ensureAnotherActiveAdmin(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	u.IsActive = !u.IsActive
	u.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return toUserResponse(u), nil
}

// ToggleTwoFactor activa/desactiva la verificación SMS; activarla exige teléfono.
func (uc *UserUseCase) ToggleTwoFactor(ctx context.Context, id string) (*dto.UserResponse, error) {
	u, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.TwoFactorEnabled && strings.TrimSpace(u.Phone) == "" {
		return nil, domain.NewValidationError("phone", "obligatorio con verificación SMS")
	}
	u.TwoFactorEnabled = !u.TwoFactorEnabled
	u.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return toUserResponse(u), nil
}

// Bootstrap crea el administrador inicial si no hay ningún usuario. Devuelve true si lo creó.
func (uc *UserUseCase) Bootstrap(ctx context.Context, in dto.CreateUserRequest) (bool, error) {
	users, err := uc.repo.List(ctx)
	if err != nil {
		return false, err
	}
	if len(users) > 0 {
		return false, nil
	}
	in.Role = entity.RoleAdmin
	if in.FirstName == "" {
		in.FirstName = "Administrateur"
	}
	if _, err := uc.Create(ctx, in); err != nil {
		return false, err
	}
	uc.log.Warn().Str("user", in.Username).Msg("administrador inicial creado")
	return true, nil
}

func (uc *UserUseCase) load(ctx context.Context, id string) (*entity.User, error) {
	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (uc *UserUseCase) ensureAnotherActiveAdmin(ctx context.Context, excludeID string) error {
	n, err := uc.countAdmins(ctx, excludeID, true)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrLastAdmin
	}
	return nil
}

// countAdmins admins distintos de excludeID; activeOnly filtra los desactivados.
func (uc *UserUseCase) countAdmins(ctx context.Context, excludeID string, activeOnly bool) (int, error) {
	users, err := uc.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, u := range users {
		if u.ID == excludeID || u.Role != entity.RoleAdmin {
			continue
		}
		if activeOnly && !u.IsActive {
			continue
		}
		n++
	}
	return n, nil
}

func validateUsername(s string) error {
	if len([]rune(s)) < minUsernameLen {
		return domain.NewValidationError("username", "mínimo 3 caracteres")
	}
	return nil
}

func validatePassword(s string) error {
	if len(s) < minPasswordLen {
		return domain.NewValidationError("password", "mínimo 6 caracteres")
	}
	return nil
}

func validateEmail(s string) error {
	if !strings.Contains(s, "@") {
		return domain.NewValidationError("email", "formato inválido")
	}
	return nil
}

func validateRole(r string) error {
	if r != entity.RoleAdmin && r != entity.RoleUser {
		return domain.NewValidationError("role", "debe ser admin o user")
	}
	return nil
}
