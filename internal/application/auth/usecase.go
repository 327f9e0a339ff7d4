package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/pkg/jwt"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// SMSConfig parámetros del segundo factor.
type SMSConfig struct {
	CodeTTL     time.Duration
	MaxAttempts int
}

// AuthUseCase casos de uso de autenticación: login y verificación SMS.
type AuthUseCase struct {
	userRepo   repository.UserRepository
	sender     SMSSender
	jwtCfg     JWTConfig
	challenges *challengeStore
	log        *logger.Logger
	now        func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, sender SMSSender, jwtCfg JWTConfig, smsCfg SMSConfig, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		userRepo:   userRepo,
		sender:     sender,
		jwtCfg:     jwtCfg,
		challenges: newChallengeStore(smsCfg.CodeTTL, smsCfg.MaxAttempts),
		log:        log.Component("auth"),
		now:        time.Now,
	}
}

// WithClock reemplaza el reloj (tests de expiración).
func (uc *AuthUseCase) WithClock(now func() time.Time) *AuthUseCase {
	uc.now = now
	return uc
}

// Login verifica usuario/password. Con 2FA activo devuelve el desafío SMS en lugar del token.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		// mismo error que password incorrecto
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, domain.ErrForbidden
	}
	if user.TwoFactorEnabled {
		return uc.startChallenge(ctx, user)
	}
	return uc.issueToken(user)
}

func (uc *AuthUseCase) startChallenge(ctx context.Context, user *entity.User) (*dto.LoginResponse, error) {
	if strings.TrimSpace(user.Phone) == "" {
		return nil, domain.NewValidationError("phone", "el usuario tiene 2FA sin teléfono registrado")
	}
	id, code, err := uc.challenges.open(user.ID, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.sendCode(ctx, user.Phone, code); err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		RequiresSMS: true,
		ChallengeID: id,
		PhoneHint:   phoneHint(user.Phone),
		ExpiresIn:   int(uc.challenges.ttl / time.Second),
	}, nil
}

// VerifySMS valida el código y emite el token; el desafío se consume.
func (uc *AuthUseCase) VerifySMS(ctx context.Context, in dto.VerifySMSRequest) (*dto.LoginResponse, error) {
	userID, err := uc.challenges.verify(in.ChallengeID, strings.TrimSpace(in.Code), uc.now())
	if err != nil {
		if errors.Is(err, domain.ErrTooManyAttempts) {
			uc.log.Warn().Str("challenge_id", in.ChallengeID).Msg("desafío SMS bloqueado")
		}
		return nil, err
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, domain.ErrForbidden
	}
	return uc.issueToken(user)
}

// ResendSMS emite un código nuevo para el mismo desafío.
func (uc *AuthUseCase) ResendSMS(ctx context.Context, in dto.ResendSMSRequest) (*dto.LoginResponse, error) {
	userID, code, err := uc.challenges.renew(in.ChallengeID, uc.now())
	if err != nil {
		return nil, err
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := uc.sendCode(ctx, user.Phone, code); err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		RequiresSMS: true,
		ChallengeID: in.ChallengeID,
		PhoneHint:   phoneHint(user.Phone),
		ExpiresIn:   int(uc.challenges.ttl / time.Second),
	}, nil
}

// Me devuelve el usuario autenticado.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return toUserResponse(user), nil
}

func (uc *AuthUseCase) sendCode(ctx context.Context, phone, code string) error {
	msg := fmt.Sprintf("Votre code de vérification : %s", code)
	if err := uc.sender.Send(ctx, phone, msg); err != nil {
		return fmt.Errorf("auth: enviar SMS: %w", err)
	}
	return nil
}

func (uc *AuthUseCase) issueToken(user *entity.User) (*dto.LoginResponse, error) {
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Username, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("user", user.Username).Msg("sesión iniciada")
	return &dto.LoginResponse{Token: token, User: toUserResponse(user)}, nil
}

func phoneHint(phone string) string {
	p := strings.TrimSpace(phone)
	if len(p) <= 4 {
		return p
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:               u.ID,
		Username:         u.Username,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Phone:            u.Phone,
		Email:            u.Email,
		Role:             u.Role,
		IsActive:         u.IsActive,
		TwoFactorEnabled: u.TwoFactorEnabled,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
