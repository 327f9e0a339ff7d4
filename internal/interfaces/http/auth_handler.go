package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/FichesVente-api/internal/application/auth"
	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

// AuthHandler maneja login, verificación SMS y sesión actual.
type AuthHandler struct {
	uc  *auth.AuthUseCase
	log *logger.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, log *logger.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, log: log.Component("http_auth")}
}

// Login godoc
// @Summary      Iniciar sesión
// @Description  Devuelve un JWT, o un challenge SMS si el usuario tiene doble factor.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "username, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "username y password son requeridos"})
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// VerifySMS godoc
// @Summary      Verificar código SMS
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.VerifySMSRequest  true  "challenge_id, code"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/auth/verify-sms [post]
func (h *AuthHandler) VerifySMS(c *fiber.Ctx) error {
	var in dto.VerifySMSRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.ChallengeID == "" || in.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "challenge_id y code son requeridos"})
	}
	out, err := h.uc.VerifySMS(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ResendSMS godoc
// @Summary      Reenviar código SMS
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ResendSMSRequest  true  "challenge_id"
// @Success      200   {object}  dto.LoginResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/auth/resend-sms [post]
func (h *AuthHandler) ResendSMS(c *fiber.Ctx) error {
	var in dto.ResendSMSRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.ChallengeID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "challenge_id es requerido"})
	}
	out, err := h.uc.ResendSMS(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Me godoc
// @Summary      Usuario de la sesión
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	out, err := h.uc.Me(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
