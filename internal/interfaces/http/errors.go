package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

// writeError traduce errores de dominio a respuestas HTTP.
// Tres familias: entrada inválida (4xx con detalle), operación no permitida ahora (403/409/423)
// y fallo interno (500, registrado en el log).
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, body := mapError(err)
	switch {
	case body.Code == "INVARIANT_VIOLATION":
		log.Invariant().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("invariante violada")
	case status >= fiber.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
	default:
		log.Debug().Err(err).Str("path", c.Path()).Int("status", status).Msg("petición rechazada")
	}
	return c.Status(status).JSON(body)
}

func mapError(err error) (int, dto.ErrorResponse) {
	var (
		shortfall  *domain.StockShortfallError
		validation *domain.ValidationError
		transition *domain.TransitionError
	)
	switch {
	// CompensationError envuelve su causa (p. ej. un faltante): va antes que cualquier error de entrada.
	case errors.Is(err, domain.ErrInvariantViolation):
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INVARIANT_VIOLATION", Message: "estado interno inconsistente; requiere revisión"}
	case errors.As(err, &shortfall):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "STOCK_SHORTFALL", Message: shortfall.Error(), Details: shortfall.Items}
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Code: "VALIDATION", Message: validation.Error(),
			Details: fiber.Map{"field": validation.Field, "reason": validation.Reason},
		}
	case errors.As(err, &transition):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: transition.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"}
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "STOCK_SHORTFALL", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()}
	case errors.Is(err, domain.ErrSaleLocked):
		return fiber.StatusLocked, dto.ErrorResponse{Code: "SALE_LOCKED", Message: "la venta está validada y no admite cambios"}
	case errors.Is(err, domain.ErrLastAdmin):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "LAST_ADMIN", Message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"}
	case errors.Is(err, domain.ErrCodeExpired):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "CODE_EXPIRED", Message: "el código ha expirado, solicite uno nuevo"}
	case errors.Is(err, domain.ErrCodeInvalid):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "CODE_INVALID", Message: "código incorrecto"}
	case errors.Is(err, domain.ErrTooManyAttempts):
		return fiber.StatusTooManyRequests, dto.ErrorResponse{Code: "TOO_MANY_ATTEMPTS", Message: "demasiados intentos; vuelva a iniciar sesión"}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
